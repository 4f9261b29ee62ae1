// Package classifier labels challan evidence images. Inference runs in a
// separate worker process reached over NATS request/reply; this package loads
// the label vocabulary, frames the request and maps the reply to a label.
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

// DummyPrediction is returned whenever the model is unavailable, so callers
// always get a prediction string. Clients key off this exact text.
const DummyPrediction = "Model not loaded (Dummy Prediction)"

// Subject is the request/reply subject the inference worker listens on.
const Subject = "inference.classify"

const requestTimeout = 10 * time.Second

// Classifier labels an evidence image.
type Classifier interface {
	Classify(ctx context.Context, image []byte) (string, error)
}

// Requester is the slice of the NATS connection the service needs.
type Requester interface {
	Request(subject string, data []byte, timeout time.Duration) (*nats.Msg, error)
}

// reply is the inference worker's answer: the winning class index and its
// confidence score.
type reply struct {
	Index      int     `json:"index"`
	Confidence float64 `json:"confidence"`
}

// Service is the production classifier. Construct with NewService; a service
// whose labels failed to load still works, answering DummyPrediction.
type Service struct {
	rc      Requester
	labels  []string
	initErr error
}

// NewService loads the label vocabulary from MODEL_LABELS_PATH and binds the
// inference subject. Initialization failure is recorded, not fatal: the
// service degrades to dummy predictions and InitError explains why.
func NewService(rc Requester) *Service {
	s := &Service{rc: rc}

	path := os.Getenv("MODEL_LABELS_PATH")
	if path == "" {
		s.initErr = fmt.Errorf("MODEL_LABELS_PATH not set")
		log.Println("⚠️ Classifier disabled: MODEL_LABELS_PATH not set")
		return s
	}
	labels, err := loadLabels(path)
	if err != nil {
		s.initErr = err
		log.Printf("⚠️ Classifier disabled: %v", err)
		return s
	}
	s.labels = labels
	log.Printf("✅ Classifier ready with %d labels", len(labels))
	return s
}

// loadLabels reads one label per line, stripping the numeric index prefix
// that model export tools write ("0 Accident" -> "Accident").
func loadLabels(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read labels file: %w", err)
	}
	var labels []string
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if fields := strings.SplitN(line, " ", 2); len(fields) == 2 {
			if _, isIndex := atoi(fields[0]); isIndex {
				line = fields[1]
			}
		}
		labels = append(labels, line)
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("labels file %s is empty", path)
	}
	return labels, nil
}

func atoi(s string) (int, bool) {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, s != ""
}

// Ready reports whether real predictions are possible.
func (s *Service) Ready() bool {
	return s.initErr == nil && s.rc != nil
}

// InitError returns the reason the service is degraded, or nil.
func (s *Service) InitError() error {
	return s.initErr
}

// Labels returns the loaded vocabulary.
func (s *Service) Labels() []string {
	return s.labels
}

// Classify sends the image to the inference worker and maps the reply to a
// label. A degraded service answers DummyPrediction without error; a worker
// failure (timeout, bad reply) is an error.
func (s *Service) Classify(ctx context.Context, image []byte) (string, error) {
	if !s.Ready() {
		return DummyPrediction, nil
	}

	timeout := requestTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	msg, err := s.rc.Request(Subject, image, timeout)
	if err != nil {
		return "", fmt.Errorf("inference request: %w", err)
	}

	var r reply
	if err := json.Unmarshal(msg.Data, &r); err != nil {
		return "", fmt.Errorf("decode inference reply: %w", err)
	}
	if r.Index < 0 || r.Index >= len(s.labels) {
		return "", fmt.Errorf("inference returned class %d outside %d labels", r.Index, len(s.labels))
	}
	return s.labels[r.Index], nil
}
