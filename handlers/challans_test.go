package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/echallan/backend/classifier"
	"github.com/echallan/backend/lifecycle"
	"github.com/echallan/backend/models"
)

// testRouter wires the lifecycle routes over an in-memory store, with a stub
// auth middleware standing in for JWT verification.
func testRouter(t *testing.T) (*gin.Engine, *lifecycle.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := lifecycle.NewMemoryStore()
	SetLifecycle(lifecycle.New(store, nil))

	asUser := func(c *gin.Context) {
		c.Set("user_id", uint(1))
		c.Set("role", "admin")
		c.Next()
	}

	router := gin.New()
	router.POST("/api/challan", IssueChallan)
	router.POST("/api/payment", asUser, CreatePayment)
	router.PUT("/api/payment/:id/confirm", asUser, ConfirmPayment)
	router.POST("/api/appeal", asUser, CreateAppeal)
	router.PUT("/api/appeal/:id/review", asUser, ReviewAppeal)
	router.POST("/predict", Predict)
	return router, store
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON response %q: %v", w.Body.String(), err)
	}
	return out
}

func TestIssueChallanEndpoint(t *testing.T) {
	router, store := testRouter(t)
	cam := store.AddCamera(models.Camera{Address: "Mall Road, Lahore", Status: models.CameraActive})

	w := doJSON(t, router, http.MethodPost, "/api/challan", gin.H{
		"vehicle":   "LEC-1234",
		"camera_id": cam.ID,
		"amount":    500,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["ok"] != true {
		t.Errorf("ok = %v", body["ok"])
	}
	if _, has := body["challan_id"]; !has {
		t.Error("response missing challan_id")
	}
}

func TestIssueChallanEndpointMissingCamera(t *testing.T) {
	router, _ := testRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/challan", gin.H{
		"vehicle":   "LEC-1234",
		"camera_id": 999,
		"amount":    500,
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if body := decode(t, w); body["detail"] != "Camera not found" {
		t.Errorf("detail = %v", body["detail"])
	}
}

func TestIssueChallanEndpointBadBody(t *testing.T) {
	router, _ := testRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/challan", gin.H{"vehicle": "LEC-1"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if body := decode(t, w); body["error"] == nil {
		t.Error("binding failure should use the error key")
	}
}

func TestPaymentEndpoints(t *testing.T) {
	router, store := testRouter(t)
	cam := store.AddCamera(models.Camera{Status: models.CameraActive})

	issue := doJSON(t, router, http.MethodPost, "/api/challan", gin.H{
		"vehicle":   "LEC-1234",
		"camera_id": cam.ID,
		"amount":    500,
	})
	challanID := decode(t, issue)["challan_id"].(float64)

	w := doJSON(t, router, http.MethodPost, "/api/payment", gin.H{
		"challan_id":     challanID,
		"payment_method": "card",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("create payment status = %d, body = %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["success"] != true {
		t.Errorf("success = %v", body["success"])
	}
	payment := body["payment"].(map[string]interface{})
	if payment["status"] != "pending" {
		t.Errorf("payment status = %v", payment["status"])
	}
	paymentID := payment["id"].(float64)

	w = doJSON(t, router, http.MethodPut,
		fmt.Sprintf("/api/payment/%.0f/confirm", paymentID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("confirm status = %d, body = %s", w.Code, w.Body.String())
	}
	confirmed := decode(t, w)["payment"].(map[string]interface{})
	if confirmed["status"] != "completed" {
		t.Errorf("confirmed status = %v", confirmed["status"])
	}

	// A second payment against the now-paid challan is a domain conflict
	w = doJSON(t, router, http.MethodPost, "/api/payment", gin.H{
		"challan_id":     challanID,
		"payment_method": "card",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if body := decode(t, w); body["detail"] != "Challan already paid" {
		t.Errorf("detail = %v", body["detail"])
	}
}

func TestAppealEndpoints(t *testing.T) {
	router, store := testRouter(t)
	cam := store.AddCamera(models.Camera{Status: models.CameraActive})
	store.AddUser(models.User{Username: "admin", Role: "admin"})

	issue := doJSON(t, router, http.MethodPost, "/api/challan", gin.H{
		"vehicle":   "LEC-1234",
		"camera_id": cam.ID,
		"amount":    500,
	})
	challanID := decode(t, issue)["challan_id"].(float64)

	w := doJSON(t, router, http.MethodPost, "/api/appeal", gin.H{
		"challan_id": challanID,
		"reason":     "wrong vehicle",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("create appeal status = %d, body = %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["success"] != true {
		t.Errorf("success = %v", body["success"])
	}
	appealID := body["appeal_id"].(float64)

	// Duplicate appeal
	w = doJSON(t, router, http.MethodPost, "/api/appeal", gin.H{
		"challan_id": challanID,
		"reason":     "again",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("duplicate status = %d, want 400", w.Code)
	}
	if body := decode(t, w); body["detail"] != "Appeal already submitted" {
		t.Errorf("detail = %v", body["detail"])
	}

	// Review
	approved := true
	w = doJSON(t, router, http.MethodPut,
		fmt.Sprintf("/api/appeal/%.0f/review", appealID), gin.H{
			"approved": approved,
		})
	if w.Code != http.StatusOK {
		t.Fatalf("review status = %d, body = %s", w.Code, w.Body.String())
	}
	reviewed := decode(t, w)["appeal"].(map[string]interface{})
	if reviewed["status"] != "approved" {
		t.Errorf("appeal status = %v", reviewed["status"])
	}

	// Re-review
	w = doJSON(t, router, http.MethodPut,
		fmt.Sprintf("/api/appeal/%.0f/review", appealID), gin.H{
			"approved": false,
		})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("re-review status = %d, want 400", w.Code)
	}
}

func TestPredictEndpointDummyModel(t *testing.T) {
	router, _ := testRouter(t)
	t.Setenv("MODEL_LABELS_PATH", "")
	SetClassifier(classifier.NewService(nil))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "evidence.jpg")
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte("jpeg-bytes"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/predict", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if body := decode(t, w); body["prediction"] != classifier.DummyPrediction {
		t.Errorf("prediction = %v, want the dummy sentinel", body["prediction"])
	}
}
