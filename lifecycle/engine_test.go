package lifecycle

import (
	"context"
	"testing"

	"github.com/echallan/backend/models"
	"github.com/echallan/backend/notify"
)

// recorderNotifier captures every message and answers with a scripted
// result per channel.
type recorderNotifier struct {
	sent []notify.Message
	fail map[notify.Channel]bool
}

func (r *recorderNotifier) Notify(_ context.Context, msg notify.Message) bool {
	r.sent = append(r.sent, msg)
	if r.fail != nil && r.fail[msg.Channel] {
		return false
	}
	return true
}

func newTestEngine() (*Engine, *MemoryStore, *recorderNotifier) {
	store := NewMemoryStore()
	rec := &recorderNotifier{}
	return New(store, rec), store, rec
}

func seedCamera(store *MemoryStore) models.Camera {
	return store.AddCamera(models.Camera{
		Lat:        31.5204,
		Lng:        74.3587,
		Address:    "Mall Road, Lahore",
		Status:     models.CameraActive,
		SpeedLimit: 60,
	})
}

func TestIssueChallan(t *testing.T) {
	t.Run("creates unpaid challan and increments camera count", func(t *testing.T) {
		engine, store, _ := newTestEngine()
		cam := seedCamera(store)

		challan, _, err := engine.IssueChallan(context.Background(), IssueRequest{
			Vehicle:  "LEC-1234",
			CameraID: cam.ID,
			Amount:   500,
		})
		if err != nil {
			t.Fatalf("IssueChallan returned error: %v", err)
		}
		if challan.ID == 0 {
			t.Error("expected an assigned challan id")
		}
		if challan.Status != models.ChallanUnpaid {
			t.Errorf("status = %q, want %q", challan.Status, models.ChallanUnpaid)
		}
		got, _ := store.GetCamera(cam.ID)
		if got.TotalViolations != 1 {
			t.Errorf("camera violation count = %d, want 1", got.TotalViolations)
		}
	})

	t.Run("missing camera persists nothing", func(t *testing.T) {
		engine, store, _ := newTestEngine()

		_, _, err := engine.IssueChallan(context.Background(), IssueRequest{
			Vehicle:  "LEC-1234",
			CameraID: 999,
			Amount:   500,
		})
		if !IsNotFound(err) {
			t.Fatalf("expected not-found error, got %v", err)
		}
		if len(store.challans) != 0 {
			t.Errorf("expected no challan rows, found %d", len(store.challans))
		}
	})

	t.Run("input validation", func(t *testing.T) {
		engine, store, _ := newTestEngine()
		cam := seedCamera(store)

		cases := []struct {
			name string
			req  IssueRequest
		}{
			{"zero amount", IssueRequest{Vehicle: "LEC-1", CameraID: cam.ID, Amount: 0}},
			{"negative amount", IssueRequest{Vehicle: "LEC-1", CameraID: cam.ID, Amount: -50}},
			{"empty vehicle", IssueRequest{Vehicle: "", CameraID: cam.ID, Amount: 100}},
		}
		for _, c := range cases {
			t.Run(c.name, func(t *testing.T) {
				_, _, err := engine.IssueChallan(context.Background(), c.req)
				if !IsInvalid(err) {
					t.Errorf("expected validation error, got %v", err)
				}
			})
		}
	})
}

func TestIssueChallanFanOut(t *testing.T) {
	t.Run("notifies every token plus owner email and sms", func(t *testing.T) {
		engine, store, rec := newTestEngine()
		cam := seedCamera(store)
		phone := "03001234567"
		user := store.AddUser(models.User{Username: "hanzla", Email: "hanzla@example.com", Phone: &phone})
		store.AddDeviceToken(models.DeviceToken{FCMToken: "tok-1"})
		store.AddDeviceToken(models.DeviceToken{FCMToken: "tok-2"})

		_, report, err := engine.IssueChallan(context.Background(), IssueRequest{
			Vehicle:  "LEC-1234",
			CameraID: cam.ID,
			Amount:   500,
			UserID:   &user.ID,
		})
		if err != nil {
			t.Fatalf("IssueChallan returned error: %v", err)
		}
		if len(report.Outcomes) != 4 {
			t.Fatalf("fan-out attempts = %d, want 4 (2 push + email + sms)", len(report.Outcomes))
		}
		byChannel := map[notify.Channel]int{}
		for _, o := range report.Outcomes {
			byChannel[o.Channel]++
		}
		if byChannel[notify.ChannelPush] != 2 || byChannel[notify.ChannelEmail] != 1 || byChannel[notify.ChannelSMS] != 1 {
			t.Errorf("fan-out by channel = %v", byChannel)
		}
		if len(rec.sent) != 4 {
			t.Errorf("notifier received %d messages, want 4", len(rec.sent))
		}
	})

	t.Run("delivery failures never fail issuance", func(t *testing.T) {
		engine, store, rec := newTestEngine()
		rec.fail = map[notify.Channel]bool{
			notify.ChannelPush:  true,
			notify.ChannelEmail: true,
			notify.ChannelSMS:   true,
		}
		cam := seedCamera(store)
		phone := "03001234567"
		user := store.AddUser(models.User{Username: "hanzla", Email: "hanzla@example.com", Phone: &phone})
		store.AddDeviceToken(models.DeviceToken{FCMToken: "tok-1"})

		challan, report, err := engine.IssueChallan(context.Background(), IssueRequest{
			Vehicle:  "LEC-1234",
			CameraID: cam.ID,
			Amount:   500,
			UserID:   &user.ID,
		})
		if err != nil {
			t.Fatalf("issuance failed on notification errors: %v", err)
		}
		if challan == nil || challan.ID == 0 {
			t.Fatal("expected a persisted challan despite failed deliveries")
		}
		if report.Failed() != 3 || report.Delivered() != 0 {
			t.Errorf("report delivered/failed = %d/%d, want 0/3", report.Delivered(), report.Failed())
		}
	})

	t.Run("no email or sms without a known user", func(t *testing.T) {
		engine, store, rec := newTestEngine()
		cam := seedCamera(store)
		store.AddDeviceToken(models.DeviceToken{FCMToken: "tok-1"})

		_, report, err := engine.IssueChallan(context.Background(), IssueRequest{
			Vehicle:  "LEC-1234",
			CameraID: cam.ID,
			Amount:   500,
		})
		if err != nil {
			t.Fatalf("IssueChallan returned error: %v", err)
		}
		if len(report.Outcomes) != 1 {
			t.Errorf("fan-out attempts = %d, want 1 (push only)", len(report.Outcomes))
		}
		for _, m := range rec.sent {
			if m.Channel != notify.ChannelPush {
				t.Errorf("unexpected %s message to %s", m.Channel, m.Recipient)
			}
		}
	})
}

func TestPaymentFlow(t *testing.T) {
	issue := func(t *testing.T, engine *Engine, store *MemoryStore) *models.Challan {
		t.Helper()
		cam := seedCamera(store)
		challan, _, err := engine.IssueChallan(context.Background(), IssueRequest{
			Vehicle:  "LEC-1234",
			CameraID: cam.ID,
			Amount:   500,
		})
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		return challan
	}

	t.Run("create then confirm marks challan paid", func(t *testing.T) {
		engine, store, _ := newTestEngine()
		challan := issue(t, engine, store)

		payment, err := engine.CreatePayment(challan.ID, 0, "credit_card", nil)
		if err != nil {
			t.Fatalf("CreatePayment: %v", err)
		}
		if payment.Status != models.PaymentPending {
			t.Errorf("payment status = %q, want pending", payment.Status)
		}
		if payment.Amount != challan.Amount {
			t.Errorf("payment amount = %v, want %v (copied from challan)", payment.Amount, challan.Amount)
		}

		confirmed, err := engine.ConfirmPayment(payment.ID)
		if err != nil {
			t.Fatalf("ConfirmPayment: %v", err)
		}
		if confirmed.Status != models.PaymentCompleted || confirmed.CompletedAt == nil {
			t.Errorf("confirmed payment = %+v, want completed with timestamp", confirmed)
		}

		got, _ := store.GetChallan(challan.ID)
		if got.Status != models.ChallanPaid || got.PaidAt == nil {
			t.Errorf("challan after confirm = status %q paid_at %v", got.Status, got.PaidAt)
		}
	})

	t.Run("paid challan rejects new payments", func(t *testing.T) {
		engine, store, _ := newTestEngine()
		challan := issue(t, engine, store)
		payment, _ := engine.CreatePayment(challan.ID, 0, "credit_card", nil)
		if _, err := engine.ConfirmPayment(payment.ID); err != nil {
			t.Fatalf("ConfirmPayment: %v", err)
		}

		_, err := engine.CreatePayment(challan.ID, 0, "bank_transfer", nil)
		if !IsConflict(err) {
			t.Fatalf("expected conflict, got %v", err)
		}
	})

	t.Run("second pending payment cannot complete after the first", func(t *testing.T) {
		engine, store, _ := newTestEngine()
		challan := issue(t, engine, store)
		// Pending duplicates are allowed; only completion is fenced.
		first, _ := engine.CreatePayment(challan.ID, 0, "credit_card", nil)
		second, err := engine.CreatePayment(challan.ID, 0, "easypay", nil)
		if err != nil {
			t.Fatalf("duplicate pending payment rejected: %v", err)
		}
		if _, err := engine.ConfirmPayment(first.ID); err != nil {
			t.Fatalf("ConfirmPayment(first): %v", err)
		}
		if _, err := engine.ConfirmPayment(second.ID); !IsConflict(err) {
			t.Fatalf("expected conflict confirming second payment, got %v", err)
		}
		if _, err := engine.ConfirmPayment(first.ID); !IsConflict(err) {
			t.Fatalf("expected conflict re-confirming, got %v", err)
		}
	})

	t.Run("missing payment", func(t *testing.T) {
		engine, _, _ := newTestEngine()
		if _, err := engine.ConfirmPayment(404); !IsNotFound(err) {
			t.Fatalf("expected not-found, got %v", err)
		}
	})

	t.Run("orphaned payment still completes", func(t *testing.T) {
		engine, store, _ := newTestEngine()
		challan := issue(t, engine, store)
		payment, _ := engine.CreatePayment(challan.ID, 0, "credit_card", nil)
		store.DeleteChallan(challan.ID)

		confirmed, err := engine.ConfirmPayment(payment.ID)
		if err != nil {
			t.Fatalf("ConfirmPayment with missing challan: %v", err)
		}
		if confirmed.Status != models.PaymentCompleted {
			t.Errorf("payment status = %q, want completed", confirmed.Status)
		}
	})
}

func TestAppealFlow(t *testing.T) {
	setup := func(t *testing.T) (*Engine, *MemoryStore, *models.Challan, models.User) {
		t.Helper()
		engine, store, _ := newTestEngine()
		cam := seedCamera(store)
		user := store.AddUser(models.User{Username: "hanzla", Email: "hanzla@example.com"})
		challan, _, err := engine.IssueChallan(context.Background(), IssueRequest{
			Vehicle:  "LEC-1234",
			CameraID: cam.ID,
			Amount:   500,
		})
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		return engine, store, challan, user
	}

	t.Run("create moves challan to appealed", func(t *testing.T) {
		engine, store, challan, user := setup(t)
		appeal, err := engine.CreateAppeal(challan.ID, user.ID, "wrong vehicle")
		if err != nil {
			t.Fatalf("CreateAppeal: %v", err)
		}
		if appeal.Status != models.AppealPending {
			t.Errorf("appeal status = %q, want pending", appeal.Status)
		}
		got, _ := store.GetChallan(challan.ID)
		if got.Status != models.ChallanAppealed {
			t.Errorf("challan status = %q, want appealed", got.Status)
		}
	})

	t.Run("second appeal rejected regardless of status", func(t *testing.T) {
		engine, _, challan, user := setup(t)
		appeal, _ := engine.CreateAppeal(challan.ID, user.ID, "wrong vehicle")
		if _, err := engine.CreateAppeal(challan.ID, user.ID, "again"); !IsConflict(err) {
			t.Fatalf("expected conflict, got %v", err)
		}
		// Resolve it; the slot stays taken.
		if _, err := engine.ReviewAppeal(appeal.ID, false, nil); err != nil {
			t.Fatalf("ReviewAppeal: %v", err)
		}
		if _, err := engine.CreateAppeal(challan.ID, user.ID, "after rejection"); !IsConflict(err) {
			t.Fatalf("expected conflict after resolution, got %v", err)
		}
	})

	t.Run("missing challan", func(t *testing.T) {
		engine, _, _, user := setup(t)
		if _, err := engine.CreateAppeal(999, user.ID, "reason"); !IsNotFound(err) {
			t.Fatalf("expected not-found, got %v", err)
		}
	})

	t.Run("empty reason", func(t *testing.T) {
		engine, _, challan, user := setup(t)
		if _, err := engine.CreateAppeal(challan.ID, user.ID, ""); !IsInvalid(err) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("approval dismisses challan", func(t *testing.T) {
		engine, store, challan, user := setup(t)
		appeal, _ := engine.CreateAppeal(challan.ID, user.ID, "wrong vehicle")
		notes := "camera misread plate"

		reviewed, err := engine.ReviewAppeal(appeal.ID, true, &notes)
		if err != nil {
			t.Fatalf("ReviewAppeal: %v", err)
		}
		if reviewed.Status != models.AppealApproved || reviewed.ReviewedAt == nil {
			t.Errorf("appeal = %+v, want approved with timestamp", reviewed)
		}
		got, _ := store.GetChallan(challan.ID)
		if got.Status != models.ChallanDismissed {
			t.Errorf("challan status = %q, want dismissed", got.Status)
		}
	})

	t.Run("rejection reverts challan to unpaid", func(t *testing.T) {
		engine, store, challan, user := setup(t)
		appeal, _ := engine.CreateAppeal(challan.ID, user.ID, "wrong vehicle")

		if _, err := engine.ReviewAppeal(appeal.ID, false, nil); err != nil {
			t.Fatalf("ReviewAppeal: %v", err)
		}
		got, _ := store.GetChallan(challan.ID)
		if got.Status != models.ChallanUnpaid {
			t.Errorf("challan status = %q, want unpaid", got.Status)
		}
	})

	t.Run("re-review is rejected and challan untouched", func(t *testing.T) {
		engine, store, challan, user := setup(t)
		appeal, _ := engine.CreateAppeal(challan.ID, user.ID, "wrong vehicle")
		if _, err := engine.ReviewAppeal(appeal.ID, true, nil); err != nil {
			t.Fatalf("first review: %v", err)
		}
		if _, err := engine.ReviewAppeal(appeal.ID, false, nil); !IsConflict(err) {
			t.Fatalf("expected conflict on re-review, got %v", err)
		}
		got, _ := store.GetChallan(challan.ID)
		if got.Status != models.ChallanDismissed {
			t.Errorf("challan status mutated by rejected re-review: %q", got.Status)
		}
	})

	t.Run("missing appeal", func(t *testing.T) {
		engine, _, _, _ := setup(t)
		if _, err := engine.ReviewAppeal(404, true, nil); !IsNotFound(err) {
			t.Fatalf("expected not-found, got %v", err)
		}
	})

	t.Run("challan deleted before review is skipped silently", func(t *testing.T) {
		engine, store, challan, user := setup(t)
		appeal, _ := engine.CreateAppeal(challan.ID, user.ID, "wrong vehicle")
		store.DeleteChallan(challan.ID)

		reviewed, err := engine.ReviewAppeal(appeal.ID, true, nil)
		if err != nil {
			t.Fatalf("ReviewAppeal with deleted challan: %v", err)
		}
		if reviewed.Status != models.AppealApproved {
			t.Errorf("appeal status = %q, want approved", reviewed.Status)
		}
	})
}

// The documented policy gap: an appeal lands on a paid challan, and a
// rejected appeal then reverts it to unpaid, dropping the paid state.
func TestAppealOverridesPaidPolicy(t *testing.T) {
	if !PolicyAppealOverridesPaid {
		t.Skip("policy disabled")
	}
	engine, store, _ := newTestEngine()
	cam := seedCamera(store)
	user := store.AddUser(models.User{Username: "hanzla", Email: "hanzla@example.com"})

	challan, _, err := engine.IssueChallan(context.Background(), IssueRequest{
		Vehicle:  "LEC-1234",
		CameraID: cam.ID,
		Amount:   500,
	})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	payment, _ := engine.CreatePayment(challan.ID, user.ID, "credit_card", nil)
	if _, err := engine.ConfirmPayment(payment.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	appeal, err := engine.CreateAppeal(challan.ID, user.ID, "wrong vehicle")
	if err != nil {
		t.Fatalf("appeal on paid challan rejected: %v", err)
	}
	got, _ := store.GetChallan(challan.ID)
	if got.Status != models.ChallanAppealed {
		t.Errorf("challan status = %q, want appealed even though paid", got.Status)
	}

	if _, err := engine.ReviewAppeal(appeal.ID, false, nil); err != nil {
		t.Fatalf("review: %v", err)
	}
	got, _ = store.GetChallan(challan.ID)
	if got.Status != models.ChallanUnpaid {
		t.Errorf("challan status = %q, want unpaid (paid state lost, documented gap)", got.Status)
	}
}

// Every observed challan status stays inside the four-state vocabulary.
func TestChallanStatusVocabulary(t *testing.T) {
	valid := map[models.ChallanStatus]bool{
		models.ChallanUnpaid:    true,
		models.ChallanPaid:      true,
		models.ChallanAppealed:  true,
		models.ChallanDismissed: true,
	}

	engine, store, _ := newTestEngine()
	cam := seedCamera(store)
	user := store.AddUser(models.User{Username: "u", Email: "u@example.com"})

	check := func(step string) {
		t.Helper()
		for id := range store.challans {
			c, _ := store.GetChallan(id)
			if !valid[c.Status] {
				t.Fatalf("after %s: challan %d has status %q outside the vocabulary", step, id, c.Status)
			}
		}
	}

	c1, _, _ := engine.IssueChallan(context.Background(), IssueRequest{Vehicle: "A-1", CameraID: cam.ID, Amount: 100})
	check("issue")
	p, _ := engine.CreatePayment(c1.ID, user.ID, "card", nil)
	check("create payment")
	_, _ = engine.ConfirmPayment(p.ID)
	check("confirm payment")
	a, _ := engine.CreateAppeal(c1.ID, user.ID, "dispute")
	check("appeal")
	_, _ = engine.ReviewAppeal(a.ID, false, nil)
	check("review")
}
