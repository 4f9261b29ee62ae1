// Package lifecycle owns the challan state machine: issuance, payment,
// appeal and review, plus the best-effort notification fan-out on issuance.
//
// States: unpaid -> paid | appealed; appealed -> dismissed | unpaid.
// paid and dismissed are terminal (with one preserved exception: an appeal
// may still be filed against a paid challan, see PolicyAppealOverridesPaid).
package lifecycle

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/echallan/backend/models"
	"github.com/echallan/backend/notify"
)

// PolicyAppealOverridesPaid names a deliberate carry-over from the original
// system: filing an appeal moves a challan to "appealed" even when it is
// already paid, and a rejected appeal then reverts it to "unpaid", losing
// the paid state. Callers who want to block appeals on paid challans must
// do so themselves. Toggling this to false is the obvious product fix but
// needs confirmation first.
const PolicyAppealOverridesPaid = true

// Engine drives challan state transitions against a Store and fans out
// notifications through a Notifier. Construct with New; no ambient state.
type Engine struct {
	store    Store
	notifier notify.Notifier
}

// New creates a lifecycle engine.
func New(store Store, notifier notify.Notifier) *Engine {
	return &Engine{store: store, notifier: notifier}
}

// IssueRequest carries the inputs for challan issuance.
type IssueRequest struct {
	Vehicle       string
	CameraID      uint
	Amount        float64
	ViolationType string
	UserID        *uint
	Description   *string
}

// IssueChallan validates the camera, persists a new unpaid challan and
// increments the camera's violation count in one transaction, then attempts
// the notification fan-out. The returned Report never affects success: once
// the challan row is committed the operation has succeeded.
func (e *Engine) IssueChallan(ctx context.Context, req IssueRequest) (*models.Challan, notify.Report, error) {
	var report notify.Report

	if req.Vehicle == "" {
		return nil, report, invalidf("Vehicle is required")
	}
	if req.Amount <= 0 {
		return nil, report, invalidf("Amount must be positive")
	}

	challan := &models.Challan{
		Vehicle:       req.Vehicle,
		CameraID:      req.CameraID,
		Amount:        req.Amount,
		ViolationType: req.ViolationType,
		Status:        models.ChallanUnpaid,
		UserID:        req.UserID,
		IssuedAt:      time.Now(),
		Description:   req.Description,
	}
	if challan.ViolationType == "" {
		challan.ViolationType = "traffic_violation"
	}

	err := e.store.Atomically(func(tx Store) error {
		camera, err := tx.GetCamera(req.CameraID)
		if err != nil {
			return err
		}
		if camera == nil {
			return notFoundf("Camera not found")
		}
		if err := tx.CreateChallan(challan); err != nil {
			return err
		}
		camera.TotalViolations++
		return tx.UpdateCamera(camera)
	})
	if err != nil {
		return nil, report, err
	}

	report = e.fanOut(ctx, challan)
	return challan, report, nil
}

// fanOut notifies every registered push recipient, then the owning user by
// email and SMS when known. Each attempt is independent; failures are
// recorded and never abort the loop.
func (e *Engine) fanOut(ctx context.Context, challan *models.Challan) notify.Report {
	var report notify.Report
	if e.notifier == nil {
		return report
	}

	body := fmt.Sprintf("Challan Issued! Vehicle: %s, Amount: %.2f, ID: %d",
		challan.Vehicle, challan.Amount, challan.ID)

	tokens, err := e.store.ListDeviceTokens()
	if err == nil {
		for _, t := range tokens {
			msg := notify.Message{
				Channel:   notify.ChannelPush,
				Recipient: t.FCMToken,
				Subject:   "New Challan Issued",
				Body:      fmt.Sprintf("Vehicle %s fined %.2f", challan.Vehicle, challan.Amount),
				Data: map[string]string{
					"type": "challan",
					"id":   strconv.FormatUint(uint64(challan.ID), 10),
				},
			}
			report.Record(msg, e.notifier.Notify(ctx, msg))
		}
	}

	if challan.UserID == nil {
		return report
	}
	user, err := e.store.GetUser(*challan.UserID)
	if err != nil || user == nil {
		return report
	}
	if user.Email != "" {
		msg := notify.Message{
			Channel:   notify.ChannelEmail,
			Recipient: user.Email,
			Subject:   "E-Challan Notification",
			Body:      body,
		}
		report.Record(msg, e.notifier.Notify(ctx, msg))
	}
	if user.Phone != nil && *user.Phone != "" {
		msg := notify.Message{
			Channel:   notify.ChannelSMS,
			Recipient: *user.Phone,
			Body:      body,
		}
		report.Record(msg, e.notifier.Notify(ctx, msg))
	}
	return report
}

// CreatePayment opens a pending payment for a challan, copying the amount.
// A challan that is already paid rejects new payments. Duplicate pending
// payments for the same challan are allowed (preserved source behavior);
// the one-completed-payment invariant is enforced at confirmation.
func (e *Engine) CreatePayment(challanID, userID uint, method string, transactionID *string) (*models.Payment, error) {
	if method == "" {
		return nil, invalidf("Payment method is required")
	}

	payment := &models.Payment{
		ChallanID:     challanID,
		Amount:        0,
		PaymentMethod: method,
		TransactionID: transactionID,
		Status:        models.PaymentPending,
		CreatedAt:     time.Now(),
	}
	if userID != 0 {
		uid := userID
		payment.UserID = &uid
	}

	err := e.store.Atomically(func(tx Store) error {
		challan, err := tx.GetChallan(challanID)
		if err != nil {
			return err
		}
		if challan == nil {
			return notFoundf("Challan not found")
		}
		if challan.Status == models.ChallanPaid {
			return conflictf("Challan already paid")
		}
		payment.Amount = challan.Amount
		return tx.CreatePayment(payment)
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// ConfirmPayment marks a pending payment completed and flips the parent
// challan to paid, both inside one transaction. A missing parent challan
// does not fail the confirmation (deliberate defensive choice preserved
// from the original); a payment already completed, or a second completed
// payment for the same challan, is rejected.
func (e *Engine) ConfirmPayment(paymentID uint) (*models.Payment, error) {
	var payment *models.Payment

	err := e.store.Atomically(func(tx Store) error {
		p, err := tx.GetPayment(paymentID)
		if err != nil {
			return err
		}
		if p == nil {
			return notFoundf("Payment not found")
		}
		if p.Status == models.PaymentCompleted {
			return conflictf("Payment already completed")
		}
		existing, err := tx.CompletedPaymentForChallan(p.ChallanID)
		if err != nil {
			return err
		}
		if existing != nil {
			return conflictf("Challan already paid")
		}

		now := time.Now()
		p.Status = models.PaymentCompleted
		p.CompletedAt = &now
		if err := tx.UpdatePayment(p); err != nil {
			return err
		}

		challan, err := tx.GetChallan(p.ChallanID)
		if err != nil {
			return err
		}
		if challan != nil {
			challan.Status = models.ChallanPaid
			challan.PaidAt = &now
			if err := tx.UpdateChallan(challan); err != nil {
				return err
			}
		}
		payment = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// CreateAppeal files a pending appeal and moves the challan to appealed.
// One appeal per challan, regardless of the existing appeal's status.
// Per PolicyAppealOverridesPaid this succeeds even on a paid challan.
func (e *Engine) CreateAppeal(challanID, userID uint, reason string) (*models.Appeal, error) {
	if reason == "" {
		return nil, invalidf("Appeal reason is required")
	}

	appeal := &models.Appeal{
		ChallanID: challanID,
		UserID:    userID,
		Reason:    reason,
		Status:    models.AppealPending,
		CreatedAt: time.Now(),
	}

	err := e.store.Atomically(func(tx Store) error {
		challan, err := tx.GetChallan(challanID)
		if err != nil {
			return err
		}
		if challan == nil {
			return notFoundf("Challan not found")
		}
		existing, err := tx.AppealForChallan(challanID)
		if err != nil {
			return err
		}
		if existing != nil {
			return conflictf("Appeal already submitted")
		}
		if err := tx.CreateAppeal(appeal); err != nil {
			if err == ErrStoreConflict {
				return conflictf("Appeal already submitted")
			}
			return err
		}
		challan.Status = models.ChallanAppealed
		return tx.UpdateChallan(challan)
	})
	if err != nil {
		return nil, err
	}
	return appeal, nil
}

// ReviewAppeal resolves a pending appeal. Approval dismisses the challan;
// rejection reverts it to unpaid (even if it had been paid before the
// appeal - preserved gap, see PolicyAppealOverridesPaid). A challan deleted
// in the meantime is skipped silently. Resolved appeals cannot be reviewed
// again, so the challan is never double-mutated.
func (e *Engine) ReviewAppeal(appealID uint, approved bool, reviewerNotes *string) (*models.Appeal, error) {
	var appeal *models.Appeal

	err := e.store.Atomically(func(tx Store) error {
		a, err := tx.GetAppeal(appealID)
		if err != nil {
			return err
		}
		if a == nil {
			return notFoundf("Appeal not found")
		}
		if a.Status != models.AppealPending {
			return conflictf("Appeal already reviewed")
		}

		now := time.Now()
		if approved {
			a.Status = models.AppealApproved
		} else {
			a.Status = models.AppealRejected
		}
		a.ReviewedAt = &now
		a.ReviewerNotes = reviewerNotes
		if err := tx.UpdateAppeal(a); err != nil {
			return err
		}

		challan, err := tx.GetChallan(a.ChallanID)
		if err != nil {
			return err
		}
		if challan != nil {
			if approved {
				challan.Status = models.ChallanDismissed
			} else {
				challan.Status = models.ChallanUnpaid
			}
			if err := tx.UpdateChallan(challan); err != nil {
				return err
			}
		}
		appeal = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return appeal, nil
}
