package repository

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/chachabrian/hotelbook-backend/internal/apperr"
	"github.com/chachabrian/hotelbook-backend/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BookingRepo struct{ db *gorm.DB }

func NewBookingRepo(db *gorm.DB) *BookingRepo {
	return &BookingRepo{db: db}
}

// ConfirmInput identifies the booking to confirm and, when the provider sent them,
// the event id used for deduplication and the amount actually approved.
type ConfirmInput struct {
	BookingID string
	EventID   string
	Provider  string
	Amount    *decimal.Decimal
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, apperr.ErrStore, err)
}

// Create inserts b as a new pending booking. Any status set by the caller is ignored.
func (r *BookingRepo) Create(ctx context.Context, b *models.Booking) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.Status = models.BookingStatusPending
	b.ConfirmedAt = nil
	if err := r.db.WithContext(ctx).Create(b).Error; err != nil {
		return storeErr("create booking", err)
	}
	return nil
}

func (r *BookingRepo) ByID(ctx context.Context, id string) (*models.Booking, error) {
	var b models.Booking
	if err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, storeErr("get booking", err)
	}
	return &b, nil
}

// FailInput describes a move to failed. EventID, when set, is recorded so a
// redelivered provider event is skipped.
type FailInput struct {
	BookingID string
	EventID   string
	Provider  string
	Reason    string
}

// transition moves a booking to next under a row lock. Already processed event ids
// and a booking already in next are no-ops; every other move must be allowed by the
// status transition table. check runs before the move and may reject it.
func (r *BookingRepo) transition(ctx context.Context, id, eventID, provider string, next models.BookingStatus,
	check func(*models.Booking) error, updates func(*models.Booking) map[string]any) (*models.Booking, bool, error) {
	var (
		b       models.Booking
		changed bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&b, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.ErrNotFound
			}
			return storeErr("lock booking", err)
		}

		if eventID != "" {
			var seen int64
			if err := tx.Model(&models.WebhookEvent{}).Where("id = ?", eventID).Count(&seen).Error; err != nil {
				return storeErr("check webhook event", err)
			}
			if seen > 0 {
				return nil
			}
		}

		if check != nil {
			if err := check(&b); err != nil {
				return err
			}
		}

		switch {
		case b.Status == next && next.Terminal():
		case b.Status.CanTransition(next):
			if err := tx.Model(&b).Updates(updates(&b)).Error; err != nil {
				return storeErr("update booking status", err)
			}
			b.Status = next
			changed = true
		default:
			return fmt.Errorf("booking %s is %s: %w", b.ID, b.Status, apperr.ErrInvalidTransition)
		}

		if eventID != "" {
			rec := models.WebhookEvent{
				ID:          eventID,
				BookingID:   b.ID,
				Provider:    provider,
				ProcessedAt: time.Now().UTC(),
			}
			if err := tx.Create(&rec).Error; err != nil {
				return storeErr("record webhook event", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &b, changed, nil
}

// Confirm moves a pending booking to confirmed. It reports whether the status
// actually changed; repeated confirmations and already processed event ids return
// the current booking unchanged.
func (r *BookingRepo) Confirm(ctx context.Context, in ConfirmInput) (*models.Booking, bool, error) {
	checkAmount := func(b *models.Booking) error {
		if in.Amount != nil && !in.Amount.Equal(b.TotalAmount) {
			return fmt.Errorf("confirmed amount %s does not match booking total %s: %w",
				in.Amount.StringFixed(2), b.TotalAmount.StringFixed(2), apperr.ErrValidation)
		}
		return nil
	}
	return r.transition(ctx, in.BookingID, in.EventID, in.Provider, models.BookingStatusConfirmed, checkAmount,
		func(b *models.Booking) map[string]any {
			now := time.Now().UTC()
			b.ConfirmedAt = &now
			return map[string]any{"status": models.BookingStatusConfirmed, "confirmed_at": now}
		})
}

// Fail moves a pending booking to failed. A booking that is already failed is
// returned unchanged; a confirmed one is rejected.
func (r *BookingRepo) Fail(ctx context.Context, in FailInput) (*models.Booking, bool, error) {
	return r.transition(ctx, in.BookingID, in.EventID, in.Provider, models.BookingStatusFailed, nil,
		func(b *models.Booking) map[string]any {
			b.FailureReason = truncate(in.Reason, 255)
			return map[string]any{"status": models.BookingStatusFailed, "failure_reason": b.FailureReason}
		})
}

// MarkFailed is Fail without an event id.
func (r *BookingRepo) MarkFailed(ctx context.Context, id, reason string) error {
	_, _, err := r.Fail(ctx, FailInput{BookingID: id, Reason: reason})
	return err
}

func (r *BookingRepo) SetPaymentOrder(ctx context.Context, id, orderID string) error {
	res := r.db.WithContext(ctx).Model(&models.Booking{}).Where("id = ?", id).Update("payment_order_id", orderID)
	if res.Error != nil {
		return storeErr("set payment order", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// UpdateContact stores the non-empty contact fields on the booking.
func (r *BookingRepo) UpdateContact(ctx context.Context, id, email, phone string) error {
	updates := map[string]any{}
	if email != "" {
		updates["payer_email"] = email
	}
	if phone != "" {
		updates["payer_phone"] = phone
	}
	if len(updates) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&models.Booking{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return storeErr("update contact", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// FailStalePending marks every pending booking created before cutoff as failed and
// returns how many rows moved.
func (r *BookingRepo) FailStalePending(ctx context.Context, cutoff time.Time, reason string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("status = ? AND created_at < ?", models.BookingStatusPending, cutoff).
		Updates(map[string]any{
			"status":         models.BookingStatusFailed,
			"failure_reason": truncate(reason, 255),
		})
	if res.Error != nil {
		return 0, storeErr("fail stale bookings", res.Error)
	}
	return res.RowsAffected, nil
}

// truncate keeps at most n runes of s.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
