package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusFailed    BookingStatus = "failed"
)

// DefaultDate is stored when the client omits checkin or checkout.
const DefaultDate = "N/A"

type Booking struct {
	ID             string          `json:"id" gorm:"primaryKey;size:36"`
	HotelName      string          `json:"hotelName" gorm:"not null"`
	Checkin        string          `json:"checkin" gorm:"not null;default:'N/A'"`
	Checkout       string          `json:"checkout" gorm:"not null;default:'N/A'"`
	Guests         int             `json:"guests" gorm:"not null;default:1"`
	TotalAmount    decimal.Decimal `json:"totalAmount" gorm:"type:numeric(12,2);not null"`
	Status         BookingStatus   `json:"status" gorm:"not null;default:'pending';index"`
	PayerEmail     string          `json:"payerEmail,omitempty" gorm:"column:payer_email;default:''"`
	PayerPhone     string          `json:"payerPhone,omitempty" gorm:"column:payer_phone;default:''"`
	PaymentOrderID string          `json:"paymentOrderId,omitempty" gorm:"column:payment_order_id;default:''"`
	FailureReason  string          `json:"failureReason,omitempty" gorm:"column:failure_reason;default:''"`
	ConfirmedAt    *time.Time      `json:"confirmedAt,omitempty"`
	CreatedAt      time.Time       `json:"createdAt" gorm:"index"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

func (Booking) TableName() string {
	return "bookings"
}

// CanTransition reports whether status may move from the current value to next.
// Only pending bookings move; terminal states never change.
func (s BookingStatus) CanTransition(next BookingStatus) bool {
	if s != BookingStatusPending {
		return false
	}
	return next == BookingStatusConfirmed || next == BookingStatusFailed
}

func (s BookingStatus) Terminal() bool {
	return s == BookingStatusConfirmed || s == BookingStatusFailed
}
