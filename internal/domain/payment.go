package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentTransfer    PaymentMethod = "transfer"
	PaymentCheck       PaymentMethod = "check"
	PaymentCash        PaymentMethod = "cash"
	PaymentDirectDebit PaymentMethod = "direct_debit"
	PaymentCard        PaymentMethod = "card"
	PaymentOther       PaymentMethod = "other"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentTransfer, PaymentCheck, PaymentCash, PaymentDirectDebit, PaymentCard, PaymentOther:
		return true
	}
	return false
}

// RentPayment is append-only: once stored it is never updated.
type RentPayment struct {
	ID     int64
	RentID int64

	Amount      decimal.Decimal
	PaymentDate time.Time
	Method      PaymentMethod

	TransactionReference *string
	BankName             *string
	ReceiptNumber        *string
	Notes                *string
	CreatedBy            *int64

	CreatedAt *time.Time
}
