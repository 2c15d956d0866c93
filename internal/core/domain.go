package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  EntryType = "INCOME"
	Expense EntryType = "EXPENSE"
)

const (
	Unpaid  PaymentStatus = "UNPAID"
	Partial PaymentStatus = "PARTIAL"
	Paid    PaymentStatus = "PAID"
)

type (
	EntryType string

	PaymentStatus string

	Date struct {
		time.Time
	}

	// LedgerRecord is a single dated income or expense entry. Amount is a
	// non-negative magnitude; direction comes from Type, never from sign.
	LedgerRecord struct {
		ID          string
		Date        Date
		Type        EntryType
		Category    string
		Detail      string
		Amount      decimal.Decimal
		Attachments []string
	}

	// PriceOption is an alternate expected amount a member may be
	// assigned instead of the event default.
	PriceOption struct {
		Name   string
		Amount decimal.Decimal
	}

	// DuesEvent is a named collection campaign with a default per-member
	// target amount.
	DuesEvent struct {
		ID            string
		Name          string
		TargetAmount  decimal.Decimal
		EventDate     Date // optional
		TargetDate    Date // optional
		PriceOptions  []PriceOption
		LinkedEventID string // optional link to an external attendee source
	}

	// DuesRecord is one member's payment status within a dues event.
	// ExpectedOverride, when nil, falls back to the event's TargetAmount;
	// the resolved value is recomputed on every read, never stored.
	DuesRecord struct {
		ID               string
		EventID          string
		MemberName       string
		PaidAmount       decimal.Decimal
		ExpectedOverride *decimal.Decimal
		PaymentMethod    string
		PaymentDate      Date // optional
		Note             string
	}
)

var (
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidType     = errors.New("invalid entry type")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptyCategory   = errors.New("empty category")
	ErrEmptyDetail     = errors.New("empty detail")
	ErrDetailTooLong   = errors.New("detail too long (max 200 characters)")
	ErrEmptyName       = errors.New("empty name")
	ErrEmptyMemberName = errors.New("empty member name")
)

// NewDate creates a day-precision Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to day precision in UTC.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// IsEmpty reports whether the date is unset (for optional dates).
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// Before reports whether d falls on an earlier calendar day than other.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

// After reports whether d falls on a later calendar day than other.
func (d Date) After(other Date) bool {
	return d.Time.After(other.Time)
}

func (t EntryType) Valid() bool {
	return t == Income || t == Expense
}

func (r LedgerRecord) Validate() error {
	if err := r.Date.Validate(); err != nil {
		return err
	}
	if !r.Type.Valid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(r.Category) == "" {
		return ErrEmptyCategory
	}
	if strings.TrimSpace(r.Detail) == "" {
		return ErrEmptyDetail
	}
	if len(r.Detail) > 200 {
		return ErrDetailTooLong
	}
	if r.Amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e DuesEvent) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyName
	}
	if e.TargetAmount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	for _, opt := range e.PriceOptions {
		if strings.TrimSpace(opt.Name) == "" {
			return ErrEmptyName
		}
		if opt.Amount.Sign() <= 0 {
			return ErrInvalidAmount
		}
	}
	return nil
}

func (r DuesRecord) Validate() error {
	if strings.TrimSpace(r.MemberName) == "" {
		return ErrEmptyMemberName
	}
	if r.PaidAmount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if r.ExpectedOverride != nil && r.ExpectedOverride.Sign() <= 0 {
		return ErrInvalidAmount
	}
	return nil
}
