package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"moim/internal/core"
)

const dayLayout = "2006-01-02"

// parseDay parses a required YYYY-MM-DD value.
func parseDay(value string) (core.Date, error) {
	t, err := time.Parse(dayLayout, strings.TrimSpace(value))
	if err != nil {
		return core.Date{}, fmt.Errorf("%w: %q", core.ErrInvalidDate, value)
	}
	return core.DateOf(t), nil
}

// parseOptionalDay treats an empty value as an unset date.
func parseOptionalDay(value string) (core.Date, error) {
	if strings.TrimSpace(value) == "" {
		return core.Date{}, nil
	}
	return parseDay(value)
}

func parseGranularity(value string) (core.Granularity, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "", "MONTH":
		return core.GranularityMonth, nil
	case "DAY":
		return core.GranularityDay, nil
	default:
		return "", fmt.Errorf("%w: %q", core.ErrInvalidGranularity, value)
	}
}

type ledgerRecordRequest struct {
	Date string `json:"date"`
	// OccurredAt is the alias older clients send instead of date.
	OccurredAt  string   `json:"occurredAt"`
	Type        string   `json:"type"`
	Category    string   `json:"category"`
	Detail      string   `json:"detail"`
	Amount      string   `json:"amount"`
	Attachments []string `json:"attachments"`
}

func (req ledgerRecordRequest) toCore(id string) (core.LedgerRecord, error) {
	day := req.Date
	if day == "" {
		day = req.OccurredAt
	}
	date, err := parseDay(day)
	if err != nil {
		return core.LedgerRecord{}, err
	}
	amount, err := core.ParsePositiveAmount(req.Amount)
	if err != nil {
		return core.LedgerRecord{}, err
	}
	return core.LedgerRecord{
		ID:          id,
		Date:        date,
		Type:        core.EntryType(strings.ToUpper(strings.TrimSpace(req.Type))),
		Category:    strings.TrimSpace(req.Category),
		Detail:      strings.TrimSpace(req.Detail),
		Amount:      amount,
		Attachments: req.Attachments,
	}, nil
}

type priceOptionRequest struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
}

type duesEventRequest struct {
	Name         string `json:"name"`
	TargetAmount string `json:"targetAmount"`
	EventDate    string `json:"eventDate"`
	// Date is the alias older clients send instead of eventDate.
	Date          string               `json:"date"`
	TargetDate    string               `json:"targetDate"`
	PriceOptions  []priceOptionRequest `json:"priceOptions"`
	LinkedEventID string               `json:"linkedEventId"`
}

func (req duesEventRequest) toCore(id string) (core.DuesEvent, error) {
	target, err := core.ParsePositiveAmount(req.TargetAmount)
	if err != nil {
		return core.DuesEvent{}, err
	}
	eventDay := req.EventDate
	if eventDay == "" {
		eventDay = req.Date
	}
	eventDate, err := parseOptionalDay(eventDay)
	if err != nil {
		return core.DuesEvent{}, err
	}
	targetDate, err := parseOptionalDay(req.TargetDate)
	if err != nil {
		return core.DuesEvent{}, err
	}

	options := make([]core.PriceOption, 0, len(req.PriceOptions))
	for _, opt := range req.PriceOptions {
		amount, err := core.ParsePositiveAmount(opt.Amount)
		if err != nil {
			return core.DuesEvent{}, fmt.Errorf("price option %q: %w", opt.Name, err)
		}
		options = append(options, core.PriceOption{
			Name:   strings.TrimSpace(opt.Name),
			Amount: amount,
		})
	}

	return core.DuesEvent{
		ID:            id,
		Name:          strings.TrimSpace(req.Name),
		TargetAmount:  target,
		EventDate:     eventDate,
		TargetDate:    targetDate,
		PriceOptions:  options,
		LinkedEventID: strings.TrimSpace(req.LinkedEventID),
	}, nil
}

type duesRecordRequest struct {
	EventID        string `json:"eventId"`
	MemberName     string `json:"memberName"`
	PaidAmount     string `json:"paidAmount"`
	ExpectedAmount string `json:"expectedAmount"`
	PaymentMethod  string `json:"paymentMethod"`
	PaymentDate    string `json:"paymentDate"`
	Note           string `json:"note"`
}

func (req duesRecordRequest) toCore(id string) (core.DuesRecord, error) {
	paid := decimal.Zero
	if strings.TrimSpace(req.PaidAmount) != "" {
		var err error
		paid, err = core.ParseAmount(req.PaidAmount)
		if err != nil {
			return core.DuesRecord{}, err
		}
	}
	var override *decimal.Decimal
	if strings.TrimSpace(req.ExpectedAmount) != "" {
		expected, err := core.ParsePositiveAmount(req.ExpectedAmount)
		if err != nil {
			return core.DuesRecord{}, err
		}
		override = &expected
	}
	paymentDate, err := parseOptionalDay(req.PaymentDate)
	if err != nil {
		return core.DuesRecord{}, err
	}
	return core.DuesRecord{
		ID:               id,
		EventID:          strings.TrimSpace(req.EventID),
		MemberName:       strings.TrimSpace(req.MemberName),
		PaidAmount:       paid,
		ExpectedOverride: override,
		PaymentMethod:    strings.TrimSpace(req.PaymentMethod),
		PaymentDate:      paymentDate,
		Note:             req.Note,
	}, nil
}

// statementFilterFromQuery builds the view filter from query params:
// from, to, type, q, order=desc.
func statementFilterFromQuery(r *http.Request) (core.StatementFilter, error) {
	q := r.URL.Query()
	from, err := parseOptionalDay(q.Get("from"))
	if err != nil {
		return core.StatementFilter{}, err
	}
	to, err := parseOptionalDay(q.Get("to"))
	if err != nil {
		return core.StatementFilter{}, err
	}
	entryType := core.EntryType(strings.ToUpper(strings.TrimSpace(q.Get("type"))))
	if entryType != "" && !entryType.Valid() {
		return core.StatementFilter{}, core.ErrInvalidType
	}
	return core.StatementFilter{
		From:    from,
		To:      to,
		Type:    entryType,
		Keyword: q.Get("q"),
		Newest:  strings.EqualFold(q.Get("order"), "desc"),
	}, nil
}
