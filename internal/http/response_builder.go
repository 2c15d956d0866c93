package http

import (
	"github.com/shopspring/decimal"

	"moim/internal/core"
	"moim/internal/services"
)

type ledgerRecordResponse struct {
	ID          string          `json:"id"`
	Date        string          `json:"date"`
	Type        core.EntryType  `json:"type"`
	Category    string          `json:"category"`
	Detail      string          `json:"detail"`
	Amount      decimal.Decimal `json:"amount"`
	Attachments []string        `json:"attachments,omitempty"`
}

type statementEntryResponse struct {
	ledgerRecordResponse
	Balance decimal.Decimal `json:"balance"`
}

type periodBucketResponse struct {
	Label   string          `json:"label"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Balance decimal.Decimal `json:"balance"`
}

type categoryTotalResponse struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

type priceOptionResponse struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

type duesEventResponse struct {
	ID            string                `json:"id"`
	Name          string                `json:"name"`
	TargetAmount  decimal.Decimal       `json:"targetAmount"`
	EventDate     string                `json:"eventDate,omitempty"`
	TargetDate    string                `json:"targetDate,omitempty"`
	PriceOptions  []priceOptionResponse `json:"priceOptions,omitempty"`
	LinkedEventID string                `json:"linkedEventId,omitempty"`
}

type memberDueResponse struct {
	ID            string             `json:"id"`
	EventID       string             `json:"eventId"`
	MemberName    string             `json:"memberName"`
	PaidAmount    decimal.Decimal    `json:"paidAmount"`
	Expected      decimal.Decimal    `json:"expectedAmount"`
	Status        core.PaymentStatus `json:"status"`
	PaymentMethod string             `json:"paymentMethod,omitempty"`
	PaymentDate   string             `json:"paymentDate,omitempty"`
	Note          string             `json:"note,omitempty"`
}

type duesStatsResponse struct {
	TotalExpected decimal.Decimal `json:"totalExpected"`
	Collected     decimal.Decimal `json:"collected"`
	Outstanding   decimal.Decimal `json:"outstanding"`
	PaidCount     int             `json:"paidCount"`
	TotalCount    int             `json:"totalCount"`
	Rate          float64         `json:"rate"`
}

func formatDay(d core.Date) string {
	if d.IsEmpty() {
		return ""
	}
	return d.Format(dayLayout)
}

func toLedgerRecordResponse(r core.LedgerRecord) ledgerRecordResponse {
	return ledgerRecordResponse{
		ID:          r.ID,
		Date:        formatDay(r.Date),
		Type:        r.Type,
		Category:    r.Category,
		Detail:      r.Detail,
		Amount:      r.Amount,
		Attachments: r.Attachments,
	}
}

func toStatementResponse(entries []core.BalanceEntry) []statementEntryResponse {
	out := make([]statementEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = statementEntryResponse{
			ledgerRecordResponse: toLedgerRecordResponse(e.Record),
			Balance:              e.BalanceAfter,
		}
	}
	return out
}

func toPeriodResponse(buckets []core.PeriodBucket) []periodBucketResponse {
	out := make([]periodBucketResponse, len(buckets))
	for i, b := range buckets {
		out[i] = periodBucketResponse{
			Label:   b.Label,
			Income:  b.Income,
			Expense: b.Expense,
			Balance: b.RunningBalance,
		}
	}
	return out
}

func toCategoryResponse(totals []core.CategoryTotal) []categoryTotalResponse {
	out := make([]categoryTotalResponse, len(totals))
	for i, t := range totals {
		out[i] = categoryTotalResponse{Category: t.Category, Amount: t.Amount}
	}
	return out
}

func toDuesEventResponse(e core.DuesEvent) duesEventResponse {
	options := make([]priceOptionResponse, len(e.PriceOptions))
	for i, opt := range e.PriceOptions {
		options[i] = priceOptionResponse{Name: opt.Name, Amount: opt.Amount}
	}
	return duesEventResponse{
		ID:            e.ID,
		Name:          e.Name,
		TargetAmount:  e.TargetAmount,
		EventDate:     formatDay(e.EventDate),
		TargetDate:    formatDay(e.TargetDate),
		PriceOptions:  options,
		LinkedEventID: e.LinkedEventID,
	}
}

func toRosterResponse(roster []services.MemberDue) []memberDueResponse {
	out := make([]memberDueResponse, len(roster))
	for i, due := range roster {
		out[i] = memberDueResponse{
			ID:            due.Record.ID,
			EventID:       due.Record.EventID,
			MemberName:    due.Record.MemberName,
			PaidAmount:    due.Record.PaidAmount,
			Expected:      due.Expected,
			Status:        due.Status,
			PaymentMethod: due.Record.PaymentMethod,
			PaymentDate:   formatDay(due.Record.PaymentDate),
			Note:          due.Record.Note,
		}
	}
	return out
}

func toStatsResponse(stats core.DuesStats) duesStatsResponse {
	return duesStatsResponse{
		TotalExpected: stats.TotalExpected,
		Collected:     stats.Collected,
		Outstanding:   stats.Outstanding,
		PaidCount:     stats.PaidCount,
		TotalCount:    stats.TotalCount,
		Rate:          stats.Rate,
	}
}
