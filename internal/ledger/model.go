package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// HeaderStatus enumerates posting header lifecycle values.
type HeaderStatus string

const (
	HeaderStatusPosted HeaderStatus = "POSTED"
	HeaderStatusDraft  HeaderStatus = "DRAFT"
)

// Account is reference data owned by the external store.
type Account struct {
	ID   int64
	Code string
	Name string
}

// CurrencyRef describes one currency from the store snapshot.
type CurrencyRef struct {
	ID            int64
	Code          string
	Rate          decimal.Decimal
	RateDirection string
	IsBase        bool
}

// PostingHeader groups one or more posting lines dated and typed together.
type PostingHeader struct {
	ID              uuid.UUID
	Date            time.Time
	TypeCode        string
	TypeDescription string
	Narration       string
	Status          HeaderStatus
}

// PostingLine is a single debit or credit movement against one account.
// Amounts are carried in the ledger base currency and in the original
// document currency; at most one of debit/credit is non-zero per basis.
type PostingLine struct {
	ID           uuid.UUID
	HeaderID     uuid.UUID
	AccountID    int64
	Debit        decimal.Decimal
	Credit       decimal.Decimal
	DebitDoc     decimal.Decimal
	CreditDoc    decimal.Decimal
	ExchangeRate decimal.Decimal
	CurrencyID   int64
	Narration    string
}

// AmountPair is one debit/credit row returned by the prior-postings query.
type AmountPair struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

// OpeningBalance seeds the running balance of a ledger report.
type OpeningBalance struct {
	DebitTotal  decimal.Decimal
	CreditTotal decimal.Decimal
	Balance     decimal.Decimal
}

// MergedTransaction is one fully assembled report row. It is immutable once
// built: running balances are a property of chronological accumulation and
// stay frozen through any later filtering or re-sorting.
type MergedTransaction struct {
	Date              time.Time       `json:"-"`
	DateText          string          `json:"date"`
	TypeLabel         string          `json:"type"`
	Narration         string          `json:"narration"`
	Amount            decimal.Decimal `json:"amount"`
	CurrencyCode      string          `json:"currency"`
	ExchangeRate      decimal.Decimal `json:"rate"`
	Debit             decimal.Decimal `json:"debit"`
	Credit            decimal.Decimal `json:"credit"`
	DebitDoc          decimal.Decimal `json:"debit_doc"`
	CreditDoc         decimal.Decimal `json:"credit_doc"`
	RunningBalance    decimal.Decimal `json:"balance"`
	RunningBalanceDoc decimal.Decimal `json:"balance_doc"`
}
