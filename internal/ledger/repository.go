package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository is the read-only query surface over the external store. The
// engine never writes: posting and validation of entries happen upstream.
type Repository interface {
	ListActiveAccounts(ctx context.Context) ([]Account, error)
	ListCurrencies(ctx context.Context) ([]CurrencyRef, error)
	SumPostedPriorPostings(ctx context.Context, accountID int64, before time.Time) ([]AmountPair, error)
	ListHeadersInRange(ctx context.Context, start, end time.Time) ([]PostingHeader, error)
	ListPostingLines(ctx context.Context, accountID int64, headerIDs []uuid.UUID) ([]PostingLine, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the pgx-backed Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) ListActiveAccounts(ctx context.Context) ([]Account, error) {
	rows, err := r.db.Query(ctx, `SELECT id, code, name FROM accounts WHERE active ORDER BY code ASC`)
	if err != nil {
		return nil, queryErr("list accounts", err)
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.Code, &a.Name); err != nil {
			return nil, queryErr("scan account", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, queryErr("list accounts", err)
	}
	return accounts, nil
}

func (r *repository) ListCurrencies(ctx context.Context) ([]CurrencyRef, error) {
	rows, err := r.db.Query(ctx, `SELECT id, code, COALESCE(rate::text, ''), COALESCE(rate_direction, ''), is_base FROM currencies ORDER BY id ASC`)
	if err != nil {
		return nil, queryErr("list currencies", err)
	}
	defer rows.Close()
	var currencies []CurrencyRef
	for rows.Next() {
		var (
			c    CurrencyRef
			rate string
		)
		if err := rows.Scan(&c.ID, &c.Code, &rate, &c.RateDirection, &c.IsBase); err != nil {
			return nil, queryErr("scan currency", err)
		}
		c.Rate = decimalFromText(rate)
		currencies = append(currencies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, queryErr("list currencies", err)
	}
	return currencies, nil
}

func (r *repository) SumPostedPriorPostings(ctx context.Context, accountID int64, before time.Time) ([]AmountPair, error) {
	rows, err := r.db.Query(ctx, `SELECT COALESCE(l.debit::text, ''), COALESCE(l.credit::text, '')
FROM posting_lines l
JOIN posting_headers h ON h.id = l.header_id
WHERE l.account_id = $1 AND h.status = 'POSTED' AND h.date < $2`, accountID, before)
	if err != nil {
		return nil, queryErr("sum prior postings", err)
	}
	defer rows.Close()
	var pairs []AmountPair
	for rows.Next() {
		var debit, credit string
		if err := rows.Scan(&debit, &credit); err != nil {
			return nil, queryErr("scan prior posting", err)
		}
		pairs = append(pairs, AmountPair{Debit: decimalFromText(debit), Credit: decimalFromText(credit)})
	}
	if err := rows.Err(); err != nil {
		return nil, queryErr("sum prior postings", err)
	}
	return pairs, nil
}

func (r *repository) ListHeadersInRange(ctx context.Context, start, end time.Time) ([]PostingHeader, error) {
	rows, err := r.db.Query(ctx, `SELECT id, date, type_code, COALESCE(type_description, ''), COALESCE(narration, ''), status
FROM posting_headers
WHERE status = 'POSTED' AND date >= $1 AND date <= $2
ORDER BY date ASC, created_at ASC`, start, end)
	if err != nil {
		return nil, queryErr("list headers", err)
	}
	defer rows.Close()
	var headers []PostingHeader
	for rows.Next() {
		var h PostingHeader
		if err := rows.Scan(&h.ID, &h.Date, &h.TypeCode, &h.TypeDescription, &h.Narration, &h.Status); err != nil {
			return nil, queryErr("scan header", err)
		}
		headers = append(headers, h)
	}
	if err := rows.Err(); err != nil {
		return nil, queryErr("list headers", err)
	}
	return headers, nil
}

func (r *repository) ListPostingLines(ctx context.Context, accountID int64, headerIDs []uuid.UUID) ([]PostingLine, error) {
	if len(headerIDs) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(headerIDs))
	for _, id := range headerIDs {
		ids = append(ids, id.String())
	}
	rows, err := r.db.Query(ctx, `SELECT id, header_id, account_id,
COALESCE(debit::text, ''), COALESCE(credit::text, ''),
COALESCE(debit_doc::text, ''), COALESCE(credit_doc::text, ''),
COALESCE(exchange_rate::text, ''), currency_id, COALESCE(narration, '')
FROM posting_lines
WHERE account_id = $1 AND header_id = ANY($2::uuid[])
ORDER BY created_at ASC`, accountID, ids)
	if err != nil {
		return nil, queryErr("list posting lines", err)
	}
	defer rows.Close()
	var lines []PostingLine
	for rows.Next() {
		var l PostingLine
		var debit, credit, debitDoc, creditDoc, rate string
		if err := rows.Scan(&l.ID, &l.HeaderID, &l.AccountID, &debit, &credit, &debitDoc, &creditDoc, &rate, &l.CurrencyID, &l.Narration); err != nil {
			return nil, queryErr("scan posting line", err)
		}
		l.Debit = decimalFromText(debit)
		l.Credit = decimalFromText(credit)
		l.DebitDoc = decimalFromText(debitDoc)
		l.CreditDoc = decimalFromText(creditDoc)
		l.ExchangeRate = decimalFromText(rate)
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, queryErr("list posting lines", err)
	}
	return lines, nil
}

// decimalFromText parses a numeric column fetched as text. Missing or
// non-numeric values count as zero rather than failing the report.
func decimalFromText(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func queryErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%w: %s: %s (%s)", ErrQueryFailure, op, pgErr.Message, pgErr.Code)
	}
	return fmt.Errorf("%w: %s: %v", ErrQueryFailure, op, err)
}
