package ledger

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PostingSource supplies the header and line fetches assembly depends on.
type PostingSource interface {
	ListHeadersInRange(ctx context.Context, start, end time.Time) ([]PostingHeader, error)
	ListPostingLines(ctx context.Context, accountID int64, headerIDs []uuid.UUID) ([]PostingLine, error)
}

// Assembler joins posting headers to their lines for one account and window
// and annotates every row with running balances in both currency bases.
type Assembler struct {
	source   PostingSource
	logger   *slog.Logger
	observer AssemblyObserver
}

// AssemblyObserver receives diagnostics about dropped rows. Optional.
type AssemblyObserver interface {
	ReferentialGapDropped()
}

// NewAssembler constructs an Assembler. observer may be nil.
func NewAssembler(source PostingSource, logger *slog.Logger, observer AssemblyObserver) *Assembler {
	return &Assembler{source: source, logger: logger, observer: observer}
}

// Assemble fetches headers in the window, then the account's lines for those
// headers, and emits one MergedTransaction per line in chronological order.
// The base running balance is seeded from opening; the document-currency
// running balance is seeded from zero, because the opening balance exists
// only in the base currency. Rows with equal dates keep their original fetch
// order: every ordering pass here is stable, which makes fetch order the
// documented tie-break rule.
func (a *Assembler) Assemble(ctx context.Context, accountID int64, resolver *Resolver, win Window, opening OpeningBalance) ([]MergedTransaction, error) {
	headers, err := a.source.ListHeadersInRange(ctx, win.Start, win.End)
	if err != nil {
		return nil, err
	}
	if len(headers) == 0 {
		return []MergedTransaction{}, nil
	}

	sort.SliceStable(headers, func(i, j int) bool {
		return headers[i].Date.Before(headers[j].Date)
	})
	byID := make(map[uuid.UUID]PostingHeader, len(headers))
	headerIDs := make([]uuid.UUID, 0, len(headers))
	for _, h := range headers {
		byID[h.ID] = h
		headerIDs = append(headerIDs, h.ID)
	}

	lines, err := a.source.ListPostingLines(ctx, accountID, headerIDs)
	if err != nil {
		return nil, err
	}

	// Process lines grouped by header in header-date order, preserving line
	// fetch order within a header.
	grouped := make(map[uuid.UUID][]PostingLine, len(headers))
	for _, line := range lines {
		if _, ok := byID[line.HeaderID]; !ok {
			// Upstream referential gap: the line points at a header outside
			// the fetched window. Dropped, never fatal.
			if a.logger != nil {
				a.logger.Warn("dropping posting line with unresolved header",
					slog.String("line_id", line.ID.String()),
					slog.String("header_id", line.HeaderID.String()))
			}
			if a.observer != nil {
				a.observer.ReferentialGapDropped()
			}
			continue
		}
		grouped[line.HeaderID] = append(grouped[line.HeaderID], line)
	}

	merged := make([]MergedTransaction, 0, len(lines))
	balance := opening.Balance
	balanceDoc := decimal.Zero
	for _, h := range headers {
		for _, line := range grouped[h.ID] {
			balance = balance.Add(line.Debit).Sub(line.Credit)
			balanceDoc = balanceDoc.Add(line.DebitDoc).Sub(line.CreditDoc)
			merged = append(merged, mergeLine(h, line, resolver, balance, balanceDoc))
		}
	}

	return merged, nil
}

func mergeLine(h PostingHeader, line PostingLine, resolver *Resolver, balance, balanceDoc decimal.Decimal) MergedTransaction {
	narration := line.Narration
	if narration == "" {
		narration = h.Narration
	}
	typeLabel := h.TypeDescription
	if typeLabel == "" {
		typeLabel = h.TypeCode
	}
	amount := line.DebitDoc
	if !line.DebitDoc.IsPositive() {
		amount = line.CreditDoc.Neg()
	}
	return MergedTransaction{
		Date:              h.Date,
		DateText:          h.Date.Format(dateLayout),
		TypeLabel:         typeLabel,
		Narration:         narration,
		Amount:            amount,
		CurrencyCode:      resolver.Resolve(line.CurrencyID),
		ExchangeRate:      line.ExchangeRate,
		Debit:             line.Debit,
		Credit:            line.Credit,
		DebitDoc:          line.DebitDoc,
		CreditDoc:         line.CreditDoc,
		RunningBalance:    balance,
		RunningBalanceDoc: balanceDoc,
	}
}
