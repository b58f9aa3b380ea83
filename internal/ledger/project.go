package ledger

import "github.com/shopspring/decimal"

// DisplayMode selects the column set: local shows base-currency columns
// only, document adds currency, rate, and document-amount columns.
type DisplayMode string

const (
	ModeLocal    DisplayMode = "local"
	ModeDocument DisplayMode = "document"
)

// RecordKind tags a projected record. Opening and closing records are
// synthetic: they are injected here, at the presentation boundary, and never
// appear in the MergedTransaction sequence that filtering and balance
// invariants operate on.
type RecordKind string

const (
	RecordOpening RecordKind = "opening"
	RecordPosting RecordKind = "posting"
	RecordClosing RecordKind = "closing"
)

// TableRecord is one projected output row, cells aligned with the parent
// document's column list.
type TableRecord struct {
	Kind  RecordKind
	Cells []string
}

// TableDocument is the finalized tabular form handed to spreadsheet and PDF
// renderers.
type TableDocument struct {
	Columns []string
	Records []TableRecord
}

var (
	localColumns    = []string{"Date", "Type", "Narration", "Debit", "Credit", "Balance"}
	documentColumns = []string{"Date", "Type", "Narration", "Currency", "Rate", "Debit", "Credit", "Debit (Doc)", "Credit (Doc)", "Balance", "Balance (Doc)"}
)

// Project maps the final row sequence into tabular records. It performs no
// numeric computation: every amount cell reuses a value computed upstream.
// An Opening Balance record is always prepended (the balance shown under
// Debit when non-negative, Credit when negative, and always under Balance)
// and a Closing Balance record appended, equal to the last row's running
// balance, or the opening balance when no rows are present.
func Project(rows []MergedTransaction, opening OpeningBalance, mode DisplayMode) TableDocument {
	doc := TableDocument{Columns: localColumns}
	if mode == ModeDocument {
		doc.Columns = documentColumns
	}

	doc.Records = append(doc.Records, openingRecord(opening, mode))
	for _, row := range rows {
		doc.Records = append(doc.Records, postingRecord(row, mode))
	}
	doc.Records = append(doc.Records, closingRecord(rows, opening, mode))
	return doc
}

func openingRecord(opening OpeningBalance, mode DisplayMode) TableRecord {
	debit, credit := "", ""
	if opening.Balance.IsNegative() {
		credit = money(opening.Balance.Neg())
	} else {
		debit = money(opening.Balance)
	}
	balance := money(opening.Balance)
	if mode == ModeDocument {
		return TableRecord{Kind: RecordOpening, Cells: []string{"", "Opening Balance", "", "", "", debit, credit, "", "", balance, ""}}
	}
	return TableRecord{Kind: RecordOpening, Cells: []string{"", "Opening Balance", "", debit, credit, balance}}
}

func postingRecord(row MergedTransaction, mode DisplayMode) TableRecord {
	if mode == ModeDocument {
		return TableRecord{Kind: RecordPosting, Cells: []string{
			row.DateText,
			row.TypeLabel,
			row.Narration,
			row.CurrencyCode,
			row.ExchangeRate.String(),
			money(row.Debit),
			money(row.Credit),
			money(row.DebitDoc),
			money(row.CreditDoc),
			money(row.RunningBalance),
			money(row.RunningBalanceDoc),
		}}
	}
	return TableRecord{Kind: RecordPosting, Cells: []string{
		row.DateText,
		row.TypeLabel,
		row.Narration,
		money(row.Debit),
		money(row.Credit),
		money(row.RunningBalance),
	}}
}

func closingRecord(rows []MergedTransaction, opening OpeningBalance, mode DisplayMode) TableRecord {
	closing := opening.Balance
	closingDoc := decimal.Zero
	if len(rows) > 0 {
		last := rows[len(rows)-1]
		closing = last.RunningBalance
		closingDoc = last.RunningBalanceDoc
	}
	if mode == ModeDocument {
		return TableRecord{Kind: RecordClosing, Cells: []string{"", "Closing Balance", "", "", "", "", "", "", "", money(closing), money(closingDoc)}}
	}
	return TableRecord{Kind: RecordClosing, Cells: []string{"", "Closing Balance", "", "", "", money(closing)}}
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
