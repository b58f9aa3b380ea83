package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestProjectLocalColumns(t *testing.T) {
	doc := Project(nil, openingOf(200), ModeLocal)
	if len(doc.Columns) != 6 {
		t.Fatalf("unexpected local column count: %d", len(doc.Columns))
	}
	for _, col := range doc.Columns {
		if col == "Currency" || col == "Rate" || col == "Debit (Doc)" {
			t.Fatalf("local mode must hide document columns, found %q", col)
		}
	}
}

func TestProjectDocumentColumns(t *testing.T) {
	doc := Project(nil, openingOf(200), ModeDocument)
	want := map[string]bool{"Currency": false, "Rate": false, "Debit (Doc)": false, "Credit (Doc)": false, "Balance (Doc)": false}
	for _, col := range doc.Columns {
		if _, ok := want[col]; ok {
			want[col] = true
		}
	}
	for col, seen := range want {
		if !seen {
			t.Fatalf("document mode missing column %q", col)
		}
	}
}

func TestProjectEmptyRowsShowsOpeningAndClosingOnly(t *testing.T) {
	doc := Project(nil, openingOf(200), ModeLocal)

	if len(doc.Records) != 2 {
		t.Fatalf("expected synthetic rows only, got %d records", len(doc.Records))
	}
	opening, closing := doc.Records[0], doc.Records[1]
	if opening.Kind != RecordOpening || closing.Kind != RecordClosing {
		t.Fatalf("unexpected record kinds: %s, %s", opening.Kind, closing.Kind)
	}
	// Both balances equal the opening balance of 200.
	if opening.Cells[5] != "200.00" {
		t.Fatalf("unexpected opening balance cell: %q", opening.Cells[5])
	}
	if closing.Cells[5] != "200.00" {
		t.Fatalf("unexpected closing balance cell: %q", closing.Cells[5])
	}
}

func TestProjectOpeningBalanceSignPlacement(t *testing.T) {
	positive := Project(nil, openingOf(500), ModeLocal).Records[0]
	if positive.Cells[3] != "500.00" || positive.Cells[4] != "" {
		t.Fatalf("positive opening balance belongs under Debit: %v", positive.Cells)
	}

	negative := Project(nil, OpeningBalance{Balance: decimal.NewFromInt(-75)}, ModeLocal).Records[0]
	if negative.Cells[3] != "" || negative.Cells[4] != "75.00" {
		t.Fatalf("negative opening balance belongs under Credit: %v", negative.Cells)
	}
	if negative.Cells[5] != "-75.00" {
		t.Fatalf("balance column must always carry the signed value: %v", negative.Cells)
	}
}

func TestProjectClosingUsesLastRunningBalance(t *testing.T) {
	rows := []MergedTransaction{
		{DateText: "2024-01-10", TypeLabel: "Invoice", Debit: decimal.NewFromInt(100), RunningBalance: decimal.NewFromInt(600), RunningBalanceDoc: decimal.NewFromInt(110)},
		{DateText: "2024-01-12", TypeLabel: "Payment", Credit: decimal.NewFromInt(40), RunningBalance: decimal.NewFromInt(560), RunningBalanceDoc: decimal.NewFromInt(70)},
	}
	doc := Project(rows, openingOf(500), ModeDocument)

	if len(doc.Records) != 4 {
		t.Fatalf("expected 4 records, got %d", len(doc.Records))
	}
	closing := doc.Records[len(doc.Records)-1]
	if closing.Cells[9] != "560.00" {
		t.Fatalf("closing balance must reuse the last running balance: %v", closing.Cells)
	}
	if closing.Cells[10] != "70.00" {
		t.Fatalf("closing document balance must reuse the last document running balance: %v", closing.Cells)
	}

	// Posting records reuse upstream values verbatim.
	first := doc.Records[1]
	if first.Cells[0] != "2024-01-10" || first.Cells[5] != "100.00" || first.Cells[9] != "600.00" {
		t.Fatalf("unexpected posting record: %v", first.Cells)
	}
}

func TestProjectCellsMatchColumns(t *testing.T) {
	rows := []MergedTransaction{{DateText: "2024-01-10", RunningBalance: decimal.NewFromInt(1)}}
	for _, mode := range []DisplayMode{ModeLocal, ModeDocument} {
		doc := Project(rows, openingOf(0), mode)
		for i, rec := range doc.Records {
			if len(rec.Cells) != len(doc.Columns) {
				t.Fatalf("mode %s record %d: %d cells for %d columns", mode, i, len(rec.Cells), len(doc.Columns))
			}
		}
	}
}
