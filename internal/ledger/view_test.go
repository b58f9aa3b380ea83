package ledger

import (
	"reflect"
	"testing"

	"github.com/shopspring/decimal"
)

func sampleRows() []MergedTransaction {
	return []MergedTransaction{
		{Date: day("2024-01-05"), DateText: "2024-01-05", TypeLabel: "Invoice", Narration: "Office rent January", CurrencyCode: "USD", Debit: decimal.NewFromInt(900), RunningBalance: decimal.NewFromInt(900)},
		{Date: day("2024-01-08"), DateText: "2024-01-08", TypeLabel: "Payment", Narration: "Supplier payment", CurrencyCode: "EUR", Credit: decimal.NewFromInt(200), RunningBalance: decimal.NewFromInt(700)},
		{Date: day("2024-01-08"), DateText: "2024-01-08", TypeLabel: "Invoice", Narration: "RENT deposit refund", CurrencyCode: "USD", Credit: decimal.NewFromInt(50), RunningBalance: decimal.NewFromInt(650)},
		{Date: day("2024-01-20"), DateText: "2024-01-20", TypeLabel: "Journal", Narration: "Utilities", CurrencyCode: "USD", Debit: decimal.NewFromInt(120), RunningBalance: decimal.NewFromInt(770)},
	}
}

func TestDeriveViewNarrationSearchKeepsBalancesFrozen(t *testing.T) {
	rows := sampleRows()
	view := DeriveView(rows, ViewState{SearchText: "rent", SearchColumn: ColumnNarration})

	if len(view) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(view))
	}
	if view[0].Narration != "Office rent January" || view[1].Narration != "RENT deposit refund" {
		t.Fatalf("unexpected rows: %q, %q", view[0].Narration, view[1].Narration)
	}
	// Balances stay as assembled, not recomputed over the filtered subset.
	if !view[0].RunningBalance.Equal(decimal.NewFromInt(900)) {
		t.Fatalf("row 1 balance recomputed: %s", view[0].RunningBalance)
	}
	if !view[1].RunningBalance.Equal(decimal.NewFromInt(650)) {
		t.Fatalf("row 2 balance recomputed: %s", view[1].RunningBalance)
	}
}

func TestDeriveViewGlobalSearch(t *testing.T) {
	rows := sampleRows()

	view := DeriveView(rows, ViewState{SearchText: "eur"})
	if len(view) != 1 || view[0].CurrencyCode != "EUR" {
		t.Fatalf("global search should match the currency column: %+v", view)
	}

	view = DeriveView(rows, ViewState{SearchText: "120"})
	if len(view) != 1 || !view[0].Debit.Equal(decimal.NewFromInt(120)) {
		t.Fatalf("global search should match debit as text: %+v", view)
	}

	view = DeriveView(rows, ViewState{SearchText: ""})
	if len(view) != len(rows) {
		t.Fatalf("empty search must keep all rows, got %d", len(view))
	}
}

func TestDeriveViewDoesNotMutateInput(t *testing.T) {
	rows := sampleRows()
	snapshot := make([]MergedTransaction, len(rows))
	copy(snapshot, rows)

	DeriveView(rows, ViewState{Sort: SortSpec{Column: ColumnCredit, Direction: SortDescending}, SearchText: "x"})

	if !reflect.DeepEqual(rows, snapshot) {
		t.Fatal("DeriveView mutated its input")
	}
}

func TestDeriveViewColumnFiltersAreConjunctive(t *testing.T) {
	rows := sampleRows()
	state := ViewState{Filters: []ColumnFilter{
		{Column: ColumnType, Value: "invoice"},
		{Column: ColumnCurrency, Value: "usd"},
	}}

	view := DeriveView(rows, state)
	if len(view) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(view))
	}
	for _, row := range view {
		if row.TypeLabel != "Invoice" || row.CurrencyCode != "USD" {
			t.Fatalf("row violates filter conjunction: %+v", row)
		}
	}

	// Filter order must not matter.
	state.Filters[0], state.Filters[1] = state.Filters[1], state.Filters[0]
	if got := DeriveView(rows, state); !reflect.DeepEqual(got, view) {
		t.Fatal("filter order changed the result")
	}
}

func TestDeriveViewIdempotent(t *testing.T) {
	state := ViewState{
		SearchText: "usd",
		Filters:    []ColumnFilter{{Column: ColumnType, Value: "in"}},
		Sort:       SortSpec{Column: ColumnDebit, Direction: SortDescending},
	}
	once := DeriveView(sampleRows(), state)
	twice := DeriveView(once, state)
	if !reflect.DeepEqual(once, twice) {
		t.Fatal("applying the same view state twice changed the result")
	}
}

func TestDeriveViewSortStable(t *testing.T) {
	rows := sampleRows()
	state := ViewState{Sort: SortSpec{Column: ColumnDate, Direction: SortAscending}}

	once := DeriveView(rows, state)
	twice := DeriveView(once, state)
	if !reflect.DeepEqual(once, twice) {
		t.Fatal("re-sorting an already sorted sequence changed it")
	}
	// The two 2024-01-08 rows keep their original relative order.
	if once[1].Narration != "Supplier payment" || once[2].Narration != "RENT deposit refund" {
		t.Fatalf("equal dates reordered: %q, %q", once[1].Narration, once[2].Narration)
	}
}

func TestDeriveViewNumericSort(t *testing.T) {
	view := DeriveView(sampleRows(), ViewState{Sort: SortSpec{Column: ColumnBalance, Direction: SortDescending}})
	for i := 1; i < len(view); i++ {
		if view[i].RunningBalance.GreaterThan(view[i-1].RunningBalance) {
			t.Fatalf("descending balance sort violated at %d", i)
		}
	}
}

func TestSortSpecToggle(t *testing.T) {
	spec := SortSpec{Column: ColumnDate, Direction: SortAscending}

	spec = spec.Toggle(ColumnDate)
	if spec.Column != ColumnDate || spec.Direction != SortDescending {
		t.Fatalf("same column must flip direction: %+v", spec)
	}
	spec = spec.Toggle(ColumnDate)
	if spec.Direction != SortAscending {
		t.Fatalf("second toggle must flip back: %+v", spec)
	}
	spec = spec.Toggle(ColumnDebit)
	if spec.Column != ColumnDebit || spec.Direction != SortAscending {
		t.Fatalf("new column must reset to ascending: %+v", spec)
	}
}
