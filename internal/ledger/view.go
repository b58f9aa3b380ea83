package ledger

import (
	"sort"
	"strings"
)

// Column identifies a report column for search, filter, and sort purposes.
type Column string

const (
	ColumnAll        Column = "all"
	ColumnDate       Column = "date"
	ColumnType       Column = "type"
	ColumnNarration  Column = "narration"
	ColumnCurrency   Column = "currency"
	ColumnRate       Column = "rate"
	ColumnDebit      Column = "debit"
	ColumnCredit     Column = "credit"
	ColumnDebitDoc   Column = "debit_doc"
	ColumnCreditDoc  Column = "credit_doc"
	ColumnBalance    Column = "balance"
	ColumnBalanceDoc Column = "balance_doc"
)

// SortDirection orders a sorted view ascending or descending.
type SortDirection string

const (
	SortAscending  SortDirection = "asc"
	SortDescending SortDirection = "desc"
)

// SortSpec is the single active sort key and direction.
type SortSpec struct {
	Column    Column
	Direction SortDirection
}

// Toggle returns the spec after the user activates column: the same column
// flips direction, a new column resets to ascending.
func (s SortSpec) Toggle(column Column) SortSpec {
	if s.Column == column {
		if s.Direction == SortAscending {
			return SortSpec{Column: column, Direction: SortDescending}
		}
		return SortSpec{Column: column, Direction: SortAscending}
	}
	return SortSpec{Column: column, Direction: SortAscending}
}

// ColumnFilter keeps rows whose column text contains Value. Filters combine
// conjunctively; their relative order is irrelevant.
type ColumnFilter struct {
	Column Column
	Value  string
}

// ViewState is the explicit, serializable filter/search/sort selection owned
// by the report session.
type ViewState struct {
	SearchText   string
	SearchColumn Column
	Filters      []ColumnFilter
	Sort         SortSpec
}

// DeriveView computes the display sequence for rows under state. It is a
// pure function: rows is never mutated, and running balances on surviving
// rows keep the values frozen at assembly time regardless of what is
// filtered out or how the view is sorted.
func DeriveView(rows []MergedTransaction, state ViewState) []MergedTransaction {
	view := make([]MergedTransaction, 0, len(rows))
	for _, row := range rows {
		if !matchesSearch(row, state.SearchText, state.SearchColumn) {
			continue
		}
		if !matchesFilters(row, state.Filters) {
			continue
		}
		view = append(view, row)
	}
	sortView(view, state.Sort)
	return view
}

func matchesSearch(row MergedTransaction, text string, column Column) bool {
	if text == "" {
		return true
	}
	needle := strings.ToLower(text)
	if column == "" || column == ColumnAll {
		for _, c := range []Column{ColumnDate, ColumnType, ColumnNarration, ColumnCurrency, ColumnDebit, ColumnCredit} {
			if strings.Contains(strings.ToLower(columnText(row, c)), needle) {
				return true
			}
		}
		return false
	}
	return strings.Contains(strings.ToLower(columnText(row, column)), needle)
}

func matchesFilters(row MergedTransaction, filters []ColumnFilter) bool {
	for _, f := range filters {
		if f.Value == "" {
			continue
		}
		if !strings.Contains(strings.ToLower(columnText(row, f.Column)), strings.ToLower(f.Value)) {
			return false
		}
	}
	return true
}

func columnText(row MergedTransaction, column Column) string {
	switch column {
	case ColumnDate:
		return row.DateText
	case ColumnType:
		return row.TypeLabel
	case ColumnNarration:
		return row.Narration
	case ColumnCurrency:
		return row.CurrencyCode
	case ColumnRate:
		return row.ExchangeRate.String()
	case ColumnDebit:
		return row.Debit.String()
	case ColumnCredit:
		return row.Credit.String()
	case ColumnDebitDoc:
		return row.DebitDoc.String()
	case ColumnCreditDoc:
		return row.CreditDoc.String()
	case ColumnBalance:
		return row.RunningBalance.String()
	case ColumnBalanceDoc:
		return row.RunningBalanceDoc.String()
	default:
		return ""
	}
}

func sortView(view []MergedTransaction, spec SortSpec) {
	if spec.Column == "" || spec.Column == ColumnAll {
		return
	}
	less := lessFunc(spec.Column)
	if less == nil {
		return
	}
	sort.SliceStable(view, func(i, j int) bool {
		if spec.Direction == SortDescending {
			return less(view[j], view[i])
		}
		return less(view[i], view[j])
	})
}

func lessFunc(column Column) func(a, b MergedTransaction) bool {
	switch column {
	case ColumnDate:
		return func(a, b MergedTransaction) bool { return a.Date.Before(b.Date) }
	case ColumnType:
		return func(a, b MergedTransaction) bool { return a.TypeLabel < b.TypeLabel }
	case ColumnNarration:
		return func(a, b MergedTransaction) bool { return a.Narration < b.Narration }
	case ColumnCurrency:
		return func(a, b MergedTransaction) bool { return a.CurrencyCode < b.CurrencyCode }
	case ColumnRate:
		return func(a, b MergedTransaction) bool { return a.ExchangeRate.LessThan(b.ExchangeRate) }
	case ColumnDebit:
		return func(a, b MergedTransaction) bool { return a.Debit.LessThan(b.Debit) }
	case ColumnCredit:
		return func(a, b MergedTransaction) bool { return a.Credit.LessThan(b.Credit) }
	case ColumnDebitDoc:
		return func(a, b MergedTransaction) bool { return a.DebitDoc.LessThan(b.DebitDoc) }
	case ColumnCreditDoc:
		return func(a, b MergedTransaction) bool { return a.CreditDoc.LessThan(b.CreditDoc) }
	case ColumnBalance:
		return func(a, b MergedTransaction) bool { return a.RunningBalance.LessThan(b.RunningBalance) }
	case ColumnBalanceDoc:
		return func(a, b MergedTransaction) bool { return a.RunningBalanceDoc.LessThan(b.RunningBalanceDoc) }
	default:
		return nil
	}
}
