package export

import (
	"html"
	"strings"
)

// BuildHTML renders the table as a standalone HTML document suitable for a
// Chromium-based PDF converter.
func BuildHTML(table Table) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><head><meta charset="utf-8"><style>
body { font-family: Arial, Helvetica, sans-serif; font-size: 11px; margin: 24px; }
h1 { font-size: 15px; margin-bottom: 12px; }
table { width: 100%; border-collapse: collapse; }
th, td { border: 1px solid #999; padding: 4px 6px; text-align: left; }
th { background: #efefef; }
td.num { text-align: right; }
tr.synthetic td { font-weight: bold; background: #f7f7f7; }
</style></head><body>`)

	if table.Title != "" {
		b.WriteString("<h1>")
		b.WriteString(html.EscapeString(table.Title))
		b.WriteString("</h1>")
	}

	b.WriteString("<table><thead><tr>")
	for _, col := range table.Columns {
		b.WriteString("<th>")
		b.WriteString(html.EscapeString(col))
		b.WriteString("</th>")
	}
	b.WriteString("</tr></thead><tbody>")
	for _, record := range table.Records {
		if isSynthetic(record) {
			b.WriteString(`<tr class="synthetic">`)
		} else {
			b.WriteString("<tr>")
		}
		for i, cell := range record {
			if numericColumn(table.Columns, i) {
				b.WriteString(`<td class="num">`)
			} else {
				b.WriteString("<td>")
			}
			b.WriteString(html.EscapeString(cell))
			b.WriteString("</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</tbody></table></body></html>")
	return b.String()
}

// isSynthetic marks the opening/closing balance records, which carry their
// label in the type column with an empty date.
func isSynthetic(record []string) bool {
	return len(record) > 1 && record[0] == "" &&
		(record[1] == "Opening Balance" || record[1] == "Closing Balance")
}

func numericColumn(columns []string, i int) bool {
	if i >= len(columns) {
		return false
	}
	switch columns[i] {
	case "Rate", "Debit", "Credit", "Debit (Doc)", "Credit (Doc)", "Balance", "Balance (Doc)":
		return true
	}
	return false
}
