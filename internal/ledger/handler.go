package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/ledgerscope/ledgerscope/internal/ledger/export"
	"github.com/ledgerscope/ledgerscope/internal/platform/httpx"
)

// ReportService is the slice of Service the handler depends on.
type ReportService interface {
	ListAccounts(ctx context.Context) ([]Account, error)
	Refresh(ctx context.Context, sel Selection) (*Report, error)
}

// PDFRenderer converts finished HTML into PDF bytes.
type PDFRenderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// Handler exposes the ledger report over HTTP.
type Handler struct {
	logger   *slog.Logger
	service  ReportService
	validate *validator.Validate
	pdf      PDFRenderer
}

// NewHandler constructs the handler. pdf may be nil, disabling PDF export.
func NewHandler(logger *slog.Logger, service ReportService, pdf PDFRenderer) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
		pdf:      pdf,
	}
}

type reportQuery struct {
	AccountID    int64  `validate:"required,gt=0"`
	Range        string `validate:"omitempty,max=16"`
	From         string `validate:"omitempty,max=10"`
	To           string `validate:"omitempty,max=10"`
	Search       string
	SearchColumn string `validate:"omitempty,max=16"`
	Sort         string `validate:"omitempty,max=16"`
	Dir          string `validate:"omitempty,oneof=asc desc"`
	Mode         string `validate:"omitempty,oneof=local document"`
	Filters      []ColumnFilter
}

func (h *Handler) parseQuery(r *http.Request) (reportQuery, error) {
	values := r.URL.Query()
	accountID, _ := strconv.ParseInt(values.Get("account_id"), 10, 64)
	q := reportQuery{
		AccountID:    accountID,
		Range:        values.Get("range"),
		From:         values.Get("from"),
		To:           values.Get("to"),
		Search:       values.Get("search"),
		SearchColumn: values.Get("search_column"),
		Sort:         values.Get("sort"),
		Dir:          values.Get("dir"),
		Mode:         values.Get("mode"),
	}
	for key, vals := range values {
		if !strings.HasPrefix(key, "filter.") || len(vals) == 0 || vals[0] == "" {
			continue
		}
		q.Filters = append(q.Filters, ColumnFilter{Column: Column(strings.TrimPrefix(key, "filter.")), Value: vals[0]})
	}
	if err := h.validate.Struct(q); err != nil {
		return reportQuery{}, err
	}
	return q, nil
}

func (q reportQuery) selection() Selection {
	return Selection{
		AccountID: q.AccountID,
		Window:    WindowRequest{Preset: q.Range, From: q.From, To: q.To},
	}
}

func (q reportQuery) viewState() ViewState {
	dir := SortAscending
	if q.Dir == string(SortDescending) {
		dir = SortDescending
	}
	return ViewState{
		SearchText:   q.Search,
		SearchColumn: Column(q.SearchColumn),
		Filters:      q.Filters,
		Sort:         SortSpec{Column: Column(q.Sort), Direction: dir},
	}
}

func (q reportQuery) displayMode() DisplayMode {
	if q.Mode == string(ModeDocument) {
		return ModeDocument
	}
	return ModeLocal
}

type openingBalanceResponse struct {
	DebitTotal  decimal.Decimal `json:"debit_total"`
	CreditTotal decimal.Decimal `json:"credit_total"`
	Balance     decimal.Decimal `json:"balance"`
}

type reportResponse struct {
	AccountID  int64                  `json:"account_id"`
	From       string                 `json:"from"`
	To         string                 `json:"to"`
	Opening    openingBalanceResponse `json:"opening_balance"`
	Rows       []MergedTransaction    `json:"rows"`
	Closing    decimal.Decimal        `json:"closing_balance"`
	ClosingDoc decimal.Decimal        `json:"closing_balance_doc"`
	Notice     string                 `json:"notice,omitempty"`
}

// Report serves the ledger report as JSON.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	q, err := h.parseQuery(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	report, err := h.service.Refresh(r.Context(), q.selection())
	if err != nil {
		h.respondError(w, err)
		return
	}
	rows := DeriveView(report.Rows, q.viewState())

	closing := report.Opening.Balance
	closingDoc := decimal.Zero
	if n := len(report.Rows); n > 0 {
		closing = report.Rows[n-1].RunningBalance
		closingDoc = report.Rows[n-1].RunningBalanceDoc
	}
	httpx.JSON(w, http.StatusOK, reportResponse{
		AccountID: report.AccountID,
		From:      report.Window.Start.Format(dateLayout),
		To:        report.Window.End.Format(dateLayout),
		Opening: openingBalanceResponse{
			DebitTotal:  report.Opening.DebitTotal,
			CreditTotal: report.Opening.CreditTotal,
			Balance:     report.Opening.Balance,
		},
		Rows:       rows,
		Closing:    closing,
		ClosingDoc: closingDoc,
		Notice:     report.Notice,
	})
}

type accountResponse struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// Accounts serves the account picker list.
func (h *Handler) Accounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.ListAccounts(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, accountResponse{ID: a.ID, Code: a.Code, Name: a.Name})
	}
	httpx.JSON(w, http.StatusOK, out)
}

// ExportCSV streams the projected report as a CSV download.
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	q, doc, report, ok := h.projected(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", exportBaseName(report)))
	if err := export.WriteCSV(w, exportTable(doc, exportTitle(report, q.displayMode()))); err != nil {
		h.logger.Error("write ledger csv", slog.Any("error", err))
	}
}

// ExportPDF renders the projected report to PDF.
func (h *Handler) ExportPDF(w http.ResponseWriter, r *http.Request) {
	if h.pdf == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "PDF Export Unavailable", "no renderer configured")
		return
	}
	q, doc, report, ok := h.projected(w, r)
	if !ok {
		return
	}
	html := export.BuildHTML(exportTable(doc, exportTitle(report, q.displayMode())))
	pdf, err := h.pdf.RenderHTML(r.Context(), html)
	if err != nil {
		h.logger.Error("render ledger pdf", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "PDF Render Failed", err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.pdf", exportBaseName(report)))
	_, _ = w.Write(pdf)
}

// projected runs the shared fetch+derive+project pipeline for exports.
func (h *Handler) projected(w http.ResponseWriter, r *http.Request) (reportQuery, TableDocument, *Report, bool) {
	q, err := h.parseQuery(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return reportQuery{}, TableDocument{}, nil, false
	}
	report, err := h.service.Refresh(r.Context(), q.selection())
	if err != nil {
		h.respondError(w, err)
		return reportQuery{}, TableDocument{}, nil, false
	}
	rows := DeriveView(report.Rows, q.viewState())
	return q, Project(rows, report.Opening, q.displayMode()), report, true
}

// exportTable flattens a TableDocument for the format-specific writers.
func exportTable(doc TableDocument, title string) export.Table {
	records := make([][]string, 0, len(doc.Records))
	for _, rec := range doc.Records {
		records = append(records, rec.Cells)
	}
	return export.Table{Title: title, Columns: doc.Columns, Records: records}
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidRange):
		httpx.Problem(w, http.StatusBadRequest, "Invalid Range", err.Error())
	case errors.Is(err, ErrQueryFailure):
		h.logger.Error("ledger store query", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Store Unavailable", "the ledger store rejected the query")
	case errors.Is(err, ErrStaleSelection):
		httpx.Problem(w, http.StatusConflict, "Superseded", "a newer selection replaced this request")
	default:
		h.logger.Error("ledger report", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func exportBaseName(report *Report) string {
	return fmt.Sprintf("ledger_%d_%s_%s",
		report.AccountID,
		report.Window.Start.Format("20060102"),
		report.Window.End.Format("20060102"))
}

func exportTitle(report *Report, mode DisplayMode) string {
	label := "Local Currency"
	if mode == ModeDocument {
		label = "Document Currency"
	}
	return fmt.Sprintf("Account Ledger %s to %s (%s)",
		report.Window.Start.Format(dateLayout),
		report.Window.End.Format(dateLayout),
		label)
}
