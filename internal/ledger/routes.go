package ledger

import "github.com/go-chi/chi/v5"

// MountRoutes attaches the ledger endpoints under the supplied router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.Report)
	r.Get("/accounts", h.Accounts)
	r.Get("/export.csv", h.ExportCSV)
	r.Get("/export.pdf", h.ExportPDF)
}
