package ledger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Selection identifies one report request: an account plus a window choice.
type Selection struct {
	AccountID int64
	Window    WindowRequest
}

// Report is the current report object. It is replaced atomically on each
// successful refresh and cleared on failure; no partially populated report
// is ever visible.
type Report struct {
	AccountID   int64
	Window      Window
	Opening     OpeningBalance
	Rows        []MergedTransaction
	Notice      string
	GeneratedAt time.Time
}

// ServiceObserver receives refresh diagnostics. Optional.
type ServiceObserver interface {
	AssemblyObserver
	ReportBuilt(rows int, took time.Duration)
	StaleResponseDiscarded()
}

// Service owns report computation for one session: it awaits the opening
// balance before assembly, guards against stale fetch results with a
// generation counter, and keeps the view derivation pure.
type Service struct {
	repo      Repository
	currency  *SnapshotCache
	assembler *Assembler
	logger    *slog.Logger
	observer  ServiceObserver
	now       func() time.Time

	generation atomic.Uint64
	mu         sync.Mutex
	current    *Report
}

// NewService wires the service. observer may be nil.
func NewService(repo Repository, currency *SnapshotCache, logger *slog.Logger, observer ServiceObserver) *Service {
	var assemblyObserver AssemblyObserver
	if observer != nil {
		assemblyObserver = observer
	}
	return &Service{
		repo:      repo,
		currency:  currency,
		assembler: NewAssembler(repo, logger, assemblyObserver),
		logger:    logger,
		observer:  observer,
		now:       time.Now,
	}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// ListAccounts returns the account picker data, ordered by code.
func (s *Service) ListAccounts(ctx context.Context) ([]Account, error) {
	return s.repo.ListActiveAccounts(ctx)
}

// Current returns the last committed report, or nil when none is held.
func (s *Service) Current() *Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Refresh recomputes the report for sel. The opening balance fetch is
// awaited before assembly since it seeds the running balance. If the
// selection changes while fetches are in flight, the late result is
// discarded (last selection wins) and ErrStaleSelection returned. Invalid
// ranges and assembly query failures clear the current report.
func (s *Service) Refresh(ctx context.Context, sel Selection) (*Report, error) {
	generation := s.generation.Add(1)
	started := s.now()

	win, err := ResolveWindow(sel.Window, started)
	if err != nil {
		s.clear(generation)
		return nil, err
	}

	notice := ""
	opening, err := ComputeOpeningBalance(ctx, s.repo, sel.AccountID, win.Start)
	if err != nil {
		// Recoverable: render with a zero opening balance and a notice
		// instead of aborting the whole report.
		if s.logger != nil {
			s.logger.Warn("opening balance query failed, using zero",
				slog.Int64("account_id", sel.AccountID), slog.Any("error", err))
		}
		notice = "opening balance unavailable, showing zero"
	}

	resolver, err := s.currency.Load(ctx)
	if err != nil {
		// Unknown currencies degrade to blank codes, not a failed report.
		if s.logger != nil {
			s.logger.Warn("currency snapshot load failed", slog.Any("error", err))
		}
		resolver = NewResolver(nil)
	}

	rows, err := s.assembler.Assemble(ctx, sel.AccountID, resolver, win, opening)
	if err != nil {
		s.clear(generation)
		return nil, err
	}

	report := &Report{
		AccountID:   sel.AccountID,
		Window:      win,
		Opening:     opening,
		Rows:        rows,
		Notice:      notice,
		GeneratedAt: started,
	}
	if !s.commit(generation, report) {
		if s.observer != nil {
			s.observer.StaleResponseDiscarded()
		}
		return nil, ErrStaleSelection
	}
	if s.observer != nil {
		s.observer.ReportBuilt(len(rows), s.now().Sub(started))
	}
	return report, nil
}

// commit installs report only if generation is still current.
func (s *Service) commit(generation uint64, report *Report) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if generation != s.generation.Load() {
		return false
	}
	s.current = report
	return true
}

// clear drops the current report unless a newer refresh already replaced it.
func (s *Service) clear(generation uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if generation != s.generation.Load() {
		return
	}
	s.current = nil
}
