package ledger

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	accounts   []Account
	currencies []CurrencyRef
	prior      []AmountPair
	priorErr   error
	headers    []PostingHeader
	headersErr error
	lines      []PostingLine

	linesCalls      atomic.Int32
	blockFirstLines chan struct{}
	enteredLines    chan struct{}
}

func (f *fakeRepo) ListActiveAccounts(context.Context) ([]Account, error) {
	return f.accounts, nil
}

func (f *fakeRepo) ListCurrencies(context.Context) ([]CurrencyRef, error) {
	return f.currencies, nil
}

func (f *fakeRepo) SumPostedPriorPostings(context.Context, int64, time.Time) ([]AmountPair, error) {
	return f.prior, f.priorErr
}

func (f *fakeRepo) ListHeadersInRange(context.Context, time.Time, time.Time) ([]PostingHeader, error) {
	return f.headers, f.headersErr
}

func (f *fakeRepo) ListPostingLines(context.Context, int64, []uuid.UUID) ([]PostingLine, error) {
	if f.linesCalls.Add(1) == 1 && f.blockFirstLines != nil {
		close(f.enteredLines)
		<-f.blockFirstLines
	}
	return f.lines, nil
}

type fakeObserver struct {
	mu     sync.Mutex
	built  int
	gaps   int
	stales int
}

func (o *fakeObserver) ReportBuilt(int, time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.built++
}

func (o *fakeObserver) ReferentialGapDropped() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.gaps++
}

func (o *fakeObserver) StaleResponseDiscarded() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stales++
}

func newTestService(repo *fakeRepo, observer ServiceObserver) *Service {
	svc := NewService(repo, NewSnapshotCache(repo, nil, time.Minute, nil), nil, observer)
	svc.WithNow(func() time.Time { return testNow })
	return svc
}

func scenarioRepo() *fakeRepo {
	h1 := PostingHeader{ID: uuid.New(), Date: day("2024-01-10"), TypeCode: "INV"}
	h2 := PostingHeader{ID: uuid.New(), Date: day("2024-01-12"), TypeCode: "PAY"}
	return &fakeRepo{
		currencies: []CurrencyRef{{ID: 1, Code: "USD"}},
		prior:      []AmountPair{{Debit: decimal.NewFromInt(500)}},
		headers:    []PostingHeader{h1, h2},
		lines: []PostingLine{
			{ID: uuid.New(), HeaderID: h1.ID, AccountID: 7, Debit: decimal.NewFromInt(100), CurrencyID: 1},
			{ID: uuid.New(), HeaderID: h2.ID, AccountID: 7, Credit: decimal.NewFromInt(40), CurrencyID: 1},
		},
	}
}

func customJanuary() Selection {
	return Selection{AccountID: 7, Window: WindowRequest{Preset: "custom", From: "2024-01-01", To: "2024-01-31"}}
}

func TestServiceRefreshCommitsReport(t *testing.T) {
	observer := &fakeObserver{}
	svc := newTestService(scenarioRepo(), observer)

	report, err := svc.Refresh(context.Background(), customJanuary())
	require.NoError(t, err)
	require.NotNil(t, report)
	require.Equal(t, report, svc.Current())

	require.True(t, report.Opening.Balance.Equal(decimal.NewFromInt(500)))
	require.Len(t, report.Rows, 2)
	require.True(t, report.Rows[0].RunningBalance.Equal(decimal.NewFromInt(600)))
	require.True(t, report.Rows[1].RunningBalance.Equal(decimal.NewFromInt(560)))
	require.Empty(t, report.Notice)
	require.Equal(t, 1, observer.built)
}

func TestServiceInvalidRangeClearsReport(t *testing.T) {
	svc := newTestService(scenarioRepo(), nil)

	_, err := svc.Refresh(context.Background(), customJanuary())
	require.NoError(t, err)
	require.NotNil(t, svc.Current())

	_, err = svc.Refresh(context.Background(), Selection{AccountID: 7, Window: WindowRequest{Preset: "custom", From: "2024-02-10", To: "2024-02-01"}})
	require.ErrorIs(t, err, ErrInvalidRange)
	require.Nil(t, svc.Current(), "a blocking error must clear the previous report")
}

func TestServiceQueryFailureClearsReport(t *testing.T) {
	repo := scenarioRepo()
	svc := newTestService(repo, nil)

	_, err := svc.Refresh(context.Background(), customJanuary())
	require.NoError(t, err)

	repo.headersErr = fmt.Errorf("%w: connection refused", ErrQueryFailure)
	_, err = svc.Refresh(context.Background(), customJanuary())
	require.ErrorIs(t, err, ErrQueryFailure)
	require.Nil(t, svc.Current(), "no stale rows may remain after an aborted assembly")
}

func TestServiceOpeningFailureIsRecoverable(t *testing.T) {
	repo := scenarioRepo()
	repo.priorErr = fmt.Errorf("%w: timeout", ErrQueryFailure)
	svc := newTestService(repo, nil)

	report, err := svc.Refresh(context.Background(), customJanuary())
	require.NoError(t, err)
	require.NotEmpty(t, report.Notice)
	require.True(t, report.Opening.Balance.IsZero())
	// Running balances seed from the fallback zero opening balance.
	require.True(t, report.Rows[0].RunningBalance.Equal(decimal.NewFromInt(100)))
}

func TestServiceStaleResponseDiscarded(t *testing.T) {
	repo := scenarioRepo()
	repo.blockFirstLines = make(chan struct{})
	repo.enteredLines = make(chan struct{})
	observer := &fakeObserver{}
	svc := newTestService(repo, observer)

	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.Refresh(context.Background(), customJanuary())
		firstErr <- err
	}()
	<-repo.enteredLines

	// A newer selection lands while the first fetch is still in flight.
	second, err := svc.Refresh(context.Background(), Selection{AccountID: 7, Window: WindowRequest{Preset: "30d"}})
	require.NoError(t, err)

	close(repo.blockFirstLines)
	require.ErrorIs(t, <-firstErr, ErrStaleSelection)

	require.Equal(t, second, svc.Current(), "last selection wins")
	require.Equal(t, 1, observer.stales)
	require.Equal(t, 1, observer.built)
}

func TestServiceListAccounts(t *testing.T) {
	repo := scenarioRepo()
	repo.accounts = []Account{{ID: 1, Code: "1000", Name: "Cash"}}
	svc := newTestService(repo, nil)

	accounts, err := svc.ListAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	require.Equal(t, "1000", accounts[0].Code)
}
