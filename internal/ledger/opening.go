package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// OpeningBalanceSource supplies debit/credit rows for posted postings dated
// strictly before a cutoff.
type OpeningBalanceSource interface {
	SumPostedPriorPostings(ctx context.Context, accountID int64, before time.Time) ([]AmountPair, error)
}

// ComputeOpeningBalance sums all posted activity for the account strictly
// before cutoff. Debit and credit totals accumulate independently; the
// result does not depend on fetch order. On a query failure it returns a
// zero balance together with the error so the caller can still render the
// report with a visible notice instead of aborting.
func ComputeOpeningBalance(ctx context.Context, src OpeningBalanceSource, accountID int64, cutoff time.Time) (OpeningBalance, error) {
	pairs, err := src.SumPostedPriorPostings(ctx, accountID, cutoff)
	if err != nil {
		return zeroOpeningBalance(), err
	}
	debit := decimal.Zero
	credit := decimal.Zero
	for _, p := range pairs {
		debit = debit.Add(p.Debit)
		credit = credit.Add(p.Credit)
	}
	return OpeningBalance{
		DebitTotal:  debit,
		CreditTotal: credit,
		Balance:     debit.Sub(credit),
	}, nil
}

func zeroOpeningBalance() OpeningBalance {
	return OpeningBalance{
		DebitTotal:  decimal.Zero,
		CreditTotal: decimal.Zero,
		Balance:     decimal.Zero,
	}
}
