package mixercore

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ligun0805/mixer-dashboard/internal/metrics"
)

// Session drives the dashboard: one refresh per user action, run to completion.
type Session struct {
	Chain   ChainReader
	Source  LogSource
	Tx      Submitter // nil = read-only
	ChainID *big.Int  // expected chain, nil skips the check
	Scan    ScanOptions
	Now     func() time.Time
	Logf    func(format string, a ...any)
}

// Snapshot is everything the presentation layer reads after a refresh.
type Snapshot struct {
	User          common.Address
	TokenBalance  *big.Int
	DepositAmount *big.Int
	LastDeposit   time.Time // zero when the contract has no deposit on record
	Eligibility   Eligibility
	Activity      ActivityView
	CanDeposit    bool
	CanWithdraw   bool
	RefreshedAt   time.Time
}

func (s *Session) logf(format string, a ...any) {
	if s.Logf != nil {
		s.Logf(format, a...)
	}
}

func (s *Session) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Refresh rebuilds the snapshot for user. The cheap 24h timer is evaluated
// before the full log scan. Any failure returns no snapshot.
func (s *Session) Refresh(ctx context.Context, user common.Address) (*Snapshot, error) {
	snap, err := s.refresh(ctx, user)
	if err != nil {
		metrics.Refreshes.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.Refreshes.WithLabelValues("ok").Inc()
	return snap, nil
}

func (s *Session) refresh(ctx context.Context, user common.Address) (*Snapshot, error) {
	if s.ChainID != nil {
		id, err := s.Chain.ChainID(ctx)
		if err != nil {
			return nil, err
		}
		if id.Cmp(s.ChainID) != 0 {
			return nil, fmt.Errorf("%w (chain id %s, expected %s)", ErrWrongNetwork, id, s.ChainID)
		}
	}

	bal, err := s.Chain.TokenBalance(ctx, user)
	if err != nil {
		return nil, err
	}
	depAmount, depTs, err := s.Chain.GetDeposit(ctx, user)
	if err != nil {
		return nil, err
	}
	now := s.now()
	elig := EvaluateEligibility(depTs, uint64(now.Unix()))
	s.logf("user=%s lastDeposit=%d canWithdraw=%v countdown=%q", user.Hex(), depTs, elig.CanWithdraw, elig.Countdown)

	scan := s.Scan
	if scan.Logf == nil {
		scan.Logf = s.Logf
	}
	view, err := LoadActivity(ctx, s.Source, user, scan)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		User:          user,
		TokenBalance:  bal,
		DepositAmount: depAmount,
		Eligibility:   elig,
		Activity:      view,
		CanDeposit:    !view.DepositLocked,
		CanWithdraw:   elig.CanWithdraw,
		RefreshedAt:   now,
	}
	if depTs > 0 {
		snap.LastDeposit = time.Unix(int64(depTs), 0)
	}

	var nDep, nWd int
	for _, h := range view.History {
		if h.Kind == Deposited {
			nDep++
		} else {
			nWd++
		}
	}
	metrics.SetSnapshot(nDep, nWd, view.DepositLocked, elig.CanWithdraw)
	return snap, nil
}

// Deposit refuses while the deposit lock is set, otherwise approves, deposits
// and refreshes.
func (s *Session) Deposit(ctx context.Context, snap *Snapshot, amount string) (*Snapshot, error) {
	if snap == nil {
		return nil, ErrNotConnected
	}
	if snap.Activity.DepositLocked {
		return nil, ErrDepositLocked
	}
	amt, err := positiveAmount(amount)
	if err != nil {
		return nil, err
	}
	if s.Tx == nil {
		return nil, ErrNoSigner
	}
	if _, err := s.Tx.Deposit(ctx, amt); err != nil {
		return nil, err
	}
	s.logf("deposit of %s confirmed, refreshing", FormatAmount(amt))
	return s.Refresh(ctx, snap.User)
}

// Withdraw validates recipient and amount before touching the network, then
// checks the 24h timer, submits and refreshes.
func (s *Session) Withdraw(ctx context.Context, snap *Snapshot, recipient, amount string) (*Snapshot, error) {
	if snap == nil {
		return nil, ErrNotConnected
	}
	to, err := ParseAddress(recipient)
	if err != nil {
		return nil, err
	}
	amt, err := positiveAmount(amount)
	if err != nil {
		return nil, err
	}
	if !snap.Eligibility.CanWithdraw {
		if snap.Eligibility.Countdown == "" {
			return nil, fmt.Errorf("%w: no deposit on record", ErrWithdrawNotEligible)
		}
		return nil, fmt.Errorf("%w: available in %s", ErrWithdrawNotEligible, snap.Eligibility.Countdown)
	}
	if s.Tx == nil {
		return nil, ErrNoSigner
	}
	if _, err := s.Tx.Withdraw(ctx, to, amt); err != nil {
		return nil, err
	}
	s.logf("withdrawal of %s to %s confirmed, refreshing", FormatAmount(amt), to.Hex())
	return s.Refresh(ctx, snap.User)
}

// QuickWithdraw is Withdraw to the saved quick address.
func (s *Session) QuickWithdraw(ctx context.Context, snap *Snapshot, quick, amount string) (*Snapshot, error) {
	if strings.TrimSpace(quick) == "" {
		return nil, ErrNoQuickAddress
	}
	return s.Withdraw(ctx, snap, quick, amount)
}

func positiveAmount(s string) (*big.Int, error) {
	amt, err := ParseAmount(s)
	if err != nil {
		return nil, err
	}
	if amt.Sign() == 0 {
		return nil, fmt.Errorf("%w: amount must be greater than zero", ErrInvalidAmount)
	}
	return amt, nil
}
