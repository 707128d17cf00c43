package main

import (
	"fmt"
	"io"
	"time"

	core "github.com/ligun0805/mixer-dashboard/internal/mixercore"
)

func printSnapshot(w io.Writer, symbol string, s *core.Snapshot) {
	v := s.Activity
	fmt.Fprintf(w, "Account:            %s\n", s.User.Hex())
	fmt.Fprintf(w, "Wallet balance:     %s %s\n", core.FormatAmount(s.TokenBalance), symbol)
	fmt.Fprintf(w, "Deposits (total):   %s %s\n", core.FormatAmount(v.Deposits), symbol)
	fmt.Fprintf(w, "Withdrawn (gross):  %s %s\n", core.FormatAmount(v.WithdrawalsGross), symbol)
	fmt.Fprintf(w, "Available:          %s %s\n", core.FormatAmount(v.AvailableGross), symbol)
	fmt.Fprintf(w, "Max withdrawable:   %s %s (after 0.1%% fee)\n", core.FormatAmount(v.MaxNetWithdrawable), symbol)
	if s.LastDeposit.IsZero() {
		fmt.Fprintln(w, "Last deposit:       none")
	} else {
		fmt.Fprintf(w, "Last deposit:       %s (%s %s on contract)\n",
			s.LastDeposit.Local().Format(time.DateTime), core.FormatAmount(s.DepositAmount), symbol)
	}
	switch {
	case s.Eligibility.CanWithdraw:
		fmt.Fprintln(w, "Withdraw:           available")
	case s.Eligibility.HasDeposit:
		fmt.Fprintf(w, "Withdraw:           available in %s\n", s.Eligibility.Countdown)
	default:
		fmt.Fprintln(w, "Withdraw:           no deposit")
	}
	if v.DepositLocked {
		fmt.Fprintln(w, "Deposit:            locked")
		fmt.Fprintln(w, "  "+v.DepositLockMessage)
	} else {
		fmt.Fprintln(w, "Deposit:            open")
	}
}

func printHistory(w io.Writer, symbol string, s *core.Snapshot, limit int) {
	h := s.Activity.History
	if len(h) == 0 {
		fmt.Fprintln(w, "No mixer activity for this account.")
		return
	}
	if limit > 0 && len(h) > limit {
		h = h[:limit]
	}
	for _, e := range h {
		fmt.Fprintln(w, e.Line(symbol))
	}
}

func printPreview(w io.Writer, symbol string, p core.WithdrawalPreview) {
	fmt.Fprintf(w, "Recipient:  %s\n", p.Recipient.Hex())
	fmt.Fprintf(w, "Amount:     %s %s\n", core.FormatAmount(p.Gross), symbol)
	fmt.Fprintf(w, "Fee:        %s %s\n", core.FormatAmount(p.Fee), symbol)
	fmt.Fprintf(w, "Receives:   %s %s\n", core.FormatAmount(p.Net), symbol)
	if p.ExceedsAvailable {
		fmt.Fprintln(w, "Warning:    amount exceeds your available balance")
	}
}
