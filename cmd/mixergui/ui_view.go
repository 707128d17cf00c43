package main

import (
	"time"

	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/ethereum/go-ethereum/common"

	core "github.com/ligun0805/mixer-dashboard/internal/mixercore"
	"github.com/ligun0805/mixer-dashboard/internal/quickaddr"
)

// render copies snap into the widgets. nil clears everything and disables
// every action.
func (d *dashboard) render(snap *core.Snapshot) {
	sym := " " + d.st.cfg.TokenSymbol
	d.st.mu.Lock()
	signer := d.st.signer
	d.st.mu.Unlock()

	quick := d.st.quick.Get()
	if quick == "" {
		d.quickLbl.SetText("not set")
	} else {
		d.quickLbl.SetText(core.ShortAddress(common.HexToAddress(quick)))
	}

	if snap == nil {
		for _, l := range []*widget.Label{d.accountLbl, d.balanceLbl, d.depositsLbl, d.withdrawnLbl,
			d.availableLbl, d.maxLbl, d.lastDepLbl, d.timerLbl} {
			l.SetText("-")
		}
		d.lockLbl.Hide()
		d.history = nil
		d.list.Refresh()
		d.depositBtn.Disable()
		d.withdrawBtn.Disable()
		d.quickBtn.Disable()
		d.refreshBtn.Disable()
		d.disconnectBtn.Disable()
		return
	}

	v := snap.Activity
	acct := snap.User.Hex()
	if !signer {
		acct += " (view only)"
	}
	d.accountLbl.SetText(acct)
	d.balanceLbl.SetText(core.FormatAmount(snap.TokenBalance) + sym)
	d.depositsLbl.SetText(core.FormatAmount(v.Deposits) + sym)
	d.withdrawnLbl.SetText(core.FormatAmount(v.WithdrawalsGross) + sym)
	d.availableLbl.SetText(core.FormatAmount(v.AvailableGross) + sym)
	d.maxLbl.SetText(core.FormatAmount(v.MaxNetWithdrawable) + sym)
	if snap.LastDeposit.IsZero() {
		d.lastDepLbl.SetText("none")
	} else {
		d.lastDepLbl.SetText(snap.LastDeposit.Local().Format(time.DateTime))
	}
	switch {
	case snap.Eligibility.CanWithdraw:
		d.timerLbl.SetText("available")
	case snap.Eligibility.HasDeposit:
		d.timerLbl.SetText("available in " + snap.Eligibility.Countdown)
	default:
		d.timerLbl.SetText("no deposit")
	}
	if v.DepositLocked {
		d.lockLbl.SetText(v.DepositLockMessage)
		d.lockLbl.Show()
	} else {
		d.lockLbl.Hide()
	}

	d.history = v.History
	d.list.Refresh()

	d.refreshBtn.Enable()
	d.disconnectBtn.Enable()
	setEnabled(d.depositBtn, signer && snap.CanDeposit)
	setEnabled(d.withdrawBtn, signer && snap.CanWithdraw)
	setEnabled(d.quickBtn, signer && snap.CanWithdraw && quick != "")
}

func setEnabled(b *widget.Button, on bool) {
	if on {
		b.Enable()
	} else {
		b.Disable()
	}
}

func (d *dashboard) editQuickAddress() {
	e := widget.NewEntry()
	e.SetText(d.st.quick.Get())
	e.SetPlaceHolder("0x…")
	e.Validator = func(s string) error {
		_, err := core.ParseAddress(s)
		return err
	}
	dialog.ShowForm("Quick withdrawal address", "Save", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("Address", e)},
		func(ok bool) {
			if !ok {
				return
			}
			saved, err := quickaddr.Save(d.st.quick, e.Text)
			if err != nil {
				dialog.ShowError(err, d.w)
				return
			}
			log.WithField("address", saved).Info("quick address set")
			_, snap, _ := d.st.current()
			d.render(snap)
			d.updatePreview()
		}, d.w)
}
