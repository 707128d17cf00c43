package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"github.com/ligun0805/mixer-dashboard/internal/config"
	core "github.com/ligun0805/mixer-dashboard/internal/mixercore"
)

var log = logrus.New()

func main() {
	hideConsoleWindow()
	config.LoadDotEnv()

	a := app.NewWithID("io.prvx.mixer-dashboard")
	curTheme := makeTheme("dark", false)
	a.Settings().SetTheme(curTheme)

	logs := newLogPane(a)
	log.AddHook(logs)
	log.SetOutput(os.Stderr)

	w := a.NewWindow("PRVX Mixer")
	w.Resize(fyne.NewSize(1000, 760))
	w.SetOnClosed(logs.Close)

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Error("config")
		cfg = config.Defaults()
	}
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}

	st := &state{cfg: cfg, quick: prefsStore{a.Preferences()}}
	ui := newDashboard(w, st)

	themeSelect := widget.NewSelect([]string{"Dark", "Light"}, func(s string) {
		mode := "dark"
		if s == "Light" {
			mode = "light"
		}
		curTheme = makeTheme(mode, curTheme.(*appTheme).compact)
		a.Settings().SetTheme(curTheme)
	})
	themeSelect.SetSelected("Dark")
	compactCheck := widget.NewCheck("Compact", func(b bool) {
		curTheme = makeTheme(curTheme.(*appTheme).mode, b)
		a.Settings().SetTheme(curTheme)
	})
	logsBtn := widget.NewButtonWithIcon("Logs", theme.ListIcon(), logs.Show)

	footer := container.NewBorder(nil, nil, nil,
		container.NewHBox(themeSelect, compactCheck, logsBtn),
		ui.netLbl,
	)
	w.SetContent(container.NewBorder(ui.top(), footer, nil, nil, ui.body()))

	if cfg.PrivateKeyHex != "" {
		ui.keyEntry.SetText(cfg.PrivateKeyHex)
		ui.connect()
	}

	go func() {
		t := time.NewTicker(30 * time.Second)
		defer t.Stop()
		for now := range t.C {
			ui.tick(now)
		}
	}()

	w.ShowAndRun()
	st.disconnect()
}

// dashboard owns the widgets of the main window.
type dashboard struct {
	w  fyne.Window
	st *state

	keyEntry      *widget.Entry
	connectBtn    *widget.Button
	disconnectBtn *widget.Button
	refreshBtn    *widget.Button

	accountLbl   *widget.Label
	balanceLbl   *widget.Label
	depositsLbl  *widget.Label
	withdrawnLbl *widget.Label
	availableLbl *widget.Label
	maxLbl       *widget.Label
	lastDepLbl   *widget.Label
	timerLbl     *widget.Label
	lockLbl      *widget.Label

	depositAmt *widget.Entry
	depositBtn *widget.Button

	recipient   *widget.Entry
	withdrawAmt *widget.Entry
	previewLbl  *widget.Label
	withdrawBtn *widget.Button
	quickBtn    *widget.Button
	quickLbl    *widget.Label

	history []core.HistoryEntry
	list    *widget.List
	netLbl  *widget.Label
}

func newDashboard(w fyne.Window, st *state) *dashboard {
	d := &dashboard{w: w, st: st}
	label := func() *widget.Label { return widget.NewLabel("-") }

	d.keyEntry = widget.NewPasswordEntry()
	d.keyEntry.SetPlaceHolder("Private key, or an address to view only")
	d.connectBtn = widget.NewButtonWithIcon("Connect", theme.LoginIcon(), d.connect)
	d.disconnectBtn = widget.NewButtonWithIcon("Disconnect", theme.LogoutIcon(), d.disconnect)
	d.refreshBtn = widget.NewButtonWithIcon("Refresh", theme.ViewRefreshIcon(), func() {
		d.run("Refresh", "Loading mixer activity…", func(ctx context.Context) (*core.Snapshot, error) {
			return d.st.refresh(ctx)
		})
	})

	d.accountLbl = label()
	d.accountLbl.TextStyle = fyne.TextStyle{Monospace: true}
	d.balanceLbl = label()
	d.depositsLbl = label()
	d.withdrawnLbl = label()
	d.availableLbl = label()
	d.maxLbl = label()
	d.lastDepLbl = label()
	d.timerLbl = label()
	d.lockLbl = widget.NewLabel("")
	d.lockLbl.Wrapping = fyne.TextWrapWord
	d.lockLbl.Importance = widget.DangerImportance
	d.lockLbl.Hide()

	d.depositAmt = widget.NewEntry()
	d.depositAmt.SetPlaceHolder("Amount")
	d.depositBtn = widget.NewButtonWithIcon("Deposit", theme.UploadIcon(), d.deposit)
	d.depositBtn.Importance = widget.HighImportance

	d.recipient = widget.NewEntry()
	d.recipient.SetPlaceHolder("Recipient 0x…")
	d.withdrawAmt = widget.NewEntry()
	d.withdrawAmt.SetPlaceHolder("Amount")
	d.previewLbl = widget.NewLabel("")
	d.recipient.OnChanged = func(string) { d.updatePreview() }
	d.withdrawAmt.OnChanged = func(string) { d.updatePreview() }
	d.withdrawBtn = widget.NewButtonWithIcon("Withdraw", theme.DownloadIcon(), func() {
		d.withdraw(d.recipient.Text, false)
	})
	d.withdrawBtn.Importance = widget.HighImportance
	d.quickBtn = widget.NewButtonWithIcon("Quick withdraw", theme.MailForwardIcon(), func() {
		d.withdraw(d.st.quick.Get(), true)
	})
	d.quickLbl = widget.NewLabel("")
	d.quickLbl.TextStyle = fyne.TextStyle{Monospace: true}

	d.list = widget.NewList(
		func() int { return len(d.history) },
		func() fyne.CanvasObject {
			l := widget.NewLabel("")
			l.TextStyle = fyne.TextStyle{Monospace: true}
			return l
		},
		func(id widget.ListItemID, o fyne.CanvasObject) {
			if id < len(d.history) {
				o.(*widget.Label).SetText(d.history[id].Line(d.st.cfg.TokenSymbol))
			}
		},
	)
	d.netLbl = widget.NewLabel("[net] not connected")

	d.render(nil)
	return d
}

func (d *dashboard) top() fyne.CanvasObject {
	return container.NewBorder(nil, nil, nil,
		container.NewHBox(d.connectBtn, d.disconnectBtn, d.refreshBtn),
		d.keyEntry,
	)
}

func (d *dashboard) body() fyne.CanvasObject {
	account := widget.NewCard("Account", "", widget.NewForm(
		widget.NewFormItem("Address", d.accountLbl),
		widget.NewFormItem("Wallet balance", d.balanceLbl),
		widget.NewFormItem("Deposited", d.depositsLbl),
		widget.NewFormItem("Withdrawn", d.withdrawnLbl),
		widget.NewFormItem("Available", d.availableLbl),
		widget.NewFormItem("Max withdrawable", d.maxLbl),
		widget.NewFormItem("Last deposit", d.lastDepLbl),
		widget.NewFormItem("Withdraw", d.timerLbl),
	))
	deposit := widget.NewCard("Deposit", "", container.NewVBox(
		container.NewBorder(nil, nil, nil, d.depositBtn, d.depositAmt),
		d.lockLbl,
	))
	setQuick := widget.NewButtonWithIcon("", theme.DocumentCreateIcon(), d.editQuickAddress)
	withdraw := widget.NewCard("Withdraw", "0.1% fee", container.NewVBox(
		d.recipient,
		container.NewBorder(nil, nil, nil, d.withdrawBtn, d.withdrawAmt),
		d.previewLbl,
		container.NewBorder(nil, nil, widget.NewLabel("Quick:"), container.NewHBox(setQuick, d.quickBtn), d.quickLbl),
	))
	left := container.NewVScroll(container.NewVBox(account, deposit, withdraw))
	right := widget.NewCard("History", "", d.list)
	split := container.NewHSplit(left, right)
	split.Offset = 0.48
	return split
}

func (d *dashboard) connect() {
	input := d.keyEntry.Text
	pd := dialog.NewProgressInfinite("Connect", "Connecting…", d.w)
	pd.Show()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		err := d.st.connect(ctx, input)
		var snap *core.Snapshot
		if err == nil {
			snap, err = d.st.refresh(ctx)
		}
		pd.Hide()
		if err != nil {
			log.WithError(err).Error("connect")
			dialog.ShowError(err, d.w)
		}
		d.render(snap)
		d.updateNetwork()
	}()
}

func (d *dashboard) disconnect() {
	d.st.disconnect()
	d.keyEntry.SetText("")
	d.netLbl.SetText("[net] not connected")
	d.render(nil)
	log.Info("disconnected")
}

// run executes op off the UI goroutine behind a progress dialog and renders
// the resulting snapshot.
func (d *dashboard) run(title, msg string, op func(ctx context.Context) (*core.Snapshot, error)) {
	pd := dialog.NewProgressInfinite(title, msg, d.w)
	pd.Show()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		snap, err := op(ctx)
		pd.Hide()
		if err != nil {
			log.WithError(err).Error(strings.ToLower(title))
			dialog.ShowError(err, d.w)
			return
		}
		d.st.store(snap)
		d.render(snap)
		d.updateNetwork()
	}()
}

func (d *dashboard) deposit() {
	sess, snap, _ := d.st.current()
	if sess == nil || snap == nil {
		dialog.ShowError(core.ErrNotConnected, d.w)
		return
	}
	if snap.Activity.DepositLocked {
		dialog.ShowInformation("Deposit", snap.Activity.DepositLockMessage, d.w)
		return
	}
	amount := strings.TrimSpace(d.depositAmt.Text)
	if _, err := core.ParseAmount(amount); err != nil {
		dialog.ShowError(err, d.w)
		return
	}
	msg := fmt.Sprintf("Approve and deposit %s %s?", amount, d.st.cfg.TokenSymbol)
	dialog.ShowConfirm("Deposit", msg, func(ok bool) {
		if !ok {
			return
		}
		d.run("Deposit", "Waiting for approve and deposit…", func(ctx context.Context) (*core.Snapshot, error) {
			return sess.Deposit(ctx, snap, amount)
		})
		d.depositAmt.SetText("")
	}, d.w)
}

func (d *dashboard) withdraw(to string, quick bool) {
	sess, snap, _ := d.st.current()
	if sess == nil || snap == nil {
		dialog.ShowError(core.ErrNotConnected, d.w)
		return
	}
	if quick && strings.TrimSpace(to) == "" {
		dialog.ShowError(core.ErrNoQuickAddress, d.w)
		return
	}
	amount := strings.TrimSpace(d.withdrawAmt.Text)
	p, err := core.PreviewWithdrawal(amount, to, snap.Activity.AvailableGross)
	if err != nil {
		dialog.ShowError(err, d.w)
		return
	}
	msg := previewText(p, d.st.cfg.TokenSymbol)
	dialog.ShowConfirm("Withdraw", msg+"\n\nSend withdrawal?", func(ok bool) {
		if !ok {
			return
		}
		d.run("Withdraw", "Waiting for withdrawal…", func(ctx context.Context) (*core.Snapshot, error) {
			if quick {
				return sess.QuickWithdraw(ctx, snap, to, amount)
			}
			return sess.Withdraw(ctx, snap, to, amount)
		})
	}, d.w)
}

func (d *dashboard) updatePreview() {
	_, snap, _ := d.st.current()
	to := strings.TrimSpace(d.recipient.Text)
	if to == "" {
		to = d.st.quick.Get()
	}
	if strings.TrimSpace(d.withdrawAmt.Text) == "" || to == "" {
		d.previewLbl.SetText("")
		return
	}
	var avail *big.Int
	if snap != nil {
		avail = snap.Activity.AvailableGross
	}
	p, err := core.PreviewWithdrawal(d.withdrawAmt.Text, to, avail)
	if err != nil {
		d.previewLbl.SetText(err.Error())
		return
	}
	d.previewLbl.SetText(previewText(p, d.st.cfg.TokenSymbol))
}

func previewText(p core.WithdrawalPreview, symbol string) string {
	s := fmt.Sprintf("To %s\nFee %s %s · receives %s %s",
		p.Recipient.Hex(), core.FormatAmount(p.Fee), symbol, core.FormatAmount(p.Net), symbol)
	if p.ExceedsAvailable {
		s += "\nAmount exceeds your available balance"
	}
	return s
}

func (d *dashboard) updateNetwork() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		ns, err := d.st.network(ctx)
		if err != nil {
			d.netLbl.SetText("[net] " + err.Error())
			return
		}
		d.netLbl.SetText(fmt.Sprintf("[net] block %d · baseFee: %s gwei · tip: %s gwei",
			ns.Head, core.FormatGwei(ns.BaseFee), core.FormatGwei(ns.Tip)))
	}()
}

func (d *dashboard) tick(now time.Time) {
	e, flipped := d.st.tickEligibility(now)
	if !e.HasDeposit {
		return
	}
	_, snap, _ := d.st.current()
	if flipped {
		log.Info("withdrawal is now available")
	}
	d.render(snap)
}
