package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"
)

const maxLogLines = 2000

// logPane keeps log lines even while the window is closed.
type logPane struct {
	mu     sync.Mutex
	lines  []string
	app    fyne.App
	win    fyne.Window
	box    *widget.Entry
	scroll *container.Scroll
}

func newLogPane(a fyne.App) *logPane { return &logPane{app: a} }

// Show creates or focuses the log window.
func (p *logPane) Show() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.win != nil {
		p.win.RequestFocus()
		return
	}
	p.win = p.app.NewWindow("Logs")
	p.win.SetOnClosed(func() {
		p.mu.Lock()
		p.win, p.box, p.scroll = nil, nil, nil
		p.mu.Unlock()
	})
	p.box = widget.NewMultiLineEntry()
	p.box.Wrapping = fyne.TextWrapWord
	p.box.SetText(strings.Join(p.lines, "\n"))
	p.box.Disable()
	p.scroll = container.NewVScroll(p.box)
	p.scroll.SetMinSize(fyne.NewSize(800, 180))
	p.win.SetContent(p.scroll)
	p.win.Resize(fyne.NewSize(900, 600))
	p.win.Show()
	p.scroll.ScrollToBottom()
}

func (p *logPane) Close() {
	p.mu.Lock()
	w := p.win
	p.mu.Unlock()
	if w != nil {
		w.Close()
	}
}

func (p *logPane) append(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lines = append(p.lines, time.Now().Format("15:04:05 ")+s)
	if len(p.lines) > maxLogLines {
		p.lines = p.lines[len(p.lines)-maxLogLines:]
	}
	if p.box != nil {
		p.box.SetText(strings.Join(p.lines, "\n"))
		p.scroll.ScrollToBottom()
	}
}

// Levels and Fire make the pane a logrus hook.
func (p *logPane) Levels() []logrus.Level { return logrus.AllLevels }

func (p *logPane) Fire(e *logrus.Entry) error {
	msg := strings.ToUpper(e.Level.String()) + " " + e.Message
	for k, v := range e.Data {
		msg += fmt.Sprintf(" %s=%v", k, v)
	}
	p.append(msg)
	return nil
}
