package main

import (
	"fyne.io/fyne/v2"

	"github.com/ligun0805/mixer-dashboard/internal/quickaddr"
)

// prefsStore keeps the quick address in the app's preferences.
type prefsStore struct{ p fyne.Preferences }

var _ quickaddr.Store = prefsStore{}

func (s prefsStore) Get() string { return s.p.String(quickaddr.Key) }

func (s prefsStore) Set(addr string) error {
	s.p.SetString(quickaddr.Key, addr)
	return nil
}
