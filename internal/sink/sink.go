// Package sink captures upload results: the returned URL goes to the
// clipboard and a reusable last-result slot, and a notification is emitted
// through an injected callback. Recording never fails.
package sink

import (
	"fmt"
	"sync"

	"github.com/atotto/clipboard"
)

// NotifyFunc emits a user-visible notification line. failed marks error
// notifications so the caller can style them differently.
type NotifyFunc func(message string, failed bool)

// Sink is safe for concurrent use; the last-result slot is last-call-wins.
type Sink struct {
	notify    NotifyFunc
	clipboard bool
	copyFn    func(string) error

	mu   sync.Mutex
	last string
}

// New returns a Sink. If useClipboard is false, URLs are only kept in the
// last-result slot.
func New(notify NotifyFunc, useClipboard bool) *Sink {
	return &Sink{
		notify:    notify,
		clipboard: useClipboard,
		copyFn:    clipboard.WriteAll,
	}
}

// Record captures the outcome of one upload. On success the URL is stored and
// copied to the clipboard; on failure only an error notification is emitted.
// Clipboard errors are swallowed: a copy failure must not fail the upload.
func (s *Sink) Record(name, url string, err error) {
	if err != nil {
		s.emit(fmt.Sprintf("Upload of %q failed: %v", name, err), true)
		return
	}

	s.mu.Lock()
	s.last = url
	s.mu.Unlock()

	if s.clipboard {
		_ = s.copyFn(url)
	}

	s.emit(fmt.Sprintf("File %q uploaded: %s", name, url), false)
}

// Last returns the most recently recorded URL, or "" if none succeeded yet.
func (s *Sink) Last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *Sink) emit(message string, failed bool) {
	if s.notify != nil {
		s.notify(message, failed)
	}
}
