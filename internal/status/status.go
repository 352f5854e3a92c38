// Package status carries human-readable progress events from the sort engine
// to whoever is watching. Emitting never blocks and never panics; callers
// adapt the stream to their own threading model.
package status

import (
	"fmt"
	"path/filepath"
	"time"
)

// Kind identifies the state transition an event reports.
type Kind string

const (
	KindMapping   Kind = "mapping"
	KindFolder    Kind = "folder"
	KindScan      Kind = "scan"
	KindOCR       Kind = "ocr"
	KindOCRPage   Kind = "ocr_page"
	KindMatched   Kind = "matched"
	KindMoved     Kind = "moved"
	KindNoMatch   Kind = "no_match"
	KindSkipped   Kind = "skipped"
	KindError     Kind = "error"
	KindAudit     Kind = "audit"
	KindSummary   Kind = "summary"
	KindCancelled Kind = "cancelled"
)

// Event is one status update.
type Event struct {
	Kind    Kind
	File    string
	Message string
	Time    time.Time
}

// String renders the event the way it is shown to users.
func (e Event) String() string {
	if e.File == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, filepath.Base(e.File))
}

// Sink receives status events.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Emit(ev Event) { f(ev) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

// Emit delivers ev to s, stamping the time. A nil sink is ignored and a
// panicking sink is recovered.
func Emit(s Sink, ev Event) {
	if s == nil {
		return
	}
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	defer func() { _ = recover() }()
	s.Emit(ev)
}

// Emitf is Emit with a formatted message.
func Emitf(s Sink, kind Kind, file, format string, args ...any) {
	Emit(s, Event{Kind: kind, File: file, Message: fmt.Sprintf(format, args...)})
}

// Multi fans an event out to several sinks.
type Multi []Sink

func (m Multi) Emit(ev Event) {
	for _, s := range m {
		Emit(s, ev)
	}
}
