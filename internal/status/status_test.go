package status

import (
	"bytes"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventString(t *testing.T) {
	assert.Equal(t, "Scanning: a.pdf", Event{Kind: KindScan, File: "/in/a.pdf", Message: "Scanning"}.String())
	assert.Equal(t, "Done", Event{Kind: KindSummary, Message: "Done"}.String())
}

func TestEmitNilAndPanickingSinks(t *testing.T) {
	assert.NotPanics(t, func() {
		Emit(nil, Event{Message: "x"})
		Emit(SinkFunc(func(Event) { panic("boom") }), Event{Message: "x"})
	})
}

func TestEmitStampsTime(t *testing.T) {
	var got Event
	Emitf(SinkFunc(func(ev Event) { got = ev }), KindMoved, "f.pdf", "Moved to %s", "A")
	assert.Equal(t, "Moved to A", got.Message)
	assert.Equal(t, KindMoved, got.Kind)
	assert.False(t, got.Time.IsZero())
}

func TestMultiContinuesAfterPanic(t *testing.T) {
	var n int
	m := Multi{
		SinkFunc(func(Event) { panic("boom") }),
		SinkFunc(func(Event) { n++ }),
	}
	Emit(m, Event{Message: "x"})
	assert.Equal(t, 1, n)
}

func TestChanSinkDropsWhenFull(t *testing.T) {
	s := NewChanSink(2)
	for i := 0; i < 5; i++ {
		s.Emit(Event{Message: "x"})
	}
	assert.Equal(t, int64(3), s.Dropped())
	s.Close()

	var got int
	for range s.Events() {
		got++
	}
	assert.Equal(t, 2, got)

	assert.NotPanics(t, func() {
		s.Emit(Event{Message: "after close"})
		s.Close()
	})
}

func TestChanSinkConcurrentConsumer(t *testing.T) {
	s := NewChanSink(1)
	var wg sync.WaitGroup
	var received int
	wg.Add(1)
	go func() {
		defer wg.Done()
		for range s.Events() {
			received++
		}
	}()
	for i := 0; i < 100; i++ {
		s.Emit(Event{Message: "x"})
	}
	s.Close()
	wg.Wait()
	assert.Equal(t, int64(100), int64(received)+s.Dropped())
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	s := LogSink{Logger: zerolog.New(&buf)}
	s.Emit(Event{Kind: KindError, File: "/x/a.pdf", Message: "Error reading PDF"})
	require.NotEmpty(t, buf.String())
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), `"file":"/x/a.pdf"`)
	assert.Contains(t, buf.String(), `"kind":"error"`)
}
