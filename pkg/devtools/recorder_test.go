package devtools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glintui/glint/pkg/reactive"
)

func eventTypes(events []Event) []EventType {
	out := make([]EventType, len(events))
	for i, ev := range events {
		out[i] = ev.Type
	}
	return out
}

func TestRecorderCapturesRuntimeEvents(t *testing.T) {
	rec := NewRecorder(64)
	remove := rec.Install()
	defer remove()

	s := reactive.NewSignal(1).WithName("counter")
	e := reactive.CreateEffect(func() reactive.Cleanup {
		s.Get()
		return nil
	})
	defer e.Dispose()

	s.Set(2)

	events := rec.Events()
	types := eventTypes(events)
	assert.Contains(t, types, EventCreate)
	assert.Contains(t, types, EventWrite)
	assert.Contains(t, types, EventEffectRun)
	assert.Contains(t, types, EventFlush)

	require.NotEmpty(t, events)
	// The create event fires inside NewSignal, before WithName runs, so it
	// carries the kind but not the label.
	assert.Equal(t, EventCreate, events[0].Type)
	assert.Equal(t, "signal", events[0].Kind)

	for i := 1; i < len(events); i++ {
		assert.Greater(t, events[i].Seq, events[i-1].Seq, "sequence must increase")
	}

	var write Event
	for _, ev := range events {
		if ev.Type == EventWrite {
			write = ev
		}
	}
	assert.Equal(t, s.ID(), write.Node)
	assert.Equal(t, "counter", write.Name)
}

func TestRecorderRingKeepsNewestEvents(t *testing.T) {
	rec := NewRecorder(4)
	remove := rec.Install()
	defer remove()

	s := reactive.NewSignal(0)
	for i := 1; i <= 10; i++ {
		s.Set(i)
	}

	assert.Equal(t, 4, rec.Cap())
	assert.Equal(t, 4, rec.Len())

	events := rec.Events()
	require.Len(t, events, 4)
	for _, ev := range events {
		assert.Equal(t, EventWrite, ev.Type)
	}
	// 1 create + 10 writes recorded; the ring holds the last four.
	assert.Equal(t, uint64(11), events[3].Seq)
	for i := 1; i < len(events); i++ {
		assert.Equal(t, events[i-1].Seq+1, events[i].Seq)
	}
}

func TestRecorderListenerSeesEventsInline(t *testing.T) {
	rec := NewRecorder(8)
	var got []Event
	rec.AddListener(func(ev Event) { got = append(got, ev) })

	remove := rec.Install()
	defer remove()

	reactive.NewSignal(1).Set(2)

	require.Len(t, got, 2) // create + write
	assert.Equal(t, EventCreate, got[0].Type)
	assert.Equal(t, EventWrite, got[1].Type)
}

func TestRecorderRemoveDetaches(t *testing.T) {
	rec := NewRecorder(8)
	remove := rec.Install()

	s := reactive.NewSignal(1)
	s.Set(2)
	before := rec.Len()

	remove()
	s.Set(3)

	assert.Equal(t, before, rec.Len())
}

func TestRecorderDefaultCapacity(t *testing.T) {
	assert.Equal(t, DefaultRecorderCapacity, NewRecorder(0).Cap())
	assert.Equal(t, DefaultRecorderCapacity, NewRecorder(-3).Cap())
}
