package notifications

import (
	"testing"
	"time"
)

func fixedClock(start int64) func() time.Time {
	t := time.Unix(start, 0)
	return func() time.Time { return t }
}

func TestPull_IncrementalAndIdempotent(t *testing.T) {
	f := NewFeed(10)
	f.now = fixedClock(1000)

	f.Emit(TypeNewAppointment, "first", nil)
	f.Emit(TypeAppointmentCancelled, "second", nil)

	events, cursor := f.Pull(0)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Message != "first" || events[1].Message != "second" {
		t.Fatalf("events out of order: %q, %q", events[0].Message, events[1].Message)
	}

	// Pull con el cursor devuelto no repite nada.
	again, cursor2 := f.Pull(cursor)
	if len(again) != 0 {
		t.Fatalf("expected no events after cursor, got %d", len(again))
	}
	if cursor2 != cursor {
		t.Fatalf("cursor drifted without new events: %d != %d", cursor2, cursor)
	}

	// Un evento nuevo aparece exactamente una vez.
	f.Emit(TypeAppointmentCompleted, "third", nil)
	fresh, _ := f.Pull(cursor)
	if len(fresh) != 1 || fresh[0].Message != "third" {
		t.Fatalf("expected only the new event, got %+v", fresh)
	}
}

func TestEmit_SameSecondCursorsStayMonotonic(t *testing.T) {
	f := NewFeed(10)
	f.now = fixedClock(1000) // el reloj no avanza

	a := f.Emit(TypeNewAppointment, "a", nil)
	b := f.Emit(TypeNewAppointment, "b", nil)
	c := f.Emit(TypeNewAppointment, "c", nil)

	if !(a.Cursor < b.Cursor && b.Cursor < c.Cursor) {
		t.Fatalf("cursors must be strictly increasing: %d, %d, %d", a.Cursor, b.Cursor, c.Cursor)
	}

	// Cada cursor intermedio separa el feed exactamente ahí.
	events, _ := f.Pull(b.Cursor)
	if len(events) != 1 || events[0].Cursor != c.Cursor {
		t.Fatalf("Pull(b) should return only c, got %+v", events)
	}
}

func TestEmit_TrimsToRetention(t *testing.T) {
	f := NewFeed(3)
	f.now = fixedClock(1000)

	for i := 0; i < 10; i++ {
		f.Emit(TypeNewAppointment, "msg", nil)
	}

	events, _ := f.Pull(0)
	if len(events) != 3 {
		t.Fatalf("expected retention of 3, got %d", len(events))
	}
	// Quedan los últimos: con reloj fijo los cursores son 1000..1009.
	if events[0].Cursor != 1007 || events[2].Cursor != 1009 {
		t.Fatalf("expected newest 3 events, got cursors %d..%d", events[0].Cursor, events[2].Cursor)
	}
}

func TestClear_EmptiesButKeepsCursor(t *testing.T) {
	f := NewFeed(10)
	f.now = fixedClock(1000)

	f.Emit(TypeNewAppointment, "a", nil)
	_, before := f.Pull(0)

	f.Clear()

	events, after := f.Pull(0)
	if len(events) != 0 {
		t.Fatalf("expected empty feed after clear, got %d events", len(events))
	}
	// El cursor no retrocede: un cliente con cursor viejo no re-ve nada.
	if after < before {
		t.Fatalf("cursor went backwards after clear: %d < %d", after, before)
	}

	next := f.Emit(TypeNewAppointment, "b", nil)
	if next.Cursor <= before {
		t.Fatalf("post-clear cursor must stay monotonic: %d <= %d", next.Cursor, before)
	}
}
