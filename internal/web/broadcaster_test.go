package web

import (
	"encoding/json"
	"testing"
	"time"
)

func recv(t *testing.T, ch <-chan string) StatusEvent {
	t.Helper()
	select {
	case msg := <-ch:
		var evt StatusEvent
		if err := json.Unmarshal([]byte(msg), &evt); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		return evt
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for broadcast")
	}
	return StatusEvent{}
}

func expectNone(t *testing.T, ch <-chan string) {
	t.Helper()
	select {
	case msg := <-ch:
		t.Errorf("unexpected event %s", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBroadcaster_SubscribersReceiveEvent(t *testing.T) {
	b := NewStatusBroadcaster()
	ch1, unsub1 := b.Subscribe()
	defer unsub1()
	ch2, unsub2 := b.Subscribe()
	defer unsub2()

	b.Broadcast(LevelWarn, "gallery full")

	for i, ch := range []<-chan string{ch1, ch2} {
		evt := recv(t, ch)
		if evt.Msg != "gallery full" || evt.Level != LevelWarn {
			t.Errorf("subscriber %d: event = %+v", i, evt)
		}
	}
	if b.Clients() != 2 {
		t.Errorf("Clients() = %d, want 2", b.Clients())
	}
}

func TestBroadcaster_SequenceAndTimestamp(t *testing.T) {
	b := NewStatusBroadcaster()
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return fixed }
	ch, unsub := b.Subscribe()
	defer unsub()

	b.BroadcastMsg("one")
	b.BroadcastMsg("two")

	first, second := recv(t, ch), recv(t, ch)
	if first.Seq != 1 || second.Seq != 2 {
		t.Errorf("seq = %d, %d, want 1, 2", first.Seq, second.Seq)
	}
	if first.Time != "2026-03-01T12:00:00Z" {
		t.Errorf("time = %q", first.Time)
	}
	if first.Level != LevelInfo {
		t.Errorf("level = %q, want %q", first.Level, LevelInfo)
	}
}

func TestBroadcaster_UnsubscribeClosesChannel(t *testing.T) {
	b := NewStatusBroadcaster()
	ch, unsub := b.Subscribe()
	unsub()

	if _, ok := <-ch; ok {
		t.Error("expected channel to be closed after unsubscribe")
	}
	if b.Clients() != 0 {
		t.Errorf("Clients() = %d, want 0", b.Clients())
	}
	// Must not panic on the closed channel.
	b.BroadcastMsg("after unsub")
}

func TestBroadcaster_SlowClientDropsEvents(t *testing.T) {
	b := NewStatusBroadcaster()
	ch, unsub := b.Subscribe()
	defer unsub()

	for i := 0; i < subscriberBuffer+5; i++ {
		b.BroadcastMsg("fill")
	}

	count := 0
	for len(ch) > 0 {
		<-ch
		count++
	}
	if count != subscriberBuffer {
		t.Errorf("buffered = %d, want %d", count, subscriberBuffer)
	}
}

func TestBroadcaster_ReplaysLastReadout(t *testing.T) {
	b := NewStatusBroadcaster()
	sink := ReadoutSink(b)
	sink.ShowReadout("Zoom: 60.0 mm")
	sink.ShowReadout("Zoom: 65.0 mm")
	b.BroadcastMsg("not replayed")

	ch, unsub := b.Subscribe()
	defer unsub()

	evt := recv(t, ch)
	if evt.Level != LevelReadout || evt.Msg != "Zoom: 65.0 mm" {
		t.Errorf("replayed event = %+v", evt)
	}
	expectNone(t, ch)
}

func TestBroadcaster_NoReplayBeforeReadout(t *testing.T) {
	b := NewStatusBroadcaster()
	b.BroadcastMsg("boot")

	ch, unsub := b.Subscribe()
	defer unsub()
	expectNone(t, ch)
}

func TestReadoutSink_HiddenReadoutIsEmpty(t *testing.T) {
	b := NewStatusBroadcaster()
	ch, unsub := b.Subscribe()
	defer unsub()

	ReadoutSink(b).ShowReadout("")

	evt := recv(t, ch)
	if evt.Level != LevelReadout || evt.Msg != "" {
		t.Errorf("event = %+v", evt)
	}
}

func TestBroadcastWriter_SplitsLines(t *testing.T) {
	b := NewStatusBroadcaster()
	ch, unsub := b.Subscribe()
	defer unsub()

	p := []byte("  first line  \n\nsecond line\n")
	n, err := BroadcastWriter(b).Write(p)
	if err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if n != len(p) {
		t.Errorf("n = %d, want %d", n, len(p))
	}

	if evt := recv(t, ch); evt.Msg != "first line" {
		t.Errorf("msg = %q, want \"first line\"", evt.Msg)
	}
	if evt := recv(t, ch); evt.Msg != "second line" {
		t.Errorf("msg = %q, want \"second line\"", evt.Msg)
	}
	expectNone(t, ch)
}

func TestBroadcastWriter_BlankWriteIgnored(t *testing.T) {
	b := NewStatusBroadcaster()
	ch, unsub := b.Subscribe()
	defer unsub()

	BroadcastWriter(b).Write([]byte("   \n"))
	expectNone(t, ch)
}
