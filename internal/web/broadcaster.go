package web

import (
	"encoding/json"
	"strings"
	"sync"
	"time"
)

// Event levels sent on the status stream.
const (
	LevelInfo    = "info"
	LevelWarn    = "warn"
	LevelError   = "error"
	LevelReadout = "readout" // camera readout text, "" when hidden
)

// subscriberBuffer is the per-client backlog before events are dropped.
const subscriberBuffer = 64

// StatusEvent is one message on the status stream.
type StatusEvent struct {
	Seq   uint64 `json:"n"`
	Time  string `json:"t"`
	Level string `json:"l,omitempty"`
	Msg   string `json:"msg"`
}

// StatusBroadcaster fans status events out to the SSE clients. The last
// readout is kept and replayed to new subscribers so a freshly opened remote
// shows what the camera shows.
type StatusBroadcaster struct {
	mu      sync.RWMutex
	clients map[chan string]struct{}
	seq     uint64
	readout string // encoded last readout event, "" before the first one
	now     func() time.Time
}

// NewStatusBroadcaster creates a new broadcaster.
func NewStatusBroadcaster() *StatusBroadcaster {
	return &StatusBroadcaster{
		clients: make(map[chan string]struct{}),
		now:     time.Now,
	}
}

// Subscribe returns a channel receiving encoded events and a cleanup function.
// The caller must call the cleanup when done (e.g. on client disconnect).
func (b *StatusBroadcaster) Subscribe() (<-chan string, func()) {
	ch := make(chan string, subscriberBuffer)
	b.mu.Lock()
	if b.readout != "" {
		ch <- b.readout
	}
	b.clients[ch] = struct{}{}
	b.mu.Unlock()

	unsub := func() {
		b.mu.Lock()
		delete(b.clients, ch)
		b.mu.Unlock()
		close(ch)
	}
	return ch, unsub
}

// Broadcast sends an event to all subscribed clients as
// {"n":1,"t":"...","l":"info","msg":"..."}.
// Slow clients miss events instead of blocking the sender.
func (b *StatusBroadcaster) Broadcast(level, msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	data, err := json.Marshal(StatusEvent{
		Seq:   b.seq,
		Time:  b.now().Format(time.RFC3339),
		Level: level,
		Msg:   msg,
	})
	if err != nil {
		return
	}
	payload := string(data)
	if level == LevelReadout {
		b.readout = payload
	}

	for ch := range b.clients {
		select {
		case ch <- payload:
		default:
			// backlog full
		}
	}
}

// BroadcastMsg is a convenience for LevelInfo.
func (b *StatusBroadcaster) BroadcastMsg(msg string) {
	b.Broadcast(LevelInfo, msg)
}

// Clients returns the number of subscribed clients.
func (b *StatusBroadcaster) Clients() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// BroadcastWriter adapts b to io.Writer so the debug log can be mirrored on
// the status stream. Each non-blank write becomes one info event.
func BroadcastWriter(b *StatusBroadcaster) *broadcastWriter {
	return &broadcastWriter{b: b}
}

type broadcastWriter struct {
	b *StatusBroadcaster
}

func (w *broadcastWriter) Write(p []byte) (n int, err error) {
	for _, line := range strings.Split(string(p), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			w.b.BroadcastMsg(line)
		}
	}
	return len(p), nil
}

// ReadoutSink forwards the camera readout to SSE clients with LevelReadout.
func ReadoutSink(b *StatusBroadcaster) *readoutSink {
	return &readoutSink{b: b}
}

type readoutSink struct {
	b *StatusBroadcaster
}

// ShowReadout implements handheld.ReadoutSink. Hidden readouts are sent as "".
func (s *readoutSink) ShowReadout(text string) {
	s.b.Broadcast(LevelReadout, text)
}
