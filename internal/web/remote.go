package web

import (
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cjeanneret/HandCam/internal/debug"
	"github.com/cjeanneret/HandCam/internal/logic/handheld"
)

// Action is a control a remote client can trigger.
type Action string

const (
	ActionNext      Action = "next"
	ActionPrevious  Action = "previous"
	ActionIncrement Action = "increment"
	ActionDecrement Action = "decrement"
	ActionShoot     Action = "shoot"
	ActionDisplay   Action = "display"
)

// ParseAction validates an action name.
func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionNext, ActionPrevious, ActionIncrement, ActionDecrement, ActionShoot, ActionDisplay:
		return a, nil
	default:
		return "", fmt.Errorf("unknown action %q", s)
	}
}

// holdable reports whether the action adjusts continuously while held.
func (a Action) holdable() bool {
	return a == ActionIncrement || a == ActionDecrement
}

func (a Action) apply(c handheld.Controls, continuous bool) {
	switch a {
	case ActionNext:
		c.NextSetting()
	case ActionPrevious:
		c.PreviousSetting()
	case ActionIncrement:
		c.IncrementSetting(continuous)
	case ActionDecrement:
		c.DecrementSetting(continuous)
	case ActionShoot:
		c.TakePhoto()
	case ActionDisplay:
		c.ToggleDisplayVisible()
	}
}

// Remote is a frame source for held remote buttons: while a client holds
// increment or decrement, the setting is adjusted continuously every frame.
type Remote struct {
	controls handheld.Controls

	mu   sync.Mutex
	held map[Action]int // hold count per action, one per client
}

// NewRemote creates a remote driving c.
func NewRemote(c handheld.Controls) *Remote {
	return &Remote{controls: c, held: make(map[Action]int)}
}

// Hold starts a continuous adjustment. It is safe to call from any goroutine.
func (r *Remote) Hold(a Action) bool {
	if !a.holdable() {
		return false
	}
	r.mu.Lock()
	r.held[a]++
	r.mu.Unlock()
	return true
}

// Release ends a continuous adjustment started by Hold.
func (r *Remote) Release(a Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.held[a] > 0 {
		r.held[a]--
	}
}

// Held reports whether a is currently held by any client.
func (r *Remote) Held(a Action) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.held[a] > 0
}

// Poll implements frame.Source.
func (r *Remote) Poll(time.Duration) {
	r.mu.Lock()
	inc, dec := r.held[ActionIncrement] > 0, r.held[ActionDecrement] > 0
	r.mu.Unlock()
	if inc {
		r.controls.IncrementSetting(true)
	}
	if dec {
		r.controls.DecrementSetting(true)
	}
}

// RemoteMessage is sent by websocket clients.
//
//	{"action":"next"}                      press once
//	{"action":"increment","hold":true}     start continuous adjustment
//	{"action":"increment","release":true}  stop it
type RemoteMessage struct {
	Action  string `json:"action"`
	Hold    bool   `json:"hold,omitempty"`
	Release bool   `json:"release,omitempty"`
}

// RemoteReply is sent back after every message.
type RemoteReply struct {
	State *handheld.State `json:"state,omitempty"`
	Shot  *ShotResult     `json:"shot,omitempty"`
	Error string          `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// HandleWebSocket handles GET /ws: a bidirectional remote control.
// Holds started by a client are released when it disconnects.
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade: %v", err)
		return
	}
	defer conn.Close()
	debug.Verbose("remote connected from %s", r.RemoteAddr)

	held := make(map[Action]bool)
	defer func() {
		for a := range held {
			h.Remote.Release(a)
		}
		debug.Verbose("remote %s disconnected", r.RemoteAddr)
	}()

	for {
		var msg RemoteMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("websocket read: %v", err)
			}
			return
		}

		reply := h.handleRemote(r, msg, held)
		if err := conn.WriteJSON(reply); err != nil {
			log.Printf("websocket write: %v", err)
			return
		}
	}
}

func (h *Handlers) handleRemote(r *http.Request, msg RemoteMessage, held map[Action]bool) RemoteReply {
	a, err := ParseAction(msg.Action)
	if err != nil {
		return RemoteReply{Error: err.Error()}
	}

	switch {
	case msg.Release:
		if held[a] {
			h.Remote.Release(a)
			delete(held, a)
		}
	case msg.Hold:
		if held[a] {
			break
		}
		if !h.Remote.Hold(a) {
			return RemoteReply{Error: fmt.Sprintf("action %q cannot be held", a)}
		}
		held[a] = true
	}

	var reply RemoteReply
	err = h.Runner.Do(r.Context(), func() {
		switch {
		case msg.Release:
		case a == ActionShoot:
			out, err := h.Camera.Capture()
			res := shotResult(out, err)
			reply.Shot = &res
		default:
			// A hold also steps once, like a physical button press.
			a.apply(h.Camera, false)
		}
		st := h.Camera.State()
		reply.State = &st
	})
	if err != nil {
		return RemoteReply{Error: err.Error()}
	}
	return reply
}
