// Package listener is the client half of the event stream: a reconnecting
// state machine and the transport that feeds it.
package listener

import (
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/cesargomez89/nowplaying/internal/constants"
	"github.com/cesargomez89/nowplaying/internal/domain"
	"github.com/cesargomez89/nowplaying/internal/nowplaying"
)

type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Msg is anything that drives the state machine.
type Msg interface{ msg() }

// Connect asks for a connection when none is open.
type Connect struct{}

// Received carries one server event.
type Received struct {
	Event Event
}

// Failed reports that the transport errored or closed.
type Failed struct {
	Err error
}

// RetryDue fires when a scheduled reconnect delay has elapsed.
type RetryDue struct{}

// VisibilityChanged reports the page, or terminal, becoming visible or hidden.
type VisibilityChanged struct {
	Visible bool
}

func (Connect) msg()           {}
func (Received) msg()          {}
func (Failed) msg()            {}
func (RetryDue) msg()          {}
func (VisibilityChanged) msg() {}

type EffectKind int

const (
	// Dial opens a new transport, closing any previous one.
	Dial EffectKind = iota + 1
	// ScheduleRetry arms a timer that delivers RetryDue after Delay.
	ScheduleRetry
	// Changed signals that the album list was replaced.
	Changed
)

// Effect is an action the caller must perform after Dispatch.
type Effect struct {
	Kind  EffectKind
	Delay time.Duration
}

// Snapshot is a copy of the reconnector's observable state.
type Snapshot struct {
	State     State
	Attempts  int
	Albums    []domain.Album
	UpdatedAt time.Time
	Heartbeat *domain.Heartbeat
}

// Reconnector holds connection state and the latest albums. It performs no
// I/O: every transition is a Dispatch call returning the effects to run.
type Reconnector struct {
	mu          sync.Mutex
	now         func() time.Time
	maxAttempts int

	state     State
	attempts  int
	albums    []domain.Album
	updatedAt time.Time
	heartbeat *domain.Heartbeat
}

func NewReconnector() *Reconnector {
	return &Reconnector{
		now:         time.Now,
		maxAttempts: constants.MaxReconnectAttempts,
	}
}

// RetryDelay is the wait before reconnect attempt n (zero based).
func RetryDelay(n int) time.Duration {
	if n >= 16 {
		return constants.ReconnectMax
	}
	return min(constants.ReconnectBase<<n, constants.ReconnectMax)
}

func (r *Reconnector) Dispatch(m Msg) []Effect {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch m := m.(type) {
	case Connect, RetryDue:
		return r.dial()
	case VisibilityChanged:
		if m.Visible {
			return r.dial()
		}
	case Failed:
		r.state = Disconnected
		if r.attempts >= r.maxAttempts {
			return nil
		}
		delay := RetryDelay(r.attempts)
		r.attempts++
		return []Effect{{Kind: ScheduleRetry, Delay: delay}}
	case Received:
		return r.receive(m.Event)
	}
	return nil
}

func (r *Reconnector) dial() []Effect {
	if r.state != Disconnected {
		return nil
	}
	r.state = Connecting
	return []Effect{{Kind: Dial}}
}

func (r *Reconnector) receive(ev Event) []Effect {
	switch ev.Name {
	case constants.EventConnected:
		r.state = Connected
		r.attempts = 0
	case constants.EventAlbums:
		var albums []domain.Album
		if err := json.Unmarshal(ev.Data, &albums); err != nil {
			return nil
		}
		r.albums = albums
		r.updatedAt = r.now()
		return []Effect{{Kind: Changed}}
	case constants.EventHeartbeat:
		var hb domain.Heartbeat
		if err := json.Unmarshal(ev.Data, &hb); err == nil {
			r.heartbeat = &hb
		}
	}
	return nil
}

func (r *Reconnector) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Reconnector) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Snapshot{
		State:     r.state,
		Attempts:  r.attempts,
		Albums:    append([]domain.Album(nil), r.albums...),
		UpdatedAt: r.updatedAt,
		Heartbeat: r.heartbeat,
	}
}

// NowPlaying returns the playing album from the latest list.
func (r *Reconnector) NowPlaying() (domain.Album, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return nowplaying.Playing(r.albums)
}

// ShouldAutoConnect reports whether a page at rawURL may open the stream on
// its own. Embed previews and admin pages never do.
func ShouldAutoConnect(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if u.Query().Get("embed") == "preview" {
		return false
	}
	return u.Path != "/admin" && !strings.HasPrefix(u.Path, "/admin/")
}
