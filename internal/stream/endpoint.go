// Package stream polls the listening history on behalf of each connected
// client and pushes album changes over server-sent events.
package stream

import (
	"context"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/cesargomez89/nowplaying/internal/constants"
	"github.com/cesargomez89/nowplaying/internal/domain"
	"github.com/cesargomez89/nowplaying/internal/logger"
	"github.com/cesargomez89/nowplaying/internal/metrics"
)

// Updater runs one poll cycle.
type Updater interface {
	CheckForUpdates(ctx context.Context) Update
}

// Ticker is the repeating timer driving poll cycles.
type Ticker interface {
	C() <-chan time.Time
	Reset(d time.Duration)
	Stop()
}

type timeTicker struct{ *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.Ticker.C }

func newTimeTicker(d time.Duration) Ticker {
	return timeTicker{time.NewTicker(d)}
}

// Endpoint serves the event stream. Every connection gets its own Updater,
// so no poll state is shared between clients.
type Endpoint struct {
	newUpdater func() Updater
	newTicker  func(time.Duration) Ticker
	now        func() time.Time
	marshal    func(any) ([]byte, error)
	logger     *logger.Logger
	initial    time.Duration
}

func NewEndpoint(newUpdater func() Updater, log *logger.Logger) *Endpoint {
	return &Endpoint{
		newUpdater: newUpdater,
		newTicker:  newTimeTicker,
		now:        time.Now,
		marshal:    json.Marshal,
		logger:     log.WithComponent("stream"),
		initial:    constants.IntervalPlaying,
	}
}

func (e *Endpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	ctx := r.Context()
	log := e.logger.WithConnection(uuid.NewString(), r.RemoteAddr)
	c := newConn(w, flusher)

	// Abort flips the closed flag at once, so a cycle still in flight
	// discards its result.
	stop := context.AfterFunc(ctx, c.Close)
	defer stop()
	defer c.Close()

	metrics.StreamConnections.Inc()
	defer metrics.StreamConnections.Dec()
	log.Info("Stream opened")
	defer log.Info("Stream closed")

	if !e.send(c, constants.EventConnected, nil) {
		return
	}

	updater := e.newUpdater()
	schedule := NewSchedule(e.initial)

	// The first cycle runs before the timer so the first paint has data.
	e.cycle(ctx, c, updater, schedule, log)
	if c.Closed() {
		return
	}

	ticker := e.newTicker(schedule.Current())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			if e.cycle(ctx, c, updater, schedule, log) {
				ticker.Reset(schedule.Current())
				log.Debug("Poll interval changed", "interval", schedule.Current())
			}
			if c.Closed() {
				return
			}
		}
	}
}

// cycle runs one poll and writes its events. It reports whether the poll
// interval changed.
func (e *Endpoint) cycle(ctx context.Context, c *conn, updater Updater, schedule *Schedule, log *logger.Logger) bool {
	update := updater.CheckForUpdates(ctx)
	if c.Closed() {
		return false
	}

	changed := false
	if update.HasUpdates() {
		data, err := e.marshal(update.Albums)
		if err != nil {
			log.Error("Failed to encode albums", "error", err)
		} else if e.send(c, constants.EventAlbums, data) {
			changed = schedule.Apply(NextInterval(update.Albums, e.now()))
			metrics.StreamInterval.Observe(schedule.Current().Seconds())
		}
	}

	hb, err := e.marshal(domain.Heartbeat{
		Timestamp:  e.now().UTC().Format(time.RFC3339Nano),
		Interval:   schedule.Current().Milliseconds(),
		HasUpdates: update.HasUpdates(),
	})
	if err != nil {
		log.Error("Failed to encode heartbeat", "error", err)
		return changed
	}
	e.send(c, constants.EventHeartbeat, hb)
	return changed
}

func (e *Endpoint) send(c *conn, event string, data []byte) bool {
	if !c.Send(event, data) {
		return false
	}
	metrics.StreamPushes.WithLabelValues(event).Inc()
	return true
}
