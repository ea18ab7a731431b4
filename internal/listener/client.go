package listener

import (
	"context"
	"time"

	"github.com/cesargomez89/nowplaying/internal/logger"
)

type envelope struct {
	gen int
	msg Msg
}

// Client runs a Reconnector against a live Dialer.
type Client struct {
	url        string
	dialer     Dialer
	r          *Reconnector
	logger     *logger.Logger
	after      func(time.Duration) <-chan time.Time
	visibility chan bool
	onChange   func(Snapshot)
}

func NewClient(url string, dialer Dialer, log *logger.Logger) *Client {
	return &Client{
		url:        url,
		dialer:     dialer,
		r:          NewReconnector(),
		logger:     log.WithComponent("listener"),
		after:      time.After,
		visibility: make(chan bool, 1),
	}
}

// OnChange registers fn to run on the Run goroutine whenever a new album
// list arrives.
func (c *Client) OnChange(fn func(Snapshot)) {
	c.onChange = fn
}

func (c *Client) Reconnector() *Reconnector {
	return c.r
}

// SetVisible reports a visibility change. It never blocks; a change that
// arrives while another is pending is dropped.
func (c *Client) SetVisible(visible bool) {
	select {
	case c.visibility <- visible:
	default:
	}
}

// Run connects and keeps the connection alive until ctx is done.
func (c *Client) Run(ctx context.Context) error {
	msgs := make(chan envelope)
	gen := 0
	stop := func() {}
	defer func() { stop() }()

	handle := func(effects []Effect) {
		for _, e := range effects {
			switch e.Kind {
			case Dial:
				stop()
				gen++
				connCtx, cancel := context.WithCancel(ctx)
				stop = cancel
				c.logger.Debug("Connecting", "url", c.url, "gen", gen)
				go c.pump(connCtx, gen, msgs)
			case ScheduleRetry:
				c.logger.Info("Reconnecting", "delay", e.Delay, "attempt", c.r.Snapshot().Attempts)
				go func(d time.Duration) {
					select {
					case <-c.after(d):
						select {
						case msgs <- envelope{msg: RetryDue{}}:
						case <-ctx.Done():
						}
					case <-ctx.Done():
					}
				}(e.Delay)
			case Changed:
				if c.onChange != nil {
					c.onChange(c.r.Snapshot())
				}
			}
		}
	}

	handle(c.r.Dispatch(Connect{}))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case visible := <-c.visibility:
			handle(c.r.Dispatch(VisibilityChanged{Visible: visible}))
		case env := <-msgs:
			// gen 0 is a retry timer; anything else must come from the
			// current connection.
			if env.gen != 0 && env.gen != gen {
				continue
			}
			if f, ok := env.msg.(Failed); ok {
				c.logger.Warn("Stream lost", "error", f.Err)
			}
			handle(c.r.Dispatch(env.msg))
		}
	}
}

func (c *Client) pump(ctx context.Context, gen int, msgs chan<- envelope) {
	send := func(m Msg) bool {
		select {
		case msgs <- envelope{gen: gen, msg: m}:
			return true
		case <-ctx.Done():
			return false
		}
	}

	s, err := c.dialer.Dial(ctx, c.url)
	if err != nil {
		send(Failed{Err: err})
		return
	}
	defer s.Close()

	for {
		ev, err := s.Next()
		if err != nil {
			send(Failed{Err: err})
			return
		}
		if !send(Received{Event: ev}) {
			return
		}
	}
}
