package listener

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Event is one server-sent event.
type Event struct {
	Name string
	Data []byte
}

// Stream yields events until the transport ends.
type Stream interface {
	Next() (Event, error)
	Close() error
}

// Dialer opens a Stream.
type Dialer interface {
	Dial(ctx context.Context, url string) (Stream, error)
}

// SSEDialer opens event streams over HTTP.
type SSEDialer struct {
	Client *http.Client
}

func (d SSEDialer) Dial(ctx context.Context, url string) (Stream, error) {
	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("stream returned status %d", resp.StatusCode)
	}
	return &sseStream{body: resp.Body, r: bufio.NewReader(resp.Body)}, nil
}

type sseStream struct {
	body io.ReadCloser
	r    *bufio.Reader
}

// Next reads up to the next blank line. Comment lines and unknown fields
// are skipped; events without data still dispatch.
func (s *sseStream) Next() (Event, error) {
	var (
		ev      Event
		data    []string
		started bool
	)
	for {
		line, err := s.r.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return Event{}, err
		}
		line = strings.TrimRight(line, "\r\n")

		if line == "" {
			if !started {
				continue
			}
			if ev.Name == "" {
				ev.Name = "message"
			}
			ev.Data = []byte(strings.Join(data, "\n"))
			return ev, nil
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			ev.Name = value
			started = true
		case "data":
			data = append(data, value)
			started = true
		}
	}
}

func (s *sseStream) Close() error {
	return s.body.Close()
}
