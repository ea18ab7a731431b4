package listener

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSSEDialer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "text/event-stream" {
			t.Errorf("Expected event-stream accept header, got %s", r.Header.Get("Accept"))
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, ": comment\n\n")
		fmt.Fprint(w, "event: connected\ndata: \n\n")
		fmt.Fprint(w, "event: albums\r\ndata: [1,\r\ndata: 2]\r\n\r\n")
		fmt.Fprint(w, "data: plain\nid: 7\n\n")
	}))
	defer srv.Close()

	s, err := SSEDialer{}.Dial(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer s.Close()

	want := []Event{
		{Name: "connected", Data: []byte("")},
		{Name: "albums", Data: []byte("[1,\n2]")},
		{Name: "message", Data: []byte("plain")},
	}
	for i, w := range want {
		ev, err := s.Next()
		if err != nil {
			t.Fatalf("event %d: %v", i, err)
		}
		if ev.Name != w.Name || string(ev.Data) != string(w.Data) {
			t.Errorf("event %d: expected %s %q, got %s %q", i, w.Name, w.Data, ev.Name, ev.Data)
		}
	}

	if _, err := s.Next(); err != io.ErrUnexpectedEOF {
		t.Errorf("Expected unexpected EOF at end of stream, got %v", err)
	}
}

func TestSSEDialer_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	if _, err := (SSEDialer{Client: srv.Client()}).Dial(context.Background(), srv.URL); err == nil {
		t.Error("Expected error for non-200 response")
	}
}
