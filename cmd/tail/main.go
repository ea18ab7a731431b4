package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/spf13/cobra"

	"github.com/cesargomez89/nowplaying/internal/listener"
	"github.com/cesargomez89/nowplaying/internal/logger"
)

type Params struct {
	URL     string `short:"u" name:"url" help:"Event stream URL." default:"http://localhost:8080/api/stream"`
	Once    bool   `name:"once" help:"Exit after the first album list"`
	Verbose bool   `short:"v" name:"verbose" help:"Log connection state changes"`
}

func main() {
	boa.CmdT[Params]{
		Use:   "tail",
		Short: "Print what is playing now",
		Long:  "tail follows the now playing stream and prints a line every time the album list changes. It reconnects with backoff when the stream drops.",
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			os.Exit(Run(ctx, params, listener.SSEDialer{}, os.Stdout, os.Stderr))
		},
	}.Run()
}

// Run follows the stream until ctx ends and returns the exit code.
func Run(ctx context.Context, params *Params, dialer listener.Dialer, stdout, stderr io.Writer) int {
	if !listener.ShouldAutoConnect(params.URL) {
		fmt.Fprintf(stderr, "tail: %s is not a stream page, not connecting\n", params.URL)
		return 2
	}

	level := "error"
	if params.Verbose {
		level = "info"
	}
	log := logger.New(logger.Config{Output: stderr, Level: level, Format: "text"})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	client := listener.NewClient(params.URL, dialer, log)
	client.OnChange(func(s listener.Snapshot) {
		fmt.Fprintln(stdout, Line(s))
		if params.Once {
			cancel()
		}
	})

	// A resumed process is the terminal's version of a page becoming
	// visible again.
	cont := make(chan os.Signal, 1)
	notifyResume(cont)
	defer signal.Stop(cont)
	go func() {
		for {
			select {
			case <-cont:
				client.SetVisible(true)
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := client.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(stderr, "tail: %v\n", err)
		return 1
	}
	return 0
}

// Line renders a snapshot as one status line.
func Line(s listener.Snapshot) string {
	for _, a := range s.Albums {
		if a.IsNowPlaying {
			if track := a.Track(); track != "" {
				return fmt.Sprintf("> %s - %s [%s]", a.Artist.Name, track, a.Name)
			}
			return fmt.Sprintf("> %s [%s]", a.Artist.Name, a.Name)
		}
	}
	if len(s.Albums) == 0 {
		return "nothing played recently"
	}
	last := s.Albums[0]
	return fmt.Sprintf("  not playing, last: %s [%s]", last.Artist.Name, last.Name)
}
