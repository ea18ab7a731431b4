package stream

import (
	"time"

	"github.com/cesargomez89/nowplaying/internal/constants"
	"github.com/cesargomez89/nowplaying/internal/domain"
	"github.com/cesargomez89/nowplaying/internal/nowplaying"
)

// NextInterval picks the poll interval from the remaining time of the
// playing track: the closer the track is to its end, the sooner the next
// poll.
func NextInterval(albums []domain.Album, now time.Time) time.Duration {
	playing, ok := nowplaying.Playing(albums)
	if !ok {
		return constants.IntervalIdle
	}
	remaining, ok := nowplaying.Remaining(playing, now)
	switch {
	case !ok:
		return constants.IntervalUnknown
	case remaining < constants.RemainingEndingBelow:
		return constants.IntervalTrackEnding
	case remaining < constants.RemainingClosingBelow:
		return constants.IntervalTrackClosing
	default:
		return constants.IntervalPlaying
	}
}

// Schedule tracks the current poll interval and ignores changes within the
// hysteresis band.
type Schedule struct {
	current    time.Duration
	hysteresis time.Duration
}

func NewSchedule(initial time.Duration) *Schedule {
	return &Schedule{current: initial, hysteresis: constants.IntervalHysteresis}
}

func (s *Schedule) Current() time.Duration {
	return s.current
}

// Apply adopts target when it differs from the current interval by more
// than the hysteresis band, and reports whether it did.
func (s *Schedule) Apply(target time.Duration) bool {
	diff := target - s.current
	if diff < 0 {
		diff = -diff
	}
	if diff <= s.hysteresis {
		return false
	}
	s.current = target
	return true
}
