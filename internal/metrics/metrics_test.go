package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObservePoll(t *testing.T) {
	before := testutil.ToFloat64(PollCycles.WithLabelValues("changed"))

	ObservePoll("changed", 120*time.Millisecond)

	if got := testutil.ToFloat64(PollCycles.WithLabelValues("changed")); got != before+1 {
		t.Errorf("Expected changed counter %v, got %v", before+1, got)
	}
	if n := testutil.CollectAndCount(PollDuration); n != 1 {
		t.Errorf("Expected one duration histogram, got %d", n)
	}
}
