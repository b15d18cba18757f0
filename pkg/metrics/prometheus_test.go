package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

var recorder = New()

func TestRecorderCounts(t *testing.T) {
	recorder.RecordFetch("history", "found")
	recorder.RecordFetch("history", "found")
	recorder.RecordCacheLookup("history", true)
	recorder.RecordCacheLookup("history", false)
	recorder.RecordSectorChange("XLK", 1.25)

	if got := testutil.ToFloat64(recorder.fetchesTotal.WithLabelValues("history", "found")); got != 2 {
		t.Fatalf("expected 2 fetches, got %v", got)
	}
	if got := testutil.ToFloat64(recorder.cacheLookups.WithLabelValues("history", "hit")); got != 1 {
		t.Fatalf("expected 1 hit, got %v", got)
	}
	if got := testutil.ToFloat64(recorder.sectorChange.WithLabelValues("XLK")); got != 1.25 {
		t.Fatalf("unexpected gauge %v", got)
	}
}
