package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestScrapeHandler(t *testing.T) {
	var collected atomic.Int32
	AddPreCollectFn(func() {
		collected.Add(1)
	})

	ObserveRPCCall("test", "getSlot", time.Now(), nil)
	ObserveRPCCall("test", "getSlot", time.Now(), errors.New("timeout"))
	ObserveTransaction("initialize", "confirmed")

	handler := GetMetricsHandler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	for _, expected := range []string{
		`goblinstake_rpc_calls_total{client="test",method="getSlot",status="ok"} 1`,
		`goblinstake_rpc_calls_total{client="test",method="getSlot",status="error"} 1`,
		`goblinstake_transactions_total{method="initialize",outcome="confirmed"} 1`,
	} {
		if !strings.Contains(string(body), expected) {
			t.Errorf("metrics output misses %q", expected)
		}
	}

	// pre collect fns run at most once per second
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/metrics", nil))
	if collected.Load() != 1 {
		t.Errorf("pre collect fns ran %v times, want 1", collected.Load())
	}
}
