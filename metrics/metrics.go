package metrics

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// collectInterval bounds how often pre-collect functions run, no matter how often /metrics is scraped.
const collectInterval = time.Second

var (
	preCollectMutex sync.Mutex
	preCollectFns   []func()
)

// AddPreCollectFn registers fn to refresh gauges right before a scrape.
func AddPreCollectFn(fn func()) {
	preCollectMutex.Lock()
	defer preCollectMutex.Unlock()

	preCollectFns = append(preCollectFns, fn)
}

func runPreCollectFns() {
	preCollectMutex.Lock()
	fns := append([]func(){}, preCollectFns...)
	preCollectMutex.Unlock()

	for _, fn := range fns {
		fn()
	}
}

type scrapeHandler struct {
	next        http.Handler
	mutex       sync.Mutex
	lastCollect time.Time
}

func GetMetricsHandler() http.Handler {
	return &scrapeHandler{
		next: promhttp.Handler(),
	}
}

func (h *scrapeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mutex.Lock()
	if time.Since(h.lastCollect) >= collectInterval {
		runPreCollectFns()
		h.lastCollect = time.Now()
	}
	h.mutex.Unlock()

	h.next.ServeHTTP(w, r)
}

// StartMetricsServer serves /metrics in the background. The caller shuts the returned server down.
func StartMetricsServer(logger logrus.FieldLogger, host string, port string) (*http.Server, error) {
	if host == "" {
		host = "127.0.0.1"
	}
	if port == "" {
		port = "9090"
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", GetMetricsHandler())

	srv := &http.Server{
		Addr:              net.JoinHostPort(host, port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	listener, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return nil, err
	}

	go func() {
		logger.Infof("serving metrics on http://%v/metrics", srv.Addr)
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("metrics server stopped")
		}
	}()

	return srv, nil
}
