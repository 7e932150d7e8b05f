package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "assethost"

var (
	requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	batchesCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "upload",
		Name:      "batches_created_total",
		Help:      "Upload batches opened.",
	})

	batchesSwept = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "upload",
		Name:      "batches_expired_total",
		Help:      "Upload batches removed by the expiry sweep.",
	})

	chunksUploaded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "upload",
		Name:      "chunks_uploaded_total",
		Help:      "Chunks accepted into an open batch.",
	})

	chunkBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "upload",
		Name:      "chunk_bytes_total",
		Help:      "Bytes accepted across all uploaded chunks.",
	})

	commits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "upload",
		Name:      "commits_total",
		Help:      "Commit attempts by outcome.",
	}, []string{"result"})

	streamedChunks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "serve",
		Name:      "chunks_served_total",
		Help:      "Content chunks served, split by initial response and streaming callback.",
	}, []string{"phase"})

	initOnce sync.Once
)

// InitMetrics registers all collectors with the default registry. Safe to call repeatedly.
func InitMetrics() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			requestsTotal,
			requestDuration,
			batchesCreated,
			batchesSwept,
			chunksUploaded,
			chunkBytes,
			commits,
			streamedChunks,
		)
	})
}

// Register attaches the Prometheus metrics endpoint to the router.
func Register(router *gin.Engine, path string) {
	router.GET(path, gin.WrapH(promhttp.Handler()))
}

// Middleware records request counts and latencies.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			// unmatched routes are served as assets; keep label cardinality bounded
			route = "asset"
		}
		requestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		requestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// BatchCreated counts a newly opened upload batch.
func BatchCreated() { batchesCreated.Inc() }

// BatchesExpired counts batches removed by an expiry sweep.
func BatchesExpired(n int) {
	if n > 0 {
		batchesSwept.Add(float64(n))
	}
}

// ChunkUploaded counts an accepted chunk and its size.
func ChunkUploaded(size int) {
	chunksUploaded.Inc()
	chunkBytes.Add(float64(size))
}

// Commit counts a commit attempt; result is "ok" or an error class.
func Commit(result string) { commits.WithLabelValues(result).Inc() }

// ChunkServed counts a served content chunk; phase is "initial" or "stream".
func ChunkServed(phase string) { streamedChunks.WithLabelValues(phase).Inc() }
