package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"peridot-indexer-sol/internal/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 指令被跳过的原因
const (
	ReasonDecode   = "decode"
	ReasonAccounts = "accounts"
	ReasonPanic    = "panic"
)

var (
	EventsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "peridot_events_total",
			Help: "Number of events extracted, by protocol and kind",
		}, []string{"protocol", "kind"})

	InstructionsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "peridot_instructions_skipped_total",
			Help: "Recognized instructions dropped without an event, by protocol and reason",
		}, []string{"protocol", "reason"})

	FailedTxSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "peridot_failed_transactions_skipped_total",
			Help: "Transactions skipped because they failed on chain, counted per extraction pass",
		}, []string{"protocol"})

	BlockExtractSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "peridot_block_extract_seconds",
			Help:    "Time spent extracting one protocol's events from one block",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"protocol"})

	KafkaSendFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "peridot_kafka_send_failures_total",
			Help: "Kafka messages that were not acknowledged",
		}, []string{"topic"})

	MissingSlots = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "peridot_missing_slots_total",
			Help: "Slots that produced a block on chain but never arrived on the stream",
		})

	BlocksSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "peridot_blocks_skipped_total",
			Help: "Blocks not dispatched for a protocol, by reason",
		}, []string{"protocol", "reason"})

	LastProcessedSlot = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "peridot_last_processed_slot",
			Help: "Slot of the most recently dispatched block",
		})
)

// Server 暴露 /metrics，实现 go-zero service.Service 接口
type Server struct {
	srv *http.Server
}

func NewServer(addr string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}}
}

func (s *Server) Start() {
	logger.Infof("[metrics] listening on %s", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Errorf("[metrics] server exited: %v", err)
	}
}

func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = s.srv.Shutdown(ctx)
}
