package metrics

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	redis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	WriteResultOK     = "ok"
	WriteResultFailed = "failed"
)

const (
	WriteReasonDeadlineExceeded = "deadline_exceeded"
	WriteReasonNotFound         = "not_found"
	WriteReasonDB               = "db"
	WriteReasonRedis            = "redis"
	WriteReasonUnknown          = "unknown"
)

// DevisMetrics captures quote-editing signals: field writes, uploads,
// PDF renders and open sessions.
type DevisMetrics struct {
	fieldWrites   *prometheus.CounterVec
	writeFailures *prometheus.CounterVec
	writeDuration *prometheus.HistogramVec
	uploads       *prometheus.CounterVec
	pdfRenders    prometheus.Counter
	openSessions  prometheus.Gauge
}

var (
	devisMetricsOnce sync.Once
	devisMetrics     *DevisMetrics
)

// Devis returns the process-wide devis metrics registered on the default
// registerer.
func Devis(cfg Config) *DevisMetrics {
	devisMetricsOnce.Do(func() {
		devisMetrics = NewDevisMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return devisMetrics
}

func NewDevisMetrics(registerer prometheus.Registerer, cfg Config) *DevisMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "devis"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	fieldWrites := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "devis_field_writes_total",
		Help:        "Configuration field writes by field and result.",
		ConstLabels: constLabels,
	}, []string{"field", "result"})
	writeFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "devis_field_write_failures_total",
		Help:        "Failed configuration field writes by low-cardinality reason.",
		ConstLabels: constLabels,
	}, []string{"field", "reason"})
	writeDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "devis_field_write_duration_seconds",
		Help:        "Latency of configuration field writes to the document store.",
		Buckets:     []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		ConstLabels: constLabels,
	}, []string{"field"})
	uploads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "devis_image_uploads_total",
		Help:        "Line item illustration uploads by result.",
		ConstLabels: constLabels,
	}, []string{"result"})
	pdfRenders := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "devis_pdf_renders_total",
		Help:        "Quote PDF documents rendered.",
		ConstLabels: constLabels,
	})
	openSessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "devis_open_sessions",
		Help:        "Editing sessions currently held in memory.",
		ConstLabels: constLabels,
	})

	registerer.MustRegister(
		fieldWrites,
		writeFailures,
		writeDuration,
		uploads,
		pdfRenders,
		openSessions,
	)

	return &DevisMetrics{
		fieldWrites:   fieldWrites,
		writeFailures: writeFailures,
		writeDuration: writeDuration,
		uploads:       uploads,
		pdfRenders:    pdfRenders,
		openSessions:  openSessions,
	}
}

// ObserveFieldWrite records the outcome and latency of one field write.
func (m *DevisMetrics) ObserveFieldWrite(field string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	result := WriteResultOK
	if err != nil {
		result = WriteResultFailed
		m.writeFailures.WithLabelValues(field, ClassifyWriteError(err)).Inc()
	}
	m.fieldWrites.WithLabelValues(field, result).Inc()
	m.writeDuration.WithLabelValues(field).Observe(duration.Seconds())
}

func (m *DevisMetrics) IncUpload(err error) {
	if m == nil {
		return
	}
	result := WriteResultOK
	if err != nil {
		result = WriteResultFailed
	}
	m.uploads.WithLabelValues(result).Inc()
}

func (m *DevisMetrics) IncPDFRender() {
	if m == nil {
		return
	}
	m.pdfRenders.Inc()
}

func (m *DevisMetrics) SetOpenSessions(n int) {
	if m == nil {
		return
	}
	m.openSessions.Set(float64(n))
}

// ClassifyWriteError maps persistence errors to low-cardinality reasons.
func ClassifyWriteError(err error) string {
	if err == nil {
		return WriteReasonUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return WriteReasonDeadlineExceeded
	}
	if errors.Is(err, gorm.ErrRecordNotFound) || strings.Contains(err.Error(), "not_found") {
		return WriteReasonNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return WriteReasonDB
	}
	if errors.Is(err, gorm.ErrInvalidDB) ||
		errors.Is(err, gorm.ErrInvalidTransaction) ||
		errors.Is(err, gorm.ErrInvalidData) ||
		errors.Is(err, gorm.ErrDuplicatedKey) {
		return WriteReasonDB
	}
	var redisErr redis.Error
	if errors.As(err, &redisErr) || errors.Is(err, redis.ErrClosed) {
		return WriteReasonRedis
	}
	return WriteReasonUnknown
}
