package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector records delivery metrics for the completion event pipeline.
// Recording is purely observational: any failure is swallowed and logged so
// the publisher's control flow is never affected.
type Collector struct {
	publishSuccess *prometheus.CounterVec
	publishFailure *prometheus.CounterVec
	consumeLag     *prometheus.GaugeVec
	logger         *zap.Logger
}

// NewCollector registers the delivery metrics on the given registerer. The
// registerer is injected rather than taken from the prometheus default so
// tests and multi-component processes keep isolated registries.
func NewCollector(reg prometheus.Registerer, logger *zap.Logger) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		publishSuccess: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "publish_success_total",
			Help: "Completion event publish attempts that succeeded",
		}, []string{"topic"}),
		publishFailure: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "publish_failure_total",
			Help: "Completion event publish attempts that failed",
		}, []string{"topic"}),
		consumeLag: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "consume_lag",
			Help: "Messages the delivery monitor still has to read from the topic",
		}, []string{"topic"}),
		logger: logger,
	}
}

func (c *Collector) RecordPublishSuccess(topic string) {
	defer c.swallow("publish_success")
	c.publishSuccess.WithLabelValues(topic).Inc()
}

func (c *Collector) RecordPublishFailure(topic string) {
	defer c.swallow("publish_failure")
	c.publishFailure.WithLabelValues(topic).Inc()
}

func (c *Collector) RecordConsumeLag(topic string, lag int64) {
	defer c.swallow("consume_lag")
	c.consumeLag.WithLabelValues(topic).Set(float64(lag))
}

func (c *Collector) swallow(name string) {
	if r := recover(); r != nil && c.logger != nil {
		c.logger.Error("metric recording failed", zap.String("metric", name), zap.Any("panic", r))
	}
}
