package prom

import (
	"fmt"
	"sync"
	"time"

	"github.com/nimasrn/reddit-matchbot/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const (
	SystemRows = "rows"
	SystemDM   = "dm"
	SystemRun  = "run"
)

const (
	MetricRowsTotal      = "total"
	MetricDMTotal        = "total"
	MetricDMSendDuration = "send_duration_seconds"
	MetricRunDuration    = "duration_seconds"
	MetricRunCompletion  = "last_completion_timestamp_seconds"
)

var lockCreateMetricLock = &sync.Mutex{}
var namespace = "none"

var MetricSystemEnabled = false

var MetricCollectionCounterVec = make(map[string]*prometheus.CounterVec)
var MetricCollectionGaugeVec = make(map[string]*prometheus.GaugeVec)
var MetricCollectionHistogram = make(map[string]prometheus.Histogram)
var MetricCollectionHistogramVec = make(map[string]*prometheus.HistogramVec)

// Registry holds every metric of this process. It is private so that a batch
// run only pushes its own series.
var Registry = prometheus.NewRegistry()

var defaultLabels prometheus.Labels

func Create(host string, env string, nameSpace string) error {
	lockCreateMetricLock.Lock()
	Registry = prometheus.NewRegistry()
	MetricCollectionCounterVec = make(map[string]*prometheus.CounterVec)
	MetricCollectionGaugeVec = make(map[string]*prometheus.GaugeVec)
	MetricCollectionHistogram = make(map[string]prometheus.Histogram)
	MetricCollectionHistogramVec = make(map[string]*prometheus.HistogramVec)
	lockCreateMetricLock.Unlock()

	defaultLabels = make(prometheus.Labels)
	defaultLabels["env"] = env
	defaultLabels["instance"] = host
	namespace = nameSpace
	MetricSystemEnabled = true

	var err error
	hasError := func(e error) {
		if err == nil && e != nil {
			err = e
		}
	}

	hasError(createCounterVec(SystemRows, MetricRowsTotal, []string{"status"}))
	hasError(createCounterVec(SystemDM, MetricDMTotal, []string{"kind", "result"}))
	hasError(createHistogramVec(SystemDM, MetricDMSendDuration, []string{"kind"}))
	hasError(createHistogram(SystemRun, MetricRunDuration))
	hasError(createGaugeVec(SystemRun, MetricRunCompletion, []string{"outcome"}))

	return err
}

// Push sends every registered metric to the Pushgateway at url under job.
// The grouping replaces whatever the previous run of job pushed.
func Push(url, job string) error {
	if !MetricSystemEnabled {
		return nil
	}
	if err := push.New(url, job).Gatherer(Registry).Push(); err != nil {
		return fmt.Errorf("failed to push metrics: %w", err)
	}
	logger.Info("[metrics] pushed", "url", url, "job", job)
	return nil
}

func createCounterVec(subsystem, name string, labels []string) error {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()
	MetricCollectionCounterVec[subsystem+name] = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		Help:        subsystem + " " + name,
		ConstLabels: defaultLabels,
	}, labels)
	return Registry.Register(MetricCollectionCounterVec[subsystem+name])
}

func createHistogram(subsystem, name string) error {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()
	MetricCollectionHistogram[subsystem+name] = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		Help:        subsystem + " " + name,
		ConstLabels: defaultLabels,
		Buckets:     []float64{10, 30, 60, 300, 900, 1800, 3600, 7200},
	})
	return Registry.Register(MetricCollectionHistogram[subsystem+name])
}

func createHistogramVec(subsystem, name string, labels []string) error {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()
	MetricCollectionHistogramVec[subsystem+name] = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		Help:        subsystem + " " + name,
		ConstLabels: defaultLabels,
		Buckets:     []float64{0.25, 0.5, 1, 2, 5, 10, 30},
	}, labels)
	return Registry.Register(MetricCollectionHistogramVec[subsystem+name])
}

func createGaugeVec(subsystem, name string, labels []string) error {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()

	MetricCollectionGaugeVec[subsystem+name] = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		Help:        subsystem + " " + name,
		ConstLabels: defaultLabels,
	}, labels)
	return Registry.Register(MetricCollectionGaugeVec[subsystem+name])
}

func AddCounterVec(subsystem, name string, num float64, labelValues ...string) {
	if MetricSystemEnabled == false {
		return
	}
	if v, ok := MetricCollectionCounterVec[subsystem+name]; ok {
		v.WithLabelValues(labelValues...).Add(num)
		return
	}
	logger.Warn("[metrics] counter vec not found", "subsystem", subsystem, "name", name)
}

func IncCounterVec(subsystem, name string, labelValues ...string) {
	AddCounterVec(subsystem, name, 1, labelValues...)
}

func AddHistogram(subsystem, name string, number float64) {
	if MetricSystemEnabled == false {
		return
	}
	if v, ok := MetricCollectionHistogram[subsystem+name]; ok {
		v.Observe(number)
		return
	}
	logger.Warn("[metrics] histogram not found", "subsystem", subsystem, "name", name)
}

func AddHistogramVec(subsystem, name string, number float64, labelValues ...string) {
	if MetricSystemEnabled == false {
		return
	}
	if v, ok := MetricCollectionHistogramVec[subsystem+name]; ok {
		v.WithLabelValues(labelValues...).Observe(number)
		return
	}
	logger.Warn("[metrics] histogram vec not found", "subsystem", subsystem, "name", name)
}

func SetGaugeVec(subsystem, name string, number float64, labelValues ...string) {
	if MetricSystemEnabled == false {
		return
	}
	if v, ok := MetricCollectionGaugeVec[subsystem+name]; ok {
		v.WithLabelValues(labelValues...).Set(number)
		return
	}
	logger.Warn("[metrics] gauge vec not found", "subsystem", subsystem, "name", name)
}

func IncRow(status string) {
	if status == "" {
		status = "unset"
	}
	IncCounterVec(SystemRows, MetricRowsTotal, status)
}

func dmKind(retry bool) string {
	if retry {
		return "retry"
	}
	return "first"
}

func IncDM(retry, ok bool) {
	kind := dmKind(retry)
	result := "sent"
	if !ok {
		result = "failed"
	}
	IncCounterVec(SystemDM, MetricDMTotal, kind, result)
}

func ObserveRunDuration(seconds float64) {
	AddHistogram(SystemRun, MetricRunDuration, seconds)
}

// ObserveDMSend records how long one platform call took.
func ObserveDMSend(retry bool, seconds float64) {
	AddHistogramVec(SystemDM, MetricDMSendDuration, seconds, dmKind(retry))
}

// MarkRunCompleted stamps the end of a run under its outcome.
func MarkRunCompleted(ok bool, at time.Time) {
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	SetGaugeVec(SystemRun, MetricRunCompletion, float64(at.Unix()), outcome)
}
