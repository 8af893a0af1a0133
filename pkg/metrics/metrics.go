package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "jsonhtml"

	metricLabelHandler = "handler"
	metricLabelStatus  = "status"
	metricLabelSource  = "source"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Metrics is the structure that holds all prometheus metrics
var (
	// ConversionCounter counts documents converted to html
	ConversionCounter = newCounterVec(
		"conversion_count",
		"Number of documents converted to html",
		metricLabelSource, metricLabelStatus,
	)
	// ConversionDuration observe the duration of a single conversion
	ConversionDuration = newSummaryVec(
		"conversion_duration_seconds",
		"Seconds to decode, build and render a document",
		metricLabelSource,
	)
	// NodesBuiltCounter counts the outline nodes built from documents
	NodesBuiltCounter = newCounterVec(
		"nodes_built_count",
		"Number of outline nodes built",
		metricLabelSource,
	)
	// ServiceRequestCounter count the number of requests for each handler
	ServiceRequestCounter = newCounterVec(
		"service_request_count",
		"Count of requests for each handler",
		metricLabelHandler, metricLabelStatus,
	)
	// ServiceRequestDuration observe the duration of requests for each handler
	ServiceRequestDuration = newSummaryVec(
		"service_request_duration_seconds",
		"Seconds to read a request, execute the handler and write its response",
		metricLabelHandler, metricLabelStatus,
	)
	// PublishCompletedCounter count the number of publish runs without failures
	PublishCompletedCounter = newCounterVec(
		"publish_completed_count",
		"Number of publish runs that were successfully completed",
	)
	// PublishFailedCounter count the number of publish runs with at least one failure
	PublishFailedCounter = newCounterVec(
		"publish_failed_count",
		"Number of publish runs that failed due to an error",
	)
	// PublishDuration observe the duration of each publish run
	PublishDuration = newSummaryVec(
		"publish_duration_seconds",
		"Duration in seconds for each publish run",
	)
	// StoragePersistFailedCounter count the number of failed attempts to write a page
	StoragePersistFailedCounter = newCounterVec(
		"storage_persist_failed_count",
		"Number of failures to write a rendered page to the storage",
	)
)

func newSummaryVec(name, help string, labels ...string) *prometheus.SummaryVec {
	vec := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, labels)
	prometheus.MustRegister(vec)
	return vec
}

func newCounterVec(name, help string, labels ...string) *prometheus.CounterVec {
	vec := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, labels)
	prometheus.MustRegister(vec)
	return vec
}
