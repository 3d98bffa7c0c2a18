// Package metrics provides build metrics for postbuilder.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics never need nil checks at call sites:
//
//	builder := pages.NewBuilder(components, pages.WithRecorder(recorder))
//
// PrometheusRecorder registers its collectors on a caller-provided registry.
// WriteTextfile dumps that registry in the Prometheus text format, which is
// how a one-shot CLI build hands metrics to a node exporter textfile collector.
package metrics
