// Package metrics records workflow and remote-call observations.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics stay optional:
//
//	orch := publish.New(publish.Options{Recorder: metrics.NoopRecorder{}})
//
// When metrics are enabled the daemon builds a PrometheusRecorder on its own
// registry and serves it with HTTPHandler.
package metrics
