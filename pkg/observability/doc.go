/*
Package observability turns engine lifecycle hooks into structured logs and
Prometheus metrics.

	m := observability.NewMetrics(prometheus.NewRegistry())
	hooks := observability.Chain(observability.LogHooks(logger), m.Hooks())
*/
package observability
