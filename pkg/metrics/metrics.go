// Package metrics owns the Prometheus collectors exported by the api and worker binaries.
package metrics

// Namespace prefixes every metric exported by the service.
const Namespace = "vb"
