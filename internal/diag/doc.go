// Package diag exposes the operational HTTP surface.
//
// Endpoints:
//   - /healthz  liveness probe
//   - /statusz  connection state, dispatch stats, refresh sequence
//   - /metrics  Prometheus scrape endpoint
package diag
