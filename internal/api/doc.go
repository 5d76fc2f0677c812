// Package api is a thin client for the studio REST collaborator.
//
// The realtime core does not perform CRUD; it only probes the REST side
// from the degraded-mode poller and the cmd tools. Mutations themselves
// happen elsewhere and arrive here as channel events.
package api
