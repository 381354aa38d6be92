// package queue implements the client-side queue reconciliation and
// provenance-tracking engine.
//
// The remote playback service owns the queue; this package polls it,
// overlays locally-known provenance and optimistic placeholders onto the
// eventually-consistent remote state, reconciles optimistic mutations once
// the remote confirms them, and drives auto-continue when the client-managed
// portion of the queue runs dry.
//
// Concurrency contract: the single cached view is the only shared resource.
// The poller replaces it wholesale, the coordinator and skip orchestrator
// apply targeted optimistic overlays; all writes are last-write-wins behind
// one mutex. Placeholders are only ever removed by the operation that
// created them, never by the poller.
package queue
