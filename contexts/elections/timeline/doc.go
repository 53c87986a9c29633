// Package timeline owns the election stage catalog and derives, from stage
// windows and the clock, which election actions are currently permitted.
//
// Status derivation and the eligibility gate are pure domain services. The
// application layer adds a single status evaluator per process that caches
// stage rows and re-reads them on change notifications or on a periodic
// fallback refresh.
package timeline
