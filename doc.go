// Package stockpile is a bounded, thread-safe object pool for Go,
// built for resources that are expensive to construct: database
// connections, sockets, large buffers.
//
// The engine lives in pkg/pool. Claimers borrow exclusive use of an
// object through a lease; a single background allocator goroutine does
// every factory call, so the claim path never pays construction cost.
// Factory failures are captured and surfaced to claimers instead of
// wedging the pool, objects expire on a jittered schedule to avoid
// reallocation storms, and the pool resizes and shuts down while under
// load.
//
// Supporting packages follow the same layout as the engine:
//
//   - pkg/expire: expiration policies (time-spread, fixed age, custom)
//   - pkg/connfactory: ready-made factories for pgx sessions and raw conns
//   - pkg/metrics: Prometheus collectors per pool
//   - pkg/logger: zap-based structured logging
//   - pkg/config: settings for the poolbench tool
//   - cmd/poolbench: workload driver and benchmark CLI
//
// See pkg/pool's package documentation for the concurrency and failure
// model.
package stockpile
