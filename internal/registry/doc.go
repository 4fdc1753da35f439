// Package registry is the authoritative store for the simulated device
// network.
//
// It owns device identity and lifecycle (register, unregister, reactivate),
// synthetic reading generation, the aggregate network counters, and the
// bounded reading-history window. The broadcast channel and the HTTP API
// are both thin views over this package: every observer-visible state
// change happens here first.
//
// Two devices are permanent: server-1 (the simulated IoT server) and pc-1
// (the control unit). They are seeded at startup and unregistering them is
// rejected.
package registry
