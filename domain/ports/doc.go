// Package ports defines the interfaces through which the protocol core reaches
// the outside world: the request stream, the response sink, diagnostics,
// template rendering and manifest parsing.
// These ports enable dependency inversion - domain logic depends on abstractions,
// and infrastructure adapters implement these interfaces.
package ports
