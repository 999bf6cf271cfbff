// Package pipeline orchestrates one analysis run.
//
// It wires the builder chain (objects), the event variables (variables)
// and the region selector (regions) into an Analysis, feeds it events
// from a source.EventSource and applies the degenerate-event policy. It
// does not own physics logic; every cut and builder lives in the layer
// packages.
//
// Parallel runs give every worker a private Analysis and merge the
// accumulators once all shards are drained.
package pipeline
