// Package regions owns Layer 5 of the analysis data model: named region
// predicates, their weighted accumulators and per-step cut flows.
//
// A region may require another region as a precondition (the shared
// preselection). How often the required region's own accumulator grows
// when several regions invoke it in one event is set by CountingMode.
//
// Increments made while evaluating an event are staged and committed only
// when the whole event evaluates without error.
package regions
