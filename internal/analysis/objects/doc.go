// Package objects owns Layer 3 of the analysis data model: the per-event
// arena and the object builders that turn raw detector collections into
// analysis objects.
//
// The builder chain is declared as data (Pipeline). Validate checks that
// every builder only reads raw inputs or collections produced earlier in
// the list, so a reordering that would read an unbuilt collection is
// rejected before any event is processed.
//
// Dependency rule: objects may depend on record and kinematics only.
package objects
