// Package analysis is the root of the event-selection data model.
//
// Layers, leaf first:
//
//	record      particle attribute records and ordered collections
//	kinematics  angular separation, effective mass, MET significance
//	objects     per-event arena and the declared object-builder pipeline
//	variables   event-level scalars derived from finished collections
//	regions     region predicates, weighted accumulators and cut flows
//	pipeline    composition root that drives events through the layers
//
// Dependency rule: a layer may import the layers above it in this list,
// never the ones below. Only pipeline imports all of them.
package analysis
