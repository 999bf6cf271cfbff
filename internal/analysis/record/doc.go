// Package record owns Layer 1 of the analysis data model: the uniform
// per-particle attribute record and ordered collections of records.
//
// Key types: Particle, Collection.
//
// Records are event scoped. Attributes written during cleaning (angular
// separations, azimuthal differences) live only as long as the event's
// arena does.
package record
