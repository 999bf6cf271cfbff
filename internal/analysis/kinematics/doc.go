// Package kinematics owns Layer 2 of the analysis data model: pure
// functions over directions and momenta.
//
// Azimuthal differences are wrapped into (-pi, pi] before use, so every
// separation is symmetric in its arguments.
package kinematics
