// Package source adapts event files into the raw collections consumed by
// the analysis.
//
// Every EventSource yields one RawEvent per call to Next and returns
// io.EOF once exhausted. Collections within a RawEvent are ordered by
// descending pt so that index 0 is the leading object.
//
// Dependency rule: source may import analysis/record and analysis/objects
// (for the raw collection names) but nothing above them.
package source
