// Package sqlite persists analysis runs: one row per run, its region
// yields and its cut-flow steps. The schema is managed by golang-migrate
// from migrations embedded in the binary.
package sqlite
