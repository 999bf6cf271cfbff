// Package report renders the results of a run: per-region histograms
// (filled through a selector observer), YODA export, PNG plots, an HTML
// page and an xlsx workbook.
package report
