package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/banshee-data/monophoton/internal/analysis/regions"
)

// Output file names inside the report directory.
const (
	SummaryFile    = "summary.txt"
	HTMLFile       = "report.html"
	XLSXFile       = "report.xlsx"
	YieldChartFile = "yields.png"
	YODAFile       = "histograms.yoda"
)

// Result is everything a report is rendered from.
type Result struct {
	Title      string
	Yields     []regions.Yield
	Flows      []regions.Flow
	Histograms *Histograms
}

// Write renders every report format into dir, creating it if needed, and
// returns the paths written.
func Write(dir string, res Result) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}
	var files []string

	if err := writeFile(filepath.Join(dir, SummaryFile), func(w io.Writer) error {
		if err := regions.WriteSummary(w, res.Yields); err != nil {
			return err
		}
		return regions.WriteCutFlows(w, res.Flows)
	}); err != nil {
		return files, err
	}
	files = append(files, filepath.Join(dir, SummaryFile))

	if err := writeFile(filepath.Join(dir, HTMLFile), func(w io.Writer) error {
		return WriteHTML(w, res.Title, res.Yields, res.Flows)
	}); err != nil {
		return files, err
	}
	files = append(files, filepath.Join(dir, HTMLFile))

	if err := WriteXLSX(filepath.Join(dir, XLSXFile), res.Yields, res.Flows); err != nil {
		return files, err
	}
	files = append(files, filepath.Join(dir, XLSXFile))

	if err := WriteYieldChart(filepath.Join(dir, YieldChartFile), res.Yields); err != nil {
		return files, err
	}
	files = append(files, filepath.Join(dir, YieldChartFile))

	if res.Histograms != nil {
		if err := writeFile(filepath.Join(dir, YODAFile), res.Histograms.WriteYODA); err != nil {
			return files, err
		}
		files = append(files, filepath.Join(dir, YODAFile))

		plots, err := WritePlots(dir, res.Histograms)
		files = append(files, plots...)
		if err != nil {
			return files, err
		}
	}
	return files, nil
}

func writeFile(path string, fn func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := fn(w); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
