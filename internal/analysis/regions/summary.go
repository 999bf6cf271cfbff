package regions

import (
	"fmt"
	"io"
)

// WriteSummary prints the region table in the analysis' historical
// layout: name, weighted count and uncertainty in parentheses.
func WriteSummary(w io.Writer, yields []Yield) error {
	if _, err := fmt.Fprintln(w, "event counts"); err != nil {
		return err
	}
	for _, y := range yields {
		if _, err := fmt.Fprintf(w, "\t%-24s %10.3f (%10.3f)\n", y.Name, y.Count, y.Uncertainty); err != nil {
			return err
		}
	}
	return nil
}

// WriteCutFlows prints each region's cut flow: step number, label,
// weighted count, its uncertainty and the efficiency relative to "none".
func WriteCutFlows(w io.Writer, flows []Flow) error {
	if _, err := fmt.Fprintf(w, "\nSummary\n\n"); err != nil {
		return err
	}
	for _, f := range flows {
		if _, err := fmt.Fprintln(w, f.Region); err != nil {
			return err
		}
		var total float64
		if len(f.Steps) > 0 {
			total = f.Steps[0].SumW
		}
		for i, st := range f.Steps {
			eff := 0.0
			if total > 0 {
				eff = st.SumW / total
			}
			if _, err := fmt.Fprintf(w, " %2d %-45s: %9.2f +/- %5.1f %6.3f\n",
				i+1, st.Name, st.SumW, st.Uncertainty(), eff); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}
