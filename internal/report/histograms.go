package report

import (
	"fmt"
	"io"

	"go-hep.org/x/hep/hbook"

	"github.com/banshee-data/monophoton/internal/analysis/objects"
	"github.com/banshee-data/monophoton/internal/analysis/record"
	"github.com/banshee-data/monophoton/internal/analysis/regions"
)

// Binning fixes the histogram ranges. Both axes start at zero.
type Binning struct {
	METBins      int
	METMax       float64
	PhotonPtBins int
	PhotonPtMax  float64
}

// RegionHists are the distributions recorded for one region.
type RegionHists struct {
	MET      *hbook.H1D
	PhotonPt *hbook.H1D
}

// Histograms holds per-region MET and leading-photon pt distributions.
// Each parallel worker fills its own Histograms; Merge combines them.
type Histograms struct {
	order   []string
	regions map[string]*RegionHists
	// Missed counts passes whose event lacked MET or a tight photon.
	Missed int
}

// NewHistograms books two histograms per region name.
func NewHistograms(names []string, b Binning) *Histograms {
	h := &Histograms{order: append([]string(nil), names...), regions: make(map[string]*RegionHists, len(names))}
	for _, n := range names {
		met := hbook.NewH1D(b.METBins, 0, b.METMax)
		met.Annotation()["name"] = "/monophoton/" + n + "/met"
		pt := hbook.NewH1D(b.PhotonPtBins, 0, b.PhotonPtMax)
		pt.Annotation()["name"] = "/monophoton/" + n + "/photon_pt"
		h.regions[n] = &RegionHists{MET: met, PhotonPt: pt}
	}
	return h
}

// Regions returns the booked region names in order.
func (h *Histograms) Regions() []string { return h.order }

// Region returns the histograms of one region, or nil.
func (h *Histograms) Region(name string) *RegionHists { return h.regions[name] }

// Observer returns a selector observer that fills h.
func (h *Histograms) Observer() regions.Observer {
	return func(region string, ev *objects.Event) {
		rh := h.regions[region]
		if rh == nil {
			return
		}
		met, err := ev.Single(objects.MET)
		if err != nil {
			h.Missed++
			return
		}
		metPt, err := met.Get(record.AttrPt)
		if err != nil {
			h.Missed++
			return
		}
		photons, err := ev.Collection(objects.TightPhotons)
		if err != nil || len(photons) == 0 {
			h.Missed++
			return
		}
		phPt, err := photons.Leading().Get(record.AttrPt)
		if err != nil {
			h.Missed++
			return
		}
		rh.MET.Fill(metPt, ev.Weight)
		rh.PhotonPt.Fill(phPt, ev.Weight)
	}
}

// Merge adds other's contents. Both must have been booked with the same
// regions and binning.
func (h *Histograms) Merge(other *Histograms) error {
	if len(other.order) != len(h.order) {
		return fmt.Errorf("merge histograms: %d regions into %d", len(other.order), len(h.order))
	}
	for _, n := range h.order {
		o := other.regions[n]
		if o == nil {
			return fmt.Errorf("merge histograms: region %s missing", n)
		}
		rh := h.regions[n]
		rh.MET = add(rh.MET, o.MET)
		rh.PhotonPt = add(rh.PhotonPt, o.PhotonPt)
	}
	h.Missed += other.Missed
	return nil
}

func add(a, b *hbook.H1D) *hbook.H1D {
	sum := hbook.AddH1D(a, b)
	sum.Annotation()["name"] = a.Name()
	return sum
}

// WriteYODA writes every histogram in YODA format.
func (h *Histograms) WriteYODA(w io.Writer) error {
	for _, n := range h.order {
		rh := h.regions[n]
		for _, hist := range []*hbook.H1D{rh.MET, rh.PhotonPt} {
			raw, err := hist.MarshalYODA()
			if err != nil {
				return fmt.Errorf("marshal %s: %w", hist.Name(), err)
			}
			if _, err := w.Write(raw); err != nil {
				return err
			}
		}
	}
	return nil
}
