// Package layout covers the layout-detection side of the pipeline: the
// supported models, the label-keyed region map a detector produces, the
// deterministic region order and the detector clients.
package layout

import (
	"bytes"
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"

	"github.com/MeKo-Tech/layocr/internal/utils"
)

// Region is one detected layout region. Text is filled in after
// recognition; Recognized tells an empty transcript from a missing one.
type Region struct {
	Label      string            `json:"label"`
	Box        utils.BoundingBox `json:"-"`
	Confidence float64           `json:"confidence"`
	Text       string            `json:"text,omitempty"`
	Recognized bool              `json:"-"`
}

type regionJSON struct {
	Label      string  `json:"label"`
	Box        [4]int  `json:"box"`
	Confidence float64 `json:"confidence"`
	Text       *string `json:"text,omitempty"`
}

// MarshalJSON writes the box as [left, top, right, bottom].
func (r Region) MarshalJSON() ([]byte, error) {
	out := regionJSON{Label: r.Label, Box: r.Box.Corners(), Confidence: r.Confidence}
	if r.Recognized {
		text := r.Text
		out.Text = &text
	}
	return json.Marshal(out)
}

// RegionMap maps region labels to regions. Labels are unique; Set on an
// existing label replaces the region in place. Iteration follows insertion
// order, which carries no meaning: callers sort with Order.
type RegionMap struct {
	labels  []string
	regions map[string]Region
}

// NewRegionMap returns an empty map.
func NewRegionMap() *RegionMap {
	return &RegionMap{regions: make(map[string]Region)}
}

// Set stores r under r.Label.
func (m *RegionMap) Set(r Region) {
	if m.regions == nil {
		m.regions = make(map[string]Region)
	}
	if _, ok := m.regions[r.Label]; !ok {
		m.labels = append(m.labels, r.Label)
	}
	m.regions[r.Label] = r
}

// Get returns the region stored under label.
func (m *RegionMap) Get(label string) (Region, bool) {
	r, ok := m.regions[label]
	return r, ok
}

// SetText records the recognized text of a region.
func (m *RegionMap) SetText(label, text string) bool {
	r, ok := m.regions[label]
	if !ok {
		return false
	}
	r.Text = text
	r.Recognized = true
	m.regions[label] = r
	return true
}

// Len returns the number of regions.
func (m *RegionMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.labels)
}

// Regions returns the regions in insertion order.
func (m *RegionMap) Regions() []Region {
	if m == nil {
		return nil
	}
	out := make([]Region, 0, len(m.labels))
	for _, l := range m.labels {
		out = append(out, m.regions[l])
	}
	return out
}

// Order sorts the regions by top edge, descending. Regions sharing a top
// edge keep their insertion order.
func Order(m *RegionMap) []Region {
	regions := m.Regions()
	slices.SortStableFunc(regions, func(a, b Region) int {
		return cmp.Compare(b.Box.Top, a.Box.Top)
	})
	return regions
}

type detection struct {
	Box        []float64 `json:"box"`
	Confidence float64   `json:"confidence"`
}

// ParseDetections decodes a detector response of the form
// {label: {"box": [left, top, right, bottom], "confidence": f}}, keeping
// the order in which labels appear.
func ParseDetections(r io.Reader) (*RegionMap, error) {
	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read detections: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("detections must be a JSON object")
	}

	m := NewRegionMap()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read detection label: %w", err)
		}
		label, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		var det detection
		if err := dec.Decode(&det); err != nil {
			return nil, fmt.Errorf("decode detection %q: %w", label, err)
		}
		if len(det.Box) != 4 {
			return nil, fmt.Errorf("detection %q: box must have 4 coordinates, got %d", label, len(det.Box))
		}
		m.Set(Region{
			Label: label,
			Box: utils.FromCorners(
				floor(det.Box[0]), floor(det.Box[1]),
				floor(det.Box[2]), floor(det.Box[3]),
			),
			Confidence: det.Confidence,
		})
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("read detections: %w", err)
	}
	return m, nil
}

// MarshalJSON writes the map as a detector response, in insertion order.
func (m *RegionMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, r := range m.Regions() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(r.Label)
		if err != nil {
			return nil, err
		}
		c := r.Box.Corners()
		val, err := json.Marshal(detection{
			Box:        []float64{float64(c[0]), float64(c[1]), float64(c[2]), float64(c[3])},
			Confidence: r.Confidence,
		})
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (m *RegionMap) UnmarshalJSON(data []byte) error {
	parsed, err := ParseDetections(bytes.NewReader(data))
	if err != nil {
		return err
	}
	*m = *parsed
	return nil
}

func floor(v float64) int {
	return int(math.Floor(v))
}
