package layout

import (
	"fmt"
	"math"
	"strings"
)

// Model names one of the supported layout-detection models.
type Model string

const (
	SanskritPubLayNetFasterRCNN   Model = "Sanskrit_PubLayNet_faster_rcnn"
	SanskritPubLayNetMaskRCNNX101 Model = "Sanskrit_PubLayNet_mask_rcnn_X101"
	PubLayNetFasterRCNN           Model = "PubLayNet_faster_rcnn"
	PubLayNetMaskRCNNR50          Model = "PubLayNet_mask_rcnn_R50"
	PubLayNetMaskRCNNX101         Model = "PubLayNet_mask_rcnn_X101"
)

var models = []Model{
	SanskritPubLayNetFasterRCNN,
	SanskritPubLayNetMaskRCNNX101,
	PubLayNetFasterRCNN,
	PubLayNetMaskRCNNR50,
	PubLayNetMaskRCNNX101,
}

// Models returns the supported models in a fixed order.
func Models() []Model {
	out := make([]Model, len(models))
	copy(out, models)
	return out
}

// Valid reports whether m is a supported model.
func (m Model) Valid() bool {
	for _, known := range models {
		if m == known {
			return true
		}
	}
	return false
}

// ParseModel matches s against the supported models, ignoring case.
func ParseModel(s string) (Model, error) {
	for _, m := range models {
		if strings.EqualFold(string(m), strings.TrimSpace(s)) {
			return m, nil
		}
	}
	names := make([]string, len(models))
	for i, m := range models {
		names[i] = string(m)
	}
	return "", fmt.Errorf("invalid layout model: %q (must be one of: %s)", s, strings.Join(names, ", "))
}

// ValidateThreshold checks a detection confidence threshold.
func ValidateThreshold(v float64) error {
	if math.IsNaN(v) || v < 0.0 || v > 1.0 {
		return fmt.Errorf("invalid confidence threshold: %.2f (must be between 0.0 and 1.0)", v)
	}
	return nil
}
