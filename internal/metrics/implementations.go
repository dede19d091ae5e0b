package metrics

import (
	"fmt"

	"face-restore-studio/internal/api"
)

// threshold grades values against a good and a fair bound. Bounds are
// exclusive, so a value equal to the good bound is only fair.
type threshold struct {
	key          string
	name         string
	description  string
	min, max     float64
	higherBetter bool
	good, fair   float64
	precision    int
	value        func(api.QualityMetrics) float64
}

func (t *threshold) GetKey() string                     { return t.key }
func (t *threshold) GetName() string                    { return t.name }
func (t *threshold) GetDescription() string             { return t.description }
func (t *threshold) GetRange() (float64, float64)       { return t.min, t.max }
func (t *threshold) IsHigherBetter() bool               { return t.higherBetter }
func (t *threshold) Value(m api.QualityMetrics) float64 { return t.value(m) }

func (t *threshold) Grade(v float64) Grade {
	if t.higherBetter {
		switch {
		case v > t.good:
			return Good
		case v > t.fair:
			return Fair
		}
		return Poor
	}
	switch {
	case v < t.good:
		return Good
	case v < t.fair:
		return Fair
	}
	return Poor
}

func (t *threshold) Format(v float64) string {
	return fmt.Sprintf("%.*f", t.precision, v)
}

// NewPSNR grades peak signal-to-noise ratio in dB
func NewPSNR() Metric {
	return &threshold{
		key:          "psnr",
		name:         "PSNR (DB)",
		description:  "SIGNAL FIDELITY",
		min:          0,
		max:          50,
		higherBetter: true,
		good:         30,
		fair:         25,
		precision:    2,
		value:        func(m api.QualityMetrics) float64 { return m.PSNR },
	}
}

// NewSSIM grades structural similarity
func NewSSIM() Metric {
	return &threshold{
		key:          "ssim",
		name:         "SSIM",
		description:  "STRUCTURAL SIMILARITY",
		min:          0,
		max:          1,
		higherBetter: true,
		good:         0.8,
		fair:         0.7,
		precision:    3,
		value:        func(m api.QualityMetrics) float64 { return m.SSIM },
	}
}

// NewLPIPS grades learned perceptual distance; lower is better
func NewLPIPS() Metric {
	return &threshold{
		key:          "lpips",
		name:         "LPIPS",
		description:  "PERCEPTUAL ERROR",
		min:          0,
		max:          1,
		higherBetter: false,
		good:         0.3,
		fair:         0.5,
		precision:    3,
		value:        func(m api.QualityMetrics) float64 { return m.LPIPS },
	}
}

// NewIdentity grades face embedding similarity between input and output
func NewIdentity() Metric {
	return &threshold{
		key:          "identity_score",
		name:         "IDENTITY",
		description:  "FACE VERIFICATION",
		min:          0,
		max:          1,
		higherBetter: true,
		good:         0.6,
		fair:         0.4,
		precision:    3,
		value:        func(m api.QualityMetrics) float64 { return m.IdentityScore },
	}
}
