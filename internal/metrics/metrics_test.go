package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"face-restore-studio/internal/api"
)

func TestGradeThresholds(t *testing.T) {
	tests := []struct {
		metric Metric
		value  float64
		want   Grade
	}{
		{NewPSNR(), 32.5, Good},
		{NewPSNR(), 30, Fair},
		{NewPSNR(), 27, Fair},
		{NewPSNR(), 25, Poor},
		{NewSSIM(), 0.81, Good},
		{NewSSIM(), 0.75, Fair},
		{NewSSIM(), 0.5, Poor},
		{NewLPIPS(), 0.1, Good},
		{NewLPIPS(), 0.3, Fair},
		{NewLPIPS(), 0.49, Fair},
		{NewLPIPS(), 0.5, Poor},
		{NewIdentity(), 0.9, Good},
		{NewIdentity(), 0.41, Fair},
		{NewIdentity(), 0.4, Poor},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.metric.Grade(tt.value), "%s=%v", tt.metric.GetKey(), tt.value)
	}
}

func TestEvaluateOrderAndFormatting(t *testing.T) {
	readings := NewEvaluator().Evaluate(api.QualityMetrics{PSNR: 31.456, SSIM: 0.8123, LPIPS: 0.2, IdentityScore: 0.55})
	require.Len(t, readings, 4)

	assert.Equal(t, []string{"psnr", "ssim", "lpips", "identity_score"},
		[]string{readings[0].Key, readings[1].Key, readings[2].Key, readings[3].Key})
	assert.Equal(t, "31.46", readings[0].Display)
	assert.Equal(t, "0.812", readings[1].Display)
	assert.Equal(t, "0.200", readings[2].Display)
	assert.Equal(t, "0.550", readings[3].Display)

	assert.Equal(t, "PSNR (DB)", readings[0].Name)
	assert.Equal(t, "FACE VERIFICATION", readings[3].Description)
	assert.Equal(t, Fair, readings[3].Grade)
}

func TestRegisterReplacesByKey(t *testing.T) {
	e := NewEvaluator()
	e.Register(NewSSIM())

	info := e.GetMetricInfo()
	require.Len(t, info, 4)
	assert.Equal(t, "ssim", info[1].Key)
	assert.False(t, info[2].HigherBetter)
	assert.Equal(t, [2]float64{0, 50}, info[0].Range)
}

func TestGenerateReport(t *testing.T) {
	e := NewEvaluator()

	best := e.GenerateReport(api.QualityMetrics{PSNR: 60, SSIM: 1, LPIPS: 0, IdentityScore: 1})
	assert.InDelta(t, 100, best.OverallScore, 1e-9)
	assert.Equal(t, "excellent", best.QualityLevel)
	assert.Equal(t, "100%", FormatScore(best.OverallScore))

	worst := e.GenerateReport(api.QualityMetrics{LPIPS: 1})
	assert.InDelta(t, 0, worst.OverallScore, 1e-9)
	assert.Equal(t, "poor", worst.QualityLevel)

	mid := e.GenerateReport(api.QualityMetrics{PSNR: 40, SSIM: 0.8, LPIPS: 0.2, IdentityScore: 0.8})
	assert.InDelta(t, 80, mid.OverallScore, 1e-9)
	assert.Equal(t, "good", mid.QualityLevel)
}

func TestGradeString(t *testing.T) {
	assert.Equal(t, "good", Good.String())
	assert.Equal(t, "fair", Fair.String())
	assert.Equal(t, "poor", Poor.String())
}
