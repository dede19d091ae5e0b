// Package metrics grades the quality scores reported by the restoration
// service and summarizes them for display.
package metrics

import (
	"fmt"
	"math"

	"face-restore-studio/internal/api"
)

// Grade is the traffic-light rating of a single metric.
type Grade int

const (
	Poor Grade = iota
	Fair
	Good
)

func (g Grade) String() string {
	switch g {
	case Good:
		return "good"
	case Fair:
		return "fair"
	default:
		return "poor"
	}
}

// Metric defines the interface for a graded quality metric
type Metric interface {
	// GetKey returns the wire name of the metric
	GetKey() string

	// GetName returns the display label
	GetName() string

	// GetDescription returns the metric description
	GetDescription() string

	// GetRange returns the value range (min, max)
	GetRange() (float64, float64)

	// IsHigherBetter returns true if higher values indicate better quality
	IsHigherBetter() bool

	// Value extracts the metric from a service response
	Value(m api.QualityMetrics) float64

	// Grade rates a value
	Grade(value float64) Grade

	// Format renders a value at the metric's precision
	Format(value float64) string
}

// Reading is one evaluated metric, ready for presentation.
type Reading struct {
	Key         string
	Name        string
	Description string
	Value       float64
	Display     string
	Grade       Grade
}

// Evaluator manages the registered metrics in display order
type Evaluator struct {
	metrics []Metric
}

// NewEvaluator creates an evaluator with the four service metrics
func NewEvaluator() *Evaluator {
	e := &Evaluator{}
	e.RegisterDefaultMetrics()
	return e
}

// RegisterDefaultMetrics registers PSNR, SSIM, LPIPS and identity similarity
func (e *Evaluator) RegisterDefaultMetrics() {
	e.Register(NewPSNR())
	e.Register(NewSSIM())
	e.Register(NewLPIPS())
	e.Register(NewIdentity())
}

// Register appends a metric, replacing one with the same key
func (e *Evaluator) Register(metric Metric) {
	for i, m := range e.metrics {
		if m.GetKey() == metric.GetKey() {
			e.metrics[i] = metric
			return
		}
	}
	e.metrics = append(e.metrics, metric)
}

// Evaluate grades every registered metric
func (e *Evaluator) Evaluate(m api.QualityMetrics) []Reading {
	readings := make([]Reading, 0, len(e.metrics))
	for _, metric := range e.metrics {
		value := metric.Value(m)
		readings = append(readings, Reading{
			Key:         metric.GetKey(),
			Name:        metric.GetName(),
			Description: metric.GetDescription(),
			Value:       value,
			Display:     metric.Format(value),
			Grade:       metric.Grade(value),
		})
	}
	return readings
}

// GetMetricInfo returns information about all metrics
func (e *Evaluator) GetMetricInfo() []MetricInfo {
	info := make([]MetricInfo, 0, len(e.metrics))
	for _, metric := range e.metrics {
		lo, hi := metric.GetRange()
		info = append(info, MetricInfo{
			Key:          metric.GetKey(),
			Name:         metric.GetName(),
			Description:  metric.GetDescription(),
			Range:        [2]float64{lo, hi},
			HigherBetter: metric.IsHigherBetter(),
		})
	}
	return info
}

// MetricInfo provides metadata about a metric
type MetricInfo struct {
	Key          string
	Name         string
	Description  string
	Range        [2]float64 // [min, max]
	HigherBetter bool
}

// QualityReport summarizes a restoration
type QualityReport struct {
	OverallScore float64   `json:"overall_score"`
	QualityLevel string    `json:"quality_level"` // "excellent", "good", "fair", "poor"
	Readings     []Reading `json:"readings"`
}

// GenerateReport grades m and computes an overall score
func (e *Evaluator) GenerateReport(m api.QualityMetrics) QualityReport {
	readings := e.Evaluate(m)
	score := e.calculateOverallScore(readings)

	return QualityReport{
		OverallScore: score,
		QualityLevel: qualityLevel(score),
		Readings:     readings,
	}
}

// calculateOverallScore averages the normalized metrics as a percentage
func (e *Evaluator) calculateOverallScore(readings []Reading) float64 {
	if len(readings) == 0 {
		return 0
	}

	sum := 0.0
	for i, r := range readings {
		sum += normalize(e.metrics[i], r.Value)
	}
	return sum / float64(len(readings)) * 100
}

// normalize maps a value into 0-1 where 1 is best
func normalize(metric Metric, value float64) float64 {
	lo, hi := metric.GetRange()
	if math.IsNaN(value) {
		return 0
	}
	value = math.Max(lo, math.Min(hi, value))
	if hi == lo {
		return 1
	}

	n := (value - lo) / (hi - lo)
	if !metric.IsHigherBetter() {
		n = 1 - n
	}
	return n
}

func qualityLevel(score float64) string {
	switch {
	case score >= 90:
		return "excellent"
	case score >= 75:
		return "good"
	case score >= 60:
		return "fair"
	default:
		return "poor"
	}
}

// FormatScore renders an overall score.
func FormatScore(score float64) string {
	return fmt.Sprintf("%.0f%%", score)
}
