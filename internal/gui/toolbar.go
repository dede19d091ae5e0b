// Result view and its action bar
package gui

import (
	"fmt"
	"image"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"face-restore-studio/internal/api"
	"face-restore-studio/internal/metrics"
)

// Toolbar holds the actions available on a result
type Toolbar struct {
	container *fyne.Container

	downloadBtn *widget.Button
	newImageBtn *widget.Button
	status      *widget.Label

	onDownload func()
	onNewImage func()
}

func NewToolbar() *Toolbar {
	tb := &Toolbar{}

	tb.downloadBtn = widget.NewButtonWithIcon("DOWNLOAD", theme.DownloadIcon(), func() { call(tb.onDownload) })
	tb.downloadBtn.Importance = widget.HighImportance
	tb.newImageBtn = widget.NewButtonWithIcon("PROCESS NEW IMAGE", theme.ContentAddIcon(), func() { call(tb.onNewImage) })
	tb.status = widget.NewLabel("")

	tb.container = container.NewBorder(nil, nil,
		tb.status,
		container.NewHBox(tb.newImageBtn, tb.downloadBtn),
	)
	return tb
}

func (tb *Toolbar) GetContainer() fyne.CanvasObject {
	return tb.container
}

func (tb *Toolbar) SetCallbacks(onDownload, onNewImage func()) {
	tb.onDownload = onDownload
	tb.onNewImage = onNewImage
}

func (tb *Toolbar) SetStatus(message string) {
	tb.status.SetText(message)
}

// ResultView shows the comparison, the metrics and the result actions
type ResultView struct {
	box        *fyne.Container
	comparison *fyne.Container
	view       *ComparisonView
	metrics    *MetricsPanel
	toolbar    *Toolbar
}

func NewResultView() *ResultView {
	rv := &ResultView{
		comparison: container.NewStack(),
		metrics:    NewMetricsPanel(),
		toolbar:    NewToolbar(),
	}
	rv.box = container.NewBorder(
		nil,
		container.NewVBox(rv.metrics.GetContainer(), widget.NewSeparator(), rv.toolbar.GetContainer()),
		nil, nil,
		rv.comparison,
	)
	return rv
}

func (rv *ResultView) GetContainer() fyne.CanvasObject {
	return rv.box
}

func (rv *ResultView) SetCallbacks(onDownload, onNewImage func()) {
	rv.toolbar.SetCallbacks(onDownload, onNewImage)
}

// SetResult replaces the displayed comparison and metrics
func (rv *ResultView) SetResult(original, restored image.Image, report metrics.QualityReport, result *api.EnhancementResult) {
	rv.view = NewComparisonView(original, restored)
	rv.comparison.Objects = []fyne.CanvasObject{rv.view}
	rv.comparison.Refresh()

	rv.metrics.UpdateMetrics(report, fmt.Sprintf("OVERALL %s (%s)", metrics.FormatScore(report.OverallScore), report.QualityLevel))
	rv.toolbar.SetStatus(resultStatus(result))
}

// Comparison returns the current comparison widget, nil before a result
func (rv *ResultView) Comparison() *ComparisonView {
	return rv.view
}

func resultStatus(result *api.EnhancementResult) string {
	if result == nil {
		return ""
	}
	msg := api.Normalize(result.Message)
	if result.ProcessingTimeMs <= 0 {
		return msg
	}
	took := result.ProcessingTime().Round(10 * time.Millisecond)
	if msg == "" {
		return fmt.Sprintf("PROCESSED IN %s", took)
	}
	return fmt.Sprintf("%s PROCESSED IN %s", msg, took)
}
