// Phase panels: intake, progress, error banner, metrics
package gui

import (
	"fmt"
	"image/color"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/dustin/go-humanize"

	"face-restore-studio/internal/intake"
	"face-restore-studio/internal/metrics"
	"face-restore-studio/internal/workflow"
)

// IntakeCard accepts a file from the open dialog or a drop on the window
type IntakeCard struct {
	card      *widget.Card
	hint      *widget.Label
	selected  *widget.Label
	rejection *widget.Label
	openBtn   *widget.Button
	retryBtn  *widget.Button

	onOpen  func()
	onRetry func()
}

func NewIntakeCard(policy intake.Policy) *IntakeCard {
	ic := &IntakeCard{}

	ic.hint = widget.NewLabelWithStyle(
		fmt.Sprintf("DROP A JPEG OR PNG HERE (MAX %s)", strings.ToUpper(humanize.IBytes(uint64(policy.Limit())))),
		fyne.TextAlignCenter, fyne.TextStyle{Monospace: true})
	ic.selected = widget.NewLabelWithStyle("", fyne.TextAlignCenter, fyne.TextStyle{})
	ic.selected.Hide()
	ic.rejection = widget.NewLabelWithStyle("", fyne.TextAlignCenter, fyne.TextStyle{Bold: true})
	ic.rejection.Importance = widget.DangerImportance
	ic.rejection.Hide()

	ic.openBtn = widget.NewButtonWithIcon("CHOOSE IMAGE", theme.FolderOpenIcon(), func() { call(ic.onOpen) })
	ic.openBtn.Importance = widget.HighImportance
	ic.retryBtn = widget.NewButtonWithIcon("PROCESS AGAIN", theme.ViewRefreshIcon(), func() { call(ic.onRetry) })
	ic.retryBtn.Hide()

	ic.card = widget.NewCard("Restore a Face", "Upload a single face image to enhance it",
		container.NewVBox(
			layout.NewSpacer(),
			ic.hint,
			container.NewCenter(container.NewHBox(ic.openBtn, ic.retryBtn)),
			ic.selected,
			ic.rejection,
			layout.NewSpacer(),
		))
	return ic
}

func (ic *IntakeCard) GetContainer() fyne.CanvasObject {
	return ic.card
}

func (ic *IntakeCard) SetCallbacks(onOpen, onRetry func()) {
	ic.onOpen = onOpen
	ic.onRetry = onRetry
}

// Update reflects the selected file and whether intake is enabled
func (ic *IntakeCard) Update(state workflow.State) {
	if state.AcceptsIntake() {
		ic.openBtn.Enable()
	} else {
		ic.openBtn.Disable()
	}

	if state.HasFile() && state.Phase != workflow.Processing {
		detail := humanize.IBytes(uint64(state.File.Size()))
		if state.Preview != nil {
			size := state.Preview.Size()
			detail += fmt.Sprintf(", %dx%d", size.X, size.Y)
		}
		ic.selected.SetText(fmt.Sprintf("SELECTED: %s (%s)", state.File.Name, detail))
		ic.selected.Show()
		ic.retryBtn.Show()
	} else {
		ic.selected.Hide()
		ic.retryBtn.Hide()
	}
}

// ShowRejection displays an intake policy message
func (ic *IntakeCard) ShowRejection(message string) {
	ic.rejection.SetText(message)
	ic.rejection.Show()
}

func (ic *IntakeCard) ClearRejection() {
	ic.rejection.SetText("")
	ic.rejection.Hide()
}

// ProgressCard is shown while a request is outstanding
type ProgressCard struct {
	card     *widget.Card
	file     *widget.Label
	progress *widget.ProgressBarInfinite
}

func NewProgressCard() *ProgressCard {
	pc := &ProgressCard{
		file:     widget.NewLabelWithStyle("", fyne.TextAlignCenter, fyne.TextStyle{Monospace: true}),
		progress: widget.NewProgressBarInfinite(),
	}
	pc.progress.Stop()

	pc.card = widget.NewCard("Processing", "Restoring facial details. This can take a few minutes.",
		container.NewVBox(layout.NewSpacer(), pc.file, pc.progress, layout.NewSpacer()))
	return pc
}

func (pc *ProgressCard) GetContainer() fyne.CanvasObject {
	return pc.card
}

func (pc *ProgressCard) Start(file *intake.File) {
	if file != nil {
		pc.file.SetText(fmt.Sprintf("%s (%s)", file.Name, humanize.IBytes(uint64(file.Size()))))
	}
	if !pc.progress.Running() {
		pc.progress.Start()
	}
}

func (pc *ProgressCard) Stop() {
	if pc.progress.Running() {
		pc.progress.Stop()
	}
}

// ErrorBanner shows the workflow error with dismiss and retry actions
type ErrorBanner struct {
	box      *fyne.Container
	message  *widget.Label
	retryBtn *widget.Button

	onDismiss func()
	onRetry   func()
}

func NewErrorBanner() *ErrorBanner {
	eb := &ErrorBanner{
		message: widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
	}
	eb.message.Importance = widget.DangerImportance
	eb.message.Wrapping = fyne.TextWrapWord

	eb.retryBtn = widget.NewButtonWithIcon("RETRY", theme.ViewRefreshIcon(), func() { call(eb.onRetry) })
	dismissBtn := widget.NewButtonWithIcon("", theme.CancelIcon(), func() { call(eb.onDismiss) })

	background := canvas.NewRectangle(color.NRGBA{R: 0x7f, G: 0x1d, B: 0x1d, A: 0x40})
	eb.box = container.NewStack(background, container.NewBorder(nil, nil,
		widget.NewIcon(theme.ErrorIcon()),
		container.NewHBox(eb.retryBtn, dismissBtn),
		eb.message,
	))
	eb.box.Hide()
	return eb
}

func (eb *ErrorBanner) GetContainer() fyne.CanvasObject {
	return eb.box
}

func (eb *ErrorBanner) SetCallbacks(onDismiss, onRetry func()) {
	eb.onDismiss = onDismiss
	eb.onRetry = onRetry
}

func (eb *ErrorBanner) Update(state workflow.State) {
	if state.Phase != workflow.Error || state.ErrorMessage == "" {
		eb.message.SetText("")
		eb.box.Hide()
		return
	}

	eb.message.SetText(state.ErrorMessage)
	if state.HasFile() {
		eb.retryBtn.Show()
	} else {
		eb.retryBtn.Hide()
	}
	eb.box.Show()
}

// MetricsPanel displays the graded quality metrics
type MetricsPanel struct {
	grid    *fyne.Container
	summary *widget.Label
	vbox    *fyne.Container
}

var gradeColors = map[metrics.Grade]color.Color{
	metrics.Good: color.NRGBA{R: 0x4a, G: 0xde, B: 0x80, A: 0xff},
	metrics.Fair: color.NRGBA{R: 0xfa, G: 0xcc, B: 0x15, A: 0xff},
	metrics.Poor: color.NRGBA{R: 0xf8, G: 0x71, B: 0x71, A: 0xff},
}

func NewMetricsPanel() *MetricsPanel {
	mp := &MetricsPanel{
		grid:    container.NewGridWithColumns(4),
		summary: widget.NewLabelWithStyle("", fyne.TextAlignCenter, fyne.TextStyle{Italic: true}),
	}
	mp.vbox = container.NewVBox(mp.grid, mp.summary)
	return mp
}

func (mp *MetricsPanel) GetContainer() fyne.CanvasObject {
	return mp.vbox
}

func (mp *MetricsPanel) UpdateMetrics(report metrics.QualityReport, summary string) {
	mp.grid.RemoveAll()
	for _, r := range report.Readings {
		value := canvas.NewText(r.Display, gradeColors[r.Grade])
		value.TextStyle = fyne.TextStyle{Bold: true, Monospace: true}
		value.TextSize = theme.TextHeadingSize()
		value.Alignment = fyne.TextAlignCenter

		mp.grid.Add(widget.NewCard(r.Name, r.Description, value))
	}
	mp.summary.SetText(summary)
	mp.vbox.Refresh()
}

// Readings returns the values currently displayed, for tests and tooltips
func (mp *MetricsPanel) Readings() []string {
	var out []string
	for _, obj := range mp.grid.Objects {
		card, ok := obj.(*widget.Card)
		if !ok {
			continue
		}
		if text, ok := card.Content.(*canvas.Text); ok {
			out = append(out, card.Title+"="+text.Text)
		}
	}
	return out
}

func (mp *MetricsPanel) Clear() {
	mp.grid.RemoveAll()
	mp.summary.SetText("")
}
