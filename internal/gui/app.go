// Main application window for the restoration studio
package gui

import (
	"errors"
	"fmt"
	"image"
	"io"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"github.com/sirupsen/logrus"

	"face-restore-studio/internal/api"
	"face-restore-studio/internal/intake"
	"face-restore-studio/internal/metrics"
	"face-restore-studio/internal/preview"
	"face-restore-studio/internal/workflow"
)

const windowTitle = "Face Restoration Studio"

// Options configure the application window.
type Options struct {
	Policy      intake.Policy
	DownloadDir string
	Logger      logrus.FieldLogger
}

// Application represents the main window and its presenters
type Application struct {
	app         fyne.App
	window      fyne.Window
	logger      logrus.FieldLogger
	controller  *workflow.Controller
	policy      intake.Policy
	downloadDir string
	evaluator   *metrics.Evaluator
	now         func() time.Time

	// GUI components
	intakeCard   *IntakeCard
	progressCard *ProgressCard
	banner       *ErrorBanner
	resultView   *ResultView
	menuHandler  *MenuHandler

	content *fyne.Container

	// result currently on screen
	shownResult *api.EnhancementResult
	unsubscribe func()
}

// NewApplication builds the main window around controller. Notifications
// from the controller must already be dispatched on the UI goroutine.
func NewApplication(app fyne.App, controller *workflow.Controller, opts Options) *Application {
	window := app.NewWindow(windowTitle)
	window.Resize(fyne.NewSize(1100, 800))
	window.CenterOnScreen()

	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	policy := opts.Policy
	if len(policy.Allowed) == 0 {
		policy = intake.DefaultPolicy()
	}

	a := &Application{
		app:         app,
		window:      window,
		logger:      logger,
		controller:  controller,
		policy:      policy,
		downloadDir: opts.DownloadDir,
		evaluator:   metrics.NewEvaluator(),
		now:         time.Now,
	}

	a.initializeGUI()
	a.setupLayout()
	a.setupCallbacks()
	a.render(controller.Snapshot())

	return a
}

func (a *Application) initializeGUI() {
	a.intakeCard = NewIntakeCard(a.policy)
	a.progressCard = NewProgressCard()
	a.banner = NewErrorBanner()
	a.resultView = NewResultView()
	a.menuHandler = NewMenuHandler(a.window, a.policy, a.logger)
}

func (a *Application) setupLayout() {
	a.content = container.NewStack(
		a.intakeCard.GetContainer(),
		a.progressCard.GetContainer(),
		a.resultView.GetContainer(),
	)

	a.window.SetMainMenu(a.menuHandler.GetMainMenu())
	a.window.SetContent(container.NewBorder(
		a.banner.GetContainer(), // top
		nil, nil, nil,
		container.NewPadded(a.content),
	))
}

func (a *Application) setupCallbacks() {
	a.unsubscribe = a.controller.Subscribe(a.render)

	a.intakeCard.SetCallbacks(a.openImage, a.retry)
	a.banner.SetCallbacks(a.controller.DismissError, a.retry)
	a.resultView.SetCallbacks(a.saveResult, a.controller.Reset)

	a.menuHandler.SetCallbacks(
		a.openImage,
		a.saveResult,
		a.controller.Reset,
	)

	a.window.SetOnDropped(func(_ fyne.Position, uris []fyne.URI) {
		if len(uris) == 0 {
			return
		}
		if len(uris) > 1 {
			a.logger.WithField("count", len(uris)).Info("Multiple files dropped; using the first")
		}
		a.loadURI(uris[0])
	})
}

// render maps a workflow snapshot onto the widgets. It is idempotent.
func (a *Application) render(state workflow.State) {
	a.banner.Update(state)
	a.intakeCard.Update(state)
	a.menuHandler.Update(state)

	a.intakeCard.GetContainer().Hide()
	a.progressCard.GetContainer().Hide()
	a.resultView.GetContainer().Hide()

	switch state.Phase {
	case workflow.Processing:
		a.progressCard.Start(state.File)
		a.progressCard.GetContainer().Show()
		return
	case workflow.Result:
		a.progressCard.Stop()
		if a.showResult(state) {
			a.resultView.GetContainer().Show()
			return
		}
	default:
		a.progressCard.Stop()
	}

	if a.shownResult != nil {
		a.resultView.metrics.Clear()
		a.shownResult = nil
	}
	a.intakeCard.GetContainer().Show()
}

func (a *Application) showResult(state workflow.State) bool {
	if state.Result == a.shownResult && a.shownResult != nil {
		return true
	}

	restored, err := decodeResult(state.Result)
	if err != nil {
		a.showError("Could not display result", err)
		// Subscribers may not call back into the controller synchronously.
		go a.controller.Reset()
		return false
	}
	var original image.Image
	if state.Preview != nil {
		original = state.Preview.Image()
	}

	a.resultView.SetResult(original, restored, a.evaluator.GenerateReport(state.Result.Metrics), state.Result)
	a.shownResult = state.Result
	return true
}

func decodeResult(result *api.EnhancementResult) (image.Image, error) {
	if result == nil {
		return nil, workflow.ErrNoResult
	}
	data, err := result.DecodeImage()
	if err != nil {
		return nil, err
	}
	return preview.Decode(data)
}

func (a *Application) openImage() {
	if a.controller.Busy() {
		return
	}
	a.menuHandler.ShowOpenDialog(a.loadReader)
}

func (a *Application) loadReader(reader fyne.URIReadCloser) {
	defer reader.Close()

	name := reader.URI().Name()
	data, err := io.ReadAll(io.LimitReader(reader, a.policy.Limit()+1))
	if err != nil {
		a.showError("Failed to read image", err)
		return
	}
	a.submit(name, func() (intake.File, error) {
		return a.policy.Accept(name, data)
	})
}

func (a *Application) loadURI(uri fyne.URI) {
	if uri.Scheme() == "file" {
		a.submit(uri.Name(), func() (intake.File, error) {
			return a.policy.Load(uri.Path())
		})
		return
	}

	reader, err := storage.Reader(uri)
	if err != nil {
		a.showError("Failed to open dropped file", err)
		return
	}
	a.loadReader(reader)
}

// submit runs intake on a candidate file and hands accepted files to the
// controller. Rejections stay in the intake card.
func (a *Application) submit(name string, load func() (intake.File, error)) {
	if !a.controller.Snapshot().AcceptsIntake() {
		a.logger.WithField("file", name).Debug("Intake disabled while processing")
		return
	}

	file, err := load()
	var rejection *intake.Rejection
	switch {
	case errors.As(err, &rejection):
		a.logger.WithFields(logrus.Fields{"file": name, "reason": rejection.Reason}).Info("File rejected")
		a.intakeCard.ShowRejection(rejection.Error())
		return
	case err != nil:
		a.showError("Failed to read image", err)
		return
	}

	a.intakeCard.ClearRejection()
	if err := a.controller.SelectFile(file); err != nil && !errors.Is(err, workflow.ErrBusy) {
		a.logger.WithError(err).Warn("File selection failed")
	}
}

func (a *Application) retry() {
	if err := a.controller.Retry(); err != nil {
		a.logger.WithError(err).Debug("Retry ignored")
	}
}

func (a *Application) saveResult() {
	name, err := a.controller.DownloadName(a.now())
	if err != nil {
		a.showError("No Result", err)
		return
	}

	a.menuHandler.ShowSaveDialog(name, a.downloadDir, func(writer fyne.URIWriteCloser) {
		defer writer.Close()
		if _, err := a.controller.WriteResult(writer); err != nil {
			a.showError("Failed to Save Result", err)
			return
		}
		a.logger.WithField("uri", writer.URI().String()).Info("Result saved")
	})
}

func (a *Application) ShowAndRun() {
	a.logger.Info("Showing main application window")

	a.window.SetCloseIntercept(func() {
		a.cleanup()
		a.app.Quit()
	})

	a.window.ShowAndRun()
}

func (a *Application) cleanup() {
	a.logger.Info("Cleaning up application resources")
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	a.controller.Close()
}

func (a *Application) showError(title string, err error) {
	a.logger.WithError(err).Error(title)
	dialog.ShowError(fmt.Errorf("%s: %w", title, err), a.window)
}
