// Menu handler for application actions
package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"face-restore-studio/internal/intake"
	"face-restore-studio/internal/workflow"
)

// MenuHandler handles menu actions and the file dialogs
type MenuHandler struct {
	window fyne.Window
	policy intake.Policy
	logger logrus.FieldLogger

	openItem  *fyne.MenuItem
	saveItem  *fyne.MenuItem
	resetItem *fyne.MenuItem
	mainMenu  *fyne.MainMenu

	onOpen  func()
	onSave  func()
	onReset func()
}

func NewMenuHandler(window fyne.Window, policy intake.Policy, logger logrus.FieldLogger) *MenuHandler {
	mh := &MenuHandler{
		window: window,
		policy: policy,
		logger: logger,
	}

	mh.openItem = fyne.NewMenuItem("Open Image...", func() { call(mh.onOpen) })
	mh.saveItem = fyne.NewMenuItem("Save Result...", func() { call(mh.onSave) })
	mh.resetItem = fyne.NewMenuItem("Process New Image", func() { call(mh.onReset) })
	return mh
}

func call(fn func()) {
	if fn != nil {
		fn()
	}
}

func (mh *MenuHandler) GetMainMenu() *fyne.MainMenu {
	if mh.mainMenu != nil {
		return mh.mainMenu
	}

	fileMenu := fyne.NewMenu("File",
		mh.openItem,
		mh.saveItem,
		fyne.NewMenuItemSeparator(),
		mh.resetItem,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Exit", func() {
			mh.window.Close()
		}),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mh.showAbout),
	)

	mh.mainMenu = fyne.NewMainMenu(fileMenu, helpMenu)
	return mh.mainMenu
}

// Update enables the items that make sense for state.
func (mh *MenuHandler) Update(state workflow.State) {
	mh.openItem.Disabled = !state.AcceptsIntake()
	mh.saveItem.Disabled = state.Phase != workflow.Result
	mh.resetItem.Disabled = state.Phase == workflow.Idle && !state.HasFile()
	if mh.mainMenu != nil {
		mh.mainMenu.Refresh()
	}
}

// ShowOpenDialog lets the user pick an image; onPicked owns the reader.
func (mh *MenuHandler) ShowOpenDialog(onPicked func(fyne.URIReadCloser)) {
	mh.logger.Info("Opening file dialog for image selection")

	fileDialog := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			mh.showError("File Dialog Error", err)
			return
		}
		if reader == nil {
			return
		}
		mh.logger.WithField("uri", reader.URI().String()).Info("Image selected")
		onPicked(reader)
	}, mh.window)

	fileDialog.SetFilter(storage.NewExtensionFileFilter(mh.policy.Extensions()))
	fileDialog.Show()
}

// ShowSaveDialog asks where to save the result, starting in dir when it exists.
func (mh *MenuHandler) ShowSaveDialog(name, dir string, onPicked func(fyne.URIWriteCloser)) {
	mh.logger.Info("Opening file dialog for result saving")

	fileDialog := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			mh.showError("File Dialog Error", err)
			return
		}
		if writer == nil {
			return
		}
		onPicked(writer)
	}, mh.window)

	fileDialog.SetFileName(name)
	if dir != "" {
		if lister, err := storage.ListerForURI(storage.NewFileURI(dir)); err == nil {
			fileDialog.SetLocation(lister)
		} else {
			mh.logger.WithError(err).WithField("dir", dir).Debug("Download directory unavailable")
		}
	}
	fileDialog.Show()
}

func (mh *MenuHandler) showAbout() {
	content := container.NewVBox(
		widget.NewLabel(windowTitle),
		widget.NewSeparator(),
		widget.NewLabel("Restores a single face image with a remote"),
		widget.NewLabel("restoration service and compares the result"),
		widget.NewLabel("against the original."),
		widget.NewSeparator(),
		widget.NewLabel("Built with Go and Fyne v2.6"),
	)

	aboutDialog := dialog.NewCustom("About", "Close", content, mh.window)
	aboutDialog.Resize(fyne.NewSize(400, 250))
	aboutDialog.Show()
}

func (mh *MenuHandler) showError(title string, err error) {
	mh.logger.WithError(err).Error(title)
	dialog.ShowError(err, mh.window)
}

func (mh *MenuHandler) SetCallbacks(onOpen, onSave, onReset func()) {
	mh.onOpen = onOpen
	mh.onSave = onSave
	mh.onReset = onReset
}
