package main

import (
	"context"
	"fmt"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/noisey/pkg/config"
	"github.com/itohio/noisey/pkg/ledview"
	"github.com/rs/zerolog"
)

// appState holds the window state.
type appState struct {
	cfg        *config.Config
	configPath string
	log        zerolog.Logger
	window     fyne.Window
	ring       *ledview.RingWidget
	startBtn   *widget.Button
	status     *widget.Label

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// runGUI shows the ring in a window until it is closed.
func runGUI(cfg *config.Config, configPath string, log zerolog.Logger) {
	application := app.NewWithID("com.itohio.noisey")

	window := application.NewWindow("Noisey")
	window.Resize(fyne.NewSize(420, 520))
	window.CenterOnScreen()

	state := &appState{
		cfg:        cfg,
		configPath: configPath,
		log:        log,
		window:     window,
		ring:       ledview.New(cfg.Ring.Pixels),
		status:     widget.NewLabel("stopped"),
	}

	content := container.NewBorder(
		createToolbar(state),
		state.status,
		nil,
		nil,
		state.ring,
	)

	window.SetContent(content)
	window.SetOnClosed(func() {
		stopIndicator(state)
	})
	window.ShowAndRun()
}

// createToolbar creates the Start/Stop and Settings buttons.
func createToolbar(state *appState) fyne.CanvasObject {
	startBtn := widget.NewButtonWithIcon("", theme.MediaPlayIcon(), func() {
		handleStart(state)
	})
	state.startBtn = startBtn

	settingsBtn := widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		showSettingsDialog(state)
	})

	return container.NewHBox(startBtn, settingsBtn)
}

// handleStart toggles the indicator.
func handleStart(state *appState) {
	state.mu.Lock()
	running := state.running
	state.mu.Unlock()

	if running {
		stopIndicator(state)
		return
	}
	startIndicator(state)
}

// startIndicator provisions and runs the indicator in the background.
// Registration blocks on the network, so it runs off the UI goroutine too.
func startIndicator(state *appState) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	state.mu.Lock()
	state.running = true
	state.cancel = cancel
	state.done = done
	state.mu.Unlock()

	state.startBtn.SetIcon(theme.MediaStopIcon())
	state.status.SetText("connecting to " + state.cfg.Server.URL)

	go func() {
		defer close(done)

		rt, err := setup(ctx, state.cfg, state.log, state.ring, state.ring.UpdateStatus)
		if err != nil {
			state.log.Error().Err(err).Msg("startup failed")
			fyne.Do(func() {
				dialog.ShowError(fmt.Errorf("failed to start: %w", err), state.window)
			})
			markStopped(state)
			return
		}
		defer rt.Close()

		fyne.Do(func() {
			state.status.SetText(fmt.Sprintf("device %s (%s), source %s", rt.shortID, rt.deviceID, state.cfg.Source.Kind))
		})

		if err := rt.run(ctx); err != nil {
			state.log.Error().Err(err).Msg("stopped")
		}
		markStopped(state)
	}()
}

// stopIndicator cancels the running indicator and waits for it to exit.
func stopIndicator(state *appState) {
	state.mu.Lock()
	cancel, done := state.cancel, state.done
	state.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func markStopped(state *appState) {
	state.mu.Lock()
	state.running = false
	state.cancel = nil
	state.mu.Unlock()

	fyne.Do(func() {
		state.startBtn.SetIcon(theme.MediaPlayIcon())
		state.status.SetText("stopped")
	})
}
