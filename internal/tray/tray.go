// Package tray provides a system tray interface for the GripStream
// wall pipeline.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"
)

// Tray represents the operator system tray application.
type Tray struct {
	onToggle     func(enabled bool)
	onResetHolds func()
	onDashboard  func()
	onQuit       func()
	enabled      bool
	mu           sync.RWMutex

	// Menu items stored for later updates
	menuToggle  *systray.MenuItem
	menuSession *systray.MenuItem
}

// New creates a new Tray instance with enabled state set to true by default.
func New() *Tray {
	return &Tray{
		enabled: true,
	}
}

// OnToggle sets the callback function to be called when pose
// processing is paused or resumed.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnResetHolds sets the callback function to be called when the reset
// menu item is clicked.
func (t *Tray) OnResetHolds(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onResetHolds = fn
}

// OnDashboard sets the callback function to be called when the
// dashboard menu item is clicked.
func (t *Tray) OnDashboard(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onDashboard = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("GripStream")
	systray.SetTooltip("GripStream Wall Pipeline")

	t.menuToggle = systray.AddMenuItem("● Tracking", "Pause or resume climb tracking")
	systray.AddSeparator()

	t.menuSession = systray.AddMenuItem("Holds: 0/0", "Completed holds this session")
	t.menuSession.Disable()
	systray.AddSeparator()

	menuReset := systray.AddMenuItem("Reset Holds", "Return every hold to untouched")
	menuDashboard := systray.AddMenuItem("Open Dashboard...", "Open the wall dashboard in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit GripStream")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuReset.ClickedCh:
				t.handleResetHolds()
			case <-menuDashboard.ClickedCh:
				t.handleDashboard()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {
}

// handleToggle handles the toggle menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled

	// Update menu item text based on new state
	if enabled {
		t.menuToggle.SetTitle("● Tracking")
	} else {
		t.menuToggle.SetTitle("○ Paused")
	}

	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

// handleResetHolds handles the reset menu item click.
func (t *Tray) handleResetHolds() {
	t.mu.RLock()
	callback := t.onResetHolds
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleDashboard handles the dashboard menu item click.
func (t *Tray) handleDashboard() {
	t.mu.RLock()
	callback := t.onDashboard
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetProgress updates the completed-hold count shown in the menu.
func (t *Tray) SetProgress(completed, total int) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuSession != nil {
		t.menuSession.SetTitle(fmt.Sprintf("Holds: %d/%d", completed, total))
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}
