// Package tray provides a system tray menu for signspeak.
package tray

import (
	"sync"

	"github.com/charmbracelet/log"
	"github.com/getlantern/systray"
)

var logger = log.WithPrefix("tray")

// Tray is the system tray menu: camera toggle, last spoken word, open in
// browser and quit.
type Tray struct {
	onToggle func() (bool, error)
	onOpen   func()
	onQuit   func()
	active   bool
	lastWord string
	mu       sync.RWMutex

	menuCamera   *systray.MenuItem
	menuLastWord *systray.MenuItem
}

// New creates a Tray. active is the camera state shown at startup.
func New(active bool) *Tray {
	return &Tray{active: active}
}

// OnToggle sets the callback run when the camera item is clicked. It returns
// the new camera state.
func (t *Tray) OnToggle(fn func() (bool, error)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnOpen sets the callback for the "Open in browser" item.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback run before the tray exits.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the tray. It blocks until Quit is called and must run on the
// main goroutine.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit closes the tray from outside the menu.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("SignSpeak")
	systray.SetTooltip("SignSpeak gesture to speech")

	t.mu.Lock()
	t.menuCamera = systray.AddMenuItem(cameraTitle(t.active), "Start or stop the camera")
	systray.AddSeparator()
	t.menuLastWord = systray.AddMenuItem(lastWordTitle(t.lastWord), "Last spoken word")
	t.menuLastWord.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open in browser", "Open the web interface")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit SignSpeak")

	go func() {
		for {
			select {
			case <-t.menuCamera.ClickedCh:
				t.handleToggle()
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				systray.Quit()
				return
			}
		}
	}()
}

func (t *Tray) handleToggle() {
	t.mu.RLock()
	callback := t.onToggle
	t.mu.RUnlock()
	if callback == nil {
		return
	}

	// Called outside the lock; the callback may take a while to open the camera.
	active, err := callback()
	if err != nil {
		logger.Error("camera toggle failed", "err", err)
	}
	t.SetCameraActive(active)
}

func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// SetCameraActive updates the camera item.
func (t *Tray) SetCameraActive(active bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = active
	if t.menuCamera != nil {
		t.menuCamera.SetTitle(cameraTitle(active))
	}
}

// SetLastWord updates the last spoken word display.
func (t *Tray) SetLastWord(word string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastWord = word
	if t.menuLastWord != nil {
		t.menuLastWord.SetTitle(lastWordTitle(word))
	}
}

// CameraActive reports the camera state last shown in the menu.
func (t *Tray) CameraActive() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.active
}

// LastWord returns the word last shown in the menu.
func (t *Tray) LastWord() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastWord
}

func cameraTitle(active bool) string {
	if active {
		return "● Camera on"
	}
	return "○ Camera off"
}

func lastWordTitle(word string) string {
	if word == "" {
		return "Last: none"
	}
	return "Last: " + word
}
