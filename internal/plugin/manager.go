package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// ErrPluginNotFound is returned when a requested plugin cannot be found.
var ErrPluginNotFound = errors.New("plugin not found")

// ManifestFile is the manifest name expected in each plugin directory.
const ManifestFile = "plugin.json"

var logger = log.WithPrefix("plugin")

// Manager finds plugins under a directory: one subdirectory per plugin, each
// holding a plugin.json manifest and the executable it names.
type Manager struct {
	pluginDir string
	plugins   map[string]*Plugin
	mu        sync.RWMutex
}

func NewManager(pluginDir string) *Manager {
	return &Manager{
		pluginDir: pluginDir,
		plugins:   make(map[string]*Plugin),
	}
}

// Discover rescans the plugin directory, replacing what was found before. A
// missing directory yields no plugins. Subdirectories with a broken manifest
// are logged and skipped.
func (m *Manager) Discover() error {
	found := make(map[string]*Plugin)

	var entries []fs.DirEntry
	info, err := os.Stat(m.pluginDir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return fmt.Errorf("stat plugin dir: %w", err)
	case info.IsDir():
		if entries, err = os.ReadDir(m.pluginDir); err != nil {
			return fmt.Errorf("read plugin dir: %w", err)
		}
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(m.pluginDir, entry.Name())

		p, err := loadPlugin(dir)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			logger.Warn("skipping plugin", "dir", dir, "err", err)
			continue
		}
		if prev, ok := found[p.Manifest.Name]; ok {
			logger.Warn("duplicate plugin name, keeping first", "name", p.Manifest.Name, "kept", prev.Path, "skipped", dir)
			continue
		}
		found[p.Manifest.Name] = p
	}

	m.mu.Lock()
	m.plugins = found
	m.mu.Unlock()

	logger.Debug("plugins discovered", "dir", m.pluginDir, "count", len(found))
	return nil
}

// loadPlugin reads dir's manifest. It returns an fs.ErrNotExist error when
// there is none.
func loadPlugin(dir string) (*Plugin, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, err
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	if manifest.Name == "" || manifest.Executable == "" {
		return nil, errors.New("manifest needs a name and an executable")
	}

	return &Plugin{
		Manifest:   manifest,
		Path:       dir,
		Executable: filepath.Join(dir, manifest.Executable),
	}, nil
}

// Get returns a plugin by name, or ErrPluginNotFound.
func (m *Manager) Get(name string) (*Plugin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.plugins[name]
	if !ok {
		return nil, ErrPluginNotFound
	}
	return p, nil
}

// List returns all discovered plugins sorted by name.
func (m *Manager) List() []*Plugin {
	m.mu.RLock()
	plugins := make([]*Plugin, 0, len(m.plugins))
	for _, p := range m.plugins {
		plugins = append(plugins, p)
	}
	m.mu.RUnlock()

	slices.SortFunc(plugins, func(a, b *Plugin) int {
		return strings.Compare(a.Manifest.Name, b.Manifest.Name)
	})
	return plugins
}

// WithAction returns the plugins that support action, sorted by name.
func (m *Manager) WithAction(action string) []*Plugin {
	var out []*Plugin
	for _, p := range m.List() {
		if p.Manifest.Supports(action) {
			out = append(out, p)
		}
	}
	return out
}

func (m *Manager) PluginDir() string {
	return m.pluginDir
}
