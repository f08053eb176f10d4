// Package html renders panels from .htm templates.
package html

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/udisondev/skillstats/internal/charstats"
)

const maxHTMLFileSize = 8192

// CharStatsTemplate is the template rendering the character-stats panel.
const CharStatsTemplate = "charstats.htm"

//go:embed templates/*.htm
var embedded embed.FS

// DefaultTemplates returns the built-in templates.
func DefaultTemplates() fs.FS {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		panic(err) // embedded directory always exists
	}
	return sub
}

// Cache loads .htm files from a filesystem and stores compiled templates.
// Output is escaped: values may come from third-party display providers.
type Cache struct {
	fsys      fs.FS
	templates map[string]*template.Template
	mu        sync.RWMutex
	lazy      bool
}

// NewCache creates a new HTML template cache over fsys.
// If lazy is false, all .htm files are loaded at creation time.
// If lazy is true, files are loaded on first access (cache miss).
func NewCache(fsys fs.FS, lazy bool) (*Cache, error) {
	c := &Cache{
		fsys:      fsys,
		templates: make(map[string]*template.Template),
		lazy:      lazy,
	}

	if !lazy {
		if err := c.preload(); err != nil {
			return nil, fmt.Errorf("preloading HTML templates: %w", err)
		}
	}

	return c, nil
}

// NewDirCache creates a cache over a directory; an empty dir selects the built-in templates.
func NewDirCache(dir string, lazy bool) (*Cache, error) {
	if dir == "" {
		return NewCache(DefaultTemplates(), lazy)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat html dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("html dir is not a directory: %s", dir)
	}
	return NewCache(os.DirFS(dir), lazy)
}

// Get returns a compiled template by relative path (e.g. "charstats.htm").
func (c *Cache) Get(path string) (*template.Template, error) {
	if !fs.ValidPath(path) {
		return nil, fmt.Errorf("invalid template path: %s", path)
	}

	c.mu.RLock()
	tmpl, ok := c.templates[path]
	c.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	if !c.lazy {
		return nil, fmt.Errorf("template not found: %s", path)
	}

	return c.loadAndCache(path)
}

// Execute renders a template with the given data and returns the HTML string.
func (c *Cache) Execute(path string, data any) (string, error) {
	tmpl, err := c.Get(path)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template %s: %w", path, err)
	}

	return buf.String(), nil
}

// PanelView is the data passed to CharStatsTemplate.
type PanelView struct {
	Title     string
	AccountID int64
	Lines     []charstats.StatLine
}

// RenderCharStats renders the panel with CharStatsTemplate.
func (c *Cache) RenderCharStats(accountID int64, panel *charstats.Panel) (string, error) {
	return c.Execute(CharStatsTemplate, PanelView{
		Title:     "Character Stats",
		AccountID: accountID,
		Lines:     panel.Lines(),
	})
}

// preload compiles every .htm file of the filesystem.
func (c *Cache) preload() error {
	count := 0
	err := fs.WalkDir(c.fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), ".htm") {
			return nil
		}

		if _, err := c.loadFile(path); err != nil {
			slog.Warn("failed to load HTML template", "path", path, "error", err)
			return nil // битый шаблон пропускаем, остальные грузим
		}

		count++
		return nil
	})
	if err != nil {
		return fmt.Errorf("walking templates: %w", err)
	}

	slog.Debug("HTML templates preloaded", "count", count)
	return nil
}

// loadAndCache handles a lazy cache miss.
func (c *Cache) loadAndCache(path string) (*template.Template, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// другая горутина мог загрузить, пока ждали lock
	if tmpl, ok := c.templates[path]; ok {
		return tmpl, nil
	}

	return c.loadFile(path)
}

// loadFile compiles path and stores it; c.mu must be held for writing unless called from NewCache.
func (c *Cache) loadFile(path string) (*template.Template, error) {
	info, err := fs.Stat(c.fsys, path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() > maxHTMLFileSize {
		return nil, fmt.Errorf("file too large (%d bytes, max %d): %s", info.Size(), maxHTMLFileSize, path)
	}

	raw, err := fs.ReadFile(c.fsys, path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	tmpl, err := template.New(path).Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing template %s: %w", path, err)
	}

	c.templates[path] = tmpl
	return tmpl, nil
}
