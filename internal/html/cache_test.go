package html

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/udisondev/skillstats/internal/charstats"
)

func TestCache_LoadAndExecute(t *testing.T) {
	fsys := fstest.MapFS{
		"test.htm": {Data: []byte(`<p>Hello, {{.Name}}!</p>`)},
	}

	cache, err := NewCache(fsys, false)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}

	result, err := cache.Execute("test.htm", map[string]string{"Name": "TestPlayer"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	expected := `<p>Hello, TestPlayer!</p>`
	if result != expected {
		t.Errorf("got %q, want %q", result, expected)
	}
}

func TestCache_EscapesValues(t *testing.T) {
	cache, err := NewCache(fstest.MapFS{"v.htm": {Data: []byte(`<td>{{.}}</td>`)}}, false)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}

	result, err := cache.Execute("v.htm", "<script>x</script>")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if strings.Contains(result, "<script>") {
		t.Errorf("value not escaped: %q", result)
	}
}

func TestCache_LazyLoad(t *testing.T) {
	fsys := fstest.MapFS{"a.htm": {Data: []byte(`A`)}}

	cache, err := NewCache(fsys, true)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	if len(cache.templates) != 0 {
		t.Fatalf("lazy cache preloaded %d templates", len(cache.templates))
	}

	if _, err := cache.Get("a.htm"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(cache.templates) != 1 {
		t.Errorf("templates = %d, want 1", len(cache.templates))
	}

	if _, err := cache.Get("missing.htm"); err == nil {
		t.Error("expected error for missing template")
	}
}

func TestCache_InvalidPath(t *testing.T) {
	cache, err := NewCache(fstest.MapFS{}, true)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}

	for _, p := range []string{"../etc/passwd", "/abs.htm", "a/../b.htm"} {
		if _, err := cache.Get(p); err == nil {
			t.Errorf("Get(%q): expected error", p)
		}
	}
}

func TestCache_FileTooLarge(t *testing.T) {
	fsys := fstest.MapFS{
		"big.htm": {Data: []byte(strings.Repeat("x", maxHTMLFileSize+1))},
	}

	cache, err := NewCache(fsys, true)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	if _, err := cache.Get("big.htm"); err == nil {
		t.Error("expected error for oversized template")
	}
}

func TestCache_PreloadSkipsBroken(t *testing.T) {
	fsys := fstest.MapFS{
		"ok.htm":     {Data: []byte(`ok`)},
		"sub/x.htm":  {Data: []byte(`x`)},
		"broken.htm": {Data: []byte(`{{if}}`)},
		"notes.txt":  {Data: []byte(`ignored`)},
	}

	cache, err := NewCache(fsys, false)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	if len(cache.templates) != 2 {
		t.Errorf("templates = %d, want 2", len(cache.templates))
	}
	if _, err := cache.Get("sub/x.htm"); err != nil {
		t.Errorf("Get(sub/x.htm): %v", err)
	}
}

func TestNewDirCache(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, CharStatsTemplate), []byte(`{{len .Lines}}`), 0o644); err != nil {
		t.Fatalf("writing template: %v", err)
	}

	cache, err := NewDirCache(dir, false)
	if err != nil {
		t.Fatalf("NewDirCache: %v", err)
	}

	var panel charstats.Panel
	panel.AddHeader("Skills")
	out, err := cache.RenderCharStats(1, &panel)
	if err != nil {
		t.Fatalf("RenderCharStats: %v", err)
	}
	if out != "1" {
		t.Errorf("got %q, want %q", out, "1")
	}

	if _, err := NewDirCache(filepath.Join(dir, "missing"), false); err == nil {
		t.Error("expected error for missing dir")
	}
}

func TestRenderCharStats_Default(t *testing.T) {
	cache, err := NewDirCache("", false)
	if err != nil {
		t.Fatalf("NewDirCache: %v", err)
	}

	var panel charstats.Panel
	panel.AddHeader("Skills")
	panel.AddStatLine("Construction", "Level 10 (500 XP)")
	panel.AddStatLine("Cooking", "<b>Chef</b>")

	out, err := cache.RenderCharStats(7, &panel)
	if err != nil {
		t.Fatalf("RenderCharStats: %v", err)
	}

	for _, want := range []string{
		`<th colspan="2">Skills</th>`,
		`<td class="label">Construction</td><td class="value">Level 10 (500 XP)</td>`,
		`&lt;b&gt;Chef&lt;/b&gt;`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
