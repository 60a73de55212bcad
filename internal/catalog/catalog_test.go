package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()

	if c.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", c.Len())
	}
	wantIDs := []string{"intro", "sensors", "perception", "planning", "control"}
	for i, id := range c.IDs() {
		if id != wantIDs[i] {
			t.Errorf("IDs()[%d] = %q, want %q", i, id, wantIDs[i])
		}
	}
	if len(c.Edges) != 6 {
		t.Errorf("len(Edges) = %d, want 6", len(c.Edges))
	}
	if c.QuestionCount() != 7 {
		t.Errorf("QuestionCount() = %d, want 7", c.QuestionCount())
	}
	if c.Version != "v1.0.0" {
		t.Errorf("Version = %q, want v1.0.0", c.Version)
	}

	intro, _ := c.Capsule("intro")
	if intro.DisplayLabel() != "AV Architecture" {
		t.Errorf("intro label = %q", intro.DisplayLabel())
	}
	sensors, _ := c.Capsule("sensors")
	if sensors.DisplayLabel() != "Sensors" {
		t.Errorf("sensors label = %q, want title fallback", sensors.DisplayLabel())
	}
	if got := intro.Questions[1].CorrectIndex(); got != 2 {
		t.Errorf("CorrectIndex() = %d, want 2", got)
	}
}

func TestSuccessor(t *testing.T) {
	c := Default()

	next, ok := c.Successor("perception")
	if !ok || next.ID != "planning" {
		t.Errorf("Successor(perception) = %v, %v", next, ok)
	}
	if _, ok := c.Successor("control"); ok {
		t.Error("last capsule should have no successor")
	}
	if _, ok := c.Successor("nope"); ok {
		t.Error("unknown capsule should have no successor")
	}
}

func validCatalog() *Catalog {
	q := Question{Prompt: "p", Options: []string{"a", "b"}, CorrectOption: "a"}
	return &Catalog{
		Version: "v1.0.0",
		Capsules: []Capsule{
			{ID: "a", Title: "A", Questions: []Question{q}},
			{ID: "b", Title: "B", Questions: []Question{q}},
		},
		Edges: []Edge{{From: "a", To: "b"}},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Catalog)
		wantSub string
	}{
		{"valid", func(c *Catalog) {}, ""},
		{"empty", func(c *Catalog) { c.Capsules = nil; c.Edges = nil }, "no capsules"},
		{"duplicate id", func(c *Catalog) { c.Capsules[1].ID = "a"; c.Edges = nil }, "duplicate capsule ID"},
		{"no questions", func(c *Catalog) { c.Capsules[0].Questions = nil }, "no questions"},
		{"correct not in options", func(c *Catalog) {
			c.Capsules[0].Questions = []Question{{Prompt: "p", Options: []string{"a", "b"}, CorrectOption: "z"}}
		}, "is not one of the options"},
		{"duplicate option", func(c *Catalog) {
			c.Capsules[0].Questions = []Question{{Prompt: "p", Options: []string{"a", "a"}, CorrectOption: "a"}}
		}, "duplicate option"},
		{"dangling edge", func(c *Catalog) { c.Edges = append(c.Edges, Edge{From: "a", To: "zz"}) }, "nonexistent capsule"},
		{"cycle", func(c *Catalog) { c.Edges = append(c.Edges, Edge{From: "b", To: "a"}) }, "cycle detected"},
		{"position", func(c *Catalog) { c.Capsules[0].Position.X = 120 }, "outside 0..100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCatalog()
			tt.mutate(c)
			err := Validate(c)
			if tt.wantSub == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %T (%v)", err, err)
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not mention %q", err, tt.wantSub)
			}
		})
	}
}

func TestParseJSON(t *testing.T) {
	doc := `{"version":"1.2.0","title":"t","capsules":[
		{"id":"x","title":"X","questions":[{"prompt":"q","options":["a","b"],"correct_option":"b"}]}]}`
	c, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Version != "v1.2.0" {
		t.Errorf("Version = %q, want v1.2.0", c.Version)
	}
	if !c.Capsules[0].Questions[0].IsCorrect("b") {
		t.Error("expected b to be correct")
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"schema type", `{"version":"v1.0.0","capsules":"nope"}`, "schema validation"},
		{"missing version", `{"capsules":[]}`, "schema validation"},
		{"bad semver", "version: banana\ncapsules: []\n", "not a valid semantic version"},
		{"unsupported major", "version: v2.0.0\ncapsules: []\n", "not supported"},
		{"empty catalog", "version: v1.0.0\ncapsules: []\n", "no capsules"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, defaultCatalog, 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Len() != 5 {
		t.Errorf("Len() = %d, want 5", c.Len())
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestWatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	if err := os.WriteFile(path, defaultCatalog, 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *Catalog, 1)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, logger, func(c *Catalog) {
			select {
			case reloaded <- c:
			default:
			}
		})
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)

	updated := strings.Replace(string(defaultCatalog), "title: AV Architecture", "title: Updated Path", 1)
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case c := <-reloaded:
		if c.Title != "Updated Path" {
			t.Errorf("Title = %q, want Updated Path", c.Title)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch returned %v", err)
	}
}
