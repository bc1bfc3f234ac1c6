package defs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/techtree/pkg/errors"
	"github.com/matzehuels/techtree/pkg/research"
)

const jsonDoc = `{
  "research": [
    {"id": "Stonecutting", "tech_level": "neolithic", "finished": true},
    {"id": "Smithing", "label": "Smithing", "prerequisites": ["Stonecutting"], "tech_level": "medieval", "hint": 2}
  ]
}`

const jsonList = `[
  {"id": "Stonecutting"},
  {"id": "Smithing", "prerequisites": ["Stonecutting"]}
]`

const tomlDoc = `
[[research]]
id = "Stonecutting"
tech_level = "neolithic"
finished = true

[[research]]
id = "Smithing"
label = "Smithing"
prerequisites = ["Stonecutting"]
tech_level = "medieval"
hint = 2.0
`

const yamlDoc = `
research:
  - id: Stonecutting
    tech_level: neolithic
    finished: true
  - id: Smithing
    label: Smithing
    prerequisites: [Stonecutting]
    tech_level: medieval
    hint: 2
`

const yamlList = `
- id: Stonecutting
- id: Smithing
  prerequisites: [Stonecutting]
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFileSource(t *testing.T) {
	tests := []struct {
		name    string
		content string
		full    bool
	}{
		{"defs.json", jsonDoc, true},
		{"list.json", jsonList, false},
		{"defs.toml", tomlDoc, true},
		{"defs.yaml", yamlDoc, true},
		{"list.yml", yamlList, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := NewFileSource(writeFile(t, tt.name, tt.content))
			if err != nil {
				t.Fatalf("NewFileSource() error: %v", err)
			}
			records, err := src.Load(context.Background())
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}
			if len(records) != 2 {
				t.Fatalf("got %d records, want 2", len(records))
			}
			if records[0].ID != "Stonecutting" || records[1].ID != "Smithing" {
				t.Errorf("order = %s, %s", records[0].ID, records[1].ID)
			}
			if got := records[1].Prerequisites; len(got) != 1 || got[0] != "Stonecutting" {
				t.Errorf("prerequisites = %v", got)
			}
			if !tt.full {
				return
			}
			if records[0].TechLevel != research.Neolithic || !records[0].Finished {
				t.Errorf("record 0 = %+v", records[0])
			}
			if records[1].TechLevel != research.Medieval || records[1].Hint != 2 {
				t.Errorf("record 1 = %+v", records[1])
			}
		})
	}
}

func TestFileSourceErrors(t *testing.T) {
	ctx := context.Background()

	if _, err := NewFileSource("defs.xml"); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("unsupported extension: err = %v", err)
	}

	src, _ := NewFileSource(filepath.Join(t.TempDir(), "missing.json"))
	if _, err := src.Load(ctx); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file: err = %v", err)
	}

	tests := []struct {
		name, content string
		code          errors.Code
	}{
		{"unknown.json", `{"research": [{"id": "A", "color": "red"}]}`, errors.ErrCodeInvalidFormat},
		{"unknown.toml", "[[research]]\nid = \"A\"\ncolor = \"red\"\n", errors.ErrCodeInvalidFormat},
		{"unknown.yaml", "research:\n  - id: A\n    color: red\n", errors.ErrCodeInvalidFormat},
		{"level.json", `[{"id": "A", "tech_level": "futuristic"}]`, errors.ErrCodeInvalidFormat},
		{"broken.json", `{"research": [`, errors.ErrCodeInvalidFormat},
		{"null.json", `[null]`, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := NewFileSource(writeFile(t, tt.name, tt.content))
			if err != nil {
				t.Fatal(err)
			}
			if _, err := src.Load(ctx); !errors.Is(err, tt.code) {
				t.Errorf("Load() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestDecodeEmpty(t *testing.T) {
	for _, format := range []string{FormatJSON, FormatTOML, FormatYAML} {
		data := []byte("")
		if format == FormatJSON {
			data = []byte("{}")
		}
		records, err := Decode(data, format)
		if err != nil || len(records) != 0 {
			t.Errorf("Decode(empty %s) = %v, %v", format, records, err)
		}
	}
	if _, err := Decode(nil, "xml"); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("unknown format: err = %v", err)
	}
}

func TestMemorySource(t *testing.T) {
	ctx := context.Background()
	in := &research.Record{ID: "A", Prerequisites: []string{"B"}}
	src := NewMemorySource(in)

	in.Prerequisites[0] = "changed"
	got, err := src.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].Prerequisites[0] != "B" {
		t.Error("source should hold its own copy")
	}

	got[0].ID = "mutated"
	again, _ := src.Load(ctx)
	if again[0].ID != "A" {
		t.Error("Load should return copies")
	}

	src.Set([]*research.Record{{ID: "X"}, {ID: "Y"}})
	again, _ = src.Load(ctx)
	if len(again) != 2 || again[0].ID != "X" {
		t.Errorf("after Set: %v", again)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := src.Load(cancelled); err == nil {
		t.Error("Load should honour a cancelled context")
	}
}
