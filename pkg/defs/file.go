package defs

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/techtree/pkg/errors"
	"github.com/matzehuels/techtree/pkg/research"
)

// Definition file formats.
const (
	FormatJSON = "json"
	FormatTOML = "toml"
	FormatYAML = "yaml"
)

// document is the top-level shape of a definition file. JSON and YAML files
// may also be a bare list of records.
type document struct {
	Research []*research.Record `json:"research" toml:"research" yaml:"research"`
}

// FileSource reads definitions from a file on every Load, so edits are
// picked up by the next rebuild.
type FileSource struct {
	path   string
	format string
}

// NewFileSource creates a source for path. The format follows the
// extension: .json, .toml, .yaml or .yml.
func NewFileSource(path string) (*FileSource, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	return &FileSource{path: path, format: format}, nil
}

// Name returns the file path.
func (s *FileSource) Name() string { return s.path }

// Load reads and decodes the file.
func (s *FileSource) Load(ctx context.Context) ([]*research.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "definition file %s", s.path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSourceUnavailable, err, "read %s", s.path)
	}
	return Decode(data, s.format)
}

// FormatFromPath maps a file extension to a definition format.
func FormatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported definition file %q (want .json, .toml, .yaml or .yml)", path)
	}
}

// Decode parses definition data in the given format. Unknown fields are
// rejected.
func Decode(data []byte, format string) ([]*research.Record, error) {
	var (
		records []*research.Record
		err     error
	)
	switch format {
	case FormatJSON:
		records, err = decodeJSON(data)
	case FormatTOML:
		records, err = decodeTOML(data)
	case FormatYAML:
		records, err = decodeYAML(data)
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown definition format %q", format)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode %s definitions", format)
	}
	for i, r := range records {
		if r == nil {
			return nil, errors.New(errors.ErrCodeInvalidInput, "record %d is empty", i)
		}
	}
	return records, nil
}

func decodeJSON(data []byte) ([]*research.Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		var records []*research.Record
		if err := dec.Decode(&records); err != nil {
			return nil, err
		}
		return records, nil
	}
	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc.Research, nil
}

func decodeTOML(data []byte) ([]*research.Record, error) {
	var doc document
	md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&doc)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, stderrors.New("unknown field " + undecoded[0].String())
	}
	return doc.Research, nil
}

func decodeYAML(data []byte) ([]*research.Record, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if len(node.Content) == 0 {
		return nil, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if node.Content[0].Kind == yaml.SequenceNode {
		var records []*research.Record
		if err := dec.Decode(&records); err != nil {
			return nil, err
		}
		return records, nil
	}
	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc.Research, nil
}
