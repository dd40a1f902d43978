package catalog

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

//go:embed intents.json
var defaultFS embed.FS

// Format identifies a catalog file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// document is the on-disk shape: {"intents": [...]}.
type document struct {
	Intents []Intent `json:"intents" yaml:"intents"`
}

// Default returns the catalog embedded in the binary.
func Default() (*Catalog, error) {
	data, err := defaultFS.ReadFile("intents.json")
	if err != nil {
		return nil, fmt.Errorf("reading embedded catalog: %w", err)
	}
	return Parse(data, FormatJSON)
}

// Parse decodes and validates a catalog document.
func Parse(data []byte, format Format) (*Catalog, error) {
	intents, err := decode(data, format)
	if err != nil {
		return nil, err
	}
	return New(intents)
}

func decode(data []byte, format Format) ([]Intent, error) {
	var doc document
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%w: decoding json: %w", ErrInvalidCatalog, err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: decoding yaml: %w", ErrInvalidCatalog, err)
		}
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", format)
	}
	return doc.Intents, nil
}

// FormatForPath infers the catalog format from a file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported catalog file extension %q", filepath.Ext(path))
	}
}

// Load reads a catalog from path. When path is a directory, every .json,
// .yaml and .yml file in it is read and the intents are concatenated in
// file name order. An empty path loads the embedded default catalog.
func Load(ctx context.Context, path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	if !info.IsDir() {
		return loadFiles(ctx, []string{path})
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, err := FormatForPath(e.Name()); err != nil {
			continue
		}
		files = append(files, filepath.Join(path, e.Name()))
	}
	sort.Strings(files)
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no catalog files in %s", ErrInvalidCatalog, path)
	}
	return loadFiles(ctx, files)
}

func loadFiles(ctx context.Context, files []string) (*Catalog, error) {
	parts := make([][]Intent, len(files))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for i, file := range files {
		g.Go(func() error {
			format, err := FormatForPath(file)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("reading %s: %w", file, err)
			}
			intents, err := decode(data, format)
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}
			parts[i] = intents
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []Intent
	for _, p := range parts {
		all = append(all, p...)
	}
	return New(all)
}
