// Package config loads the configuration of the errsite command
// from a .errsite.yaml file:
//
//	# Whether to format rewritten files: auto, always or never.
//	format: always
//
//	# Files that are never rewritten.
//	exclude:
//	  - "*_mock.go"
//	  - internal/legacy/*.go
//
//	# Whether conversion functions are marked //go:noinline.
//	noinline: true
//
// Command line flags take precedence over the file.
package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// FileName is the name of the configuration file.
const FileName = ".errsite.yaml"

// Config is the configuration of the errsite command.
type Config struct {
	// Format controls whether rewritten files are formatted.
	Format Format `yaml:"format"`

	// Exclude lists glob patterns of files that are never rewritten.
	// Patterns without a "/" match file names;
	// others match trailing path elements.
	Exclude []string `yaml:"exclude"`

	// NoInline marks generated conversion functions //go:noinline.
	NoInline bool `yaml:"noinline"`
}

// Default returns the configuration used when there's no file.
func Default() Config {
	return Config{
		Format:   FormatAuto,
		NoInline: true,
	}
}

// Load reads the configuration file at path.
// Fields missing from the file keep their defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, pkgerrors.Wrap(err, "read config")
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, pkgerrors.Wrapf(err, "load %v", path)
	}
	return cfg, nil
}

// Parse parses a configuration file's contents.
// Unknown fields are an error.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, pkgerrors.Wrap(err, "decode")
	}

	for _, pattern := range cfg.Exclude {
		if _, err := path.Match(pattern, ""); err != nil {
			return Config{}, pkgerrors.Wrapf(err, "exclude %q", pattern)
		}
	}
	return cfg, nil
}

// Find looks for the configuration file in dir and its parents,
// stopping at the module root: the first directory holding a go.mod.
// ok is false if there's no configuration file.
func Find(dir string) (file string, ok bool) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}

	for {
		candidate := filepath.Join(dir, FileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}

		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return "", false
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// Excluded reports whether file matches one of the exclude patterns.
func (c *Config) Excluded(file string) bool {
	file = filepath.ToSlash(file)
	elems := strings.Split(file, "/")

	for _, pattern := range c.Exclude {
		n := strings.Count(pattern, "/") + 1
		if n > len(elems) {
			continue
		}

		tail := strings.Join(elems[len(elems)-n:], "/")
		if ok, _ := path.Match(pattern, tail); ok {
			return true
		}
	}
	return false
}
