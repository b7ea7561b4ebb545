// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

// Package config loads the settings of the ulua command from a TOML or YAML
// file.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Format is a configuration file format.
type Format string

// Supported formats.
const (
	TOML Format = "toml"
	YAML Format = "yaml"
)

// Trace units.
const (
	TraceParser   = "parser"
	TraceCompiler = "compiler"
	TraceBytecode = "bytecode"
)

// FileNames are looked up in order by FindAndLoad.
var FileNames = []string{"ulua.toml", "ulua.yaml", "ulua.yml"}

// Config holds the command settings.
type Config struct {
	Trace []string `toml:"trace" yaml:"trace"`
	Log   Log      `toml:"log" yaml:"log"`
	REPL  REPL     `toml:"repl" yaml:"repl"`

	// Path is the file the configuration was loaded from (set at load time).
	Path string `toml:"-" yaml:"-"`
}

// Log configures logging. Verbosity follows commonlog: 0 logs notices and
// above, 1 adds info and 2 adds debug messages, negative values drop levels
// down to -4 which disables logging. An empty File logs to stderr.
type Log struct {
	Verbosity int    `toml:"verbosity" yaml:"verbosity"`
	File      string `toml:"file" yaml:"file"`
}

// REPL configures the interactive prompt.
type REPL struct {
	Prompt  string `toml:"prompt" yaml:"prompt"`
	History string `toml:"history" yaml:"history"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	return &Config{
		REPL: REPL{Prompt: ">>> "},
	}
}

// FormatOf returns the format for the file extension of path.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return TOML, nil
	case ".yaml", ".yml":
		return YAML, nil
	}
	return "", fmt.Errorf("config: unsupported file extension %q", filepath.Ext(path))
}

// Load reads the configuration file at path.
func Load(path string) (*Config, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: cannot read %s: %w", path, err)
	}
	defer f.Close()

	cfg, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}

// FindAndLoad loads the first of FileNames present in dir. It returns
// Default() if none exists.
func FindAndLoad(dir string) (*Config, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("config: %w", err)
		}
		return Load(path)
	}
	return Default(), nil
}

// Decode decodes a configuration in the given format over the defaults.
// Unknown keys are errors.
func Decode(r io.Reader, format Format) (*Config, error) {
	cfg := Default()
	switch format {
	case TOML:
		md, err := toml.NewDecoder(r).Decode(cfg)
		if err != nil {
			return nil, err
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
		}
	case YAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks trace units and log verbosity.
func (c *Config) Validate() error {
	for _, unit := range c.Trace {
		switch unit {
		case TraceParser, TraceCompiler, TraceBytecode:
		default:
			return fmt.Errorf("unknown trace unit %q", unit)
		}
	}
	if c.Log.Verbosity < -4 || c.Log.Verbosity > 2 {
		return fmt.Errorf("log verbosity must be in [-4, 2], got %d", c.Log.Verbosity)
	}
	return nil
}

// SetTrace replaces trace units with the comma separated list in s.
func (c *Config) SetTrace(s string) error {
	c.Trace = nil
	for _, unit := range strings.Split(s, ",") {
		if unit = strings.TrimSpace(unit); unit != "" {
			c.Trace = append(c.Trace, unit)
		}
	}
	return c.Validate()
}

// TraceEnabled reports whether unit is in the trace list.
func (c *Config) TraceEnabled(unit string) bool {
	for _, u := range c.Trace {
		if u == unit {
			return true
		}
	}
	return false
}
