// Package config loads testdash settings from a YAML file.
//
// Settings are resolved as defaults, then the file, then command line
// flags (applied by the caller). The file is validated against an
// embedded JSON schema before it is decoded.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = ".testdash.yaml"

// Colors are the dashboard colors, as hex strings or ANSI color numbers.
type Colors struct {
	Error string `yaml:"error"` // Errors box and error log lines
	Warn  string `yaml:"warn"`  // Warn log lines and the Running status
	Pass  string `yaml:"pass"`  // Passing list and Passed count
	Fail  string `yaml:"fail"`  // Failing list and Failed count
}

// Config holds all testdash settings.
type Config struct {
	BorderColor string `yaml:"border_color"`
	Colors      Colors `yaml:"colors"`
	Debug       bool   `yaml:"debug"`
	LogFile     string `yaml:"log_file"`
	ForwardKeys bool   `yaml:"forward_keys"` // Forward watch keys to a spawned runner
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		BorderColor: "#a23c4f",
		Colors: Colors{
			Error: "1",
			Warn:  "3",
			Pass:  "2",
			Fail:  "1",
		},
		LogFile:     "testdash-debug.log",
		ForwardKeys: true,
	}
}

// Load reads the config file at path over the defaults. A missing file is
// an error only when mustExist is set.
func Load(path string, mustExist bool) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !mustExist {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := Parse(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse validates YAML data and decodes it into cfg. Fields absent from
// data keep their current values.
func Parse(data []byte, cfg *Config) error {
	if err := Validate(data); err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

//go:embed schema.json
var schemaData []byte

var (
	configSchema *jsonschema.Schema
	compileOnce  sync.Once
	compileErr   error
)

func compileSchema() error {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaData))
		if err != nil {
			compileErr = fmt.Errorf("unmarshal config schema: %w", err)
			return
		}

		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("testdash.schema.json", doc); err != nil {
			compileErr = fmt.Errorf("add config schema resource: %w", err)
			return
		}

		configSchema, err = compiler.Compile("testdash.schema.json")
		if err != nil {
			compileErr = fmt.Errorf("compile config schema: %w", err)
		}
	})
	return compileErr
}

// Validate checks YAML data against the config schema. An empty document
// is valid.
func Validate(data []byte) error {
	if err := compileSchema(); err != nil {
		return err
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("invalid YAML: %w", err)
	}
	if doc == nil {
		return nil
	}

	// The validator works on JSON values, so round trip the YAML document.
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("convert config to JSON: %w", err)
	}
	v, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("convert config to JSON: %w", err)
	}

	if err := configSchema.Validate(v); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
