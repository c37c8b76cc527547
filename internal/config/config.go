// Package config loads wumpusctl run and batch settings from YAML.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed config.schema.json
var schemaJSON []byte

const schemaURL = "config.schema.json"

var ErrInvalid = errors.New("invalid config")

// File mirrors the CLI flags. Zero values mean "not set".
type File struct {
	Agent  string   `yaml:"agent"`
	Script []string `yaml:"script"`
	// Seed is a pointer so that an explicit 0 can be told apart from unset.
	Seed         *int64 `yaml:"seed"`
	Width        int    `yaml:"width"`
	Height       int    `yaml:"height"`
	Worlds       string `yaml:"worlds"`
	World        string `yaml:"world"`
	Count        int    `yaml:"count"`
	Workers      int    `yaml:"workers"`
	MaxTurns     int    `yaml:"max_turns"`
	Store        string `yaml:"store"`
	DBPath       string `yaml:"db_path"`
	ArtifactsDir string `yaml:"artifacts_dir"`
	TurnLogDir   string `yaml:"turn_log_dir"`
	Output       string `yaml:"output"`
	LogLevel     string `yaml:"log_level"`
	LogFormat    string `yaml:"log_format"`
}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = compiler.Compile(schemaURL)
	})
	return schema, schemaErr
}

func Load(path string) (File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}
	cfg, err := Parse(raw)
	if err != nil {
		return File{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse validates a YAML document against the embedded schema before
// decoding it.
func Parse(raw []byte) (File, error) {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return File{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	instance, err := toJSONValue(doc)
	if err != nil {
		return File{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	s, err := compiledSchema()
	if err != nil {
		return File{}, fmt.Errorf("compile config schema: %w", err)
	}
	if err := s.Validate(instance); err != nil {
		return File{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	var cfg File
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return File{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return cfg, nil
}

// toJSONValue round-trips a YAML tree through encoding/json so the validator
// sees plain JSON types.
func toJSONValue(doc any) (any, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}
