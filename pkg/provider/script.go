package provider

import (
	"context"
	"fmt"
	"os"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
)

// ResultVar is the global a provider script must assign its reference list to.
const ResultVar = "assets"

// Script runs a Tengo script that computes references. The script sees the caller's
// state as `state` plus any configured Vars, and must assign an array to `assets`.
// Setting a non-empty `err` fails the provider.
type Script struct {
	Name   string
	Source []byte
	Vars   map[string]interface{}
}

// NewScript creates a Script provider from source.
func NewScript(name string, source []byte, vars map[string]interface{}) *Script {
	return &Script{Name: name, Source: source, Vars: vars}
}

// LoadScript reads a Tengo provider script from disk.
func LoadScript(path string, vars map[string]interface{}) (*Script, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read provider script: %w", err)
	}
	return NewScript(path, source, vars), nil
}

// Provide compiles and runs the script. Each call uses a fresh VM.
func (s *Script) Provide(ctx context.Context, state any) ([]any, error) {
	script := tengo.NewScript(s.Source)
	script.SetImports(stdlib.GetModuleMap("fmt", "text", "json", "times", "os"))

	if err := script.Add("state", state); err != nil {
		return nil, fmt.Errorf("failed to add state to script: %w", err)
	}
	for k, v := range s.Vars {
		if err := script.Add(k, v); err != nil {
			return nil, fmt.Errorf("failed to add variable '%s' to script: %w", k, err)
		}
	}

	compiled, err := script.RunContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", s.Name, ErrScriptExecution, err)
	}

	if errVar := compiled.Get("err"); errVar != nil {
		switch v := errVar.Value().(type) {
		case error:
			return nil, fmt.Errorf("%w: %w", ErrScriptReported, v)
		case string:
			if v != "" {
				return nil, fmt.Errorf("%w: %s", ErrScriptReported, v)
			}
		}
	}

	result := compiled.Get(ResultVar)
	if result.IsUndefined() {
		return nil, fmt.Errorf("%w: %s", ErrNoResult, ResultVar)
	}
	entries, ok := result.Value().([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotArray, ResultVar, result.ValueType())
	}
	return entries, nil
}

func (s *Script) String() string { return "script " + s.Name }
