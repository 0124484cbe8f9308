package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"
)

// ListFile reads references from a JSON file that may contain comments and
// trailing commas. The top-level value must be an array.
type ListFile struct {
	Path string
}

// NewListFile creates a ListFile provider.
func NewListFile(path string) *ListFile {
	return &ListFile{Path: path}
}

// Provide implements Provider. state is ignored.
func (l *ListFile) Provide(ctx context.Context, _ any) ([]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(l.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read asset list: %w", err)
	}

	var value any
	if err := json.Unmarshal(jsonc.ToJSON(data), &value); err != nil {
		return nil, fmt.Errorf("failed to parse asset list %s: %w", l.Path, err)
	}
	entries, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrNotArray, value)
	}
	return entries, nil
}

func (l *ListFile) String() string { return "list " + l.Path }
