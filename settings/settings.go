// Package settings provides core.Settings implementations: flat key/value
// maps and global/project layers merged with go-options.
package settings

import (
	"fmt"
	"maps"
	"strings"

	"github.com/goliatone/go-quality-hooks/core"
	opts "github.com/goliatone/go-options"
)

// Map is an immutable flat key/value settings view. Array values are stored
// as comma separated strings.
type Map struct {
	values map[string]string
}

func NewMap(values map[string]string) Map {
	normalized := make(map[string]string, len(values))
	for key, value := range values {
		trimmed := strings.TrimSpace(key)
		if trimmed == "" {
			continue
		}
		normalized[trimmed] = value
	}
	return Map{values: normalized}
}

func (m Map) Get(key string) (string, bool) {
	value, ok := m.values[strings.TrimSpace(key)]
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	return value, true
}

func (m Map) GetStringArray(key string) []string {
	raw, ok := m.Get(key)
	if !ok {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

// Values returns a copy of the underlying map.
func (m Map) Values() map[string]string {
	return maps.Clone(m.values)
}

// With returns a copy with key set to value.
func (m Map) With(key string, value string) Map {
	next := m.Values()
	if next == nil {
		next = map[string]string{}
	}
	next[strings.TrimSpace(key)] = value
	return Map{values: next}
}

// Merge layers project values over global values. Keys are flat, so a
// project key only shadows the same global key.
func Merge(global map[string]string, project map[string]string) (Map, error) {
	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("global", 0),
			toLayer(global),
			opts.WithSnapshotID[map[string]any]("global"),
		),
		opts.NewLayer(
			opts.NewScope("project", 10),
			toLayer(project),
			opts.WithSnapshotID[map[string]any]("project"),
		),
	)
	if err != nil {
		return Map{}, fmt.Errorf("settings: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Map{}, fmt.Errorf("settings: options merge failed: %w", err)
	}
	out := make(map[string]string, len(merged.Value))
	for key, value := range merged.Value {
		if value == nil {
			continue
		}
		out[key] = fmt.Sprint(value)
	}
	return NewMap(out), nil
}

func toLayer(values map[string]string) map[string]any {
	layer := make(map[string]any, len(values))
	for key, value := range values {
		trimmed := strings.TrimSpace(key)
		if trimmed == "" {
			continue
		}
		layer[trimmed] = value
	}
	return layer
}

var _ core.Settings = Map{}
