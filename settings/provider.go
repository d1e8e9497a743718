package settings

import (
	"context"
	"maps"
	"strings"
	"sync"

	"github.com/goliatone/go-quality-hooks/core"
)

// StaticProvider serves settings from memory. It is safe for concurrent use.
type StaticProvider struct {
	mu       sync.RWMutex
	global   map[string]string
	projects map[string]map[string]string
}

func NewStaticProvider(global map[string]string) *StaticProvider {
	return &StaticProvider{
		global:   maps.Clone(global),
		projects: map[string]map[string]string{},
	}
}

func (p *StaticProvider) SetGlobal(key string, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.global == nil {
		p.global = map[string]string{}
	}
	p.global[strings.TrimSpace(key)] = value
}

func (p *StaticProvider) SetProject(projectUUID string, key string, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	projectUUID = strings.TrimSpace(projectUUID)
	if p.projects[projectUUID] == nil {
		p.projects[projectUUID] = map[string]string{}
	}
	p.projects[projectUUID][strings.TrimSpace(key)] = value
}

func (p *StaticProvider) Settings(_ context.Context, projectUUID string) (core.Settings, error) {
	if p == nil {
		return NewMap(nil), nil
	}
	p.mu.RLock()
	global := maps.Clone(p.global)
	project := maps.Clone(p.projects[strings.TrimSpace(projectUUID)])
	p.mu.RUnlock()
	return Merge(global, project)
}

var _ core.SettingsProvider = (*StaticProvider)(nil)
