package qualityhooks

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-quality-hooks/posttask"
)

// TaskPack is a named group of post analysis tasks contributed by a
// downstream module.
type TaskPack struct {
	Name  string
	Tasks []posttask.Task
}

type CommandQueryBundleFactory func(module *Module) (any, error)

// ExtensionHooks collects task packs and command/query bundles before the
// module is built. Packs run in name order after the webhook task.
type ExtensionHooks struct {
	mu sync.RWMutex

	taskPacks map[string]TaskPack
	bundles   map[string]CommandQueryBundleFactory
}

func NewExtensionHooks() *ExtensionHooks {
	return &ExtensionHooks{
		taskPacks: map[string]TaskPack{},
		bundles:   map[string]CommandQueryBundleFactory{},
	}
}

func (h *ExtensionHooks) RegisterTaskPack(pack TaskPack) error {
	if h == nil {
		return fmt.Errorf("qualityhooks: extension hooks are nil")
	}
	name := strings.TrimSpace(pack.Name)
	if name == "" {
		return fmt.Errorf("qualityhooks: task pack name is required")
	}
	if len(pack.Tasks) == 0 {
		return fmt.Errorf("qualityhooks: task pack %q has no tasks", name)
	}
	for _, task := range pack.Tasks {
		if task == nil {
			return fmt.Errorf("qualityhooks: task pack %q contains nil task", name)
		}
	}

	normalized := TaskPack{
		Name:  name,
		Tasks: append([]posttask.Task(nil), pack.Tasks...),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.taskPacks[name]; exists {
		return fmt.Errorf("qualityhooks: task pack %q already registered", name)
	}
	h.taskPacks[name] = normalized
	return nil
}

func (h *ExtensionHooks) RegisterCommandQueryBundle(name string, factory CommandQueryBundleFactory) error {
	if h == nil {
		return fmt.Errorf("qualityhooks: extension hooks are nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("qualityhooks: command/query bundle name is required")
	}
	if factory == nil {
		return fmt.Errorf("qualityhooks: command/query bundle %q factory is required", name)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.bundles[name]; exists {
		return fmt.Errorf("qualityhooks: command/query bundle %q already registered", name)
	}
	h.bundles[name] = factory
	return nil
}

func (h *ExtensionHooks) TaskPacks() []TaskPack {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.taskPacks))
	for name := range h.taskPacks {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]TaskPack, 0, len(names))
	for _, name := range names {
		pack := h.taskPacks[name]
		out = append(out, TaskPack{
			Name:  pack.Name,
			Tasks: append([]posttask.Task(nil), pack.Tasks...),
		})
	}
	return out
}

// PostAnalysisTasks flattens every pack in name order.
func (h *ExtensionHooks) PostAnalysisTasks() []posttask.Task {
	var tasks []posttask.Task
	for _, pack := range h.TaskPacks() {
		tasks = append(tasks, pack.Tasks...)
	}
	return tasks
}

func (h *ExtensionHooks) BuildBundles(module *Module) (map[string]any, error) {
	if h == nil {
		return map[string]any{}, nil
	}
	if module == nil {
		return nil, fmt.Errorf("qualityhooks: module is required")
	}

	h.mu.RLock()
	names := make([]string, 0, len(h.bundles))
	factories := make(map[string]CommandQueryBundleFactory, len(h.bundles))
	for name, factory := range h.bundles {
		names = append(names, name)
		factories[name] = factory
	}
	h.mu.RUnlock()
	sort.Strings(names)

	result := make(map[string]any, len(names))
	for _, name := range names {
		bundle, err := factories[name](module)
		if err != nil {
			return nil, fmt.Errorf("qualityhooks: build bundle %q: %w", name, err)
		}
		result[name] = bundle
	}
	return result, nil
}

func (h *ExtensionHooks) BundleNames() []string {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.bundles))
	for name := range h.bundles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
