package agents

import (
	"fmt"
	"log"
	"os"
	"sort"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Registry holds the registered agent definitions. Built-in agents are always
// present; a YAML file can override or extend them and is hot-reloaded.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]Definition

	watcher *fsnotify.Watcher
}

// NewRegistry creates a registry populated with the built-in agents
func NewRegistry() *Registry {
	r := &Registry{defs: make(map[string]Definition)}
	for _, d := range builtinDefinitions() {
		r.defs[d.Type] = d
	}
	return r
}

// Get returns the definition for an agent type
func (r *Registry) Get(agentType string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.defs[agentType]
	return d, ok
}

// IsRegistered reports whether agentType is known
func (r *Registry) IsRegistered(agentType string) bool {
	_, ok := r.Get(agentType)
	return ok
}

// Types returns all registered agent types, sorted
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.defs))
	for t := range r.defs {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Count returns the number of registered agents
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}

type agentsFile struct {
	Agents []Definition `yaml:"agents"`
}

// LoadFile merges agent definitions from a YAML file over the built-ins.
// Definitions without a type are rejected; the built-ins stay registered.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read agents file: %w", err)
	}

	var file agentsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse agents file: %w", err)
	}

	for _, d := range file.Agents {
		if d.Type == "" {
			return fmt.Errorf("agents file contains a definition without a type")
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range file.Agents {
		r.defs[d.Type] = d
	}

	log.Printf("✅ [AGENTS] Loaded %d agent definition(s) from %s", len(file.Agents), path)
	return nil
}

// Watch reloads the agents file whenever it changes. Reload failures keep the
// previous definitions and log the error.
func (r *Registry) Watch(path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create agents watcher: %w", err)
	}

	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch agents file: %w", err)
	}

	r.watcher = watcher

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					if err := r.LoadFile(path); err != nil {
						log.Printf("⚠️ [AGENTS] Reload failed, keeping previous definitions: %v", err)
					}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("⚠️ [AGENTS] Watcher error: %v", err)
			}
		}
	}()

	log.Printf("👀 [AGENTS] Watching %s for changes", path)
	return nil
}

// Close stops the file watcher if one is running
func (r *Registry) Close() error {
	if r.watcher != nil {
		return r.watcher.Close()
	}
	return nil
}
