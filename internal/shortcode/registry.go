package shortcode

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-snippet/pkg/interfaces"
)

// Registry holds the shortcodes a page may call, snippet being the built in
// one. Definitions are compiled on Register, so a bad schema fails at start
// up rather than on the first page that uses it.
type Registry struct {
	mu       sync.RWMutex
	bindings map[string]*binding
	names    []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{bindings: make(map[string]*binding)}
}

// Register compiles def and stores it under its lower-cased name.
func (r *Registry) Register(def interfaces.ShortcodeDefinition) error {
	b, err := compileDefinition(def)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bindings[b.name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateDefinition, b.name)
	}
	r.bindings[b.name] = b

	idx := sort.SearchStrings(r.names, b.name)
	r.names = append(r.names, "")
	copy(r.names[idx+1:], r.names[idx:])
	r.names[idx] = b.name
	return nil
}

// Get returns the definition registered under name. Lookups ignore case.
func (r *Registry) Get(name string) (interfaces.ShortcodeDefinition, bool) {
	b, ok := r.lookup(name)
	if !ok {
		return interfaces.ShortcodeDefinition{}, false
	}
	return b.def, true
}

// List returns the definitions in name order.
func (r *Registry) List() []interfaces.ShortcodeDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]interfaces.ShortcodeDefinition, 0, len(r.names))
	for _, name := range r.names {
		result = append(result, r.bindings[name].def)
	}
	return result
}

// Names returns the normalised tag names in order. The bracket syntax
// preprocessor only rewrites tags with these names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.names...)
}

func (r *Registry) lookup(name string) (*binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bindings[normalizeName(name)]
	return b, ok
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

var _ interfaces.ShortcodeRegistry = (*Registry)(nil)
