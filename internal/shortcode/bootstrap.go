package shortcode

import (
	"fmt"

	"github.com/goliatone/go-snippet/pkg/interfaces"
)

// RegisterDefinitions registers every definition on registry, stopping at the
// first failure.
func RegisterDefinitions(registry interfaces.ShortcodeRegistry, defs ...interfaces.ShortcodeDefinition) error {
	if registry == nil {
		return fmt.Errorf("shortcode: registry is required")
	}
	for _, def := range defs {
		if err := registry.Register(def); err != nil {
			return fmt.Errorf("register %s: %w", def.Name, err)
		}
	}
	return nil
}

// NewDefaultService wires a registry, renderer and service and registers defs
// on the fresh registry.
func NewDefaultService(defs []interfaces.ShortcodeDefinition, opts ...ServiceOption) (*Service, error) {
	registry := NewRegistry()
	if err := RegisterDefinitions(registry, defs...); err != nil {
		return nil, err
	}
	return NewService(registry, NewRenderer(registry), opts...), nil
}
