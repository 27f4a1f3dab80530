package commands

import (
	"strings"

	"github.com/goliatone/go-snippet/internal/logging"
	"github.com/goliatone/go-snippet/pkg/interfaces"
)

const commandModuleRoot = "snippet.commands"

// CommandLogger returns a module-scoped logger for command handlers, enriching it with
// the component and module fields shared by every command entry.
func CommandLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	name := strings.TrimSpace(module)
	if name == "" {
		name = "core"
	}
	logger := logging.ModuleLogger(provider, commandModuleRoot+"."+name)
	return logging.WithFields(logger, map[string]any{
		"component":      "command",
		"command_module": name,
	})
}
