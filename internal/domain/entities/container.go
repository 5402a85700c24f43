package entities

import (
	"go.uber.org/dig"
)

// RegisterProviders registers all entity providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	// commands and the inspector run without a settings file
	return container.Provide(DefaultSettings)
}
