// Package componentregistry registers the component factories shipped with
// the client manager.
package componentregistry

import (
	"errors"

	"github.com/c360/clientmanager/component"
	pkgerrors "github.com/c360/clientmanager/errors"
	"github.com/c360/clientmanager/processor/clientmanager"
)

// Register registers every component factory with the provided registry:
//   - client-manager processor (publisher and query lifecycle coordination)
func Register(registry *component.Registry) error {
	// Nil registry is a programming error (fatal), not invalid input
	if registry == nil {
		return pkgerrors.WrapFatal(
			errors.New("registry cannot be nil"),
			"ComponentRegistry", "Register", "registry validation")
	}

	if err := clientmanager.Register(registry); err != nil {
		return pkgerrors.WrapInvalid(err, "ComponentRegistry", "Register", "client manager processor registration")
	}
	return nil
}
