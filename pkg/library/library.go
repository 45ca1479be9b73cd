// Package library is the public entry point for creating content library
// backends while keeping their implementations internal.
//
// Example:
//
//	lib, err := library.New(types.BackendSQLite)
//	if err != nil {
//	    return err
//	}
//	err = lib.Attach(ctx, types.Config{
//	    Backend:     types.BackendSQLite,
//	    DataDir:     ".qurancms-db",
//	    LegacyNames: true,
//	})
//	defer lib.Detach()
package library

import (
	"fmt"

	"github.com/mesh-intelligence/qurancms/internal/postgres"
	"github.com/mesh-intelligence/qurancms/internal/sqlite"
	"github.com/mesh-intelligence/qurancms/pkg/types"
)

// New returns a detached Library for the named backend.
func New(backend string) (types.Library, error) {
	switch backend {
	case types.BackendSQLite:
		return sqlite.NewBackend(), nil
	case types.BackendPostgres:
		return postgres.NewBackend(), nil
	case "":
		return nil, types.ErrBackendEmpty
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrBackendUnknown, backend)
	}
}
