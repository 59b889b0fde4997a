// Package providers defines the shared adapter contract of §4.2; the
// concrete adapters (municipal, railway, regional) live in their own
// sub-packages.
package providers

import (
	"context"

	"github.com/origamihase/wien-oepnv-feed/model"
)

// Adapter is implemented by every provider. Refresh performs one upstream
// fetch-and-normalise pass and returns the resulting events; it never
// writes the provider's cache file itself — the cmd/refresh entrypoint
// owns that, via cache.Store, so that adapters stay testable without
// touching disk.
type Adapter interface {
	Name() string
	Refresh(ctx context.Context) ([]model.Event, error)
}
