package cache

import (
	"path/filepath"

	"github.com/karrick/godirwalk"
	"github.com/pkg/errors"
)

// DiscoverEventFiles walks dataDir (typically "data/") recursively and
// returns every "events.json" path found at any depth below it. Discovery
// never *enables* a provider on its own: the caller still filters the
// result against the explicit per-provider configuration flags before
// reading any of them.
func DiscoverEventFiles(dataDir string) ([]string, error) {
	var found []string
	err := godirwalk.Walk(dataDir, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				return nil
			}
			if filepath.Base(path) == "events.json" {
				found = append(found, path)
			}
			return nil
		},
		Unsorted: true,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "cache: discover event files under %s", dataDir)
	}
	return found, nil
}
