package seeds

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/haukened/phishguard/internal/guard/common/log"
)

// LoadDir parses every regular file directly under dir and returns the
// union of their domains, sorted. Unreadable or unparseable files are
// logged and skipped; an import must not fail because one list in the
// directory is broken.
func LoadDir(dir string, logger log.Logger) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading seed directory: %w", err)
	}

	seen := make(map[string]struct{})
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		f, err := os.Open(path)
		if err != nil {
			logger.Warn(map[string]any{"file": path, "error": err}, "skipping unreadable seed file")
			continue
		}
		domains, err := ParseAuto(f)
		_ = f.Close()
		if err != nil {
			logger.Warn(map[string]any{"file": path, "error": err}, "skipping unparseable seed file")
			continue
		}
		logger.Debug(map[string]any{"file": path, "domains": len(domains)}, "seed file parsed")
		for _, d := range domains {
			seen[d] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Strings(out)
	return out, nil
}
