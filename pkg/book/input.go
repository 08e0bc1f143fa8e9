package book

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

// ResolveInput turns a command line argument into the list of PDFs to
// process. A directory yields the .pdf files directly inside it, sorted by
// name. The extension is matched case-sensitively, so scan.PDF is not
// picked up. Returned paths are absolute.
func ResolveInput(path string) ([]string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, eris.Wrapf(err, "resolve %s", path)
	}

	fi, err := os.Stat(abs)
	if err != nil {
		return nil, eris.Wrapf(ErrUnresolvable, "%s: %v", path, err)
	}

	if !fi.IsDir() {
		if !isPDF(abs) {
			return nil, eris.Wrapf(ErrUnresolvable, "%s", path)
		}
		return []string{abs}, nil
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, eris.Wrapf(err, "read directory %s", abs)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !isPDF(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(abs, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

func isPDF(name string) bool {
	return strings.HasSuffix(name, ".pdf")
}
