package loader

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
)

// findModule walks up from startDir to the nearest go.mod and returns its
// directory and module path.
func findModule(startDir string) (modRoot string, modPath string, err error) {
	dir := startDir
	for {
		gomod := filepath.Join(dir, "go.mod")
		if st, serr := os.Stat(gomod); serr == nil && !st.IsDir() {
			b, rerr := os.ReadFile(gomod)
			if rerr != nil {
				return "", "", rerr
			}
			for _, ln := range strings.Split(string(b), "\n") {
				ln = strings.TrimSpace(ln)
				if strings.HasPrefix(ln, "module ") {
					mod := strings.Trim(strings.TrimSpace(strings.TrimPrefix(ln, "module ")), `"`)
					if mod == "" {
						return "", "", errors.Newf("go.mod has empty module path at %s", filepath.ToSlash(gomod))
					}
					return dir, mod, nil
				}
			}
			return "", "", errors.Newf("go.mod missing module directive at %s", filepath.ToSlash(gomod))
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", "", errors.Newf("could not find go.mod starting from %s", filepath.ToSlash(startDir))
}

// moduleImportPathForDir maps a directory inside the module to its import path.
func moduleImportPathForDir(modRoot, modPath, dir string) (string, error) {
	rel, err := filepath.Rel(modRoot, dir)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)

	if rel == "." {
		return modPath, nil
	}
	if strings.HasPrefix(rel, "../") || rel == ".." {
		return "", errors.Newf("directory is outside module root: dir=%s modRoot=%s", filepath.ToSlash(dir), filepath.ToSlash(modRoot))
	}
	return modPath + "/" + rel, nil
}
