//go:build linux

package shardkey

import (
	"os"
	"path/filepath"
)

// currentExecutablePath resolves the running binary's real path, following
// the /proc/self/exe symlink os.Executable already reads on Linux through
// any further indirection (a symlinked install path, for example) so the
// store always operates on the actual file that will be executed next.
func currentExecutablePath() (string, error) {
	path, err := os.Executable()
	if err != nil {
		return "", wrapErr(KindIO, "determine current executable path", err)
	}
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", wrapErr(KindIO, "resolve executable symlink", err)
	}
	return resolved, nil
}
