package binary

import (
	"fmt"
	"os"

	"github.com/spf13/afero"

	"github.com/nexo-app/runtimes/internal/platform"
)

// ExecutableMode is applied to located binaries on POSIX targets.
const ExecutableMode os.FileMode = 0755

// MakeExecutable sets ExecutableMode on every path. It does nothing on
// Windows targets, where executability follows the file extension.
func MakeExecutable(fs afero.Fs, t platform.Target, paths ...string) error {
	if t.IsWindows() {
		return nil
	}
	for _, p := range paths {
		if err := fs.Chmod(p, ExecutableMode); err != nil {
			return fmt.Errorf("chmod %s: %w", p, err)
		}
	}
	return nil
}
