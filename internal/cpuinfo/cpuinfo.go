// Package cpuinfo reads /proc/cpuinfo (model name, feature flags) via
// prometheus/procfs, the same library the teacher uses for its own
// CPU info component.
package cpuinfo

import (
	"github.com/prometheus/procfs"

	"github.com/ShadowBlip/PowerStation/pkg/errdefs"
)

// Info is the subset of /proc/cpuinfo this daemon needs: the model
// name (matched against the hardware profile database) and the
// whitespace-split "flags:" line (spec §4.4 features()).
type Info struct {
	ModelName string
	Flags     []string
}

// Reader abstracts /proc/cpuinfo access so the CPU controller can be
// tested without a real procfs mount.
type Reader func() (Info, error)

// Read parses the first CPU entry of /proc/cpuinfo from the default
// procfs mount.
func Read() (Info, error) {
	fs, err := procfs.NewDefaultFS()
	if err != nil {
		return Info{}, errdefs.IOErrorf("mounting procfs: %v", err)
	}
	return ReadFS(fs)
}

// ReadFS is Read against an already-opened procfs.FS, split out so
// tests can point at a fixture mount built from procfs.NewFS(dir).
func ReadFS(fs procfs.FS) (Info, error) {
	entries, err := fs.CPUInfo()
	if err != nil {
		return Info{}, errdefs.IOErrorf("reading /proc/cpuinfo: %v", err)
	}
	if len(entries) == 0 {
		return Info{}, errdefs.IOErrorf("/proc/cpuinfo: no CPU entries found")
	}
	return Info{
		ModelName: entries[0].ModelName,
		Flags:     entries[0].Flags,
	}, nil
}

// HasFlag reports whether flag is present among flags, matching spec
// §4.4's has_feature(flag) membership test.
func HasFlag(flags []string, flag string) bool {
	for _, f := range flags {
		if f == flag {
			return true
		}
	}
	return false
}
