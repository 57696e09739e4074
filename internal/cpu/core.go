package cpu

import (
	"path/filepath"
	"strconv"

	"github.com/ShadowBlip/PowerStation/internal/sysfs"
)

// Core is a single discovered hardware thread: a cpuN entry under
// /sys/bus/cpu/devices (spec §3 Core).
type Core struct {
	Number    uint32
	SysfsPath string
}

// NewCore builds a Core rooted at filepath.Join(devicesRoot, fmt.Sprintf("cpu%d", number)).
func NewCore(devicesRoot string, number uint32) *Core {
	return &Core{
		Number:    number,
		SysfsPath: filepath.Join(devicesRoot, cpuDirName(number)),
	}
}

func cpuDirName(n uint32) string {
	return "cpu" + strconv.FormatUint(uint64(n), 10)
}

func (c *Core) onlinePath() string {
	return filepath.Join(c.SysfsPath, "online")
}

func (c *Core) coreIDPath() string {
	return filepath.Join(c.SysfsPath, "topology", "core_id")
}

// CoreID reads topology/core_id, which is equal across SMT siblings
// sharing the same physical core.
func (c *Core) CoreID() (uint32, error) {
	return sysfs.ReadU32(c.coreIDPath())
}

// Online reports whether the core is online. cpu0's online file does
// not exist on Linux (it can never be offlined) so its absence is
// treated as "online" per spec §3/§6, regardless of Number.
func (c *Core) Online() bool {
	if c.Number == 0 {
		return true
	}
	s, err := sysfs.ReadStringProbe(c.onlinePath())
	if err != nil {
		// A core whose online file is unexpectedly missing or
		// unreadable is treated as online rather than silently
		// hidden from CoresEnabled accounting.
		return true
	}
	return s == "1"
}

// SetOnline sets the core's online state. Core 0 is pinned online:
// since it has no online file to write, SetOnline is a no-op for it.
func (c *Core) SetOnline(online bool) error {
	if c.Number == 0 {
		return nil
	}
	v := "0"
	if online {
		v = "1"
	}
	return sysfs.WriteString(c.onlinePath(), v)
}
