// Package gpu models discovered DRM graphics cards and their output
// connectors (spec §3, §4.5, §4.6), and holds the AMD/Intel clock
// controller implementations in its amdclock/intelclock subpackages.
package gpu

import (
	"path/filepath"
	"strings"

	"github.com/ShadowBlip/PowerStation/internal/sysfs"
	"github.com/ShadowBlip/PowerStation/pkg/errdefs"
)

// Connector is a single cardX-<output> entry under /sys/class/drm,
// e.g. card1-eDP-1 or card1-HDMI-A-1.
type Connector struct {
	Name      string
	SysfsPath string
}

// NewConnector builds a Connector rooted at filepath.Join(drmRoot, name).
func NewConnector(drmRoot, name string) *Connector {
	return &Connector{
		Name:      name,
		SysfsPath: filepath.Join(drmRoot, name),
	}
}

// Id reads connector_id and parses it as a base-10 uint32. A missing
// file is an IO error; an unparsable value is a failed-operation error,
// mirroring the two distinct failure modes of the original read-then-parse.
func (c *Connector) Id() (uint32, error) {
	s, err := sysfs.ReadString(c.path("connector_id"))
	if err != nil {
		return 0, err
	}
	n, err := sysfs.ParseU32(s)
	if err != nil {
		return 0, errdefs.FailedOperationf("connector %s: parse connector_id %q: %v", c.Name, s, err)
	}
	return n, nil
}

// Enabled reports whether the connector's "enabled" attribute reads
// "enabled" (case-insensitive).
func (c *Connector) Enabled() (bool, error) {
	s, err := sysfs.ReadString(c.path("enabled"))
	if err != nil {
		return false, err
	}
	return strings.ToLower(strings.TrimSpace(s)) == "enabled", nil
}

// Modes returns the connector's supported display modes, one per
// non-empty line of the "modes" attribute.
func (c *Connector) Modes() ([]string, error) {
	s, err := sysfs.ReadString(c.path("modes"))
	if err != nil {
		return nil, err
	}
	var modes []string
	for _, line := range strings.Split(s, "\n") {
		mode := strings.TrimSpace(line)
		if mode == "" {
			continue
		}
		modes = append(modes, mode)
	}
	return modes, nil
}

// Status returns the lowercased, trimmed contents of the "status"
// attribute (e.g. "connected", "disconnected", "unknown").
func (c *Connector) Status() (string, error) {
	s, err := sysfs.ReadString(c.path("status"))
	if err != nil {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(s)), nil
}

// DPMS reports whether the connector's power management state is "on".
func (c *Connector) DPMS() (bool, error) {
	s, err := sysfs.ReadString(c.path("dpms"))
	if err != nil {
		return false, err
	}
	return strings.ToLower(strings.TrimSpace(s)) == "on", nil
}

func (c *Connector) path(attr string) string {
	return filepath.Join(c.SysfsPath, attr)
}
