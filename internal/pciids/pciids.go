// Package pciids parses the pci.ids text database (the hwdata vendor/
// device/subsystem ID registry) to resolve numeric PCI IDs into human
// readable strings, and normalizes vendor strings into the AMD/Intel
// classification the rest of the hardware abstraction layer uses.
package pciids

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ShadowBlip/PowerStation/pkg/errdefs"
)

// Match is the result of resolving a (vendor, device, subvendor,
// subdevice) numeric ID tuple against a pci.ids database. Any field is
// empty if no matching entry was found at that level.
type Match struct {
	Vendor    string
	Device    string
	Subdevice string
}

// Lookup streams r (the contents of a pci.ids file) looking for
// vendorID/deviceID/subvendorID/subdeviceID, returning the human
// strings found per spec §4.2's column-indentation grammar:
// un-indented lines are vendors, one-tab lines are devices under the
// current vendor, two-tab lines are subsystems under the current
// device matched by a literal "<subvendor> <subdevice>" prefix.
func Lookup(r io.Reader, vendorID, deviceID, subvendorID, subdeviceID uint32) (Match, error) {
	vendorHex := fmt.Sprintf("%04x", vendorID)
	deviceHex := fmt.Sprintf("%04x", deviceID)
	subPrefix := fmt.Sprintf("%04x %04x", subvendorID, subdeviceID)

	var m Match
	var vendorMatched, deviceMatched bool

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		switch {
		case strings.HasPrefix(line, "\t\t"):
			if !vendorMatched || !deviceMatched {
				continue
			}
			content := strings.TrimPrefix(line, "\t\t")
			if strings.HasPrefix(strings.ToLower(content), subPrefix) {
				m.Subdevice = strings.TrimSpace(content[len(subPrefix):])
				return m, nil
			}

		case strings.HasPrefix(line, "\t"):
			if !vendorMatched {
				continue
			}
			if deviceMatched {
				// Left the matched device's subsystem section.
				return m, nil
			}
			id, name, ok := splitIDLine(strings.TrimPrefix(line, "\t"))
			if !ok {
				continue
			}
			deviceMatched = strings.EqualFold(id, deviceHex)
			if deviceMatched {
				m.Device = name
			} else {
				m.Device = ""
			}

		default:
			if vendorMatched {
				// Left the matched vendor's section; nothing further to find.
				return m, nil
			}
			id, name, ok := splitIDLine(line)
			if !ok {
				continue
			}
			if strings.EqualFold(id, vendorHex) {
				vendorMatched = true
				m.Vendor = name
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return Match{}, errdefs.IOErrorf("reading pci.ids: %v", err)
	}
	return m, nil
}

// splitIDLine splits a "<hex-id><whitespace><name>" line into its id
// and name, returning ok=false for malformed lines.
func splitIDLine(line string) (id, name string, ok bool) {
	fields := strings.SplitN(strings.TrimSpace(line), " ", 2)
	if len(fields) < 1 || fields[0] == "" {
		return "", "", false
	}
	id = fields[0]
	if len(fields) == 2 {
		name = strings.TrimSpace(fields[1])
	}
	return id, name, true
}

// SearchPaths returns the ordered list of candidate pci.ids locations,
// honoring XDG_DATA_HOME/XDG_DATA_DIRS with a "hwdata/pci.ids" suffix,
// and falling back to /usr/share/hwdata/pci.ids per spec §4.2.
func SearchPaths() []string {
	var dirs []string
	if home := os.Getenv("XDG_DATA_HOME"); home != "" {
		dirs = append(dirs, home)
	} else if hd, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(hd, ".local", "share"))
	}

	if extra := os.Getenv("XDG_DATA_DIRS"); extra != "" {
		dirs = append(dirs, strings.Split(extra, ":")...)
	} else {
		dirs = append(dirs, "/usr/local/share", "/usr/share")
	}

	paths := make([]string, 0, len(dirs)+1)
	for _, d := range dirs {
		if d == "" {
			continue
		}
		paths = append(paths, filepath.Join(d, "hwdata", "pci.ids"))
	}
	paths = append(paths, "/usr/share/hwdata/pci.ids")
	return paths
}

// Find returns the first existing path from SearchPaths.
func Find() (string, error) {
	for _, p := range SearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", errdefs.FeatureUnsupportedf("no pci.ids database found in any XDG data directory")
}

// Vendor is the normalized PCI vendor classification the rest of the
// hardware abstraction layer switches on.
type Vendor string

const (
	VendorAMD     Vendor = "AMD"
	VendorIntel   Vendor = "Intel"
	VendorUnknown Vendor = ""
)

var amdAliases = map[string]bool{
	"amd":                                    true,
	"authenticamd":                           true,
	"advanced micro devices":                 true,
	"advanced micro devices [amd]":           true,
	"advanced micro devices, inc.":           true,
	"advanced micro devices, inc. [amd]":     true,
	"advanced micro devices, inc. [amd/ati]": true,
}

var intelAliases = map[string]bool{
	"intel":            true,
	"genuineintel":     true,
	"intel corporation": true,
}

// NormalizeVendor maps a raw vendor string (from pci.ids or /proc/cpuinfo)
// to the AMD/Intel classification per spec §4.2. Unrecognized vendors
// return VendorUnknown and ok=false so callers can skip the card/log
// the reason (spec §4.3, end-to-end scenario 6).
func NormalizeVendor(raw string) (Vendor, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if amdAliases[key] {
		return VendorAMD, true
	}
	if intelAliases[key] {
		return VendorIntel, true
	}
	return VendorUnknown, false
}
