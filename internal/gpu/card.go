package gpu

import (
	"os"
	"path/filepath"

	"github.com/ShadowBlip/PowerStation/internal/pciids"
	"github.com/ShadowBlip/PowerStation/internal/sysfs"
	"github.com/ShadowBlip/PowerStation/pkg/errdefs"
)

// Card classes, derived from the PCI class ID of the DRM device.
const (
	ClassIntegrated = "integrated"
	ClassDedicated  = "dedicated"
	ClassUnknown    = "unknown"
)

// Card is the data model for a discovered /sys/class/drm/cardN entry
// (spec §3 GraphicsCard): identity and human-readable names resolved
// against the PCI ID database, plus the normalized vendor used to pick
// its clock and TDP controllers (the controllers are not held here).
type Card struct {
	Name      string
	SysfsPath string

	Class   string
	ClassID string

	Vendor   string
	VendorID string

	Device   string
	DeviceID string

	Subdevice   string
	SubdeviceID string
	SubvendorID string
	RevisionID  string

	// PCIVendor is the normalized AMD/Intel classification used to pick
	// a clock and TDP backend; see pciids.NormalizeVendor.
	PCIVendor pciids.Vendor
}

// devicePath is the card's "device" subdirectory, where vendor/device
// IDs and clock-controller sysfs attributes live.
func (c *Card) devicePath() string {
	return filepath.Join(c.SysfsPath, "device")
}

func classFromID(classID string) string {
	switch classID {
	case "030000":
		return ClassIntegrated
	case "038000":
		return ClassDedicated
	default:
		return ClassUnknown
	}
}

// Discover builds a Card from drmRoot/name by reading the device/class,
// vendor, device, revision, subsystem_vendor and subsystem_device
// attributes and resolving human-readable names by streaming pciIDsPath
// (opened fresh per card, matching the reference implementation).
// Returns an errdefs.FeatureUnsupported error if the resolved vendor is
// neither AMD nor Intel; callers should log and skip such cards
// (spec §4.3).
func Discover(drmRoot, name, pciIDsPath string) (*Card, error) {
	c := &Card{
		Name:      name,
		SysfsPath: filepath.Join(drmRoot, name),
	}

	classID, err := sysfs.ReadHexU32(filepath.Join(c.devicePath(), "class"))
	if err != nil {
		return nil, err
	}
	vendorID, err := sysfs.ReadHexU32(filepath.Join(c.devicePath(), "vendor"))
	if err != nil {
		return nil, err
	}
	deviceID, err := sysfs.ReadHexU32(filepath.Join(c.devicePath(), "device"))
	if err != nil {
		return nil, err
	}
	revisionID, err := sysfs.ReadHexU32(filepath.Join(c.devicePath(), "revision"))
	if err != nil {
		return nil, err
	}
	subvendorID, err := sysfs.ReadHexU32(filepath.Join(c.devicePath(), "subsystem_vendor"))
	if err != nil {
		return nil, err
	}
	subdeviceID, err := sysfs.ReadHexU32(filepath.Join(c.devicePath(), "subsystem_device"))
	if err != nil {
		return nil, err
	}

	c.ClassID = hex6(classID)
	c.Class = classFromID(c.ClassID)
	c.VendorID = hex4(vendorID)
	c.DeviceID = hex4(deviceID)
	c.RevisionID = hex2(revisionID)
	c.SubvendorID = hex4(subvendorID)
	c.SubdeviceID = hex4(subdeviceID)

	f, err := os.Open(pciIDsPath)
	if err != nil {
		return nil, errdefs.IOErrorf("opening pci.ids at %s: %v", pciIDsPath, err)
	}
	defer f.Close()

	match, err := pciids.Lookup(f, vendorID, deviceID, subvendorID, subdeviceID)
	if err != nil {
		return nil, err
	}
	if match.Vendor == "" {
		return nil, errdefs.FeatureUnsupportedf("card %s: vendor %s not found in pci.ids", name, c.VendorID)
	}

	vendor, ok := pciids.NormalizeVendor(match.Vendor)
	if !ok {
		return nil, errdefs.FeatureUnsupportedf("card %s: unsupported vendor %q", name, match.Vendor)
	}

	c.PCIVendor = vendor
	c.Vendor = string(vendor)
	c.Device = match.Device
	c.Subdevice = match.Subdevice

	return c, nil
}

func hex6(v uint32) string { return hexN(v, 6) }
func hex4(v uint32) string { return hexN(v, 4) }
func hex2(v uint32) string { return hexN(v, 2) }

func hexN(v uint32, width int) string {
	const digits = "0123456789abcdef"
	buf := make([]byte, width)
	for i := width - 1; i >= 0; i-- {
		buf[i] = digits[v&0xf]
		v >>= 4
	}
	return string(buf)
}
