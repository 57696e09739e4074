package tdp

import (
	"github.com/ShadowBlip/PowerStation/internal/pciids"
	"github.com/ShadowBlip/PowerStation/internal/tdp/acpi"
	"github.com/ShadowBlip/PowerStation/internal/tdp/asus"
	"github.com/ShadowBlip/PowerStation/internal/tdp/rapl"
	"github.com/ShadowBlip/PowerStation/internal/tdp/ryzenadj"
)

// AssembleOptions collects every dependency a vendor's backends might
// need. Fields a given vendor doesn't use are ignored.
type AssembleOptions struct {
	DeviceID string

	RyzenAdjLib ryzenadj.Library // nil if no native libryzenadj binding is loaded

	AsusDaemon  asus.SessionBusTransport // nil if no asusd session-bus connection was made
	AsusWmiRoot string

	AcpiProfilePath string
	AcpiChoicesPath string

	RaplZonePath string
}

// BuildBackends resolves one card's TDP backend list in declared
// try-order (spec §4.7–§4.11): AMD cards try RyzenAdj then the ASUS
// daemon/WMI backend; Intel cards try RAPL. ACPI platform-profile is
// vendor-agnostic and is appended last for either vendor when present,
// since it only ever answers PowerProfile/PowerProfilesAvailable and
// so never masks a vendor backend's TDP/Boost/thermal methods (the
// aggregator tries each in order and those always fail
// FeatureUnsupported on the ACPI backend, falling through).
// A backend is included only when its prerequisite hardware or
// software transport actually probes present on the host.
func BuildBackends(vendor pciids.Vendor, opts AssembleOptions) []Backend {
	var backends []Backend

	switch vendor {
	case pciids.VendorAMD:
		if opts.RyzenAdjLib != nil {
			backends = append(backends, ryzenadj.New(opts.DeviceID, opts.RyzenAdjLib))
		}
		if asus.Probe(opts.AsusWmiRoot) {
			backends = append(backends, asus.New(opts.AsusWmiRoot, opts.AsusDaemon))
		}
	case pciids.VendorIntel:
		if rapl.Probe(opts.RaplZonePath) {
			backends = append(backends, rapl.New(opts.RaplZonePath))
		}
	}

	if acpi.Probe(opts.AcpiProfilePath, opts.AcpiChoicesPath) {
		backends = append(backends, acpi.New(opts.AcpiProfilePath, opts.AcpiChoicesPath))
	}

	return backends
}
