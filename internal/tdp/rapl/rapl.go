// Package rapl implements the Intel RAPL TDP backend (spec §4.10):
// the long-term (constraint_0) and short-term (constraint_1) power
// limits under the intel-rapl powercap zone, in microwatts on disk.
// constraint_2 ("peak") is read only as a legacy fallback when
// constraint_1 itself is absent; set_boost never writes it.
package rapl

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ShadowBlip/PowerStation/pkg/errdefs"
)

// DefaultZonePath is the package-domain RAPL zone almost every Intel
// platform exposes.
const DefaultZonePath = "/sys/class/powercap/intel-rapl/intel-rapl:0"

const (
	attrLong  = "constraint_0_power_limit_uw"
	attrShort = "constraint_1_power_limit_uw"
	attrPeak  = "constraint_2_power_limit_uw"
)

// Backend drives a single RAPL powercap zone's power limits.
type Backend struct {
	zonePath string
}

// Probe reports whether zonePath exposes at least the long-term limit.
func Probe(zonePath string) bool {
	_, err := os.Stat(joinAttr(zonePath, attrLong))
	return err == nil
}

// New builds a Backend rooted at zonePath (an intel-rapl:N directory).
func New(zonePath string) *Backend {
	return &Backend{zonePath: zonePath}
}

func (b *Backend) Name() string { return "rapl" }

func joinAttr(zonePath, attr string) string {
	return zonePath + "/" + attr
}

func (b *Backend) readMicrowatts(attr string) (float64, error) {
	data, err := os.ReadFile(joinAttr(b.zonePath, attr))
	if err != nil {
		return 0, errdefs.IOErrorf("reading %s: %v", attr, err)
	}
	uw, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil {
		return 0, errdefs.FailedOperationf("parsing %s: %v", attr, err)
	}
	return uw / 1_000_000, nil
}

func (b *Backend) writeMicrowatts(attr string, watts float64) error {
	value := fmt.Sprintf("%d", int64(watts*1_000_000))
	if err := os.WriteFile(joinAttr(b.zonePath, attr), []byte(value), 0644); err != nil {
		return errdefs.IOErrorf("writing %s: %v", attr, err)
	}
	return nil
}

// TDP returns the long-term (constraint_0) power limit in Watts.
func (b *Backend) TDP() (float64, error) {
	return b.readMicrowatts(attrLong)
}

// SetTDP writes the long-term power limit, then re-applies boost so
// the short-term limit stays boost-Watts above the new TDP.
func (b *Backend) SetTDP(v float64) error {
	if v < 1 {
		return errdefs.InvalidArgumentf("cowardly refusing to set TDP less than 1W: provided %vW", v)
	}

	boost, err := b.Boost()
	if err != nil {
		return err
	}
	if err := b.writeMicrowatts(attrLong, v); err != nil {
		return err
	}
	return b.SetBoost(boost)
}

// Boost is the short-term (constraint_1) limit minus the current TDP,
// floored at 0. constraint_1 is read directly; constraint_2 ("peak")
// is consulted only when constraint_1 itself is absent from the zone.
func (b *Backend) Boost() (float64, error) {
	short, err := b.readBoostLimit()
	if err != nil {
		return 0, err
	}
	tdp, err := b.TDP()
	if err != nil {
		return 0, err
	}
	if boost := short - tdp; boost > 0 {
		return boost, nil
	}
	return 0, nil
}

// SetBoost writes the short-term (constraint_1) limit to TDP+boost.
// constraint_2 is never written: set_boost has no peak-limit concept.
func (b *Backend) SetBoost(v float64) error {
	if v < 0 {
		return errdefs.InvalidArgumentf("cowardly refusing to set TDP boost less than 0W: provided %vW", v)
	}

	tdp, err := b.TDP()
	if err != nil {
		return err
	}

	return b.writeMicrowatts(attrShort, tdp+v)
}

// readBoostLimit reads constraint_1 (short-term), falling back to the
// legacy constraint_2 (peak) attribute only when constraint_1 does
// not exist on this zone.
func (b *Backend) readBoostLimit() (float64, error) {
	if _, err := os.Stat(joinAttr(b.zonePath, attrShort)); err != nil {
		return b.readMicrowatts(attrPeak)
	}
	return b.readMicrowatts(attrShort)
}

// ThermalThrottleLimitC is not exposed by RAPL.
func (b *Backend) ThermalThrottleLimitC() (float64, error) {
	return 0, errdefs.FeatureUnsupportedf("rapl backend does not expose a thermal throttle limit")
}

// SetThermalThrottleLimitC is not exposed by RAPL.
func (b *Backend) SetThermalThrottleLimitC(v float64) error {
	return errdefs.FeatureUnsupportedf("rapl backend does not expose a thermal throttle limit")
}

// PowerProfile is not exposed by RAPL.
func (b *Backend) PowerProfile() (string, error) {
	return "", errdefs.FeatureUnsupportedf("rapl backend does not expose power profiles")
}

// SetPowerProfile is not exposed by RAPL.
func (b *Backend) SetPowerProfile(profile string) error {
	return errdefs.FeatureUnsupportedf("rapl backend does not expose power profiles")
}

// PowerProfilesAvailable is not exposed by RAPL.
func (b *Backend) PowerProfilesAvailable() ([]string, error) {
	return nil, errdefs.FeatureUnsupportedf("rapl backend does not expose power profiles")
}
