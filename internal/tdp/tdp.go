// Package tdp defines the TDP backend contract and the aggregator that
// tries a card's available backends in declared order (spec §4.7–§4.11).
package tdp

import (
	"strings"

	"github.com/ShadowBlip/PowerStation/pkg/errdefs"
	"github.com/ShadowBlip/PowerStation/pkg/log"
)

// Backend is the contract every TDP implementation (RyzenAdj, ASUS,
// ACPI platform-profile, Intel RAPL) satisfies. All values are Watts
// unless noted; temperatures are degrees Celsius.
type Backend interface {
	// Name identifies the backend for logging (e.g. "ryzenadj", "asus").
	Name() string

	TDP() (float64, error)
	SetTDP(v float64) error
	Boost() (float64, error)
	SetBoost(v float64) error
	ThermalThrottleLimitC() (float64, error)
	SetThermalThrottleLimitC(v float64) error
	PowerProfile() (string, error)
	SetPowerProfile(profile string) error
	PowerProfilesAvailable() ([]string, error)
}

// HardwareLimits are the min/max TDP and max boost for the current
// host, sourced exclusively from the hardware profile database
// (spec §4.11, §4.12).
type HardwareLimits struct {
	MinTDP   float64
	MaxTDP   float64
	MaxBoost float64
}

// Aggregator tries each configured backend in order for every
// operation, returning the first success. If every backend fails, it
// returns a FailedOperation error (spec §4.11, §4.13).
type Aggregator struct {
	backends []Backend
	limits   *HardwareLimits // nil if no hardware profile matched this host
}

// New builds an Aggregator over backends, tried in the given order.
// limits may be nil if no HardwareProfile entry matched this host.
func New(backends []Backend, limits *HardwareLimits) *Aggregator {
	return &Aggregator{backends: backends, limits: limits}
}

// Backends returns the configured backend list, in try order.
func (a *Aggregator) Backends() []Backend { return a.backends }

// MinTDP returns the hardware profile's minimum TDP, or FailedOperation
// if no profile matched this host.
func (a *Aggregator) MinTDP() (float64, error) {
	if a.limits == nil {
		return 0, errdefs.FailedOperationf("no hardware profile matched this host")
	}
	return a.limits.MinTDP, nil
}

// MaxTDP returns the hardware profile's maximum TDP.
func (a *Aggregator) MaxTDP() (float64, error) {
	if a.limits == nil {
		return 0, errdefs.FailedOperationf("no hardware profile matched this host")
	}
	return a.limits.MaxTDP, nil
}

// MaxBoost returns the hardware profile's maximum boost.
func (a *Aggregator) MaxBoost() (float64, error) {
	if a.limits == nil {
		return 0, errdefs.FailedOperationf("no hardware profile matched this host")
	}
	return a.limits.MaxBoost, nil
}

// TDP tries each backend's TDP() in order, returning the first success.
func (a *Aggregator) TDP() (float64, error) {
	return tryFloat(a.backends, "TDP", func(b Backend) (float64, error) { return b.TDP() })
}

// SetTDP tries each backend's SetTDP(v) in order.
func (a *Aggregator) SetTDP(v float64) error {
	return trySet(a.backends, "SetTDP", func(b Backend) error { return b.SetTDP(v) })
}

// Boost tries each backend's Boost() in order.
func (a *Aggregator) Boost() (float64, error) {
	return tryFloat(a.backends, "Boost", func(b Backend) (float64, error) { return b.Boost() })
}

// SetBoost tries each backend's SetBoost(v) in order.
func (a *Aggregator) SetBoost(v float64) error {
	return trySet(a.backends, "SetBoost", func(b Backend) error { return b.SetBoost(v) })
}

// ThermalThrottleLimitC tries each backend in order.
func (a *Aggregator) ThermalThrottleLimitC() (float64, error) {
	return tryFloat(a.backends, "ThermalThrottleLimitC", func(b Backend) (float64, error) { return b.ThermalThrottleLimitC() })
}

// SetThermalThrottleLimitC tries each backend in order.
func (a *Aggregator) SetThermalThrottleLimitC(v float64) error {
	return trySet(a.backends, "SetThermalThrottleLimitC", func(b Backend) error { return b.SetThermalThrottleLimitC(v) })
}

// PowerProfile tries each backend in order.
func (a *Aggregator) PowerProfile() (string, error) {
	return tryString(a.backends, "PowerProfile", func(b Backend) (string, error) { return b.PowerProfile() })
}

// SetPowerProfile tries each backend in order.
func (a *Aggregator) SetPowerProfile(profile string) error {
	return trySet(a.backends, "SetPowerProfile", func(b Backend) error { return b.SetPowerProfile(profile) })
}

// PowerProfilesAvailable returns the union of every backend's available profiles.
func (a *Aggregator) PowerProfilesAvailable() ([]string, error) {
	seen := map[string]bool{}
	var all []string
	var lastErr error
	for _, b := range a.backends {
		profiles, err := b.PowerProfilesAvailable()
		if err != nil {
			lastErr = err
			continue
		}
		for _, p := range profiles {
			if !seen[p] {
				seen[p] = true
				all = append(all, p)
			}
		}
	}
	if len(all) == 0 {
		if lastErr == nil {
			lastErr = errdefs.FailedOperationf("no TDP backends configured")
		}
		return nil, errdefs.FailedOperationf("No TDP Interface available: %v", lastErr)
	}
	return all, nil
}

// tryFloat runs op against each backend in declared order, returning the
// first success. Per spec §4.13, the aggregator retries across backends
// only when the failure is not InvalidArgument: a guard-rail rejection
// means every backend would reject the same value, so propagate it
// immediately instead of masking it behind "no backend available".
func tryFloat(backends []Backend, opName string, op func(Backend) (float64, error)) (float64, error) {
	var lastErr error
	for _, b := range backends {
		v, err := op(b)
		if err == nil {
			return v, nil
		}
		if errdefs.IsInvalidArgument(err) {
			return 0, err
		}
		log.Logger.Warnw("TDP backend failed, trying next", "backend", b.Name(), "op", opName, "error", err)
		lastErr = err
	}
	return 0, noBackendErr(opName, lastErr)
}

// tryString mirrors tryFloat for string-returning backend ops.
func tryString(backends []Backend, opName string, op func(Backend) (string, error)) (string, error) {
	var lastErr error
	for _, b := range backends {
		v, err := op(b)
		if err == nil {
			return v, nil
		}
		if errdefs.IsInvalidArgument(err) {
			return "", err
		}
		log.Logger.Warnw("TDP backend failed, trying next", "backend", b.Name(), "op", opName, "error", err)
		lastErr = err
	}
	return "", noBackendErr(opName, lastErr)
}

func trySet(backends []Backend, opName string, op func(Backend) error) error {
	var lastErr error
	for _, b := range backends {
		err := op(b)
		if err == nil {
			return nil
		}
		if errdefs.IsInvalidArgument(err) {
			return err
		}
		log.Logger.Warnw("TDP backend failed, trying next", "backend", b.Name(), "op", opName, "error", err)
		lastErr = err
	}
	return noBackendErr(opName, lastErr)
}

func noBackendErr(opName string, lastErr error) error {
	if lastErr == nil {
		return errdefs.FailedOperationf("No TDP Interface available for %s: no backends configured", opName)
	}
	return errdefs.FailedOperationf("No TDP Interface available for %s: %v", opName, lastErr)
}

// BackendNames returns the Name() of each backend, for debug output.
func BackendNames(backends []Backend) string {
	names := make([]string, 0, len(backends))
	for _, b := range backends {
		names = append(names, b.Name())
	}
	return strings.Join(names, ",")
}
