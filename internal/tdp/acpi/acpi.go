// Package acpi implements the ACPI platform-profile TDP backend
// (spec §4.9): a power-profile-only backend with no TDP/boost/thermal
// controls of its own, for hosts whose firmware exposes
// /sys/firmware/acpi/platform_profile.
package acpi

import (
	"os"
	"strings"

	"github.com/ShadowBlip/PowerStation/pkg/errdefs"
	"github.com/ShadowBlip/PowerStation/pkg/log"
)

const (
	DefaultPlatformProfilePath        = "/sys/firmware/acpi/platform_profile"
	DefaultPlatformProfileChoicesPath = "/sys/firmware/acpi/platform_profile_choices"
)

// Backend drives a host's ACPI platform-profile firmware interface.
type Backend struct {
	profilePath  string
	choicesPath  string
}

// Probe reports whether this host's firmware exposes platform
// profiles at all (both the profile and the choices file must exist).
func Probe(profilePath, choicesPath string) bool {
	if _, err := os.Stat(profilePath); err != nil {
		return false
	}
	_, err := os.Stat(choicesPath)
	return err == nil
}

// New builds a Backend reading/writing the given platform-profile files.
func New(profilePath, choicesPath string) *Backend {
	return &Backend{profilePath: profilePath, choicesPath: choicesPath}
}

func (b *Backend) Name() string { return "acpi" }

// TDP is not controlled through ACPI platform profiles.
func (b *Backend) TDP() (float64, error) {
	return 0, errdefs.FeatureUnsupportedf("acpi backend does not expose a TDP limit")
}

// SetTDP is not controlled through ACPI platform profiles.
func (b *Backend) SetTDP(v float64) error {
	return errdefs.FeatureUnsupportedf("acpi backend does not expose a TDP limit")
}

// Boost is not controlled through ACPI platform profiles.
func (b *Backend) Boost() (float64, error) {
	return 0, errdefs.FeatureUnsupportedf("acpi backend does not expose a boost limit")
}

// SetBoost is not controlled through ACPI platform profiles.
func (b *Backend) SetBoost(v float64) error {
	return errdefs.FeatureUnsupportedf("acpi backend does not expose a boost limit")
}

// ThermalThrottleLimitC is not controlled through ACPI platform profiles.
func (b *Backend) ThermalThrottleLimitC() (float64, error) {
	return 0, errdefs.FeatureUnsupportedf("acpi backend does not expose a thermal throttle limit")
}

// SetThermalThrottleLimitC is not controlled through ACPI platform profiles.
func (b *Backend) SetThermalThrottleLimitC(v float64) error {
	return errdefs.FeatureUnsupportedf("acpi backend does not expose a thermal throttle limit")
}

// PowerProfile reads the currently active platform profile.
func (b *Backend) PowerProfile() (string, error) {
	data, err := os.ReadFile(b.profilePath)
	if err != nil {
		return "", errdefs.IOErrorf("reading platform profile: %v", err)
	}
	profile := strings.TrimSpace(string(data))
	log.Logger.Debugw("platform profile is currently set", "profile", profile)
	return profile, nil
}

// PowerProfilesAvailable returns the firmware's advertised profile choices.
func (b *Backend) PowerProfilesAvailable() ([]string, error) {
	data, err := os.ReadFile(b.choicesPath)
	if err != nil {
		return nil, errdefs.IOErrorf("reading platform profile choices: %v", err)
	}
	return strings.Fields(string(data)), nil
}

// SetPowerProfile writes profile to the platform-profile file. A
// profile that is not one of the firmware's advertised choices is
// translated from the legacy RyzenAdj-only vocabulary
// ("max-performance" -> "performance", "power-saving" -> "balanced")
// and the translation is written; any other unadvertised profile is
// rejected with InvalidArgument.
func (b *Backend) SetPowerProfile(profile string) error {
	current, err := b.PowerProfile()
	if err != nil {
		return err
	}
	if current == profile {
		return nil
	}

	valid, err := b.PowerProfilesAvailable()
	if err != nil {
		return err
	}

	target := profile
	if !contains(valid, profile) {
		log.Logger.Warnw("incompatible profile requested, attempting legacy translation", "profile", profile)
		switch profile {
		case "max-performance":
			target = "performance"
		case "power-saving":
			target = "balanced"
		default:
			return errdefs.InvalidArgumentf("%s is not a valid profile for the acpi backend", profile)
		}
	}

	if err := os.WriteFile(b.profilePath, []byte(target), 0644); err != nil {
		return errdefs.IOErrorf("writing platform profile: %v", err)
	}
	log.Logger.Infow("set platform profile", "profile", target)
	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
