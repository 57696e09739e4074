// Package busapi defines the object/interface contract this daemon
// exposes over its bus (spec §6: bus name org.shadowblip.PowerStation,
// path prefix /org/shadowblip/Performance). It is a Go-interface
// boundary only — no real transport binding. No D-Bus library is
// imported anywhere in this daemon's dependency surface; wiring one up
// is left to whatever object-bus plumbing hosts this process, exactly
// as spec §1 scopes it: specified at the interface boundary, out of
// scope to implement here.
package busapi

// CPU mirrors the org.shadowblip.CPU interface.
type CPU interface {
	BoostEnabled() (bool, error)
	SetBoostEnabled(bool) error
	SmtEnabled() (bool, error)
	SetSmtEnabled(bool) error
	Features() ([]string, error)
	CoresCount() (uint32, error)
	CoresEnabled() (uint32, error)
	SetCoresEnabled(uint32) error
	HasFeature(name string) (bool, error)
	EnumerateCores() ([]string, error)
}

// Core mirrors the org.shadowblip.CPU.Core interface.
type Core interface {
	Number() (uint32, error)
	CoreId() (uint32, error)
	Online() (bool, error)
	SetOnline(bool) error
}

// GPU mirrors the org.shadowblip.GPU interface.
type GPU interface {
	EnumerateCards() ([]string, error)
}

// Card mirrors the org.shadowblip.GPU.Card interface.
type Card interface {
	Name() (string, error)
	Path() (string, error)
	Class() (string, error)
	ClassId() (string, error)
	Vendor() (string, error)
	VendorId() (string, error)
	Device() (string, error)
	DeviceId() (string, error)
	Subdevice() (string, error)
	SubdeviceId() (string, error)
	SubvendorId() (string, error)
	RevisionId() (string, error)
	ClockLimitMhzMin() (float64, error)
	ClockLimitMhzMax() (float64, error)
	ClockValueMhzMin() (float64, error)
	SetClockValueMhzMin(float64) error
	ClockValueMhzMax() (float64, error)
	SetClockValueMhzMax(float64) error
	ManualClock() (bool, error)
	SetManualClock(bool) error
	EnumerateConnectors() ([]string, error)
}

// CardTDP mirrors the optional org.shadowblip.GPU.Card.TDP interface —
// only implemented by cards with at least one TDP backend available.
type CardTDP interface {
	TDP() (float64, error)
	SetTDP(float64) error
	Boost() (float64, error)
	SetBoost(float64) error
	MinTDP() (float64, error)
	MaxTDP() (float64, error)
	MaxBoost() (float64, error)
	ThermalThrottleLimitC() (float64, error)
	SetThermalThrottleLimitC(float64) error
	PowerProfile() (string, error)
	SetPowerProfile(string) error
	PowerProfilesAvailable() ([]string, error)
}

// Connector mirrors the org.shadowblip.GPU.Card.Connector interface.
type Connector interface {
	Name() (string, error)
	Path() (string, error)
	Id() (uint32, error)
	Enabled() (bool, error)
	Modes() ([]string, error)
	Status() (string, error)
	DPMS() (bool, error)
}
