package busapi

import (
	"strconv"

	"github.com/ShadowBlip/PowerStation/internal/cpu"
	"github.com/ShadowBlip/PowerStation/internal/gpu"
	"github.com/ShadowBlip/PowerStation/internal/metrics"
	"github.com/ShadowBlip/PowerStation/internal/tdp"
	"github.com/ShadowBlip/PowerStation/internal/topology"
	"github.com/ShadowBlip/PowerStation/pkg/errdefs"
)

// CPUAdapter exposes a *cpu.CPU as the bus CPU interface.
type CPUAdapter struct {
	CPU *cpu.CPU
}

func (a *CPUAdapter) BoostEnabled() (bool, error)   { return a.CPU.BoostEnabled() }
func (a *CPUAdapter) SetBoostEnabled(v bool) error  { return a.CPU.SetBoostEnabled(v) }
func (a *CPUAdapter) SmtEnabled() (bool, error)     { return a.CPU.SmtEnabled() }
func (a *CPUAdapter) SetSmtEnabled(v bool) error    { return a.CPU.SetSmtEnabled(v) }
func (a *CPUAdapter) Features() ([]string, error)   { return a.CPU.Features() }
func (a *CPUAdapter) CoresCount() (uint32, error)   { return a.CPU.CoresCount(), nil }
func (a *CPUAdapter) CoresEnabled() (uint32, error) { return a.CPU.CoresEnabled(), nil }

// SetCoresEnabled mutates the live core set, then refreshes the CPU
// gauges synchronously — metrics are never polled (spec's metrics
// section).
func (a *CPUAdapter) SetCoresEnabled(n uint32) error {
	if err := a.CPU.SetCoresEnabled(n); err != nil {
		return err
	}
	metrics.UpdateCPU(a.CPU)
	return nil
}

func (a *CPUAdapter) HasFeature(name string) (bool, error) { return a.CPU.HasFeature(name) }

// EnumerateCores returns each core's bus object path, "Core<N>" suffix
// keyed by the core's logical CPU number.
func (a *CPUAdapter) EnumerateCores() ([]string, error) {
	cores := a.CPU.Cores()
	paths := make([]string, len(cores))
	for i, c := range cores {
		paths[i] = "/org/shadowblip/Performance/CPU/Core" + strconv.FormatUint(uint64(c.Number), 10)
	}
	return paths, nil
}

// CoreAdapter exposes a *cpu.Core as the bus Core interface.
type CoreAdapter struct {
	Core *cpu.Core
}

func (a *CoreAdapter) Number() (uint32, error) { return a.Core.Number, nil }
func (a *CoreAdapter) CoreId() (uint32, error) { return a.Core.CoreID() }
func (a *CoreAdapter) Online() (bool, error)   { return a.Core.Online(), nil }
func (a *CoreAdapter) SetOnline(v bool) error  { return a.Core.SetOnline(v) }

// GPUAdapter exposes the discovered card set as the bus GPU interface.
type GPUAdapter struct {
	CardNames []string // DRM basenames, e.g. "card0"
}

func (a *GPUAdapter) EnumerateCards() ([]string, error) {
	paths := make([]string, len(a.CardNames))
	for i, name := range a.CardNames {
		paths[i] = "/org/shadowblip/Performance/GPU/" + topology.CardObjectName(name)
	}
	return paths, nil
}

// CardAdapter exposes a *gpu.Card plus its bound clock controller as
// the bus Card interface. Clock is nil for vendors with no clock
// controller wired (should not occur for AMD/Intel per spec §4.3, but
// is tolerated defensively since vendor coverage could grow).
type CardAdapter struct {
	Card       *gpu.Card
	Clock      gpu.ClockController
	Connectors []*gpu.Connector
}

func (a *CardAdapter) Name() (string, error)        { return a.Card.Name, nil }
func (a *CardAdapter) Path() (string, error)         { return a.Card.SysfsPath, nil }
func (a *CardAdapter) Class() (string, error)        { return a.Card.Class, nil }
func (a *CardAdapter) ClassId() (string, error)      { return a.Card.ClassID, nil }
func (a *CardAdapter) Vendor() (string, error)       { return a.Card.Vendor, nil }
func (a *CardAdapter) VendorId() (string, error)     { return a.Card.VendorID, nil }
func (a *CardAdapter) Device() (string, error)       { return a.Card.Device, nil }
func (a *CardAdapter) DeviceId() (string, error)     { return a.Card.DeviceID, nil }
func (a *CardAdapter) Subdevice() (string, error)    { return a.Card.Subdevice, nil }
func (a *CardAdapter) SubdeviceId() (string, error)  { return a.Card.SubdeviceID, nil }
func (a *CardAdapter) SubvendorId() (string, error)  { return a.Card.SubvendorID, nil }
func (a *CardAdapter) RevisionId() (string, error)   { return a.Card.RevisionID, nil }

func (a *CardAdapter) ClockLimitMhzMin() (float64, error) {
	if a.Clock == nil {
		return 0, errdefs.FeatureUnsupportedf("card %s has no clock controller", a.Card.Name)
	}
	return a.Clock.ClockLimitMhzMin()
}

func (a *CardAdapter) ClockLimitMhzMax() (float64, error) {
	if a.Clock == nil {
		return 0, errdefs.FeatureUnsupportedf("card %s has no clock controller", a.Card.Name)
	}
	return a.Clock.ClockLimitMhzMax()
}

func (a *CardAdapter) ClockValueMhzMin() (float64, error) {
	if a.Clock == nil {
		return 0, errdefs.FeatureUnsupportedf("card %s has no clock controller", a.Card.Name)
	}
	return a.Clock.ClockValueMhzMin()
}

// SetClockValueMhzMin mutates the clock controller, then refreshes the
// clock gauges synchronously — metrics are never polled.
func (a *CardAdapter) SetClockValueMhzMin(v float64) error {
	if a.Clock == nil {
		return errdefs.FeatureUnsupportedf("card %s has no clock controller", a.Card.Name)
	}
	if err := a.Clock.SetClockValueMhzMin(v); err != nil {
		return err
	}
	metrics.UpdateCardClock(a.Card.Name, a.Clock)
	return nil
}

func (a *CardAdapter) ClockValueMhzMax() (float64, error) {
	if a.Clock == nil {
		return 0, errdefs.FeatureUnsupportedf("card %s has no clock controller", a.Card.Name)
	}
	return a.Clock.ClockValueMhzMax()
}

// SetClockValueMhzMax mutates the clock controller, then refreshes the
// clock gauges synchronously — metrics are never polled.
func (a *CardAdapter) SetClockValueMhzMax(v float64) error {
	if a.Clock == nil {
		return errdefs.FeatureUnsupportedf("card %s has no clock controller", a.Card.Name)
	}
	if err := a.Clock.SetClockValueMhzMax(v); err != nil {
		return err
	}
	metrics.UpdateCardClock(a.Card.Name, a.Clock)
	return nil
}

func (a *CardAdapter) ManualClock() (bool, error) {
	if a.Clock == nil {
		return false, errdefs.FeatureUnsupportedf("card %s has no clock controller", a.Card.Name)
	}
	return a.Clock.ManualClock()
}

// SetManualClock mutates the clock controller, then refreshes the
// clock gauges synchronously — metrics are never polled.
func (a *CardAdapter) SetManualClock(v bool) error {
	if a.Clock == nil {
		return errdefs.FeatureUnsupportedf("card %s has no clock controller", a.Card.Name)
	}
	if err := a.Clock.SetManualClock(v); err != nil {
		return err
	}
	metrics.UpdateCardClock(a.Card.Name, a.Clock)
	return nil
}

func (a *CardAdapter) EnumerateConnectors() ([]string, error) {
	cardPath := "/org/shadowblip/Performance/GPU/" + topology.CardObjectName(a.Card.Name)
	paths := make([]string, len(a.Connectors))
	for i, conn := range a.Connectors {
		paths[i] = cardPath + "/" + topology.ConnectorObjectName(conn.Name)
	}
	return paths, nil
}

// CardTDPAdapter exposes a *tdp.Aggregator as the bus Card.TDP
// interface. CardName labels the gauges SetTDP/SetBoost refresh.
type CardTDPAdapter struct {
	Aggregator *tdp.Aggregator
	CardName   string
}

func (a *CardTDPAdapter) TDP() (float64, error) { return a.Aggregator.TDP() }

// SetTDP mutates the aggregator, then refreshes the TDP/boost gauges
// synchronously — metrics are never polled.
func (a *CardTDPAdapter) SetTDP(v float64) error {
	if err := a.Aggregator.SetTDP(v); err != nil {
		return err
	}
	metrics.UpdateCardTDP(a.CardName, a.Aggregator)
	return nil
}

func (a *CardTDPAdapter) Boost() (float64, error) { return a.Aggregator.Boost() }

// SetBoost mutates the aggregator, then refreshes the TDP/boost gauges
// synchronously — metrics are never polled.
func (a *CardTDPAdapter) SetBoost(v float64) error {
	if err := a.Aggregator.SetBoost(v); err != nil {
		return err
	}
	metrics.UpdateCardTDP(a.CardName, a.Aggregator)
	return nil
}

func (a *CardTDPAdapter) MinTDP() (float64, error)                { return a.Aggregator.MinTDP() }
func (a *CardTDPAdapter) MaxTDP() (float64, error)                { return a.Aggregator.MaxTDP() }
func (a *CardTDPAdapter) MaxBoost() (float64, error)              { return a.Aggregator.MaxBoost() }
func (a *CardTDPAdapter) ThermalThrottleLimitC() (float64, error) { return a.Aggregator.ThermalThrottleLimitC() }
func (a *CardTDPAdapter) SetThermalThrottleLimitC(v float64) error {
	return a.Aggregator.SetThermalThrottleLimitC(v)
}
func (a *CardTDPAdapter) PowerProfile() (string, error)       { return a.Aggregator.PowerProfile() }
func (a *CardTDPAdapter) SetPowerProfile(profile string) error { return a.Aggregator.SetPowerProfile(profile) }
func (a *CardTDPAdapter) PowerProfilesAvailable() ([]string, error) {
	return a.Aggregator.PowerProfilesAvailable()
}

// ConnectorAdapter exposes a *gpu.Connector as the bus Connector interface.
type ConnectorAdapter struct {
	Connector *gpu.Connector
	CardName  string
}

func (a *ConnectorAdapter) Name() (string, error) { return a.Connector.Name, nil }
func (a *ConnectorAdapter) Path() (string, error)  { return a.Connector.SysfsPath, nil }
func (a *ConnectorAdapter) Id() (uint32, error)    { return a.Connector.Id() }
func (a *ConnectorAdapter) Enabled() (bool, error) { return a.Connector.Enabled() }
func (a *ConnectorAdapter) Modes() ([]string, error) { return a.Connector.Modes() }
func (a *ConnectorAdapter) Status() (string, error)  { return a.Connector.Status() }
func (a *ConnectorAdapter) DPMS() (bool, error)      { return a.Connector.DPMS() }

var (
	_ CPU       = (*CPUAdapter)(nil)
	_ Core      = (*CoreAdapter)(nil)
	_ GPU       = (*GPUAdapter)(nil)
	_ Card      = (*CardAdapter)(nil)
	_ CardTDP   = (*CardTDPAdapter)(nil)
	_ Connector = (*ConnectorAdapter)(nil)
)
