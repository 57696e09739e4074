package busapi

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShadowBlip/PowerStation/internal/cpu"
	"github.com/ShadowBlip/PowerStation/internal/cpuinfo"
	"github.com/ShadowBlip/PowerStation/internal/gpu"
	"github.com/ShadowBlip/PowerStation/internal/tdp"
)

// fakeClock is a minimal gpu.ClockController for exercising the
// metrics-on-mutation wiring without a real sysfs-backed controller.
type fakeClock struct {
	min, max float64
	manual   bool
}

func (f *fakeClock) ClockLimitMhzMin() (float64, error) { return 400, nil }
func (f *fakeClock) ClockLimitMhzMax() (float64, error) { return 3500, nil }
func (f *fakeClock) ClockValueMhzMin() (float64, error) { return f.min, nil }
func (f *fakeClock) SetClockValueMhzMin(v float64) error { f.min = v; return nil }
func (f *fakeClock) ClockValueMhzMax() (float64, error) { return f.max, nil }
func (f *fakeClock) SetClockValueMhzMax(v float64) error { f.max = v; return nil }
func (f *fakeClock) ManualClock() (bool, error)          { return f.manual, nil }
func (f *fakeClock) SetManualClock(v bool) error         { f.manual = v; return nil }

// fakeTDPBackend is a minimal tdp.Backend for exercising the
// metrics-on-mutation wiring on CardTDPAdapter.
type fakeTDPBackend struct {
	tdp, boost float64
}

func (f *fakeTDPBackend) Name() string                          { return "fake" }
func (f *fakeTDPBackend) TDP() (float64, error)                  { return f.tdp, nil }
func (f *fakeTDPBackend) SetTDP(v float64) error                 { f.tdp = v; return nil }
func (f *fakeTDPBackend) Boost() (float64, error)                { return f.boost, nil }
func (f *fakeTDPBackend) SetBoost(v float64) error               { f.boost = v; return nil }
func (f *fakeTDPBackend) ThermalThrottleLimitC() (float64, error) { return 95, nil }
func (f *fakeTDPBackend) SetThermalThrottleLimitC(v float64) error { return nil }
func (f *fakeTDPBackend) PowerProfile() (string, error)           { return "power-saving", nil }
func (f *fakeTDPBackend) SetPowerProfile(profile string) error    { return nil }
func (f *fakeTDPBackend) PowerProfilesAvailable() ([]string, error) {
	return []string{"power-saving"}, nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestCPUAdapterEnumerateCoresAndPassthrough(t *testing.T) {
	root := t.TempDir()
	devicesRoot := filepath.Join(root, "bus", "cpu", "devices")

	var cores []*cpu.Core
	for i := 0; i < 2; i++ {
		c := cpu.NewCore(devicesRoot, uint32(i))
		writeFile(t, filepath.Join(c.SysfsPath, "topology", "core_id"), "0")
		if i != 0 {
			writeFile(t, filepath.Join(c.SysfsPath, "online"), "1")
		}
		cores = append(cores, c)
	}

	sysRoot := filepath.Join(root, "devices", "system", "cpu")
	writeFile(t, filepath.Join(sysRoot, "smt", "control"), "on")
	writeFile(t, filepath.Join(sysRoot, "cpufreq", "boost"), "1")

	reader := func() (cpuinfo.Info, error) {
		return cpuinfo.Info{ModelName: "test", Flags: []string{"cpb", "ht"}}, nil
	}

	c, err := cpu.New(sysRoot, cores, reader)
	require.NoError(t, err)

	adapter := &CPUAdapter{CPU: c}

	count, err := adapter.CoresCount()
	require.NoError(t, err)
	assert.Equal(t, uint32(2), count)

	paths, err := adapter.EnumerateCores()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/org/shadowblip/Performance/CPU/Core0",
		"/org/shadowblip/Performance/CPU/Core1",
	}, paths)

	boost, err := adapter.BoostEnabled()
	require.NoError(t, err)
	assert.True(t, boost)
}

func TestCardAdapterEnumerateConnectorsAndUnsupportedClock(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "card0-eDP-1", "status"), "connected")

	card := &gpu.Card{Name: "card0"}
	conn := gpu.NewConnector(root, "card0-eDP-1")
	conn.Name = "eDP-1"

	adapter := &CardAdapter{Card: card, Connectors: []*gpu.Connector{conn}}

	paths, err := adapter.EnumerateConnectors()
	require.NoError(t, err)
	assert.Equal(t, []string{"/org/shadowblip/Performance/GPU/Card0/eDP/1"}, paths)

	_, err = adapter.ClockLimitMhzMin()
	require.Error(t, err)
}

func TestGPUAdapterEnumerateCards(t *testing.T) {
	adapter := &GPUAdapter{CardNames: []string{"card0", "card1"}}
	paths, err := adapter.EnumerateCards()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/org/shadowblip/Performance/GPU/Card0",
		"/org/shadowblip/Performance/GPU/Card1",
	}, paths)
}

// TestCPUAdapterSetCoresEnabledRefreshesMetrics guards the synchronous
// metrics-update wiring: the mutating setter must still succeed (and
// not panic on the new metrics dependency) after refreshing the CPU
// gauges.
func TestCPUAdapterSetCoresEnabledRefreshesMetrics(t *testing.T) {
	root := t.TempDir()
	devicesRoot := filepath.Join(root, "bus", "cpu", "devices")

	var cores []*cpu.Core
	for i := 0; i < 2; i++ {
		c := cpu.NewCore(devicesRoot, uint32(i))
		writeFile(t, filepath.Join(c.SysfsPath, "topology", "core_id"), "0")
		writeFile(t, filepath.Join(c.SysfsPath, "online"), "1")
		cores = append(cores, c)
	}

	sysRoot := filepath.Join(root, "devices", "system", "cpu")
	writeFile(t, filepath.Join(sysRoot, "smt", "control"), "on")
	writeFile(t, filepath.Join(sysRoot, "cpufreq", "boost"), "1")

	reader := func() (cpuinfo.Info, error) { return cpuinfo.Info{}, nil }
	c, err := cpu.New(sysRoot, cores, reader)
	require.NoError(t, err)

	adapter := &CPUAdapter{CPU: c}
	require.NoError(t, adapter.SetCoresEnabled(1))

	enabled, err := adapter.CoresEnabled()
	require.NoError(t, err)
	assert.Equal(t, uint32(1), enabled)
}

// TestCardAdapterClockSettersRefreshMetrics guards the same wiring for
// the GPU clock setters.
func TestCardAdapterClockSettersRefreshMetrics(t *testing.T) {
	clock := &fakeClock{}
	adapter := &CardAdapter{Card: &gpu.Card{Name: "card0"}, Clock: clock}

	require.NoError(t, adapter.SetClockValueMhzMin(800))
	require.NoError(t, adapter.SetClockValueMhzMax(2800))
	require.NoError(t, adapter.SetManualClock(true))

	v, err := adapter.ClockValueMhzMin()
	require.NoError(t, err)
	assert.Equal(t, 800.0, v)
}

// TestCardTDPAdapterSettersRefreshMetrics guards the same wiring for
// the TDP aggregator setters.
func TestCardTDPAdapterSettersRefreshMetrics(t *testing.T) {
	backend := &fakeTDPBackend{}
	agg := tdp.New([]tdp.Backend{backend}, nil)
	adapter := &CardTDPAdapter{Aggregator: agg, CardName: "card0"}

	require.NoError(t, adapter.SetTDP(15))
	require.NoError(t, adapter.SetBoost(5))

	v, err := adapter.TDP()
	require.NoError(t, err)
	assert.Equal(t, 15.0, v)
}

func TestConnectorAdapterPassthrough(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "card0-HDMI-A-1", "status"), "disconnected")

	conn := gpu.NewConnector(root, "card0-HDMI-A-1")
	conn.Name = "HDMI-A-1"
	adapter := &ConnectorAdapter{Connector: conn, CardName: "card0"}

	status, err := adapter.Status()
	require.NoError(t, err)
	assert.Equal(t, "disconnected", status)
}
