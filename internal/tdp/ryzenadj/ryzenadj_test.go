package ryzenadj

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShadowBlip/PowerStation/pkg/errdefs"
)

type fakeLib struct {
	stapm, slow, fast, tctl uint32
	powerSavingCalls        int
	maxPerformanceCalls     int
	refreshErr              error
}

// Get* return Watts, Set* take milliwatts — matching the asymmetric
// units of the real RyzenAdj C API (and the reference Rust binding,
// which never rescales between the two).
func (f *fakeLib) Refresh() error                  { return f.refreshErr }
func (f *fakeLib) GetStapmLimit() (float32, error) { return float32(f.stapm) / 1000, nil }
func (f *fakeLib) SetStapmLimit(mw uint32) error   { f.stapm = mw; return nil }
func (f *fakeLib) GetSlowLimit() (float32, error)  { return float32(f.slow) / 1000, nil }
func (f *fakeLib) SetSlowLimit(mw uint32) error    { f.slow = mw; return nil }
func (f *fakeLib) GetFastLimit() (float32, error)  { return float32(f.fast) / 1000, nil }
func (f *fakeLib) SetFastLimit(mw uint32) error    { f.fast = mw; return nil }
func (f *fakeLib) GetTctlTemp() (float32, error)   { return float32(f.tctl), nil }
func (f *fakeLib) SetTctlTemp(c uint32) error       { f.tctl = c; return nil }
func (f *fakeLib) SetPowerSaving() error            { f.powerSavingCalls++; return nil }
func (f *fakeLib) SetMaxPerformance() error         { f.maxPerformanceCalls++; return nil }

func TestSetTDPPreservesBoost(t *testing.T) {
	lib := &fakeLib{stapm: 10000, slow: 13000, fast: 16000, tctl: 95}
	b := New("1900", lib)

	boost, err := b.Boost()
	require.NoError(t, err)
	assert.Equal(t, 3.0, boost)

	require.NoError(t, b.SetTDP(15))
	assert.EqualValues(t, 15000, lib.stapm)
	// boost preserved: slow/fast re-derived from new STAPM + old boost
	assert.EqualValues(t, 18000, lib.slow)
	assert.EqualValues(t, 22500, lib.fast)
}

func TestSetTDPRejectsBelowOne(t *testing.T) {
	b := New("1900", &fakeLib{})
	err := b.SetTDP(0.5)
	require.Error(t, err)
	assert.True(t, errdefs.IsInvalidArgument(err))
}

func TestSetBoostRejectsNegative(t *testing.T) {
	b := New("1900", &fakeLib{})
	err := b.SetBoost(-1)
	require.Error(t, err)
	assert.True(t, errdefs.IsInvalidArgument(err))
}

func TestUnsupportedGPUServesShadowReads(t *testing.T) {
	lib := &fakeLib{}
	b := New(DeviceVanGogh, lib)

	tdp, err := b.TDP()
	require.NoError(t, err)
	assert.Equal(t, 12.0, tdp)

	boost, err := b.Boost()
	require.NoError(t, err)
	assert.Equal(t, 3.0, boost) // 15 - 12

	thm, err := b.ThermalThrottleLimitC()
	require.NoError(t, err)
	assert.Equal(t, 95.0, thm)
}

func TestUnsupportedGPUWritesStillPropagateToLibrary(t *testing.T) {
	lib := &fakeLib{}
	b := New(DeviceSephiroth, lib)

	require.NoError(t, b.SetTDP(20))
	assert.EqualValues(t, 20000, lib.stapm)

	tdp, err := b.TDP()
	require.NoError(t, err)
	assert.Equal(t, 20.0, tdp)
}

// TestUnsupportedGPUSetTDPPreservesBoostInShadow guards against
// double-scaling the shadowed fast-PPT value: boost read back after a
// TDP change on a shadow-value device must equal the boost that was in
// effect beforehand, not an inflated value derived from the 1.25x
// fast-PPT scaling factor.
func TestUnsupportedGPUSetTDPPreservesBoostInShadow(t *testing.T) {
	lib := &fakeLib{}
	b := New(DeviceVanGogh, lib) // seedShadow: stapm=12, fast=15 -> boost=3

	boost, err := b.Boost()
	require.NoError(t, err)
	assert.Equal(t, 3.0, boost)

	require.NoError(t, b.SetTDP(8))
	assert.EqualValues(t, 8000, lib.stapm)
	assert.EqualValues(t, 11000, lib.slow)  // (8+3)*1000
	assert.EqualValues(t, 13750, lib.fast)  // (8+3)*1250

	boost, err = b.Boost()
	require.NoError(t, err)
	assert.Equal(t, 3.0, boost)
}

func TestPowerProfileRoundTrip(t *testing.T) {
	lib := &fakeLib{}
	b := New("1900", lib)

	profile, err := b.PowerProfile()
	require.NoError(t, err)
	assert.Equal(t, "power-saving", profile)

	require.NoError(t, b.SetPowerProfile("max-performance"))
	assert.Equal(t, 1, lib.maxPerformanceCalls)

	profile, err = b.PowerProfile()
	require.NoError(t, err)
	assert.Equal(t, "max-performance", profile)
}

func TestSetPowerProfileRejectsInvalid(t *testing.T) {
	b := New("1900", &fakeLib{})
	err := b.SetPowerProfile("turbo")
	require.Error(t, err)
	assert.True(t, errdefs.IsInvalidArgument(err))
}
