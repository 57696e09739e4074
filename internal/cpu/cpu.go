// Package cpu implements the CPU controller: SMT-aware core
// online/offline management, boost and SMT toggles, and feature-flag
// queries (spec §4.4).
package cpu

import (
	"path/filepath"
	"sort"
	"sync"

	"github.com/ShadowBlip/PowerStation/internal/cpuinfo"
	"github.com/ShadowBlip/PowerStation/internal/sysfs"
	"github.com/ShadowBlip/PowerStation/pkg/errdefs"
	"github.com/ShadowBlip/PowerStation/pkg/log"
)

const (
	boostRelPath = "cpufreq/boost"
	smtRelPath   = "smt/control"
)

// CPU is the data-model CPU: a map from core_id to the SMT siblings
// sharing that physical core, guarded by a single mutex so that
// SetCoresEnabled is atomic with respect to CoresEnabled (spec §5).
type CPU struct {
	mu sync.Mutex

	cores     []*Core
	coreMap   map[uint32][]*Core
	coreIDs   []uint32 // ascending, stable iteration order over coreMap
	coreCount uint32

	sysRoot    string // directory housing smt/control and cpufreq/boost
	readInfo   cpuinfo.Reader
}

// New builds a CPU controller from already-discovered cores. sysRoot is
// the directory under which "smt/control" and "cpufreq/boost" are
// resolved — normally "/sys/devices/system/cpu".
// readInfo defaults to cpuinfo.Read when nil.
func New(sysRoot string, cores []*Core, readInfo cpuinfo.Reader) (*CPU, error) {
	if readInfo == nil {
		readInfo = cpuinfo.Read
	}

	c := &CPU{
		cores:     cores,
		coreCount: uint32(len(cores)),
		sysRoot:   sysRoot,
		readInfo:  readInfo,
	}

	if err := c.rebuildBuckets(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *CPU) rebuildBuckets() error {
	buckets := map[uint32][]*Core{}
	for _, core := range c.cores {
		id, err := core.CoreID()
		if err != nil {
			return err
		}
		buckets[id] = append(buckets[id], core)
	}

	ids := make([]uint32, 0, len(buckets))
	for id := range buckets {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	c.coreMap = buckets
	c.coreIDs = ids
	return nil
}

func (c *CPU) boostPath() string { return filepath.Join(c.sysRoot, boostRelPath) }
func (c *CPU) smtPath() string   { return filepath.Join(c.sysRoot, smtRelPath) }

// Features returns the whitespace-split "flags:" line of /proc/cpuinfo.
func (c *CPU) Features() ([]string, error) {
	info, err := c.readInfo()
	if err != nil {
		return nil, err
	}
	return info.Flags, nil
}

// HasFeature reports membership of flag among Features().
func (c *CPU) HasFeature(flag string) (bool, error) {
	flags, err := c.Features()
	if err != nil {
		return false, err
	}
	return cpuinfo.HasFlag(flags, flag), nil
}

// BoostEnabled reports whether core performance boost is enabled. Hosts
// without the "cpb" feature flag always report false.
func (c *CPU) BoostEnabled() (bool, error) {
	has, err := c.HasFeature("cpb")
	if err != nil {
		return false, err
	}
	if !has {
		return false, nil
	}
	s, err := sysfs.ReadString(c.boostPath())
	if err != nil {
		return false, err
	}
	return s == "1", nil
}

// SetBoostEnabled writes "1"/"0" to cpufreq/boost.
func (c *CPU) SetBoostEnabled(enabled bool) error {
	v := "0"
	if enabled {
		v = "1"
	}
	return sysfs.WriteString(c.boostPath(), v)
}

// SmtEnabled reports whether SMT is enabled. Hosts without the "ht"
// feature flag always report false.
func (c *CPU) SmtEnabled() (bool, error) {
	has, err := c.HasFeature("ht")
	if err != nil {
		return false, err
	}
	if !has {
		return false, nil
	}
	s, err := sysfs.ReadString(c.smtPath())
	if err != nil {
		return false, err
	}
	return s == "on" || s == "1", nil
}

// SetSmtEnabled writes "on"/"off" to smt/control.
func (c *CPU) SetSmtEnabled(enabled bool) error {
	v := "off"
	if enabled {
		v = "on"
	}
	return sysfs.WriteString(c.smtPath(), v)
}

// CoresCount is the total number of discovered cores.
func (c *CPU) CoresCount() uint32 {
	return c.coreCount
}

// CoresEnabled is the count of online cores across all SMT buckets.
func (c *CPU) CoresEnabled() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.coresEnabledLocked()
}

func (c *CPU) coresEnabledLocked() uint32 {
	var n uint32
	for _, core := range c.cores {
		if core.Online() {
			n++
		}
	}
	return n
}

// Cores returns the discovered cores in discovery order.
func (c *CPU) Cores() []*Core {
	return c.cores
}

// effectiveMax is core_count with SMT on, core_count/2 with SMT off.
func (c *CPU) effectiveMax() (uint32, error) {
	smt, err := c.SmtEnabled()
	if err != nil {
		return 0, err
	}
	if smt {
		return c.coreCount, nil
	}
	return c.coreCount / 2, nil
}

// SetCoresEnabled onlines/offlines cores so that exactly min(n,
// effectiveMax) end up online, per the deterministic algorithm in spec
// §4.4: buckets are visited in ascending core_id order, siblings in
// discovery order within a bucket, core 0 is always skipped (it is
// always online), and one thread per physical core is enabled before
// any bucket's second thread.
func (c *CPU) SetCoresEnabled(n uint32) error {
	if n < 1 {
		return errdefs.InvalidArgumentf("cores enabled must be >= 1, got %d", n)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if n > c.coreCount {
		log.Logger.Warnw("requested core count exceeds discovered cores; proceeding without clamping down", "requested", n, "coreCount", c.coreCount)
	}

	max, err := c.effectiveMax()
	if err != nil {
		return err
	}

	smt, err := c.SmtEnabled()
	if err != nil {
		return err
	}
	if !smt && n > max {
		log.Logger.Warnw("clamping requested core count because SMT is disabled", "requested", n, "clampedTo", max)
		n = max
	}

	enabled := uint32(1) // core 0 is always online and is never iterated below

	// First pass: bring up to one thread online per bucket, in
	// ascending core_id order, so low core_ids fill before any
	// bucket's second (SMT sibling) thread does.
	for pass := 0; pass < 2; pass++ {
		for _, id := range c.coreIDs {
			siblings := c.coreMap[id]
			if pass >= len(siblings) {
				continue
			}
			core := siblings[pass]
			if core.Number == 0 {
				continue
			}
			online := enabled < n
			if err := core.SetOnline(online); err != nil {
				return err
			}
			if online {
				enabled++
			}
		}
	}

	return nil
}
