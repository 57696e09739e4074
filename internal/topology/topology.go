// Package topology discovers the CPU and GPU hardware on the host and
// republishes that discovery on hotplug events (spec §4.3): enumerating
// /sys/bus/cpu/devices for cores, /sys/class/drm for GPU cards and
// their connectors, and watching the DRM tree with fsnotify for changes.
package topology

import (
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/ShadowBlip/PowerStation/internal/cpu"
	"github.com/ShadowBlip/PowerStation/internal/cpuinfo"
	"github.com/ShadowBlip/PowerStation/internal/gpu"
	"github.com/ShadowBlip/PowerStation/internal/pciids"
	"github.com/ShadowBlip/PowerStation/pkg/errdefs"
	"github.com/ShadowBlip/PowerStation/pkg/log"
)

// Default filesystem roots, overridable in tests.
const (
	DefaultCPUDevicesRoot = "/sys/bus/cpu/devices"
	DefaultCPUSysRoot     = "/sys/devices/system/cpu"
	DefaultDRMRoot        = "/sys/class/drm"
)

var cardNameRe = regexp.MustCompile(`^card[0-9]+$`)

// Snapshot is a single point-in-time discovery result.
type Snapshot struct {
	CPU   *cpu.CPU
	Cards []*gpu.Card
	// Connectors maps a card's DRM basename (e.g. "card1") to its
	// discovered connectors.
	Connectors map[string][]*gpu.Connector
}

// Discoverer locates hardware under the configured sysfs roots.
type Discoverer struct {
	cpuDevicesRoot string
	cpuSysRoot     string
	drmRoot        string
	pciIDsPath     string
	readCPUInfo    cpuinfo.Reader
}

// Option configures a Discoverer.
type Option func(*Discoverer)

// WithCPUDevicesRoot overrides /sys/bus/cpu/devices.
func WithCPUDevicesRoot(root string) Option { return func(d *Discoverer) { d.cpuDevicesRoot = root } }

// WithCPUSysRoot overrides /sys/devices/system/cpu.
func WithCPUSysRoot(root string) Option { return func(d *Discoverer) { d.cpuSysRoot = root } }

// WithDRMRoot overrides /sys/class/drm.
func WithDRMRoot(root string) Option { return func(d *Discoverer) { d.drmRoot = root } }

// WithPCIIDsPath overrides the resolved pci.ids path.
func WithPCIIDsPath(path string) Option { return func(d *Discoverer) { d.pciIDsPath = path } }

// WithCPUInfoReader overrides the /proc/cpuinfo reader (for tests).
func WithCPUInfoReader(r cpuinfo.Reader) Option { return func(d *Discoverer) { d.readCPUInfo = r } }

// New builds a Discoverer with production defaults, resolving the
// pci.ids database via pciids.Find unless overridden.
func New(opts ...Option) (*Discoverer, error) {
	d := &Discoverer{
		cpuDevicesRoot: DefaultCPUDevicesRoot,
		cpuSysRoot:     DefaultCPUSysRoot,
		drmRoot:        DefaultDRMRoot,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.pciIDsPath == "" {
		path, err := pciids.Find()
		if err != nil {
			return nil, err
		}
		d.pciIDsPath = path
	}
	return d, nil
}

// Discover enumerates cores, cards and connectors and returns a fresh Snapshot.
func (d *Discoverer) Discover() (*Snapshot, error) {
	cores, err := d.discoverCores()
	if err != nil {
		return nil, err
	}

	cpuCtl, err := cpu.New(d.cpuSysRoot, cores, d.readCPUInfo)
	if err != nil {
		return nil, err
	}

	cards, connectors, err := d.discoverCards()
	if err != nil {
		return nil, err
	}

	return &Snapshot{CPU: cpuCtl, Cards: cards, Connectors: connectors}, nil
}

func (d *Discoverer) discoverCores() ([]*cpu.Core, error) {
	names, err := readDirNames(d.cpuDevicesRoot)
	if err != nil {
		return nil, err
	}

	var numbers []uint32
	for _, name := range names {
		if !strings.HasPrefix(name, "cpu") {
			continue
		}
		n, err := strconv.ParseUint(strings.TrimPrefix(name, "cpu"), 10, 32)
		if err != nil {
			continue
		}
		numbers = append(numbers, uint32(n))
	}
	sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })

	cores := make([]*cpu.Core, 0, len(numbers))
	for _, n := range numbers {
		core := cpu.NewCore(d.cpuDevicesRoot, n)
		// Best-effort: bring every discovered core online at startup.
		// Errors are intentionally ignored (spec §4.3) since a core
		// that refuses to online here is still a valid topology member.
		_ = core.SetOnline(true)
		cores = append(cores, core)
	}
	return cores, nil
}

func (d *Discoverer) discoverCards() ([]*gpu.Card, map[string][]*gpu.Connector, error) {
	names, err := readDirNames(d.drmRoot)
	if err != nil {
		return nil, nil, err
	}

	var cards []*gpu.Card
	connectors := map[string][]*gpu.Connector{}

	for _, name := range names {
		if !cardNameRe.MatchString(name) {
			continue
		}

		card, err := gpu.Discover(d.drmRoot, name, d.pciIDsPath)
		if err != nil {
			log.Logger.Warnw("skipping unsupported or unreadable GPU card", "card", name, "error", err)
			continue
		}
		cards = append(cards, card)
		connectors[name] = d.discoverConnectors(names, name)
	}

	return cards, connectors, nil
}

func (d *Discoverer) discoverConnectors(siblingNames []string, cardName string) []*gpu.Connector {
	prefix := cardName + "-"
	var conns []*gpu.Connector
	for _, name := range siblingNames {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		suffix := strings.TrimPrefix(name, prefix)
		conn := gpu.NewConnector(d.drmRoot, name)
		conn.Name = suffix
		conns = append(conns, conn)
	}
	return conns
}

func readDirNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errdefs.IOErrorf("listing %s: %v", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

// CardObjectName is the externally visible bus object name for a card:
// the DRM basename with only its first byte upper-cased (spec §6),
// e.g. "card0" -> "Card0".
func CardObjectName(drmName string) string {
	if drmName == "" {
		return drmName
	}
	return strings.ToUpper(drmName[:1]) + drmName[1:]
}

// ConnectorObjectName is the externally visible bus object name for a
// connector: dashes replaced with slashes to form a valid object path
// segment (spec §4.3), e.g. "HDMI-A-1" -> "HDMI/A/1".
func ConnectorObjectName(connectorSuffix string) string {
	return strings.ReplaceAll(connectorSuffix, "-", "/")
}

// Watcher watches the DRM sysfs root for hotplug changes
// (new/removed GPU cards, new/removed connectors) and invokes a
// callback with a fresh Snapshot whenever one is observed. This is an
// ambient addition beyond spec §4.3's discovery algorithm: real
// handheld/laptop hardware attaches and detaches external GPUs and
// displays at runtime, and a one-shot discovery at startup would miss
// that entirely.
type Watcher struct {
	fsw *fsnotify.Watcher
	d   *Discoverer
	stop chan struct{}
}

// Watch starts watching d's DRM root for hotplug events, invoking
// onSnapshot (from a single dedicated goroutine, never concurrently)
// after every create, remove or rename event, with no debouncing. Call
// Close to stop watching.
func (d *Discoverer) Watch(onSnapshot func(*Snapshot, error)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errdefs.FailedOperationf("creating hotplug watcher: %v", err)
	}
	if err := fsw.Add(d.drmRoot); err != nil {
		fsw.Close()
		return nil, errdefs.IOErrorf("watching %s: %v", d.drmRoot, err)
	}

	w := &Watcher{fsw: fsw, d: d, stop: make(chan struct{})}
	go w.run(onSnapshot)
	return w, nil
}

func (w *Watcher) run(onSnapshot func(*Snapshot, error)) {
	for {
		select {
		case <-w.stop:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			log.Logger.Infow("GPU topology change detected, re-running discovery", "path", event.Name, "op", event.Op.String())
			snap, err := w.d.Discover()
			onSnapshot(snap, err)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Logger.Warnw("hotplug watcher error", "error", err)
		}
	}
}

// Close stops the watcher and releases its inotify handle.
func (w *Watcher) Close() error {
	close(w.stop)
	return w.fsw.Close()
}
