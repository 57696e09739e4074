// Package daemon assembles the discovered CPU/GPU topology into live
// controllers and runs the foreground process loop: hotplug-aware
// rebuilds, the bus-object adapter graph, metrics refreshed
// synchronously from every discovery event and mutating bus call, the
// loopback debug surface, and signal-driven shutdown. This plays the
// role of gpud's cmd/gpud/command.cmdRun, trimmed to this daemon's much
// smaller object graph (no sqlite state, no plugin manager, no
// control-plane client).
package daemon

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ShadowBlip/PowerStation/internal/busapi"
	"github.com/ShadowBlip/PowerStation/internal/config"
	"github.com/ShadowBlip/PowerStation/internal/cpuinfo"
	"github.com/ShadowBlip/PowerStation/internal/debugserver"
	"github.com/ShadowBlip/PowerStation/internal/gpu"
	"github.com/ShadowBlip/PowerStation/internal/gpu/amdclock"
	"github.com/ShadowBlip/PowerStation/internal/gpu/intelclock"
	"github.com/ShadowBlip/PowerStation/internal/hwprofile"
	"github.com/ShadowBlip/PowerStation/internal/metrics"
	"github.com/ShadowBlip/PowerStation/internal/pciids"
	"github.com/ShadowBlip/PowerStation/internal/tdp"
	"github.com/ShadowBlip/PowerStation/internal/tdp/acpi"
	"github.com/ShadowBlip/PowerStation/internal/tdp/asus"
	"github.com/ShadowBlip/PowerStation/internal/tdp/rapl"
	"github.com/ShadowBlip/PowerStation/internal/topology"
	"github.com/ShadowBlip/PowerStation/pkg/log"
)

// Version is reported in the /healthz response and at startup.
const Version = "0.1.0"

const dmiProductNamePath = "/sys/class/dmi/id/product_name"

// cardRuntime is the live controller set bound to one discovered GPU
// card: its clock controller (nil for a vendor with none wired) and
// its TDP aggregator.
type cardRuntime struct {
	card       *gpu.Card
	clock      gpu.ClockController
	aggregator *tdp.Aggregator
}

// state holds the last-discovered snapshot plus the controllers bound
// to it. Rebuilt wholesale on every initial discovery and hotplug
// event; readers take a consistent view under mu.
type state struct {
	mu       sync.RWMutex
	snapshot *topology.Snapshot
	cards    map[string]*cardRuntime // keyed by DRM basename, e.g. "card0"

	cpuAdapter *busapi.CPUAdapter
	gpuAdapter *busapi.GPUAdapter
}

func (s *state) snapshotView() *topology.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

func (s *state) cardRuntimes() []*cardRuntime {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*cardRuntime, 0, len(s.cards))
	for _, cr := range s.cards {
		out = append(out, cr)
	}
	return out
}

// tdpViews renders debugserver.TDPView for every known card, for the
// /debug/tdp handler.
func (s *state) tdpViews() []debugserver.TDPView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	views := make([]debugserver.TDPView, 0, len(s.cards))
	for name, cr := range s.cards {
		v := debugserver.TDPView{
			Card:     name,
			Backends: backendNames(cr.aggregator.Backends()),
		}
		if tdpW, err := cr.aggregator.TDP(); err == nil {
			v.TDP = tdpW
		} else {
			v.Error = err.Error()
		}
		if boost, err := cr.aggregator.Boost(); err == nil {
			v.Boost = boost
		}
		views = append(views, v)
	}
	return views
}

// apply rebuilds card controllers from a fresh snapshot and installs
// the result, replacing whatever was there before. Hotplugged cards
// get fresh controllers; cards that disappeared are simply dropped.
func (s *state) apply(snap *topology.Snapshot, profiles map[string]hwprofile.Profile, dmiProductName string) {
	cpuModelName := ""
	if snap.CPU != nil {
		if info, err := cpuinfo.Read(); err == nil {
			cpuModelName = info.ModelName
		}
	}
	profile, matchedOn := hwprofile.MatchHost(profiles, dmiProductName, cpuModelName)
	limits := &tdp.HardwareLimits{MinTDP: profile.MinTDP, MaxTDP: profile.MaxTDP, MaxBoost: profile.MaxBoost}

	cards := make(map[string]*cardRuntime, len(snap.Cards))
	for _, card := range snap.Cards {
		cards[card.Name] = buildCardRuntime(card, limits)
	}

	cpuAdapter := &busapi.CPUAdapter{CPU: snap.CPU}
	cardNames := make([]string, 0, len(snap.Cards))
	for _, card := range snap.Cards {
		cardNames = append(cardNames, card.Name)
	}
	gpuAdapter := &busapi.GPUAdapter{CardNames: cardNames}

	s.mu.Lock()
	s.snapshot = snap
	s.cards = cards
	s.cpuAdapter = cpuAdapter
	s.gpuAdapter = gpuAdapter
	s.mu.Unlock()

	// Populate the gauges once per (re)discovery so freshly bound
	// controllers start from a live reading instead of a stale zero.
	// This is triggered by a topology event, not a timer, so it does
	// not reintroduce the sysfs polling the shadow-value contract
	// forbids; every subsequent update comes synchronously from the
	// bus adapters' mutating setters.
	metrics.UpdateCPU(snap.CPU)
	for _, cr := range cards {
		metrics.UpdateCard(cr.card, cr.clock, cr.aggregator)
	}

	corePaths, _ := cpuAdapter.EnumerateCores()
	cardPaths, _ := gpuAdapter.EnumerateCards()
	log.Logger.Infow("topology applied",
		"hardware_profile_match", matchedOn,
		"cores", snap.CPU.CoresCount(),
		"core_objects", corePaths,
		"card_objects", cardPaths,
	)
}

// buildCardRuntime binds a clock controller and a TDP aggregator to
// card, selecting both by the card's normalized PCI vendor (spec
// §4.5–§4.11).
func buildCardRuntime(card *gpu.Card, limits *tdp.HardwareLimits) *cardRuntime {
	var clock gpu.ClockController
	switch card.PCIVendor {
	case pciids.VendorAMD:
		clock = gpu.NewAMDClockController(amdclock.New(filepath.Join(card.SysfsPath, "device")))
	case pciids.VendorIntel:
		clock = gpu.NewIntelClockController(intelclock.New(card.SysfsPath))
	}

	backends := tdp.BuildBackends(card.PCIVendor, tdp.AssembleOptions{
		DeviceID: card.DeviceID,
		// RyzenAdjLib stays nil: no native libryzenadj cgo binding is
		// linked into this build. A build-tagged file providing one
		// would set this through a package-level hook; until then AMD
		// cards fall back to the ASUS and ACPI backends below.
		RyzenAdjLib:     nil,
		AsusDaemon:      nil, // no org.asuslinux.Daemon session-bus client wired; WMI fallback only
		AsusWmiRoot:     asus.DefaultWmiRoot,
		AcpiProfilePath: acpi.DefaultPlatformProfilePath,
		AcpiChoicesPath: acpi.DefaultPlatformProfileChoicesPath,
		RaplZonePath:    rapl.DefaultZonePath,
	})

	return &cardRuntime{
		card:       card,
		clock:      clock,
		aggregator: tdp.New(backends, limits),
	}
}

// Run builds the full object graph from cfg and blocks until an
// interrupt or termination signal is received.
func Run(cfg config.Config) error {
	if err := log.Init(cfg.LogLevel, cfg.LogPretty, cfg.LogFilePath, cfg.LogFileMaxSizeMB); err != nil {
		return err
	}
	log.Logger.Infow("starting powerstationd", "version", Version)

	reg := prometheus.NewRegistry()
	if err := metrics.Register(reg); err != nil {
		return err
	}

	var discoverOpts []topology.Option
	if cfg.CPUDevicesRoot != "" {
		discoverOpts = append(discoverOpts, topology.WithCPUDevicesRoot(cfg.CPUDevicesRoot))
	}
	if cfg.CPUSysRoot != "" {
		discoverOpts = append(discoverOpts, topology.WithCPUSysRoot(cfg.CPUSysRoot))
	}
	if cfg.DRMRoot != "" {
		discoverOpts = append(discoverOpts, topology.WithDRMRoot(cfg.DRMRoot))
	}
	if cfg.PCIIDsPath != "" {
		discoverOpts = append(discoverOpts, topology.WithPCIIDsPath(cfg.PCIIDsPath))
	}

	discoverer, err := topology.New(discoverOpts...)
	if err != nil {
		return err
	}

	profiles, err := cfg.LoadHardwareProfiles()
	if err != nil {
		return err
	}
	dmiProductName := readDMIProductName()

	st := &state{}

	snap, err := discoverer.Discover()
	if err != nil {
		return err
	}
	st.apply(snap, profiles, dmiProductName)

	watcher, err := discoverer.Watch(func(snap *topology.Snapshot, err error) {
		if err != nil {
			log.Logger.Warnw("topology rediscovery failed", "error", err)
			return
		}
		st.apply(snap, profiles, dmiProductName)
	})
	if err != nil {
		return err
	}
	defer watcher.Close()

	var httpServer *http.Server
	if !cfg.DebugServerOff {
		router := debugserver.New(Version, reg, st.snapshotView, st.tdpViews)
		httpServer = &http.Server{Addr: cfg.DebugServerAddr, Handler: router}
		go func() {
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Logger.Errorw("debug server stopped unexpectedly", "error", err)
			}
		}()
		log.Logger.Infow("debug server listening", "addr", cfg.DebugServerAddr)
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	log.Logger.Infow("successfully booted")
	<-signals

	log.Logger.Infow("shutting down")
	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}
	return nil
}

// backendNames returns each backend's Name(), or nil for an empty list
// (strings.Split on an empty joined string would otherwise yield a
// single empty-string element).
func backendNames(backends []tdp.Backend) []string {
	if len(backends) == 0 {
		return nil
	}
	names := make([]string, len(backends))
	for i, b := range backends {
		names[i] = b.Name()
	}
	return names
}

// readDMIProductName reads the DMI product-name identification string
// (spec §4.12), returning "" if unreadable (e.g. not running on
// hardware exposing /sys/class/dmi).
func readDMIProductName() string {
	b, err := os.ReadFile(dmiProductNamePath)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}
