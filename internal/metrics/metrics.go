// Package metrics exposes this daemon's current CPU/GPU/TDP state as
// Prometheus gauges, following the plain GaugeVec-plus-Register
// pattern gpud's components use for instant-state (non-historical)
// metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ShadowBlip/PowerStation/internal/cpu"
	"github.com/ShadowBlip/PowerStation/internal/gpu"
	"github.com/ShadowBlip/PowerStation/internal/tdp"
	"github.com/ShadowBlip/PowerStation/pkg/log"
)

const subsystemCPU = "cpu"
const subsystemGPU = "gpu"

var (
	cpuCoresEnabled = prometheus.NewGauge(prometheus.GaugeOpts{
		Subsystem: subsystemCPU,
		Name:      "cores_enabled",
		Help:      "number of currently online CPU cores",
	})
	cpuCoresCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Subsystem: subsystemCPU,
		Name:      "cores_count",
		Help:      "total number of discovered CPU cores",
	})
	cpuBoostEnabled = prometheus.NewGauge(prometheus.GaugeOpts{
		Subsystem: subsystemCPU,
		Name:      "boost_enabled",
		Help:      "1 if CPU performance boost is enabled, else 0",
	})
	cpuSmtEnabled = prometheus.NewGauge(prometheus.GaugeOpts{
		Subsystem: subsystemCPU,
		Name:      "smt_enabled",
		Help:      "1 if SMT is enabled, else 0",
	})

	gpuTDPWatts = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Subsystem: subsystemGPU,
		Name:      "tdp_watts",
		Help:      "current sustained TDP limit in watts",
	}, []string{"card"})
	gpuBoostWatts = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Subsystem: subsystemGPU,
		Name:      "boost_watts",
		Help:      "current TDP boost headroom in watts",
	}, []string{"card"})
	gpuClockValueMhzMin = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Subsystem: subsystemGPU,
		Name:      "clock_value_mhz_min",
		Help:      "current minimum GPU clock in MHz",
	}, []string{"card"})
	gpuClockValueMhzMax = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Subsystem: subsystemGPU,
		Name:      "clock_value_mhz_max",
		Help:      "current maximum GPU clock in MHz",
	}, []string{"card"})
)

// Register adds every gauge to reg. Safe to call once at startup.
func Register(reg *prometheus.Registry) error {
	collectors := []prometheus.Collector{
		cpuCoresEnabled, cpuCoresCount, cpuBoostEnabled, cpuSmtEnabled,
		gpuTDPWatts, gpuBoostWatts, gpuClockValueMhzMin, gpuClockValueMhzMax,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// UpdateCPU refreshes the CPU gauges from the live controller. Read
// failures are logged and leave the corresponding gauge at its last
// value rather than aborting the whole refresh.
func UpdateCPU(c *cpu.CPU) {
	cpuCoresCount.Set(float64(c.CoresCount()))
	cpuCoresEnabled.Set(float64(c.CoresEnabled()))

	if boost, err := c.BoostEnabled(); err == nil {
		cpuBoostEnabled.Set(boolToFloat(boost))
	} else {
		log.Logger.Warnw("metrics: failed to read boost state", "error", err)
	}

	if smt, err := c.SmtEnabled(); err == nil {
		cpuSmtEnabled.Set(boolToFloat(smt))
	} else {
		log.Logger.Warnw("metrics: failed to read smt state", "error", err)
	}
}

// UpdateCard refreshes every per-card GPU gauge. It is called once per
// card whenever the topology is (re)discovered, so freshly bound
// controllers start with a populated gauge rather than a stale zero.
// Subsequent updates happen field-by-field, synchronously, from the
// bus adapters' mutating setters via UpdateCardTDP/UpdateCardClock —
// see those functions' comments for why this is never polled.
func UpdateCard(card *gpu.Card, clock gpu.ClockController, aggregator *tdp.Aggregator) {
	UpdateCardTDP(card.Name, aggregator)
	UpdateCardClock(card.Name, clock)
}

// UpdateCardTDP refreshes the TDP/boost gauges for cardName. aggregator
// may be nil if the card has no TDP backend. Called synchronously at
// the end of every successful Aggregator.SetTDP/SetBoost, never on a
// timer: polling sysfs on a RyzenAdj shadow-value device would corrupt
// the last-written values those devices can't be read back from.
func UpdateCardTDP(cardName string, aggregator *tdp.Aggregator) {
	if aggregator == nil {
		return
	}
	if v, err := aggregator.TDP(); err == nil {
		gpuTDPWatts.WithLabelValues(cardName).Set(v)
	} else {
		log.Logger.Warnw("metrics: failed to read tdp", "card", cardName, "error", err)
	}
	if v, err := aggregator.Boost(); err == nil {
		gpuBoostWatts.WithLabelValues(cardName).Set(v)
	} else {
		log.Logger.Warnw("metrics: failed to read boost", "card", cardName, "error", err)
	}
}

// UpdateCardClock refreshes the clock gauges for cardName. clock may be
// nil for a vendor with no clock controller wired. Called synchronously
// at the end of every successful clock-controller setter, never polled.
func UpdateCardClock(cardName string, clock gpu.ClockController) {
	if clock == nil {
		return
	}
	if v, err := clock.ClockValueMhzMin(); err == nil {
		gpuClockValueMhzMin.WithLabelValues(cardName).Set(v)
	} else {
		log.Logger.Warnw("metrics: failed to read min clock", "card", cardName, "error", err)
	}
	if v, err := clock.ClockValueMhzMax(); err == nil {
		gpuClockValueMhzMax.WithLabelValues(cardName).Set(v)
	} else {
		log.Logger.Warnw("metrics: failed to read max clock", "card", cardName, "error", err)
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
