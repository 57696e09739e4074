// Package debugserver runs a loopback-only HTTP surface for health and
// diagnostic inspection: /healthz, /metrics, /debug/topology,
// /debug/tdp. It deliberately has no authentication or TLS — it is
// meant to bind 127.0.0.1 only, mirroring gpud's pkg/server gin
// wiring but trimmed to this daemon's much smaller debug surface
// (no REST control plane; control happens over the bus, see
// internal/busapi).
package debugserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ShadowBlip/PowerStation/internal/topology"
)

// Healthz is the /healthz response body.
type Healthz struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// TopologyView is the /debug/topology response body: a flattened,
// read-only summary of the last discovered Snapshot.
type TopologyView struct {
	CoresCount   uint32       `json:"cores_count"`
	CoresEnabled uint32       `json:"cores_enabled"`
	Cards        []CardView   `json:"cards"`
}

// CardView summarizes one discovered GPU card for /debug/topology.
type CardView struct {
	Name           string   `json:"name"`
	Vendor         string   `json:"vendor"`
	Device         string   `json:"device"`
	Class          string   `json:"class"`
	ConnectorNames []string `json:"connector_names"`
}

// TDPView is a single card's entry in the /debug/tdp response body.
type TDPView struct {
	Card     string   `json:"card"`
	Backends []string `json:"backends"`
	TDP      float64  `json:"tdp,omitempty"`
	Boost    float64  `json:"boost,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// SnapshotProvider supplies the live state the debug handlers render.
// daemon.Run wires a closure reading from the live Discoverer/Watcher state.
type SnapshotProvider func() *topology.Snapshot

// TDPProvider supplies the current per-card TDP summary.
type TDPProvider func() []TDPView

// New builds the gin engine serving the debug surface. version is
// reported verbatim in /healthz.
func New(version string, reg *prometheus.Registry, snapshot SnapshotProvider, tdpView TDPProvider) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", createHealthzHandler(version))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	router.GET("/debug/topology", createTopologyHandler(snapshot))
	router.GET("/debug/tdp", createTDPHandler(tdpView))

	return router
}

func createHealthzHandler(version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, Healthz{Status: "ok", Version: version})
	}
}

func createTopologyHandler(snapshot SnapshotProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := snapshot()
		if snap == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "topology not yet discovered"})
			return
		}

		view := TopologyView{
			CoresCount:   snap.CPU.CoresCount(),
			CoresEnabled: snap.CPU.CoresEnabled(),
		}
		for _, card := range snap.Cards {
			var connNames []string
			for _, conn := range snap.Connectors[card.Name] {
				connNames = append(connNames, conn.Name)
			}
			view.Cards = append(view.Cards, CardView{
				Name:           card.Name,
				Vendor:         card.Vendor,
				Device:         card.Device,
				Class:          card.Class,
				ConnectorNames: connNames,
			})
		}
		c.JSON(http.StatusOK, view)
	}
}

func createTDPHandler(tdpView TDPProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, tdpView())
	}
}
