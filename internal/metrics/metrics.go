// Package metrics provides Prometheus metrics for lights and gateways.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dokzlo13/irlightd/internal/light"
)

var (
	buttonPresses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "irlightd",
		Subsystem: "light",
		Name:      "button_presses_total",
		Help:      "Button presses sent to the gateway",
	}, []string{"light", "action"})

	unmappedActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "irlightd",
		Subsystem: "light",
		Name:      "unmapped_actions_total",
		Help:      "Requested actions skipped because no button is configured",
	}, []string{"light", "action"})

	stateChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "irlightd",
		Subsystem: "light",
		Name:      "state_changes_total",
		Help:      "Completed turn on / turn off calls",
	}, []string{"light"})

	lightOn = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "irlightd",
		Subsystem: "light",
		Name:      "on",
		Help:      "Believed power state (1 = on)",
	}, []string{"light"})

	lightBrightness = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "irlightd",
		Subsystem: "light",
		Name:      "brightness",
		Help:      "Believed brightness on the 0-255 scale",
	}, []string{"light"})

	gatewayDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "irlightd",
		Subsystem: "gateway",
		Name:      "dropped_total",
		Help:      "Presses dropped before delivery because the queue was full",
	}, []string{"gateway"})

	gatewayErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "irlightd",
		Subsystem: "gateway",
		Name:      "errors_total",
		Help:      "Presses the gateway failed to deliver",
	}, []string{"gateway"})
)

// RecordPress counts one button press.
func RecordPress(lightID, action string) {
	buttonPresses.WithLabelValues(lightID, action).Inc()
}

// RecordUnmapped counts one action skipped for lack of a button.
func RecordUnmapped(lightID, action string) {
	unmappedActions.WithLabelValues(lightID, action).Inc()
}

// RecordState updates the gauges for a light's believed state.
func RecordState(snap light.Snapshot) {
	stateChanges.WithLabelValues(snap.ID).Inc()
	on := 0.0
	if snap.State.On {
		on = 1
	}
	lightOn.WithLabelValues(snap.ID).Set(on)
	lightBrightness.WithLabelValues(snap.ID).Set(float64(snap.State.Brightness))
}

// RecordGatewayDropped counts a press dropped by a gateway.
func RecordGatewayDropped(gateway string) {
	gatewayDropped.WithLabelValues(gateway).Inc()
}

// RecordGatewayError counts a press a gateway failed to deliver.
func RecordGatewayError(gateway string) {
	gatewayErrors.WithLabelValues(gateway).Inc()
}
