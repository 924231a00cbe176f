package collect

import (
	"log/slog"

	"github.com/rxmeter/collector/internal/core/domain"
)

// Observer receives run events. It keeps reporting concerns out of the
// collection state machine so the loop is testable without I/O.
type Observer interface {
	OnUnitStart(unit domain.WorkUnit, position, total int)
	OnUnitResult(unit domain.WorkUnit, rows int, err error)
	OnTrip(consecutive int, recentFailures []string)
}

// NopObserver discards all events.
type NopObserver struct{}

func (NopObserver) OnUnitStart(domain.WorkUnit, int, int)    {}
func (NopObserver) OnUnitResult(domain.WorkUnit, int, error) {}
func (NopObserver) OnTrip(int, []string)                     {}

// LogObserver reports run events through slog.
type LogObserver struct{}

func (LogObserver) OnUnitStart(unit domain.WorkUnit, position, total int) {
	slog.Info("Processing unit",
		"position", position,
		"total", total,
		"drug", unit.Drug.Name,
		"zip", unit.Location.Zip,
		"city", unit.Location.City,
		"region", unit.Location.Region,
	)
}

func (LogObserver) OnUnitResult(unit domain.WorkUnit, rows int, err error) {
	if err != nil {
		slog.Error("Unit failed", "unit", unit.Key(), "error", err)
		return
	}
	if rows == 0 {
		slog.Warn("No pharmacy data returned", "unit", unit.Key())
		return
	}
	slog.Info("Saved pharmacy records", "unit", unit.Key(), "rows", rows)
}

func (LogObserver) OnTrip(consecutive int, recentFailures []string) {
	slog.Error("Circuit breaker tripped", "consecutive", consecutive)
	for i, key := range recentFailures {
		slog.Error("Recent failure", "n", i+1, "unit", key)
	}
	slog.Error("Check API status, network, or authentication before restarting")
}

// Observers fans events out to multiple observers.
type Observers []Observer

func (os Observers) OnUnitStart(unit domain.WorkUnit, position, total int) {
	for _, o := range os {
		o.OnUnitStart(unit, position, total)
	}
}

func (os Observers) OnUnitResult(unit domain.WorkUnit, rows int, err error) {
	for _, o := range os {
		o.OnUnitResult(unit, rows, err)
	}
}

func (os Observers) OnTrip(consecutive int, recentFailures []string) {
	for _, o := range os {
		o.OnTrip(consecutive, recentFailures)
	}
}
