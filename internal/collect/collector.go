// Package collect drives the collection run: the deterministic
// drug × location loop with checkpoint skipping, rate pacing, circuit
// breaking, and the append-only output sink.
package collect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rxmeter/collector/internal/collect/breaker"
	"github.com/rxmeter/collector/internal/collect/metrics"
	"github.com/rxmeter/collector/internal/collect/pacer"
	"github.com/rxmeter/collector/internal/collect/status"
	"github.com/rxmeter/collector/internal/core/domain"
	"github.com/rxmeter/collector/internal/infra/careapi"
	"github.com/rxmeter/collector/internal/infra/storage"
)

// RunState is the orchestrator's lifecycle state.
type RunState string

const (
	StateInit      RunState = "init"
	StateRunning   RunState = "running"
	StateCompleted RunState = "completed"
	StateTripped   RunState = "tripped"
	StateAborted   RunState = "aborted"
)

// Executor performs one logical pricing call per work unit.
type Executor interface {
	FetchDetail(ctx context.Context, unit domain.WorkUnit) (*careapi.DetailResponse, error)
}

// RowSink receives output rows.
type RowSink interface {
	Append(rows []domain.OutputRow) error
	Rows() int
	Path() string
}

// Summary reports the outcome of a run.
type Summary struct {
	State       RunState
	Processed   int
	Failures    int
	Consecutive int
	Rows        int
	OutputFile  string
}

// Collector orchestrates one collection run over a fixed workload.
type Collector struct {
	exec       Executor
	pace       *pacer.Pacer
	brk        *breaker.Breaker
	checkpoint storage.CheckpointRepository
	sink       RowSink
	observer   Observer

	drugs     []domain.Drug
	locations []domain.Location

	mu    sync.RWMutex
	state RunState
	total int
	now   func() time.Time
}

// New creates a collector over already-loaded inputs.
func New(
	exec Executor,
	pace *pacer.Pacer,
	brk *breaker.Breaker,
	checkpoint storage.CheckpointRepository,
	sink RowSink,
	observer Observer,
	drugs []domain.Drug,
	locations []domain.Location,
) *Collector {
	if observer == nil {
		observer = NopObserver{}
	}
	return &Collector{
		exec:       exec,
		pace:       pace,
		brk:        brk,
		checkpoint: checkpoint,
		sink:       sink,
		observer:   observer,
		drugs:      drugs,
		locations:  locations,
		state:      StateInit,
		total:      len(drugs) * len(locations),
		now:        time.Now,
	}
}

// Run executes the collection loop until the workload is exhausted, the
// breaker trips, or the context is cancelled. The returned summary is
// valid in every case; err is non-nil only for unrecoverable I/O
// failures (the output sink or checkpoint refusing writes).
func (c *Collector) Run(ctx context.Context) (Summary, error) {
	c.setState(StateRunning)

	remaining := 0
	for _, d := range c.drugs {
		for _, l := range c.locations {
			if !c.checkpoint.Done((domain.WorkUnit{Drug: d, Location: l}).Key()) {
				remaining++
			}
		}
	}
	slog.Info("Starting collection",
		"drugs", len(c.drugs),
		"locations", len(c.locations),
		"total_units", c.total,
		"remaining", remaining,
		"estimated_runtime", (time.Duration(remaining) * c.pace.Interval()).Round(time.Second),
	)

	for _, drug := range c.drugs {
		for _, loc := range c.locations {
			unit := domain.WorkUnit{Drug: drug, Location: loc}
			key := unit.Key()

			// Already-done units are skipped with no side effects,
			// not even the pacer wait.
			if c.checkpoint.Done(key) {
				metrics.UnitsSkipped.Inc()
				continue
			}

			if c.brk.Tripped() {
				return c.finishTripped()
			}
			if ctx.Err() != nil {
				return c.finishAborted(ctx.Err())
			}

			c.observer.OnUnitStart(unit, c.checkpoint.TotalProcessed()+1, c.total)

			if err := c.pace.Wait(ctx); err != nil {
				return c.finishAborted(err)
			}

			start := c.now()
			resp, err := c.exec.FetchDetail(ctx, unit)
			metrics.RequestLatency.Observe(time.Since(start).Seconds())

			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					// The in-flight unit is abandoned unmarked; a
					// resume will pick it up again.
					return c.finishAborted(err)
				}

				c.brk.Record(false)
				metrics.UnitsProcessed.WithLabelValues(string(loc.Region), "failure").Inc()
				if err := c.checkpoint.MarkDone(key, true); err != nil {
					return c.summary(), fmt.Errorf("failed to persist checkpoint: %w", err)
				}
				c.observer.OnUnitResult(unit, 0, err)
			} else {
				c.brk.Record(true)
				rows := buildRows(resp, unit, c.now())
				if len(rows) > 0 {
					if err := c.sink.Append(rows); err != nil {
						return c.summary(), fmt.Errorf("failed to write output rows: %w", err)
					}
					metrics.RowsWritten.WithLabelValues(string(loc.Region)).Add(float64(len(rows)))
				}
				metrics.UnitsProcessed.WithLabelValues(string(loc.Region), "success").Inc()
				if err := c.checkpoint.MarkDone(key, false); err != nil {
					return c.summary(), fmt.Errorf("failed to persist checkpoint: %w", err)
				}
				c.observer.OnUnitResult(unit, len(rows), nil)
			}

			metrics.ConsecutiveFailures.Set(float64(c.brk.Consecutive()))
		}
	}

	if c.brk.Tripped() {
		return c.finishTripped()
	}

	c.setState(StateCompleted)
	s := c.summary()
	slog.Info("Collection completed",
		"processed", s.Processed,
		"failures", s.Failures,
		"rows", s.Rows,
		"output", s.OutputFile,
	)
	return s, nil
}

// Snapshot returns a point-in-time view for the status server.
func (c *Collector) Snapshot() status.Snapshot {
	c.mu.RLock()
	state := c.state
	c.mu.RUnlock()

	return status.Snapshot{
		State:       string(state),
		Processed:   c.checkpoint.TotalProcessed(),
		TotalUnits:  c.total,
		Failures:    len(c.checkpoint.FailedKeys()),
		Consecutive: c.brk.Consecutive(),
		Tripped:     c.brk.Tripped(),
		RowsWritten: c.sink.Rows(),
		OutputFile:  c.sink.Path(),
	}
}

func (c *Collector) setState(s RunState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Collector) finishTripped() (Summary, error) {
	c.setState(StateTripped)
	metrics.BreakerTripped.Set(1)

	failed := c.checkpoint.FailedKeys()
	recent := failed
	if n := c.brk.Threshold(); len(recent) > n {
		recent = recent[len(recent)-n:]
	}
	c.observer.OnTrip(c.brk.Consecutive(), recent)

	s := c.summary()
	slog.Error("Collection halted: too many consecutive API failures",
		"consecutive", s.Consecutive,
		"total_failures", s.Failures,
		"processed", s.Processed,
		"output", s.OutputFile,
	)
	return s, nil
}

func (c *Collector) finishAborted(cause error) (Summary, error) {
	c.setState(StateAborted)
	s := c.summary()
	slog.Info("Collection interrupted, progress saved",
		"cause", cause,
		"processed", s.Processed,
		"failures", s.Failures,
		"output", s.OutputFile,
	)
	return s, nil
}

func (c *Collector) summary() Summary {
	c.mu.RLock()
	state := c.state
	c.mu.RUnlock()

	return Summary{
		State:       state,
		Processed:   c.checkpoint.TotalProcessed(),
		Failures:    len(c.checkpoint.FailedKeys()),
		Consecutive: c.brk.Consecutive(),
		Rows:        c.sink.Rows(),
		OutputFile:  c.sink.Path(),
	}
}

// buildRows converts one API response into output rows, one per
// pharmacy. A response with no pharmacy list yields no rows.
func buildRows(resp *careapi.DetailResponse, unit domain.WorkUnit, ts time.Time) []domain.OutputRow {
	if resp == nil || len(resp.Pharmacies) == 0 {
		return nil
	}

	rows := make([]domain.OutputRow, 0, len(resp.Pharmacies))
	for _, ph := range resp.Pharmacies {
		rows = append(rows, domain.OutputRow{
			Timestamp: ts.Format(time.RFC3339),
			Region:    unit.Location.Region,
			Zip:       unit.Location.Zip,
			City:      unit.Location.City,
			Lat:       unit.Location.Lat,
			Lng:       unit.Location.Lng,

			ProcedureCode: unit.Drug.ProcedureCode,
			DrugName:      unit.Drug.Name,
			DosageForm:    unit.Drug.DosageForm,
			ClaimCount:    unit.Drug.ClaimCount,

			PharmacyName:     ph.Name,
			PharmacyPhone:    ph.Phone,
			PharmacyAddress:  ph.Address.String(),
			PharmacyDistance: ph.Distance,
			PharmacyRate:     ph.PharmacyRate,
			PriceFairness:    ph.PriceFairness,

			ProviderPrice:         ph.CareEstimateResult.ProviderPrice,
			EstimatedMemberResp:   ph.CareEstimateResult.EstimatedMemberResp,
			EarnedBenefit:         ph.CareEstimateResult.EarnedBenefit,
			AppliedToDeductible:   ph.CareEstimateResult.AppliedToDeductible,
			Savings:               ph.CareEstimateResult.Savings,
			BillOverBenefit:       ph.CareEstimateResult.BillOverBenefitAmount,
			FacilityBenefitAmount: resp.FacilityBenefitAmount,

			GSN: ph.GSN,
			NDC: ph.NDC,
			Qty: ph.Qty,
		})
	}
	return rows
}
