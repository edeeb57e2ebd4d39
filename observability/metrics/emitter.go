package metrics

import (
	"strconv"

	"optionfarm/core/events"
)

// Emitter adapts the farm metrics registry to the engine event stream so every
// wired engine feeds the same counters regardless of which surface invoked it.
type Emitter struct {
	metrics *FarmMetrics
	next    events.Emitter
}

// NewEmitter records metrics for each event and forwards it to next. A nil
// next drops events after recording.
func NewEmitter(next events.Emitter) *Emitter {
	if next == nil {
		next = events.NoopEmitter{}
	}
	return &Emitter{metrics: Farm(), next: next}
}

// Emit implements events.Emitter.
func (e *Emitter) Emit(event events.Event) {
	if e == nil || event == nil {
		return
	}
	switch evt := event.(type) {
	case events.FarmDeposit:
		e.metrics.RecordDeposit(strconv.FormatUint(evt.PoolID, 10))
	case events.FarmWithdraw:
		e.metrics.RecordWithdraw(strconv.FormatUint(evt.PoolID, 10))
	case events.OptionIssued:
		e.metrics.RecordClaimIssued()
	case events.OptionExercised:
		e.metrics.RecordClaimExercised()
	}
	e.next.Emit(event)
}
