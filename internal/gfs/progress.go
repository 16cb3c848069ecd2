package gfs

import "sync/atomic"

// Progress phase checkpoints within one resource. Batch reads nudge the
// phase toward phaseCeiling; only resource completion sets 100.
const (
	phaseStart     = 0
	phaseFetching  = 10
	phaseDecoding  = 40
	phaseReady     = 50
	phaseBatchStep = 5
	phaseCeiling   = 95
	phaseDone      = 100
)

// Progress tracks scan advancement with independently atomic counters.
// The scan goroutine writes, any observer reads, no locking. A reader may
// catch completed bumped before the phase resets for the next resource,
// which shows as a momentary backward blip of at most one resource's
// share; callers rendering a bar should clamp rather than expect strict
// monotonicity across that instant.
type Progress struct {
	total     atomic.Int64
	completed atomic.Int64
	phase     atomic.Int64
}

func NewProgress(totalResources int) *Progress {
	p := &Progress{}
	p.total.Store(int64(totalResources))
	return p
}

func (p *Progress) setPhase(v int64) { p.phase.Store(v) }

// stepBatch advances the phase one notch toward the ceiling.
func (p *Progress) stepBatch() {
	cur := p.phase.Load()
	if cur < phaseCeiling {
		next := cur + phaseBatchStep
		if next > phaseCeiling {
			next = phaseCeiling
		}
		p.phase.Store(next)
	}
}

// completeResource marks the current resource fully done and resets the
// phase for the next one.
func (p *Progress) completeResource() {
	p.phase.Store(phaseDone)
	p.completed.Add(1)
	p.phase.Store(phaseStart)
}

// Fraction reports overall progress in [0,100]. known is false when the
// resource count was zero, meaning progress cannot be estimated.
func (p *Progress) Fraction() (fraction float64, known bool) {
	total := p.total.Load()
	if total <= 0 {
		return 0, false
	}
	perResource := 100.0 / float64(total)
	base := float64(p.completed.Load()) * perResource
	return base + float64(p.phase.Load())/100.0*perResource, true
}
