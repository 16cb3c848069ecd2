package gfs

import "testing"

func TestProgressUnknownWithZeroResources(t *testing.T) {
	p := NewProgress(0)
	if _, known := p.Fraction(); known {
		t.Fatal("zero resources must report unknown progress")
	}
}

func TestProgressCheckpointsNonDecreasing(t *testing.T) {
	p := NewProgress(2)
	prev := -1.0
	check := func(label string) {
		got, known := p.Fraction()
		if !known {
			t.Fatalf("%s: progress unexpectedly unknown", label)
		}
		if got < prev {
			t.Fatalf("%s: progress went backward, %v -> %v", label, prev, got)
		}
		prev = got
	}

	for resource := 0; resource < 2; resource++ {
		p.setPhase(phaseStart)
		check("start")
		p.setPhase(phaseFetching)
		check("fetching")
		p.setPhase(phaseDecoding)
		check("decoding")
		p.setPhase(phaseReady)
		check("ready")
		for i := 0; i < 12; i++ { // past the ceiling on purpose
			p.stepBatch()
			check("batch")
		}
		p.completeResource()
		check("complete")
	}

	if got, _ := p.Fraction(); got != 100 {
		t.Errorf("final fraction = %v, want exactly 100", got)
	}
}

func TestProgressBatchStepsCapAtCeiling(t *testing.T) {
	p := NewProgress(1)
	p.setPhase(phaseReady)
	for i := 0; i < 100; i++ {
		p.stepBatch()
	}
	got, _ := p.Fraction()
	if got != float64(phaseCeiling) {
		t.Errorf("fraction = %v, want %v; increments alone must never reach 100", got, phaseCeiling)
	}
}

func TestProgressPerResourceShare(t *testing.T) {
	p := NewProgress(4)
	p.completeResource()
	if got, _ := p.Fraction(); got != 25 {
		t.Errorf("one of four resources done: fraction = %v, want 25", got)
	}
	p.setPhase(phaseReady)
	if got, _ := p.Fraction(); got != 25+12.5 {
		t.Errorf("fraction = %v, want 37.5", got)
	}
}
