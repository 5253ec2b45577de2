package bus

import "github.com/sweeney/greenhouse-bridge/internal/reset"

// MinStages is the shortest synchronizer chain allowed.
const MinStages = 2

// Synchronizer is a chain of registers clocked by the consumer. Every sampled
// word passes through all stages before it is trusted, so the output lags the
// input by exactly Stages() ticks. It knows nothing about field layout.
type Synchronizer struct {
	stages []Word
	watch  reset.Watch
}

// NewSynchronizer returns a synchronizer with n stages (at least MinStages),
// all cleared.
func NewSynchronizer(n int, rst *reset.Line) *Synchronizer {
	if n < MinStages {
		n = MinStages
	}
	return &Synchronizer{
		stages: make([]Word, n),
		watch:  rst.Watch(),
	}
}

// Clock shifts in a sample and returns the last stage. A pending reset clears
// every stage before the sample is latched, so latching resumes on the same
// tick the reset is observed.
func (s *Synchronizer) Clock(in Word) Word {
	if s.watch.Pending() {
		s.Reset()
	}
	last := len(s.stages) - 1
	copy(s.stages[1:], s.stages[:last])
	s.stages[0] = in & Mask
	return s.stages[last]
}

// Out returns the last stage without clocking.
func (s *Synchronizer) Out() Word {
	return s.stages[len(s.stages)-1]
}

// Stages returns the pipeline depth.
func (s *Synchronizer) Stages() int {
	return len(s.stages)
}

// Reset clears every stage to zero.
func (s *Synchronizer) Reset() {
	for i := range s.stages {
		s.stages[i] = 0
	}
}

// Stabilizer only accepts a value after it has been seen on a number of
// consecutive samples. Until then it keeps returning the previously accepted
// value. A stabilizer with need <= 1 passes every sample through.
type Stabilizer struct {
	need     int
	accepted Word
	pending  Word
	count    int
	watch    reset.Watch
}

// NewStabilizer returns a stabilizer requiring need consecutive equal samples.
func NewStabilizer(need int, rst *reset.Line) *Stabilizer {
	return &Stabilizer{need: need, watch: rst.Watch()}
}

// Clock feeds one sample and returns the accepted value.
func (s *Stabilizer) Clock(in Word) Word {
	if s.watch.Pending() {
		s.Reset()
	}
	if s.need <= 1 {
		s.accepted = in
		return in
	}
	if in == s.accepted {
		s.count = 0
		return s.accepted
	}
	if in != s.pending || s.count == 0 {
		s.pending = in
		s.count = 1
		return s.accepted
	}
	s.count++
	if s.count >= s.need {
		s.accepted = in
		s.count = 0
	}
	return s.accepted
}

// Reset clears the accepted and pending values.
func (s *Stabilizer) Reset() {
	s.accepted = 0
	s.pending = 0
	s.count = 0
}
