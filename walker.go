package outbreaksim

// Walker performs one path's depth-first infection-tree generation
// (§4.C), translating branchsim.c's goto/pointer-arithmetic control
// flow into an explicit stack plus labelled loops. It never recurses
// natively: every descent is a frameStack.push, every return a pop.
type Walker struct {
	stack  *frameStack
	rng    *RNG
	pars   *ModelParameters
	stats  *PathStats
	tracer *Tracer // nil when contact tracing is disabled
}

// NewWalker builds a Walker over one substream's RNG and one path's
// accumulator; stack, rng, stats and tracer are each reused across
// paths by their own Reset/PathInit.
func NewWalker(pars *ModelParameters, rng *RNG, stats *PathStats, tracer *Tracer) *Walker {
	return &Walker{stack: newFrameStack(), rng: rng, pars: pars, stats: stats, tracer: tracer}
}

// RunPath generates one complete path: nstart independent primaries,
// each descending into its own infection subtree, sharing one
// frameStack and one PathStats accumulator (§4.C, §4.F "per-thread
// accumulators").
func (w *Walker) RunPath() {
	w.stack.reset()
	w.stats.PathInit()
	if w.tracer != nil {
		w.tracer.Reset()
	}

	for i := 0; i < w.pars.Nstart; i++ {
		w.runPrimary()
	}
}

// runPrimary processes one primary individual: sample its periods,
// draw its event count, and either record it as a dead end (no
// events) or search for its first accepted event and descend.
func (w *Walker) runPrimary() {
	frame := w.stack.push()
	if w.tracer != nil {
		w.tracer.Observe(frame.ID, frame.ParentID)
	}
	w.samplePeriods(frame, true)

	// The sentinel's event_time is 0. Under TimePriInfectious the
	// primary is created one latent period before t=0, so that its
	// infectious onset falls at t=0.
	parentEventTime := 0.0
	if w.pars.TimeType == TimePriInfectious {
		parentEventTime = -frame.Latent
	}
	frame.EndComm = parentEventTime + frame.Latent + frame.Comm
	frame.InfectiousAtTmax = parentEventTime+frame.Comm > w.pars.Tmax
	if frame.InfectiousAtTmax {
		frame.CommPer |= CommPerTmaxTruncated
	}
	frame.NEvents = w.rng.Poisson(w.pars.Lambda * frame.Comm)

	if frame.NEvents == 0 {
		w.stats.NoEventFrame(frame)
		w.stack.pop()
		return
	}

	w.stats.NewPriInf(frame)
	w.traceIfPositive(frame)
	frame.CurEvent = 0
	if w.tryEvents(frame, parentEventTime) {
		frame.CurInfection = 0
		w.walkSubtree()
	}
	w.stack.pop()
}

// walkSubtree implements branchsim.c's child-creation loop together
// with the "all events for the current individual have been
// exhausted" pop loop. It assumes the current top frame already has
// an accepted event (curinfection==0, ninfections>=1) and returns
// once that frame's entire subtree — including every later event and
// every sibling infection — is exhausted.
func (w *Walker) walkSubtree() {
createChild:
	for {
		parent := w.stack.top()
		child := w.stack.push()
		if w.tracer != nil {
			w.tracer.Observe(child.ID, child.ParentID)
		}
		w.samplePeriods(child, false)

		parentEventTime := parent.EventTime
		child.EndComm = parentEventTime + child.Latent + child.Comm
		child.InfectiousAtTmax = parentEventTime+child.Comm > w.pars.Tmax
		if child.InfectiousAtTmax {
			child.CommPer |= CommPerTmaxTruncated
		}
		child.NEvents = w.rng.Poisson(w.pars.Lambda * child.Comm)

		accepted := false
		if child.NEvents > 0 {
			child.CurEvent = 0
			w.stats.NewInf(child)
			w.traceIfPositive(child)
			accepted = w.tryEvents(child, parentEventTime)
		} else {
			w.stats.NoEventFrame(child)
		}

		if accepted {
			child.CurInfection = 0
			continue createChild
		}

		// The child's subtree is done. Pop looking for the next
		// sibling infection to spawn, or the next event of the frame
		// we land on; stop once we land back on the primary.
		for {
			if w.stack.depth == 1 {
				return
			}
			w.stack.pop()
			frame := w.stack.top()

			if frame.CurInfection == frame.NInfections-1 {
				if frame.CurEvent == frame.NEvents-1 {
					w.stats.EndFrame(frame)
					continue
				}
				frame.CurEvent++
				if !w.tryEvents(frame, w.stack.parent().EventTime) {
					continue
				}
				frame.CurInfection = 0
				continue createChild
			}

			frame.CurInfection++
			continue createChild
		}
	}
}

// tryEvents repeatedly draws (event_time, ninfections) for frame,
// starting from its current curevent, until the accumulator accepts
// one (returns true) or every remaining event has been tried without
// success, in which case it closes the frame out via EndFrame and
// returns false (§4.C step 3).
func (w *Walker) tryEvents(frame *InfectiousIndividual, parentEventTime float64) bool {
	for {
		frame.EventTime = parentEventTime + frame.Latent + frame.Comm*w.rng.Uniform()
		frame.NInfections = w.drawNInfections()

		if w.stats.NewEvent(frame, uint32(w.stack.depth)) {
			return true
		}
		if frame.CurEvent == frame.NEvents-1 {
			w.stats.EndFrame(frame)
			return false
		}
		frame.CurEvent++
	}
}

// drawNInfections draws a raw group size per grouptype and thins it
// by pinf to the number of contacts actually infected (§3 pinf; see
// DESIGN.md "Where pinf enters the R0 identity"). The index case
// itself is excluded from the pool of potential infectees.
func (w *Walker) drawNInfections() int {
	var group int
	if w.pars.GroupType == GroupLogAttendeesPlus1 {
		group = w.rng.Logarithmic(w.pars.P) + 1
	} else {
		group = w.rng.truncatedLogarithmic(w.pars.P)
	}
	return w.rng.Binomial(group-1, w.pars.Pinf)
}

// samplePeriods draws a frame's latent and communicable periods,
// selecting among main/alt/interrupted variants per q/pit/pim and,
// for primaries, rejection-sampling against pricommpertype until an
// allowed combination is drawn (§3, §6 pri_no_*_period options).
func (w *Walker) samplePeriods(frame *InfectiousIndividual, isPrimary bool) {
	frame.Latent = w.rng.GammaPeriod(w.pars.Latent)

	var t CommPerType
	for {
		t = w.drawPeriodType()
		if !isPrimary || w.allowedForPrimary(t) {
			break
		}
	}
	frame.CommPer = t
	frame.Comm = w.rng.GammaPeriod(w.periodParams(t))

	tprob := w.pars.Ttpr
	if t&CommPerAlt != 0 {
		tprob = w.pars.Mtpr
	}
	if tprob > 0 && w.rng.Uniform() <= tprob {
		frame.CommPer |= CommPerTruePositiveTest
	}
}

// drawPeriodType picks main-vs-alt (probability q) and then
// uninterrupted-vs-interrupted (probability pit or pim, matching the
// chosen branch).
func (w *Walker) drawPeriodType() CommPerType {
	t := CommPerMain
	interruptProb := w.pars.Pit
	if w.pars.Q > 0 && w.rng.Uniform() <= w.pars.Q {
		t = CommPerAlt
		interruptProb = w.pars.Pim
	}
	if interruptProb > 0 && w.rng.Uniform() <= interruptProb {
		t |= CommPerInterrupted
	}
	return t
}

// periodParams maps a period-type bitmask to the GammaParams it
// should be sampled from.
func (w *Walker) periodParams(t CommPerType) GammaParams {
	switch {
	case t&CommPerAlt != 0 && t&CommPerInterrupted != 0:
		return w.pars.AltInterrupted
	case t&CommPerAlt != 0:
		return w.pars.Alt
	case t&CommPerInterrupted != 0:
		return w.pars.Interrupted
	default:
		return w.pars.Main
	}
}

// traceIfPositive logs a contact-tracing entry when frame's period
// was flagged as a true-positive test (§4.E).
func (w *Walker) traceIfPositive(frame *InfectiousIndividual) {
	if w.tracer == nil || frame.CommPer&CommPerTruePositiveTest == 0 {
		return
	}
	postestTime := frame.EndComm + w.pars.Tdeltat
	presymTime := frame.EndComm - frame.Comm
	w.tracer.Record(frame.ID, frame.ParentID, postestTime, presymTime)
}

// allowedForPrimary reports whether t is permitted for a primary
// individual under pars.PriCommPerType.
func (w *Walker) allowedForPrimary(t CommPerType) bool {
	var need PriCommPerType
	switch {
	case t&CommPerAlt != 0 && t&CommPerInterrupted != 0:
		need = PriCommPerAltInterrupted
	case t&CommPerAlt != 0:
		need = PriCommPerAlt
	case t&CommPerInterrupted != 0:
		need = PriCommPerMainInterrupted
	default:
		need = PriCommPerMain
	}
	return w.pars.PriCommPerType&need != 0
}
