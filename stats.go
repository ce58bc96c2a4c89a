package outbreaksim

import "math"

// PathStats is the per-path summary-statistics accumulator (§3, §4.D):
// three maintained timelines (inf, newinf, newpostest, each covering
// TimelineShift negative bins followed by Npers bins), running sums, and
// the optional offspring-count histogram. Its buffers are owned once
// and reused across paths via PathInit (§3 "Ownership & lifecycle").
type PathStats struct {
	InfTimeline         []uint32
	NewInfTimeline      []uint32
	NewPostestTimeline  []uint32
	TimelineShift       int32 // number of negative bins currently allocated
	Npers               uint32
	TnPersA             uint32 // TimelineShift + Npers

	RSum       uint32
	CommPerSum float64
	NEventsSum uint32

	Extinction             bool
	ExtinctionTime         float64
	NimaxedOutMinTimeIndex int32

	Lmax  uint32
	Nimax uint32

	Tmax     float64
	Tdeltat  float64
	TimeType TimeType

	RecordNinfs bool
	NGenInfs    []uint64 // histogram of offspring counts, grown on demand
}

// NewPathStats allocates an accumulator with npers positive bins and
// no negative bins yet; negative bins are grown lazily by NewPriInf.
func NewPathStats(npers uint32, lmax, nimax uint32, tmax, tdeltat float64, timeType TimeType, recordNinfs bool) *PathStats {
	s := &PathStats{
		Npers:       npers,
		TnPersA:     npers,
		Lmax:        lmax,
		Nimax:       nimax,
		Tmax:        tmax,
		Tdeltat:     tdeltat,
		TimeType:    timeType,
		RecordNinfs: recordNinfs,
	}
	s.InfTimeline = make([]uint32, npers)
	s.NewInfTimeline = make([]uint32, npers)
	s.NewPostestTimeline = make([]uint32, npers)
	if recordNinfs {
		s.NGenInfs = make([]uint64, 16)
	}
	s.PathInit()
	return s
}

// PathInit clears per-path mutable state while keeping the allocated
// buffers (§4.D "At path end ... resets mutable state while keeping
// its buffers").
func (s *PathStats) PathInit() {
	for i := range s.InfTimeline {
		s.InfTimeline[i] = 0
	}
	for i := range s.NewInfTimeline {
		s.NewInfTimeline[i] = 0
	}
	for i := range s.NewPostestTimeline {
		s.NewPostestTimeline[i] = 0
	}
	s.RSum = 0
	s.CommPerSum = 0
	s.NEventsSum = 0
	s.Extinction = true
	s.ExtinctionTime = 0
	s.NimaxedOutMinTimeIndex = math.MaxInt32
}

// idx maps an integer bin (possibly negative) to a slice index.
func (s *PathStats) idx(bin int32) int {
	return int(bin + s.TimelineShift)
}

func bin(t float64) int32 { return int32(math.Floor(t)) }

// NewEvent adds frame.NInfections to newinf_timeline[floor(event_time)]
// iff event_time<=tmax and the frame's depth does not exceed lmax; if
// the pre-increment bin value already reached Nimax, extinction is
// cleared and false is returned without adding (§4.D "new_event").
// depth is the frame's 1-based DFS depth (primaries are depth 1).
func (s *PathStats) NewEvent(frame *InfectiousIndividual, depth uint32) bool {
	if frame.NInfections == 0 {
		return false
	}
	frame.offspring += uint32(frame.NInfections)
	if !(frame.EventTime <= s.Tmax && depth <= s.Lmax) {
		return false
	}
	eti := bin(frame.EventTime)
	i := s.idx(eti)
	if s.NewInfTimeline[i] < s.Nimax {
		s.NewInfTimeline[i] += uint32(frame.NInfections)
	} else {
		s.Extinction = false
		if eti < s.NimaxedOutMinTimeIndex {
			s.NimaxedOutMinTimeIndex = eti
		}
		return false
	}
	return frame.EventTime <= s.Tmax
}

// NewInf zeroes the frame's offspring counter and, if the frame is a
// true-positive test, records the reporting event in
// newpostest_timeline (§4.D "new_inf").
func (s *PathStats) NewInf(frame *InfectiousIndividual) {
	frame.offspring = 0
	if frame.CommPer&CommPerTruePositiveTest != 0 {
		trt := bin(frame.EndComm + s.Tdeltat)
		if trt < int32(s.Npers) {
			s.NewPostestTimeline[s.idx(trt)]++
		}
	}
}

// NewPriInf grows the timelines to cover a new negative prefix if the
// primary's earliest point precedes the current shift, then calls
// NewInf (§4.D "new_pri_inf").
func (s *PathStats) NewPriInf(frame *InfectiousIndividual) {
	if s.TimeType != TimePriCreated {
		newShift := int32(math.Ceil(-frame.EndComm + frame.Comm + frame.Latent))
		if newShift > s.TimelineShift {
			s.growNegative(newShift)
		}
	}
	s.NewInf(frame)
}

// growNegative reallocates all three timelines to extend newShift
// negative bins to the left, zero-filling the new prefix and copying
// existing content to its new offset (§4.D, §9 "origin-shifting
// timelines").
func (s *PathStats) growNegative(newShift int32) {
	newSize := uint32(newShift) + s.Npers
	grow := func(old []uint32) []uint32 {
		grown := make([]uint32, newSize)
		copy(grown[newShift-s.TimelineShift:], old)
		return grown
	}
	s.InfTimeline = grow(s.InfTimeline)
	s.NewInfTimeline = grow(s.NewInfTimeline)
	s.NewPostestTimeline = grow(s.NewPostestTimeline)
	s.TimelineShift = newShift
	s.TnPersA = newSize
}

// endCommon implements the shared body of end_inf/noevent_inf: adds
// comm_period to the running sum, updates extinction/extinction_time,
// and increments inf_timeline over every bin the frame was alive in
// (§4.D).
func (s *PathStats) endCommon(frame *InfectiousIndividual) {
	s.CommPerSum += frame.Comm

	if frame.CommPer&CommPerTmaxTruncated != 0 {
		s.Extinction = false
	} else if frame.EndComm > s.ExtinctionTime {
		s.ExtinctionTime = frame.EndComm
	}

	endCommPer := int32(s.Npers) - 1
	if frame.EndComm < float64(s.Npers) {
		endCommPer = bin(frame.EndComm)
	}
	i := bin(frame.EndComm - frame.Comm - frame.Latent)
	if -i > s.TimelineShift {
		i = 0
	}
	for ; i <= endCommPer; i++ {
		s.InfTimeline[s.idx(i)]++
	}
}

// EndInf processes a frame after its last transmission event: adds
// its offspring count to rsum in addition to endCommon (§4.D
// "end_inf").
func (s *PathStats) EndInf(frame *InfectiousIndividual) {
	s.RSum += frame.offspring
	s.endCommon(frame)
}

// NoEventInf processes a frame that generated zero transmission
// events; it contributes nothing to rsum (§4.D "noevent_inf").
func (s *PathStats) NoEventInf(frame *InfectiousIndividual) {
	s.endCommon(frame)
}

// EndInfRecNinfs is EndInf plus offspring-count histogram recording
// (§4.D "end_inf_rec_ninfs").
func (s *PathStats) EndInfRecNinfs(frame *InfectiousIndividual) {
	s.recordNinfs(frame.offspring)
	s.EndInf(frame)
}

// NoEventInfRecNinfs is NoEventInf plus histogram recording (§4.D
// "noevent_rec_ninfs").
func (s *PathStats) NoEventInfRecNinfs(frame *InfectiousIndividual) {
	s.recordNinfs(frame.offspring)
	s.NoEventInf(frame)
}

// EndFrame dispatches to EndInf or EndInfRecNinfs depending on whether
// the offspring histogram is enabled (§9 "function-pointer dispatch":
// reimplemented as a single branch on a flag set once at init, rather
// than per-frame virtual dispatch).
func (s *PathStats) EndFrame(frame *InfectiousIndividual) {
	if s.RecordNinfs {
		s.EndInfRecNinfs(frame)
	} else {
		s.EndInf(frame)
	}
}

// NoEventFrame dispatches to NoEventInf or NoEventInfRecNinfs, see
// EndFrame.
func (s *PathStats) NoEventFrame(frame *InfectiousIndividual) {
	if s.RecordNinfs {
		s.NoEventInfRecNinfs(frame)
	} else {
		s.NoEventInf(frame)
	}
}

func (s *PathStats) recordNinfs(count uint32) {
	if int(count) >= len(s.NGenInfs) {
		grown := make([]uint64, count+1)
		copy(grown, s.NGenInfs)
		s.NGenInfs = grown
	}
	s.NGenInfs[count]++
}
