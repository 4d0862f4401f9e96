// Package pipeline implements the Search Pipeline's buffer-ring
// send/retrieve contract, grounded on
// search_pipeline/search_stage_decode_candidates.c: searches are batched
// into a fixed ring of buffers, every non-empty buffer is dispatched to a
// Device when retrieval begins, and searches are then retrieved back in
// send order.
package pipeline

import (
	"github.com/grailbio/gemsearch/archivesearch"
	"github.com/grailbio/gemsearch/circular"
)

// Device is what a Stage dispatches a full buffer to. A real
// implementation would hand the buffer's encoded work to a GPU kernel;
// InlineDevice below does the same work synchronously on the CPU.
type Device interface {
	// Decode resolves filtering-candidate SA intervals to text positions
	// for every search in buf.
	Decode(buf []*archivesearch.Search)
	// Verify computes edit-distance alignments for every search in buf.
	Verify(buf []*archivesearch.Search)
}

// stageMode mirrors search_group_buffer_phase_{sending,retrieving}.
type stageMode int

const (
	modeSending stageMode = iota
	modeRetrieving
)

// buffer is one slot of the ring: a batch of searches queued for a
// Device call.
type buffer struct {
	searches []*archivesearch.Search
	sent     bool
}

// Stage is a GPU-staged pipeline phase: Decode-Candidates or
// Verify-Candidates. Searches are buffered across a ring whose size is the
// smallest power of two >= numBuffers; the retrieve iterator walks the
// ring once, front to back, without wrapping.
type Stage struct {
	device  Device
	kind    stageKind
	buffers []buffer
	mode    stageMode

	sendIdx     int
	retrieveIdx int
	searchIdx   int
}

type stageKind int

const (
	KindDecode stageKind = iota
	KindVerify
)

// capacityPerBuffer bounds how many searches one buffer batches before
// the stage rolls over to the next buffer in the ring, mirroring
// search_stage_decode_candidates_buffer_fits's occupancy check.
const capacityPerBuffer = 64

// NewStage builds a Stage with a ring of the smallest power of two >=
// numBuffers buffers (grown with circular.NextExp2), dispatching to device.
func NewStage(kind stageKind, numBuffers int, device Device) *Stage {
	size := 1
	for size < numBuffers {
		size = circular.NextExp2(size)
	}
	return &Stage{
		device:  device,
		kind:    kind,
		buffers: make([]buffer, size),
		mode:    modeSending,
	}
}

// Send enqueues s into the current buffer, rolling over to the next ring
// slot when the current one is full. It returns false if the entire ring
// is saturated and the caller must Retrieve before sending more, matching
// search_stage_decode_candidates_send_se_search's false return.
func (s *Stage) Send(search *archivesearch.Search) bool {
	if s.mode != modeSending {
		s.clear()
	}
	for len(s.buffers[s.sendIdx].searches) >= capacityPerBuffer {
		if s.sendIdx == len(s.buffers)-1 {
			return false
		}
		s.sendIdx++
	}
	buf := &s.buffers[s.sendIdx]
	buf.searches = append(buf.searches, search)
	return true
}

// clear resets the ring for a new round of sending.
func (s *Stage) clear() {
	for i := range s.buffers {
		s.buffers[i] = buffer{}
	}
	s.sendIdx = 0
	s.retrieveIdx = 0
	s.searchIdx = 0
	s.mode = modeSending
}

// RetrieveBegin dispatches every non-empty buffer to the Device in order
// and switches the stage into retrieval mode, mirroring
// search_stage_decode_candidates_retrieve_begin.
func (s *Stage) RetrieveBegin() {
	s.mode = modeRetrieving
	for i := range s.buffers {
		s.dispatch(i)
	}
	s.retrieveIdx = 0
	s.searchIdx = 0
}

func (s *Stage) dispatch(i int) {
	buf := &s.buffers[i]
	if buf.sent || len(buf.searches) == 0 {
		return
	}
	switch s.kind {
	case KindDecode:
		s.device.Decode(buf.searches)
	case KindVerify:
		s.device.Verify(buf.searches)
	}
	buf.sent = true
}

// RetrieveFinished reports whether every buffered search has been
// returned via RetrieveNext.
func (s *Stage) RetrieveFinished() bool {
	if s.mode == modeSending {
		for i := range s.buffers {
			if len(s.buffers[i].searches) > 0 {
				return false
			}
		}
		return true
	}
	return s.retrieveIdx == len(s.buffers)
}

// RetrieveNext returns the next search in send order, advancing past
// exhausted or empty buffers, mirroring
// search_stage_decode_candidates_retrieve_next.
func (s *Stage) RetrieveNext() (*archivesearch.Search, bool) {
	if s.mode == modeSending {
		s.RetrieveBegin()
	}
	for s.retrieveIdx < len(s.buffers) {
		buf := &s.buffers[s.retrieveIdx]
		if s.searchIdx >= len(buf.searches) {
			s.retrieveIdx++
			s.searchIdx = 0
			continue
		}
		search := buf.searches[s.searchIdx]
		s.searchIdx++
		return search, true
	}
	return nil, false
}
