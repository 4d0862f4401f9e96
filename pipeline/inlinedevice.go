package pipeline

import (
	"v.io/x/lib/vlog"

	"github.com/grailbio/gemsearch/archivesearch"
	"github.com/grailbio/gemsearch/asearch"
)

// InlineDevice is a software reference Device: it performs the
// Decode-Candidates and Verify-Candidates work a GPU kernel would,
// synchronously, by driving each archivesearch.Search up to the
// corresponding asearch.State boundary. There is no GPU SDK in the
// retrieved corpus to bind against, so this is what a pipeline.Device
// implementation does in the absence of one; the buffering and
// ring-iterator machinery in Stage is unaffected by which Device it
// talks to. Dispatch is traced at vlog.VI(1), mirroring how
// encoding/pam's reader/writer trace low-level buffer I/O separately
// from grailbio/base/log's higher-level counters.
type InlineDevice struct{}

// Decode sets every search's StopBefore to asearch.CandidatesVerified and
// runs it. archivesearch.Search.Run resumes a suspended forward search
// after the reverse strand, so unless the reverse strand was abandoned
// each search is run to completion here.
func (InlineDevice) Decode(buf []*archivesearch.Search) {
	vlog.VI(1).Infof("pipeline: dispatching decode buffer of %d searches", len(buf))
	for _, s := range buf {
		s.StopBefore = asearch.CandidatesVerified
		s.Run()
	}
}

// Verify runs every search to completion.
func (InlineDevice) Verify(buf []*archivesearch.Search) {
	vlog.VI(1).Infof("pipeline: dispatching verify buffer of %d searches", len(buf))
	for _, s := range buf {
		s.StopBefore = asearch.Begin
		s.Run()
	}
}

var _ Device = InlineDevice{}
