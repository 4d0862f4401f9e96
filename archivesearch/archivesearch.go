// Package archivesearch implements single-end Archive Search: it wraps a
// forward and a reverse-complement asearch.Search, drives them according
// to the original archive_search_single_end control flow (max_matches
// abandonment, resume-forward-after-reverse, CIGAR normalization on
// merge), and produces a combined matches.Matches.
package archivesearch

import (
	"github.com/grailbio/gemsearch/archive"
	"github.com/grailbio/gemsearch/asearch"
	"github.com/grailbio/gemsearch/filtering"
	"github.com/grailbio/gemsearch/matches"
	"github.com/grailbio/gemsearch/pattern"
	"github.com/grailbio/gemsearch/searchparams"
)

// Search is one single-end Archive Search: a pair of per-strand
// Approximate Searches (forward, and reverse-complement unless the
// archive already indexes the complement strand) sharing a read-only
// view of the archive and parameters.
type Search struct {
	Archive archive.Archive
	Params  searchparams.Params

	Forward *asearch.Search
	Reverse *asearch.Search // nil when Archive.IndexedComplement()

	// StopBefore is forwarded to the forward search; the pipeline uses it
	// to suspend at a stage boundary.
	StopBefore asearch.State

	abandoned bool
}

// New prepares both strands (unless the archive already indexes the
// complement) and returns a Search ready to Run.
func New(a archive.Archive, read []byte, params searchparams.Params) (*Search, error) {
	withTwin := !a.IndexedComplement()
	p, err := pattern.Prepare(read, params, withTwin)
	if err != nil {
		return nil, err
	}
	s := &Search{
		Archive: a,
		Params:  params,
		Forward: asearch.New(a, p, params),
	}
	if rc := p.ReverseComplementTwin(); rc != nil {
		s.Reverse = asearch.New(a, rc, params)
	}
	return s, nil
}

// Run implements archive_search_single_end: run forward up to
// StopBefore; if the forward strand alone already exceeds max_matches,
// abandon the reverse strand and force max_complete_stratum (here,
// CurrentMaxError) to 0; otherwise run the reverse strand to completion
// and, if the forward search was suspended, resume it.
func (s *Search) Run() {
	s.Forward.StopBefore = s.StopBefore
	s.Forward.Run()

	if len(s.Forward.Regions()) > s.Params.MaxMatches {
		s.Forward.CurrentMaxError = 0
		s.abandoned = true
		return
	}

	if s.Reverse != nil {
		s.Reverse.Run()
	}

	if s.Forward.State != asearch.End && s.Forward.State != asearch.ExactMatches && s.Forward.State != asearch.NoRegions {
		s.Forward.StopBefore = asearch.Begin
		s.Forward.Run()
	}
}

// Abandoned reports whether the reverse strand was skipped because the
// forward strand alone already exceeded max_matches.
func (s *Search) Abandoned() bool { return s.abandoned }

// Matches merges both strands' accepted regions into a single
// matches.Matches, normalizing reverse-strand positions and CIGARs per
// §4.8 step 6.
func (s *Search) Matches() *matches.Matches {
	m := matches.New(s.Params.MaxError)
	for _, r := range s.Forward.Regions() {
		m.Add(r, archive.Forward)
	}
	if s.Reverse != nil {
		for _, r := range s.Reverse.Regions() {
			m.Add(normalizeReverse(r, s.Params.ColorSpace), archive.Reverse)
		}
	}
	return m
}

func normalizeReverse(r filtering.Region, colorSpace bool) filtering.Region {
	match := matches.Match{Position: r.Begin, Distance: r.Distance, CIGAR: r.CIGAR}
	refLen := effectiveRefLength(r.CIGAR)
	normalized := matches.NormalizeReverseMatch(match, refLen, colorSpace)
	r.Begin = normalized.Position
	r.CIGAR = normalized.CIGAR
	return r
}

// effectiveRefLength sums the reference-consuming runs of a
// run-length-encoded bpm CIGAR string: =, X, and I (in bpm's convention I
// consumes only text and D consumes only pattern).
func effectiveRefLength(cigar string) int {
	n := 0
	total := 0
	for i := 0; i < len(cigar); i++ {
		c := cigar[i]
		if c >= '0' && c <= '9' {
			n = n*10 + int(c-'0')
			continue
		}
		switch c {
		case '=', 'X', 'I':
			total += n
		}
		n = 0
	}
	return total
}
