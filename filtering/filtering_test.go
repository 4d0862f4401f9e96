package filtering

import (
	"strings"
	"testing"

	"github.com/grailbio/gemsearch/archive/refindex"
	"github.com/grailbio/gemsearch/encoding/fasta"
	"github.com/grailbio/gemsearch/pattern"
	"github.com/grailbio/gemsearch/region"
	"github.com/grailbio/gemsearch/searchparams"
	"github.com/grailbio/testutil/expect"
)

func buildArchive(t *testing.T, fa string) *refindex.Index {
	t.Helper()
	f, err := fasta.New(strings.NewReader(fa))
	expect.NoError(t, err)
	idx, err := refindex.Build(f)
	expect.NoError(t, err)
	return idx
}

func TestDecodeAndCompactExactMatches(t *testing.T) {
	idx := buildArchive(t, ">chr1\nACGTACGTACGT\n")
	params := searchparams.DefaultParams
	params.MinPatternLength = 4
	params.MaxError = 0
	params.RegionMinLength = 1

	pat, err := pattern.Prepare([]byte("ACGT"), params, false)
	expect.NoError(t, err)

	profile, err := region.AdaptiveProfiler{}.Profile(idx, pat, params)
	expect.NoError(t, err)

	cands := NewCandidates()
	cands.Decode(idx, profile)
	cands.Compact(params.MaxError, pat.Len())

	cands.Verify(idx, pat, params.MaxError, nil)
	accepted := cands.Accepted()
	expect.EQ(t, len(accepted), 3)
	for _, r := range accepted {
		expect.EQ(t, r.Distance, 0)
		expect.EQ(t, r.CIGAR, "4=")
	}
}

func TestCompactMergesWithinMaxError(t *testing.T) {
	c := NewCandidates()
	c.positions = []Position{
		{TextBegin: 10, Distance: 1},
		{TextBegin: 11, Distance: 0},
		{TextBegin: 50, Distance: 2},
	}
	c.Compact(1, 4)
	expect.EQ(t, len(c.regions), 2)
	expect.EQ(t, c.regions[0].MinTaggedDistance, 0)
	expect.EQ(t, c.regions[0].Begin, uint64(10))
	expect.EQ(t, c.regions[1].Begin, uint64(50))
}

func TestIntervalSetDedup(t *testing.T) {
	idx := buildArchive(t, ">chr1\nACGTACGTACGT\n")
	params := searchparams.DefaultParams
	params.MinPatternLength = 4
	params.MaxError = 0
	params.RegionMinLength = 1
	pat, err := pattern.Prepare([]byte("ACGT"), params, false)
	expect.NoError(t, err)
	profile, err := region.AdaptiveProfiler{}.Profile(idx, pat, params)
	expect.NoError(t, err)

	cands := NewCandidates()
	cands.Decode(idx, profile)
	firstCount := len(cands.positions)
	// Decoding the identical profile again must not duplicate positions:
	// every interval was already recorded in the Interval Set.
	cands.Decode(idx, profile)
	expect.EQ(t, len(cands.positions), firstCount)
}

func TestVerifyDiscardsBeyondBudget(t *testing.T) {
	idx := buildArchive(t, ">chr1\nTTTTTTTTTTTT\n")
	params := searchparams.DefaultParams
	params.MinPatternLength = 4
	pat, err := pattern.Prepare([]byte("ACGT"), params, false)
	expect.NoError(t, err)

	c := NewCandidates()
	c.positions = []Position{{TextBegin: 0, Distance: 0}}
	c.Compact(0, pat.Len())
	c.Verify(idx, pat, 0, nil)
	expect.EQ(t, len(c.Accepted()), 0)
}
