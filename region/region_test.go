package region

import (
	"strings"
	"testing"

	"github.com/grailbio/gemsearch/archive/refindex"
	"github.com/grailbio/gemsearch/encoding/fasta"
	"github.com/grailbio/gemsearch/pattern"
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

func testParams() searchparams.Params {
	p := searchparams.DefaultParams
	p.MinPatternLength = 4
	p.MaxError = 1
	return p
}

func TestAdaptiveProfileCoversWholePattern(t *testing.T) {
	idx := buildArchive(t, ">chr1\nACGTACGTACGTACGTACGTACGT\n")
	params := testParams()
	pat, err := pattern.Prepare([]byte("ACGTACGTACGT"), params, false)
	expect.NoError(t, err)

	profile, err := AdaptiveProfiler{}.Profile(idx, pat, params)
	expect.NoError(t, err)
	if len(profile.Regions) == 0 {
		t.Fatal("expected at least one region")
	}

	// Regions must be strictly ordered, non-overlapping, and must cover
	// every position of the pattern exactly once.
	covered := 0
	for i, r := range profile.Regions {
		if r.Begin != covered {
			t.Fatalf("region %d begins at %d, want %d (gap or overlap)", i, r.Begin, covered)
		}
		if r.End <= r.Begin {
			t.Fatalf("region %d is empty: [%d,%d)", i, r.Begin, r.End)
		}
		covered = r.End
	}
	expect.EQ(t, covered, pat.Len())
}

func TestAdaptiveProfileExactMatch(t *testing.T) {
	// The archive text is exactly the pattern, so the whole-pattern
	// interval has a single hit; a region_th of 1 lets the profiler grow
	// one region all the way to the front of the pattern instead of
	// closing early on a shrinking but still non-trivial interval.
	idx := buildArchive(t, ">chr1\nACGTACGTACGT\n")
	params := testParams()
	params.MaxError = 0
	params.MaxSteps = 100
	params.RegionMinLength = 1
	pat, err := pattern.Prepare([]byte("ACGTACGTACGT"), params, false)
	expect.NoError(t, err)

	profile, err := AdaptiveProfiler{}.Profile(idx, pat, params)
	expect.NoError(t, err)
	expect.EQ(t, profile.ExactMatch(pat.Len()), true)
	expect.EQ(t, profile.Regions[0].Interval.Len(), uint64(1))
}

func TestDelimitBoostProfileElectsSubregions(t *testing.T) {
	idx := buildArchive(t, ">chr1\nACGTACGTACGTACGTACGTACGT\n")
	params := testParams()
	pat, err := pattern.Prepare([]byte("ACGTACGTACGT"), params, false)
	expect.NoError(t, err)

	prior, err := AdaptiveProfiler{}.Profile(idx, pat, params)
	expect.NoError(t, err)

	boosted, err := (DelimitBoostProfiler{Prior: prior}).Profile(idx, pat, params)
	expect.NoError(t, err)
	if len(boosted.Regions) < len(prior.Regions) {
		t.Fatalf("expected boosting to produce at least as many regions as %d, got %d",
			len(prior.Regions), len(boosted.Regions))
	}
}

func TestAdaptiveProfileNoRegionsOnTinyErrorBudget(t *testing.T) {
	idx := buildArchive(t, ">chr1\nACGT\n")
	params := testParams()
	params.MaxError = 1000
	pat, err := pattern.Prepare([]byte("ACGT"), params, false)
	expect.NoError(t, err)

	_, err = AdaptiveProfiler{}.Profile(idx, pat, params)
	if err != ErrNoRegions {
		t.Fatalf("got %v, want ErrNoRegions", err)
	}
}
