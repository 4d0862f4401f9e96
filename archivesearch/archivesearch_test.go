package archivesearch

import (
	"strings"
	"testing"

	"github.com/grailbio/gemsearch/archive"
	"github.com/grailbio/gemsearch/archive/refindex"
	"github.com/grailbio/gemsearch/encoding/fasta"
	"github.com/grailbio/gemsearch/matches"
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

func TestNewBuildsBothStrandsWhenArchiveHasNoComplement(t *testing.T) {
	idx := buildArchive(t, ">chr1\nACGTACGTACGT\n")
	params := searchparams.DefaultParams
	params.MinPatternLength = 4
	params.MaxError = 0

	s, err := New(idx, []byte("ACGT"), params)
	expect.NoError(t, err)
	if s.Reverse == nil {
		t.Fatal("expected a reverse-strand search to be built")
	}
}

func TestRunFindsForwardMatches(t *testing.T) {
	idx := buildArchive(t, ">chr1\nACGTACGTACGT\n")
	params := searchparams.DefaultParams
	params.MinPatternLength = 4
	params.MaxError = 0

	s, err := New(idx, []byte("ACGT"), params)
	expect.NoError(t, err)
	s.Run()

	out := matches.Select(s.Matches(), 100, 1, 1, 100)
	// ACGT is its own reverse complement, so the reverse strand contributes
	// matches too; only the forward-strand ones are counted here.
	forward := 0
	for _, m := range out {
		expect.EQ(t, m.Distance, 0)
		if m.Strand == archive.Forward {
			forward++
		}
	}
	expect.EQ(t, forward, 3)
}

func TestRunAbandonsReverseWhenOverMaxMatches(t *testing.T) {
	idx := buildArchive(t, ">chr1\nACGTACGTACGT\n")
	params := searchparams.DefaultParams
	params.MinPatternLength = 4
	params.MaxError = 0
	params.MaxMatches = 1

	s, err := New(idx, []byte("ACGT"), params)
	expect.NoError(t, err)
	s.Run()
	expect.EQ(t, s.Abandoned(), true)
	expect.EQ(t, s.Forward.CurrentMaxError, 0)
}
