package bpm

import (
	"testing"

	"github.com/antzucaro/matchr"
	"github.com/grailbio/gemsearch/pattern"
	"github.com/grailbio/gemsearch/searchparams"
	"github.com/grailbio/testutil/expect"
)

func prep(t *testing.T, key string) *pattern.Pattern {
	t.Helper()
	params := searchparams.DefaultParams
	params.MinPatternLength = 1
	p, err := pattern.Prepare([]byte(key), params, false)
	expect.NoError(t, err)
	return p
}

func TestAlignExactMatch(t *testing.T) {
	p := prep(t, "ACGTACGT")
	res, ok := Align(p, []byte("ACGTACGT"), 2)
	expect.EQ(t, ok, true)
	expect.EQ(t, res.Distance, 0)
	expect.EQ(t, res.CIGAR, "8=")
}

func TestAlignSingleSubstitution(t *testing.T) {
	p := prep(t, "ACGTACGT")
	res, ok := Align(p, []byte("ACGAACGT"), 2)
	expect.EQ(t, ok, true)
	expect.EQ(t, res.Distance, 1)
	expect.EQ(t, res.CIGAR, "3=1X4=")
}

func TestAlignWithinLargerText(t *testing.T) {
	// The pattern occurs, with one mismatch, in the middle of a longer
	// window; free start/end should find it without being penalized for
	// the flanking bases.
	p := prep(t, "ACGT")
	res, ok := Align(p, []byte("TTTTACCTTTT"), 1)
	expect.EQ(t, ok, true)
	expect.EQ(t, res.Distance, 1)
}

func TestAlignNoMatchWithinBudget(t *testing.T) {
	p := prep(t, "ACGTACGT")
	_, ok := Align(p, []byte("TTTTTTTT"), 1)
	expect.EQ(t, ok, false)
}

func TestAlignMultiWordFallback(t *testing.T) {
	key := make([]byte, 130)
	for i := range key {
		key[i] = "ACGT"[i%4]
	}
	p := prep(t, string(key))
	expect.EQ(t, p.NumWords > 1, true)

	text := append([]byte(nil), key...)
	text[64] = 'A' // introduce one mismatch away from 'C'/'G'/'T' at that slot
	if text[64] == key[64] {
		text[64] = 'G'
	}
	res, ok := Align(p, text, 2)
	expect.EQ(t, ok, true)
	expect.EQ(t, res.Distance, 1)
}

func TestAlignAgainstLevenshteinOracle(t *testing.T) {
	// Free start/end can only ever find an alignment at least as good as
	// the standard (fully anchored) Levenshtein distance.
	cases := []struct{ pat, text string }{
		{"ACGTACGTAC", "ACGTACGTAC"},
		{"ACGTACGTAC", "ACGAACGTAC"},
		{"ACGTACGTAC", "ACGTCCGTAG"},
		{"AAAACCCCGG", "AAAACCGCGG"},
	}
	for _, c := range cases {
		p := prep(t, c.pat)
		want := matchr.Levenshtein(c.pat, c.text)
		res, ok := Align(p, []byte(c.text), len(c.pat))
		expect.EQ(t, ok, true)
		if res.Distance > want {
			t.Fatalf("Align(%q, %q) = %d, want <= standard Levenshtein %d",
				c.pat, c.text, res.Distance, want)
		}
	}
}
