package pattern

import (
	"testing"

	"github.com/grailbio/gemsearch/searchparams"
	"github.com/grailbio/testutil/expect"
)

func testParams() searchparams.Params {
	p := searchparams.DefaultParams
	p.MinPatternLength = 4
	return p
}

func TestPrepareBasic(t *testing.T) {
	p, err := Prepare([]byte("ACGTACGT"), testParams(), true)
	expect.NoError(t, err)
	expect.EQ(t, p.Len(), 8)
	expect.EQ(t, p.NumWildcards, 0)
	expect.EQ(t, p.NumWords, 1)

	rc := p.ReverseComplementTwin()
	if rc == nil {
		t.Fatal("expected a reverse-complement twin")
	}
	expect.EQ(t, string(rc.Key), "ACGTACGT")
}

func TestPrepareWildcards(t *testing.T) {
	p, err := Prepare([]byte("AANAA"), testParams(), false)
	expect.NoError(t, err)
	expect.EQ(t, p.NumWildcards, 1)
	// A wildcard position must read as set in every PEQ row.
	for letter := range p.PEQ {
		expect.EQ(t, p.PEQ[letter][0]&(1<<2) != 0, true)
	}
}

func TestPrepareTooShort(t *testing.T) {
	params := testParams()
	params.MinPatternLength = 10
	_, err := Prepare([]byte("ACGT"), params, false)
	if err != ErrPatternTooShort {
		t.Fatalf("got %v, want ErrPatternTooShort", err)
	}
}

func TestPrepareAllWildcards(t *testing.T) {
	_, err := Prepare([]byte("NNNN"), testParams(), false)
	if err != ErrAllWildcards {
		t.Fatalf("got %v, want ErrAllWildcards", err)
	}
}

func TestPrepareReverseComplement(t *testing.T) {
	p, err := Prepare([]byte("ACGTT"), testParams(), true)
	expect.NoError(t, err)
	rc := p.ReverseComplementTwin()
	expect.EQ(t, string(rc.Key), "AACGT")
	expect.Nil(t, rc.ReverseComplementTwin())
}

func TestPrepareColorSpaceReversalIsPlain(t *testing.T) {
	params := testParams()
	params.ColorSpace = true
	p, err := Prepare([]byte("ACGTT"), params, true)
	expect.NoError(t, err)
	rc := p.ReverseComplementTwin()
	expect.EQ(t, string(rc.Key), "TTGCA")
}

func TestPrepareMultiWord(t *testing.T) {
	long := make([]byte, 130)
	for i := range long {
		long[i] = "ACGT"[i%4]
	}
	p, err := Prepare(long, testParams(), false)
	expect.NoError(t, err)
	expect.EQ(t, p.NumWords, 3)
}
