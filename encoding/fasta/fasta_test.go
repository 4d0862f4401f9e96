package fasta

import (
	"strings"
	"testing"

	"github.com/grailbio/testutil/expect"
)

const twoSeq = ">chr7\nACGTAC\nGAGGAC\nGCG\n>chr8\nACGT\n"

func TestNew(t *testing.T) {
	f, err := New(strings.NewReader(twoSeq))
	expect.NoError(t, err)
	expect.EQ(t, f.SeqNames(), []string{"chr7", "chr8"})

	n, err := f.Len("chr7")
	expect.NoError(t, err)
	expect.EQ(t, n, uint64(15))

	s, err := f.Get("chr7", 0, 6)
	expect.NoError(t, err)
	expect.EQ(t, s, "ACGTAC")

	s, err = f.Get("chr8", 1, 4)
	expect.NoError(t, err)
	expect.EQ(t, s, "CGT")
}

func TestNewNameTruncatesAtSpace(t *testing.T) {
	f, err := New(strings.NewReader(">chr1 a viral sequence\nACGT\n"))
	expect.NoError(t, err)
	expect.EQ(t, f.SeqNames(), []string{"chr1"})
}

func TestGetUnknownSequence(t *testing.T) {
	f, err := New(strings.NewReader(twoSeq))
	expect.NoError(t, err)
	_, err = f.Get("chr9", 0, 1)
	if err == nil {
		t.Fatal("expected an error for an unknown sequence")
	}
}

func TestGetOutOfRange(t *testing.T) {
	f, err := New(strings.NewReader(twoSeq))
	expect.NoError(t, err)
	_, err = f.Get("chr8", 0, 100)
	if err == nil {
		t.Fatal("expected an error for an out-of-range query")
	}
}

func TestNewMalformed(t *testing.T) {
	_, err := New(strings.NewReader("ACGT\nACGT\n"))
	if err == nil {
		t.Fatal("expected an error for a FASTA file missing a header line")
	}
}

func TestOptClean(t *testing.T) {
	f, err := New(strings.NewReader(">chr1\nacgtn\n"), OptClean)
	expect.NoError(t, err)
	s, err := f.Get("chr1", 0, 5)
	expect.NoError(t, err)
	expect.EQ(t, s, "ACGTN")
}
