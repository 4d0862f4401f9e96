// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package biosimd_test

import (
	"testing"

	"github.com/grailbio/gemsearch/biosimd"
)

func TestCleanASCIISeqInplace(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"ACGT", "ACGT"},
		{"acgt", "ACGT"},
		{"ACGTN", "ACGTN"},
		{"ACGTRYSWKM", "ACGTNNNNNN"},
	}
	for _, c := range cases {
		got := []byte(c.in)
		biosimd.CleanASCIISeqInplace(got)
		if string(got) != c.want {
			t.Errorf("CleanASCIISeqInplace(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestIsNonACGTPresent(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"ACGT", false},
		{"ACGTACGTACGT", false},
		{"ACGTN", true},
		{"acgt", true},
		{"", false},
	}
	for _, c := range cases {
		if got := biosimd.IsNonACGTPresent([]byte(c.in)); got != c.want {
			t.Errorf("IsNonACGTPresent(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}
