// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package biosimd provides lookup-table-based implementations of a couple
// of common .fa-specific operations on byte arrays: reverse-complementing a
// DNA sequence and cleaning non-ACGT bases to 'N'.
package biosimd
