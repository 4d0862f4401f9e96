// Package arena provides a per-search scoped bump allocator, replacing
// the original source's hand-rolled memory stack (mm_stack) with
// size-classed, sync.Pool-backed buffers — the same pooling idea as
// encoding/bam.FreePool, simplified down to sync.Pool since an Arena's
// buffers are fixed-size byte slices rather than a bespoke record type.
package arena

import "sync"

// sizeClasses are the buffer sizes an Arena recycles. A request larger
// than the biggest class is allocated directly and never pooled.
var sizeClasses = [...]int{256, 1024, 4096, 16384, 65536}

var pools = func() [len(sizeClasses)]*sync.Pool {
	var p [len(sizeClasses)]*sync.Pool
	for i, size := range sizeClasses {
		size := size
		p[i] = &sync.Pool{New: func() interface{} { return make([]byte, size) }}
	}
	return p
}()

func classFor(n int) int {
	for i, size := range sizeClasses {
		if n <= size {
			return i
		}
	}
	return -1
}

// Arena is a scoped allocator for one Archive Search: every buffer it
// hands out via Get is returned to its size-classed pool on Reset, so a
// search's working memory never needs per-allocation bookkeeping.
type Arena struct {
	borrowed [][]byte
	class    []int // class[i] == -1 means borrowed[i] wasn't pooled.
}

// Get returns a []byte of at least n bytes, reusing a pooled buffer of
// the smallest size class that fits when one is available.
func (a *Arena) Get(n int) []byte {
	class := classFor(n)
	var buf []byte
	if class >= 0 {
		buf = pools[class].Get().([]byte)[:n]
	} else {
		buf = make([]byte, n)
	}
	a.borrowed = append(a.borrowed, buf)
	a.class = append(a.class, class)
	return buf
}

// Reset returns every buffer this Arena has handed out back to its size
// class pool (buffers above the largest class are simply dropped), and
// leaves the Arena ready for reuse by the next search. Reset is the only
// release path: asearch.Search.Run calls it when a search reaches a
// terminal state; a search that stops at StopBefore keeps its buffers until
// then. An Arena that is never Reset only holds the buffers of its current
// scope, never grows unbounded.
func (a *Arena) Reset() {
	for i, buf := range a.borrowed {
		if class := a.class[i]; class >= 0 {
			pools[class].Put(buf[:sizeClasses[class]])
		}
	}
	a.borrowed = a.borrowed[:0]
	a.class = a.class[:0]
}
