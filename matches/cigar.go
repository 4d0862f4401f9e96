package matches

import (
	"strconv"
	"strings"
)

type cigarRun struct {
	op  byte
	len int
}

// splitCIGAR parses a run-length-encoded CIGAR string ("4=1X3=") into its
// runs, in order.
func splitCIGAR(cigar string) []cigarRun {
	var runs []cigarRun
	n := 0
	for i := 0; i < len(cigar); i++ {
		c := cigar[i]
		if c >= '0' && c <= '9' {
			n = n*10 + int(c-'0')
			continue
		}
		runs = append(runs, cigarRun{op: c, len: n})
		n = 0
	}
	return runs
}

// joinCIGAR renders runs back into a CIGAR string.
func joinCIGAR(runs []cigarRun) string {
	var b strings.Builder
	for _, r := range runs {
		b.WriteString(strconv.Itoa(r.len))
		b.WriteByte(r.op)
	}
	return b.String()
}
