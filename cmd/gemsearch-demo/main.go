// gemsearch-demo drives the approximate search engine against a small
// reference archive, printing every match it finds. It is not a mapper
// CLI (no SAM/MAP output, no pairing, no real FASTA/FM-index builder) —
// just enough surface to exercise archiveio, archive/refindex, and
// archivesearch end to end, the way doppelmark's main.go wires
// markduplicates end to end.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/grailbio/base/grail"

	"github.com/grailbio/gemsearch/archive"
	"github.com/grailbio/gemsearch/archivesearch"
	"github.com/grailbio/gemsearch/archiveio"
	"github.com/grailbio/gemsearch/matches"
	"github.com/grailbio/gemsearch/searchparams"
)

var (
	archivePath = flag.String("archive", "", "Path to a gzip-compressed FASTA archive produced by archiveio.Save (local path or s3://...)")
	read        = flag.String("read", "", "Query read sequence")
	maxError    = flag.Int("max-error", searchparams.DefaultParams.MaxError, "Maximum edit distance to search")
	mappingMode = flag.String("mapping-mode", "fast", "One of: fast, sensitive, complete")
)

func parseMappingMode(s string) searchparams.MappingMode {
	switch s {
	case "sensitive":
		return searchparams.Sensitive
	case "complete":
		return searchparams.Complete
	default:
		return searchparams.Fast
	}
}

func main() {
	shutdown := grail.Init()
	defer shutdown()

	if *archivePath == "" || *read == "" {
		fmt.Fprintln(os.Stderr, "usage: gemsearch-demo -archive=<path> -read=<seq>")
		os.Exit(2)
	}

	ctx := context.Background()
	a, err := archiveio.Load(ctx, *archivePath)
	if err != nil {
		log.Fatalf("gemsearch-demo: load archive: %v", err)
	}

	params := searchparams.DefaultParams
	params.MaxError = *maxError
	params.MappingMode = parseMappingMode(*mappingMode)

	search, err := archivesearch.New(a, []byte(*read), params)
	if err != nil {
		log.Fatalf("gemsearch-demo: prepare read: %v", err)
	}
	search.Run()

	m := search.Matches()
	report(a, m, params)
}

func report(a archive.Archive, m *matches.Matches, params searchparams.Params) {
	selected := matches.Select(m, params.MaxMatches, params.MinStrata, params.MinReported, params.MaxReported)
	if len(selected) == 0 {
		fmt.Println("no matches")
		return
	}
	for _, match := range selected {
		loc := a.LocatorMap(match.Position)
		fmt.Printf("%s\t%d\t%s\t%d\t%s\n", loc.SeqName, loc.Offset, match.Strand, match.Distance, match.CIGAR)
	}
}
