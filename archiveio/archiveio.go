// Package archiveio loads a prebuilt reference archive from local disk or,
// given an "s3://" path, from S3. This is not archive/index construction
// (that remains out of scope, per spec.md §1) — it is the ambient I/O
// layer any CLI driving this module needs: fetch bytes, verify their
// integrity, decompress, and hand the result to archive/refindex.Build.
//
// The on-disk format is a gzip-compressed FASTA payload with an appended
// 8-byte little-endian seahash checksum of the compressed bytes, grounded
// on cmd/bio-pamtool/checksum.go's use of blainsmith/seahash as a
// streaming hash.Hash64.
package archiveio

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"io/ioutil"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/blainsmith/seahash"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/file/s3file"
	"github.com/grailbio/base/log"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"

	"github.com/grailbio/gemsearch/archive"
	"github.com/grailbio/gemsearch/archive/refindex"
	"github.com/grailbio/gemsearch/encoding/fasta"
)

const checksumLen = 8

// ErrChecksumMismatch is returned by Load when the trailing seahash
// checksum does not match the archive payload.
var ErrChecksumMismatch = errors.New("archiveio: checksum mismatch")

// RegisterS3 installs the "s3://" file.Implementation backed by
// aws-sdk-go's default session, so Load and Save can take s3:// paths.
// Grounded on encoding/bamprovider/provider_test.go's TestMain, which
// performs the identical registration for test fixtures; here it is
// exposed so a real CLI (not just tests) can opt in once, at startup.
func RegisterS3(opts s3file.Options) {
	file.RegisterImplementation("s3", func() file.Implementation {
		return s3file.NewImplementation(s3file.NewDefaultProvider(session.Options{}), opts)
	})
}

// Load reads path (local or s3://), verifies its checksum trailer,
// decompresses the gzip payload, parses it as FASTA, and builds a
// reference archive.Archive over it via archive/refindex.
func Load(ctx context.Context, path string, opts ...refindex.Opt) (archive.Archive, error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.Wrapf(err, "archiveio: open %s", path)
	}
	defer func() {
		if cerr := f.Close(ctx); cerr != nil {
			log.Error.Printf("archiveio: close %s: %v", path, cerr)
		}
	}()

	raw, err := ioutil.ReadAll(f.Reader(ctx))
	if err != nil {
		return nil, errors.Wrapf(err, "archiveio: read %s", path)
	}
	if len(raw) < checksumLen {
		return nil, errors.Errorf("archiveio: %s too short to contain a checksum trailer", path)
	}
	payload, trailer := raw[:len(raw)-checksumLen], raw[len(raw)-checksumLen:]
	want := binary.LittleEndian.Uint64(trailer)

	h := seahash.New()
	if _, err := h.Write(payload); err != nil {
		return nil, errors.Wrap(err, "archiveio: checksum")
	}
	if got := h.Sum64(); got != want {
		return nil, errors.Wrapf(ErrChecksumMismatch, "%s: got %x want %x", path, got, want)
	}

	gz, err := gzip.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrapf(err, "archiveio: gzip %s", path)
	}
	defer gz.Close()

	fa, err := fasta.New(gz, fasta.OptClean)
	if err != nil {
		return nil, errors.Wrapf(err, "archiveio: parse %s", path)
	}
	log.Info.Printf("archiveio: loaded %d sequences from %s", len(fa.SeqNames()), path)
	return refindex.Build(fa, opts...)
}

// Save gzip-compresses fastaText, appends its seahash checksum, and writes
// the result to path (local or s3://). It exists so tests and demo
// commands can produce a fixture Load can read back, without depending on
// a real FASTA/archive-builder pipeline.
func Save(ctx context.Context, path string, fastaText []byte) error {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(fastaText); err != nil {
		return errors.Wrap(err, "archiveio: gzip write")
	}
	if err := gz.Close(); err != nil {
		return errors.Wrap(err, "archiveio: gzip close")
	}

	h := seahash.New()
	if _, err := h.Write(buf.Bytes()); err != nil {
		return errors.Wrap(err, "archiveio: checksum")
	}
	var trailer [checksumLen]byte
	binary.LittleEndian.PutUint64(trailer[:], h.Sum64())

	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.Wrapf(err, "archiveio: create %s", path)
	}
	w := out.Writer(ctx)
	if _, err := io.Copy(w, &buf); err != nil {
		out.Close(ctx)
		return errors.Wrapf(err, "archiveio: write %s", path)
	}
	if _, err := w.Write(trailer[:]); err != nil {
		out.Close(ctx)
		return errors.Wrapf(err, "archiveio: write trailer %s", path)
	}
	return out.Close(ctx)
}
