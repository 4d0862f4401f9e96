package archiveio_test

import (
	"context"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/expect"

	"github.com/grailbio/gemsearch/archiveio"
)

func corruptFileByte(t *testing.T, path string) {
	t.Helper()
	data, err := ioutil.ReadFile(path)
	expect.NoError(t, err)
	if len(data) == 0 {
		t.Fatalf("%s is empty", path)
	}
	data[0] ^= 0xff
	expect.NoError(t, ioutil.WriteFile(path, data, 0644))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir, cleanup := testutil.TempDir(t, "", "archiveio")
	defer cleanup()
	path := filepath.Join(dir, "ref.fa.gz")

	fastaText := []byte(">chr1\nACGTACGTACGT\n>chr2\nTTTTACGTTTTT\n")
	expect.NoError(t, archiveio.Save(ctx, path, fastaText))

	a, err := archiveio.Load(ctx, path)
	expect.NoError(t, err)
	expect.EQ(t, a.TextLength() > 0, true)

	loc := a.LocatorMap(0)
	expect.EQ(t, loc.SeqName, "chr1")
}

func TestLoadChecksumMismatch(t *testing.T) {
	ctx := context.Background()
	dir, cleanup := testutil.TempDir(t, "", "archiveio")
	defer cleanup()
	path := filepath.Join(dir, "corrupt.fa.gz")

	expect.NoError(t, archiveio.Save(ctx, path, []byte(">chr1\nACGT\n")))

	// Corrupt the file's first payload byte without updating the trailer.
	corruptFileByte(t, path)

	_, err := archiveio.Load(ctx, path)
	if err == nil {
		t.Fatalf("expected checksum mismatch, got nil error")
	}
}
