package cmn

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pierrec/lz4/v3"
	"github.com/pkg/errors"
	"github.com/teris-io/shortid"
)

// tie returns a short, unique suffix for a temp-file name, mirroring the
// teacher's cos.GenTie() used throughout cmn/jsp to avoid temp-file
// collisions between concurrent writers to the same directory.
func tie() string {
	id, err := shortid.Generate()
	if err != nil {
		// Generation failure here is not expected in practice; fall back
		// to pid+timestamp so the write can still proceed uniquely enough.
		return strconv.Itoa(os.Getpid()) + "-" + strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return id
}

// WriteFileAtomic writes data to path by first writing to a sibling temp
// file in the same directory, fsync-ing it, renaming it over path, then
// fsync-ing the containing directory. This is the sole write primitive
// used by the cache store, the first-seen state store and the RSS
// emitter, modeled on the teacher's cmn/jsp.Save (write-tmp, flush-close,
// rename).
//
// When compress is true the temp file content is framed with LZ4 before
// being written (no environment variable sets it); callers that enable this must also
// decompress on read (see ReadFileMaybeCompressed).
func WriteFileAtomic(path string, data []byte, compress bool) (err error) {
	dir := filepath.Dir(path)
	tmp := filepath.Join(dir, filepath.Base(path)+".tmp."+tie())

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.Wrapf(err, "atomic write: create %s", tmp)
	}
	defer func() {
		if err != nil {
			if rmErr := os.Remove(tmp); rmErr != nil && !os.IsNotExist(rmErr) {
				err = errors.Wrapf(err, "(nested failed to remove %s: %v)", tmp, rmErr)
			}
		}
	}()

	if compress {
		zw := lz4.NewWriter(f)
		if _, werr := zw.Write(data); werr != nil {
			f.Close()
			return errors.Wrapf(werr, "atomic write: lz4-compress %s", tmp)
		}
		if cerr := zw.Close(); cerr != nil {
			f.Close()
			return errors.Wrapf(cerr, "atomic write: lz4-close %s", tmp)
		}
	} else if _, werr := f.Write(data); werr != nil {
		f.Close()
		return errors.Wrapf(werr, "atomic write: write %s", tmp)
	}

	if serr := f.Sync(); serr != nil {
		f.Close()
		return errors.Wrapf(serr, "atomic write: fsync %s", tmp)
	}
	if cerr := f.Close(); cerr != nil {
		return errors.Wrapf(cerr, "atomic write: close %s", tmp)
	}
	if rerr := os.Rename(tmp, path); rerr != nil {
		return errors.Wrapf(rerr, "atomic write: rename %s -> %s", tmp, path)
	}

	if dirf, derr := os.Open(dir); derr == nil {
		_ = dirf.Sync()
		_ = dirf.Close()
	}
	return nil
}

// ReadFileMaybeCompressed reads path and, if compressed is true, strips the
// LZ4 framing applied by WriteFileAtomic.
func ReadFileMaybeCompressed(path string, compressed bool) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if !compressed {
		return io.ReadAll(f)
	}
	return io.ReadAll(lz4.NewReader(f))
}
