package scheme

import (
	"fmt"
	"io"
	"os"
)

// FileOpener opens a byte source for a resolved path and reports its length.
// On error any partially opened source may be returned and will be closed.
type FileOpener func(path string) (io.ReadCloser, int64, error)

// OpenFile opens a regular file read-only.
func OpenFile(path string) (io.ReadCloser, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		return f, 0, err
	}
	if info.IsDir() {
		return f, 0, fmt.Errorf("%s is a directory", path)
	}
	return f, info.Size(), nil
}
