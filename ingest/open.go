package ingest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"
)

type readCloser struct {
	io.Reader
	f *os.File
}

func (rc readCloser) Close() error { return rc.f.Close() }

// Open opens path and, for .xz and .lzma files, decompresses it on the fly.
// Long minute histories are usually archived compressed.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	var r io.Reader
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xz":
		r, err = xz.NewReader(bufio.NewReader(f))
	case ".lzma":
		r, err = lzma.NewReader(bufio.NewReader(f))
	default:
		return f, nil
	}
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("decompress %s: %w", path, err)
	}
	return readCloser{Reader: r, f: f}, nil
}
