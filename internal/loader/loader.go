// Package loader reads a balanced-parentheses input file into a bit array
// suitable for rmMt construction.
package loader

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/succinctlab/rmmt/pkg/bitarray"
	"github.com/succinctlab/rmmt/pkg/errors"
	"github.com/succinctlab/rmmt/pkg/utils"
)

const openParen = '('

// Loader reads a byte stream and yields the bit array it encodes: bit i is
// 1 iff byte i is '(', 0 for every other byte (including ')').
type Loader interface {
	Load(ctx context.Context, r io.Reader) (*bitarray.BitArray, error)
	LoadFile(ctx context.Context, path string) (*bitarray.BitArray, error)
}

// FileLoader is the default Loader, reading from the local filesystem or any
// io.Reader via a buffered scan.
type FileLoader struct {
	log utils.Logger
}

// NewFileLoader creates a FileLoader. A nil logger installs an Info-level
// DefaultLogger writing to stderr.
func NewFileLoader(log utils.Logger) *FileLoader {
	if log == nil {
		log = utils.NewDefaultLogger(utils.LevelInfo, os.Stderr)
	}
	return &FileLoader{log: log}
}

// LoadFile opens path and delegates to Load.
func (l *FileLoader) LoadFile(ctx context.Context, path string) (*bitarray.BitArray, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.CodeIOError, "failed to open input file", err)
	}
	defer f.Close()

	b, err := l.Load(ctx, f)
	if err != nil {
		return nil, err
	}
	l.log.Info("loaded input file %s (%d bits)", path, b.Len())
	return b, nil
}

// Load reads r to completion and builds the corresponding bit array. The
// reader's length is not known in advance, so bytes are first buffered into
// memory; callers needing to bound this should wrap r themselves (e.g. with
// io.LimitReader).
func (l *FileLoader) Load(ctx context.Context, r io.Reader) (*bitarray.BitArray, error) {
	br := bufio.NewReader(r)
	buf, err := io.ReadAll(br)
	if err != nil {
		return nil, errors.Wrap(errors.CodeIOError, "failed to read input", err)
	}

	n := len(buf)
	b := bitarray.New(n)
	for i, c := range buf {
		if i%4096 == 0 {
			select {
			case <-ctx.Done():
				return nil, errors.Wrap(errors.CodeIOError, "input loading cancelled", ctx.Err())
			default:
			}
		}
		if c == openParen {
			b.Set(i)
		}
	}
	return b, nil
}
