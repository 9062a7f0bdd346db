// Copyright (c) 2026 NightCore Team
// NightCore - local trust console for sandboxed WebAssembly tenants
// This source code is licensed under the MIT license found in the LICENSE file.

package decisionlog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"os"
	"sync"
	"time"

	"github.com/xnfinite/nightcoreapp/internal/model"
)

// fingerprintSize bounds the head and tail windows of the consumed prefix
// that are compared on every load.
const fingerprintSize = 512

// Cache keeps a read cursor into the decision log so repeated loads only
// parse appended lines. It rebuilds from the start whenever the file is
// replaced, shrinks, changes without growing, or no longer starts with the
// bytes already indexed. It is safe for concurrent use.
type Cache struct {
	path string

	mu      sync.Mutex
	offset  int64
	size    int64
	modTime time.Time
	info    os.FileInfo
	head    []byte
	tail    []byte
	index   Index
}

// NewCache returns a cache over the log at path.
func NewCache(path string) *Cache {
	return &Cache{path: path, index: Index{}}
}

// Load returns a snapshot of the current index.
func (c *Cache) Load() (Index, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fi, err := os.Stat(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.reset()
			return Index{}, nil
		}
		return nil, fmt.Errorf("stat decision log: %w", err)
	}

	replaced := c.info != nil && !os.SameFile(c.info, fi)
	switch {
	case !replaced && fi.Size() == c.size && fi.ModTime().Equal(c.modTime):
		return maps.Clone(c.index), nil
	case replaced, fi.Size() < c.offset, fi.Size() == c.size:
		c.reset()
	}

	f, err := os.Open(c.path)
	if err != nil {
		return nil, fmt.Errorf("open decision log: %w", err)
	}
	defer f.Close()
	if c.offset > 0 {
		same, err := c.prefixUnchanged(f)
		if err != nil {
			return nil, err
		}
		if !same {
			c.reset()
		}
	}
	if _, err := f.Seek(c.offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek decision log: %w", err)
	}
	n, err := scan(f, func(e model.DecisionLogEntry) error {
		c.index.Add(e)
		return nil
	})
	if err != nil {
		c.reset()
		return nil, err
	}
	c.offset += n
	c.size = fi.Size()
	c.modTime = fi.ModTime()
	c.info = fi
	if c.head, c.tail, err = c.windows(f); err != nil {
		c.reset()
		return nil, err
	}
	return maps.Clone(c.index), nil
}

// windows reads the first and last fingerprintSize bytes of the consumed
// prefix.
func (c *Cache) windows(f *os.File) ([]byte, []byte, error) {
	n := min(c.offset, fingerprintSize)
	head := make([]byte, n)
	if _, err := f.ReadAt(head, 0); err != nil {
		return nil, nil, fmt.Errorf("read decision log: %w", err)
	}
	tail := make([]byte, n)
	if _, err := f.ReadAt(tail, c.offset-n); err != nil {
		return nil, nil, fmt.Errorf("read decision log: %w", err)
	}
	return head, tail, nil
}

// prefixUnchanged reports whether the indexed prefix still holds the bytes
// seen on the previous load. A rewrite that grows the file fails this check.
func (c *Cache) prefixUnchanged(f *os.File) (bool, error) {
	head, tail, err := c.windows(f)
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return bytes.Equal(head, c.head) && bytes.Equal(tail, c.tail), nil
}

// Offset reports how many bytes of complete lines have been indexed.
func (c *Cache) Offset() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.offset
}

func (c *Cache) reset() {
	c.offset, c.size, c.modTime = 0, 0, time.Time{}
	c.info, c.head, c.tail = nil, nil, nil
	c.index = Index{}
}
