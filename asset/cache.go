// Package asset loads the files a session refers to: raw buffer contents,
// shader and script sources, and texture images.
package asset

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/gogpu/gpuplay"
	"github.com/gogpu/gpuplay/internal/cache"
)

// ErrEmptyName is returned for an empty file name.
var ErrEmptyName = errors.New("asset: empty file name")

type entry struct {
	data    []byte
	modTime time.Time
	size    int64
}

type imageKey struct {
	name    string
	modTime int64
	size    int64
	flipY   bool
}

// Cache reads files relative to a root directory and keeps their contents
// until they change on disk. Files put with Put live only in memory.
//
// Cache is safe for concurrent use.
type Cache struct {
	root   string
	files  *cache.ShardedCache[string, *entry]
	images *cache.Cache[imageKey, *Image]

	mu      sync.RWMutex
	virtual map[string]*entry
	gen     int64
}

// New creates a cache resolving relative names against root.
func New(root string) *Cache {
	return &Cache{
		root:    root,
		files:   cache.NewSharded[string, *entry](cache.DefaultCapacity, cache.StringHasher),
		images:  cache.New[imageKey, *Image](64),
		virtual: make(map[string]*entry),
	}
}

func (c *Cache) path(name string) string {
	if filepath.IsAbs(name) || c.root == "" {
		return filepath.Clean(name)
	}
	return filepath.Join(c.root, name)
}

// Put registers in-memory contents for name. They shadow any file on disk.
func (c *Cache) Put(name string, data []byte) {
	c.mu.Lock()
	c.putLocked(name, data)
	c.mu.Unlock()
}

// putLocked stores an in-memory entry. Each version gets a distinct
// modification time so decoded images are not reused across versions.
func (c *Cache) putLocked(name string, data []byte) {
	c.gen++
	c.virtual[name] = &entry{data: bytes.Clone(data), modTime: time.Unix(0, c.gen), size: int64(len(data))}
}

func (c *Cache) load(name string) (*entry, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	c.mu.RLock()
	v, ok := c.virtual[name]
	c.mu.RUnlock()
	if ok {
		return v, nil
	}

	path := c.path(name)
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("asset: %w", err)
	}
	if e, ok := c.files.Get(name); ok && e.modTime.Equal(info.ModTime()) && e.size == info.Size() {
		return e, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("asset: %w", err)
	}
	e := &entry{data: data, modTime: info.ModTime(), size: info.Size()}
	c.files.Set(name, e)
	gpuplay.Logger().Debug("asset: loaded file", "name", name, "bytes", len(data))
	return e, nil
}

// Bytes returns the contents of name. The slice must not be modified.
func (c *Cache) Bytes(name string) ([]byte, error) {
	e, err := c.load(name)
	if err != nil {
		return nil, err
	}
	return e.data, nil
}

// Source returns name decoded as text. A UTF-8 or UTF-16 byte order mark
// selects the encoding; without one the file is read as UTF-8.
func (c *Cache) Source(name string) (string, error) {
	data, err := c.Bytes(name)
	if err != nil {
		return "", err
	}
	return decodeText(data)
}

func decodeText(data []byte) (string, error) {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(dec, data)
	if err != nil {
		return "", fmt.Errorf("asset: decode text: %w", err)
	}
	return string(out), nil
}

// Image returns name decoded as tightly packed RGBA8, flipped vertically
// when flipY is set.
func (c *Cache) Image(name string, flipY bool) (*Image, error) {
	e, err := c.load(name)
	if err != nil {
		return nil, err
	}
	key := imageKey{name: name, modTime: e.modTime.UnixNano(), size: e.size, flipY: flipY}
	if img, ok := c.images.Get(key); ok {
		return img, nil
	}
	img, err := DecodeImage(e.data)
	if err != nil {
		return nil, fmt.Errorf("asset: %s: %w", name, err)
	}
	if flipY {
		img.FlipY()
	}
	c.images.Set(key, img)
	return img, nil
}

// Store replaces the contents of name. In-memory files are updated in
// place; others are written to disk.
func (c *Cache) Store(name string, data []byte) error {
	if name == "" {
		return ErrEmptyName
	}
	c.mu.Lock()
	if _, ok := c.virtual[name]; ok {
		c.putLocked(name, data)
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	if err := os.WriteFile(c.path(name), data, 0o644); err != nil {
		return fmt.Errorf("asset: %w", err)
	}
	c.Invalidate(name)
	return nil
}

// StoreImage encodes img in the format implied by the extension of name
// and stores it.
func (c *Cache) StoreImage(name string, img *Image) error {
	data, err := EncodeImage(img, filepath.Ext(name))
	if err != nil {
		return fmt.Errorf("asset: %s: %w", name, err)
	}
	return c.Store(name, data)
}

// Invalidate drops the cached contents of name.
func (c *Cache) Invalidate(name string) {
	c.files.Delete(name)
}

// Stats returns the statistics of the file cache.
func (c *Cache) Stats() cache.Stats {
	return c.files.Stats()
}
