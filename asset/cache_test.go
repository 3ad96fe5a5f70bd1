package asset

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestCacheBytesFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")
	if err := os.WriteFile(path, []byte{1, 2, 3}, 0o644); err != nil {
		t.Fatal(err)
	}

	c := New(dir)
	got, err := c.Bytes("data.bin")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "\x01\x02\x03" {
		t.Errorf("Bytes = %v, want [1 2 3]", got)
	}

	// A size change is picked up without invalidation.
	if err := os.WriteFile(path, []byte{4, 5, 6, 7}, 0o644); err != nil {
		t.Fatal(err)
	}
	got, err = c.Bytes("data.bin")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 4 || got[0] != 4 {
		t.Errorf("Bytes after rewrite = %v, want [4 5 6 7]", got)
	}

	if _, err := c.Bytes("missing.bin"); err == nil {
		t.Error("expected an error for a missing file")
	}
	if _, err := c.Bytes(""); !errors.Is(err, ErrEmptyName) {
		t.Errorf("Bytes(\"\") error = %v, want ErrEmptyName", err)
	}
}

func TestCacheStoreToDisk(t *testing.T) {
	dir := t.TempDir()
	c := New(dir)
	if err := c.Store("out.bin", []byte("abc")); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "out.bin"))
	if err != nil || string(data) != "abc" {
		t.Errorf("file = %q, %v; want %q", data, err, "abc")
	}
}

func TestCacheVirtualFiles(t *testing.T) {
	c := New("")
	c.Put("mem.txt", []byte("one"))
	if err := c.Store("mem.txt", []byte("two")); err != nil {
		t.Fatal(err)
	}
	got, err := c.Source("mem.txt")
	if err != nil || got != "two" {
		t.Errorf("Source = %q, %v; want %q", got, err, "two")
	}
}

func TestDecodeTextBOM(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"plain", []byte("fn main"), "fn main"},
		{"utf8 bom", []byte("\xef\xbb\xbffn"), "fn"},
		{"utf16le bom", []byte{0xff, 0xfe, 'f', 0, 'n', 0}, "fn"},
		{"utf16be bom", []byte{0xfe, 0xff, 0, 'f', 0, 'n'}, "fn"},
	}
	for _, tt := range tests {
		got, err := decodeText(tt.data)
		if err != nil {
			t.Errorf("%s: %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestCacheImage(t *testing.T) {
	src := NewImage(1, 2)
	copy(src.Pix, []byte{255, 0, 0, 255, 0, 0, 255, 255})
	data, err := EncodeImage(src, ".png")
	if err != nil {
		t.Fatal(err)
	}

	c := New("")
	c.Put("tex.png", data)

	img, err := c.Image("tex.png", false)
	if err != nil {
		t.Fatal(err)
	}
	if img.Width != 1 || img.Height != 2 || img.Pix[0] != 255 || img.Pix[6] != 255 {
		t.Errorf("decoded = %+v", img)
	}

	flipped, err := c.Image("tex.png", true)
	if err != nil {
		t.Fatal(err)
	}
	if flipped.Pix[2] != 255 || flipped.Pix[4] != 255 {
		t.Errorf("flipped = %v, want blue row first", flipped.Pix)
	}
	if img.Pix[0] != 255 {
		t.Error("flipping modified the cached unflipped image")
	}

	if _, err := c.Image("tex.png", false); err != nil {
		t.Fatal(err)
	}
	if c.images.Len() != 2 {
		t.Errorf("cached images = %d, want 2", c.images.Len())
	}
}

func TestCacheStoreImageFormats(t *testing.T) {
	img := NewImage(2, 2)
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	c := New("")
	for _, name := range []string{"a.png", "a.bmp", "a.tiff", "a.jpg"} {
		c.Put(name, nil)
		if err := c.StoreImage(name, img); err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		back, err := c.Image(name, false)
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if back.Width != 2 || back.Height != 2 {
			t.Errorf("%s: size %dx%d, want 2x2", name, back.Width, back.Height)
		}
	}
	if err := c.StoreImage("a.xyz", img); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("error = %v, want ErrUnsupportedFormat", err)
	}
}
