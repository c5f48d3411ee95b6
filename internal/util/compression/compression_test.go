package compression

import (
	"bytes"
	"strings"
	"testing"
)

func TestCompressors(t *testing.T) {
	payload := []byte(strings.Repeat(`<p>Some <strong>rich</strong> text</p>`, 50))
	for _, name := range []string{Zstd, Gzip, None} {
		t.Run(name, func(t *testing.T) {
			c, err := ForName(name)
			if err != nil {
				t.Fatal(err)
			}
			packed, err := c.Compress(payload)
			if err != nil {
				t.Fatal(err)
			}
			if name != None && len(packed) >= len(payload) {
				t.Errorf("Expected %s to shrink repetitive content, got %d bytes", name, len(packed))
			}
			unpacked, err := c.Decompress(packed)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(unpacked, payload) {
				t.Error("Expected the original content back")
			}
		})
	}

	t.Run("unknown name", func(t *testing.T) {
		if _, err := ForName("lz4"); err == nil {
			t.Error("Expected unknown compression to fail")
		}
	})

	t.Run("corrupt zstd input", func(t *testing.T) {
		if _, err := (ZstdCompressor{}).Decompress([]byte("not zstd")); err == nil {
			t.Error("Expected corrupt input to fail")
		}
	})
}

func TestGzipReusesWriters(t *testing.T) {
	var c GzipCompressor
	inputs := []string{"first payload", "", strings.Repeat("x", 4096)}
	for _, in := range inputs {
		packed, err := c.Compress([]byte(in))
		if err != nil {
			t.Fatal(err)
		}
		out, err := c.Decompress(packed)
		if err != nil {
			t.Fatal(err)
		}
		if string(out) != in {
			t.Errorf("Expected %q back, got %q", in, out)
		}
	}
	if _, err := c.Decompress([]byte("plain")); err == nil {
		t.Error("Expected corrupt input to fail")
	}
}
