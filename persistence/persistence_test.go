package persistence

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/dbow/internal/fs"
)

func samplePayload() []byte {
	var buf bytes.Buffer
	for i := 0; i < 2000; i++ {
		buf.WriteString("visual word ")
		buf.WriteByte(byte('a' + i%26))
	}
	return buf.Bytes()
}

func TestSealOpen(t *testing.T) {
	payload := samplePayload()

	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD, CompressionGzip} {
		t.Run(c.String(), func(t *testing.T) {
			data, err := Seal(KindVocabulary, c, payload)
			require.NoError(t, err)

			h, got, err := Open(data, KindVocabulary)
			require.NoError(t, err)
			assert.Equal(t, payload, got)
			assert.Equal(t, c, h.Compression)
			assert.Equal(t, uint64(len(payload)), h.PayloadSize)
			if c != CompressionNone {
				assert.Less(t, h.StoredSize, h.PayloadSize)
			}
		})
	}
}

func TestSealIncompressibleFallsBack(t *testing.T) {
	payload := []byte{1, 2, 3}
	data, err := Seal(KindDatabase, CompressionZSTD, payload)
	require.NoError(t, err)

	h, got, err := Open(data, KindDatabase)
	require.NoError(t, err)
	assert.Equal(t, CompressionNone, h.Compression)
	assert.Equal(t, payload, got)
}

func TestOpenErrors(t *testing.T) {
	payload := samplePayload()
	valid, err := Seal(KindVocabulary, CompressionZSTD, payload)
	require.NoError(t, err)

	mutate := func(f func(b []byte) []byte) []byte {
		b := append([]byte(nil), valid...)
		return f(b)
	}

	tests := []struct {
		name string
		data []byte
		kind Kind
		want error
	}{
		{"short", valid[:10], KindVocabulary, ErrTruncated},
		{"magic", mutate(func(b []byte) []byte { b[0] = 'X'; return b }), KindVocabulary, ErrInvalidMagic},
		{"version", mutate(func(b []byte) []byte { b[4] = 9; return b }), KindVocabulary, ErrInvalidVersion},
		{"compression", mutate(func(b []byte) []byte { b[9] = 42; return b }), KindVocabulary, ErrInvalidCompression},
		{"kind", valid, KindDatabase, ErrInvalidKind},
		{"truncated body", valid[:len(valid)-5], KindVocabulary, ErrTruncated},
		{"corrupt body", mutate(func(b []byte) []byte { b[HeaderSize+3] ^= 0xff; return b }), KindVocabulary, ErrCorrupt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Open(tt.data, tt.kind)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestOpenChecksumMismatch(t *testing.T) {
	data, err := Seal(KindVocabulary, CompressionNone, []byte("hello world"))
	require.NoError(t, err)
	data[len(data)-1] ^= 0x01

	_, _, err = Open(data, KindVocabulary)
	require.Error(t, err)
	assert.True(t, IsChecksumMismatch(err))
}

func TestParseCompression(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD, CompressionGzip} {
		got, err := ParseCompression(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	_, err := ParseCompression("brotli")
	assert.ErrorIs(t, err, ErrInvalidCompression)
}

func TestEncoderDecoder(t *testing.T) {
	e := NewEncoder(64)
	e.Uvarint(300)
	e.Uint8(7)
	e.Bool(true)
	e.Uint32(0xdeadbeef)
	e.Float64(3.25)
	e.Float32s([]float32{1.5, -2})
	e.Uint32s([]uint32{4, 5, 6})
	e.String("tf-idf")

	d := NewDecoder(e.Data())
	assert.Equal(t, uint64(300), d.Uvarint())
	assert.Equal(t, uint8(7), d.Uint8())
	assert.True(t, d.Bool())
	assert.Equal(t, uint32(0xdeadbeef), d.Uint32())
	assert.InDelta(t, 3.25, d.Float64(), 0)
	assert.Equal(t, []float32{1.5, -2}, d.Float32s(2))
	assert.Equal(t, []uint32{4, 5, 6}, d.Uint32s())
	assert.Equal(t, "tf-idf", d.String())
	require.NoError(t, d.Finish())
}

func TestDecoderStickyError(t *testing.T) {
	d := NewDecoder([]byte{1, 2})
	assert.Equal(t, uint32(0), d.Uint32())
	require.ErrorIs(t, d.Err(), ErrTruncated)

	// Later reads keep returning zero values.
	assert.Equal(t, uint8(0), d.Uint8())
	assert.ErrorIs(t, d.Finish(), ErrTruncated)
}

func TestDecoderRejectsHugeCounts(t *testing.T) {
	e := NewEncoder(8)
	e.Uvarint(1 << 40)
	d := NewDecoder(e.Data())
	assert.Nil(t, d.Uint32s())
	assert.ErrorIs(t, d.Err(), ErrCorrupt)
}

func TestDecoderTrailingBytes(t *testing.T) {
	d := NewDecoder([]byte{1, 2, 3})
	d.Uint8()
	assert.ErrorIs(t, d.Finish(), ErrCorrupt)
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "voc.dbow")

	require.NoError(t, WriteFileAtomic(nil, path, []byte("first")))
	require.NoError(t, WriteFileAtomic(nil, path, []byte("second")))

	got, err := ReadFile(nil, path)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteFileAtomicFaults(t *testing.T) {
	tests := []struct {
		name  string
		fault fs.Fault
	}{
		{"open", fs.Fault{FailOnOpen: true, FailAfterBytes: -1}},
		{"write", fs.Fault{FailAfterBytes: 2}},
		{"sync", fs.Fault{FailOnSync: true, FailAfterBytes: -1}},
		{"close", fs.Fault{FailOnClose: true, FailAfterBytes: -1}},
		{"rename", fs.Fault{FailOnRename: true, FailAfterBytes: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "db.dbow")
			require.NoError(t, WriteFileAtomic(nil, path, []byte("old")))

			ffs := fs.NewFaultyFS(nil)
			ffs.AddRule("db.dbow", tt.fault)

			err := WriteFileAtomic(ffs, path, []byte("new content"))
			require.ErrorIs(t, err, fs.ErrInjected)

			got, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, []byte("old"), got)

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Len(t, entries, 1, "temp file must be cleaned up")
		})
	}
}
