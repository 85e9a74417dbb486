package persistence

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// MagicNumber identifies dbow files (bytes "DBOW" on disk).
	MagicNumber = 0x574F4244
	// Version is the current file format version.
	Version = 1
	// HeaderSize is the encoded size of FileHeader.
	HeaderSize = 32

	// maxPayloadSize bounds allocations driven by a (possibly corrupt) header.
	maxPayloadSize = 1 << 36
)

// Kind tags what a file contains.
type Kind uint8

const (
	// KindVocabulary marks a standalone vocabulary.
	KindVocabulary Kind = 1
	// KindDatabase marks a database with its embedded vocabulary.
	KindDatabase Kind = 2
)

func (k Kind) String() string {
	switch k {
	case KindVocabulary:
		return "vocabulary"
	case KindDatabase:
		return "database"
	default:
		return fmt.Sprintf("Unknown(%d)", k)
	}
}

var (
	ErrInvalidMagic       = errors.New("invalid magic number")
	ErrInvalidVersion     = errors.New("unsupported version")
	ErrInvalidKind        = errors.New("unexpected file kind")
	ErrInvalidCompression = errors.New("unknown compression")
	ErrTruncated          = errors.New("truncated data")
	ErrCorrupt            = errors.New("corrupt data")
)

// FileHeader is the 32-byte header at the start of every file.
type FileHeader struct {
	Magic       uint32
	Version     uint32
	Kind        Kind
	Compression Compression
	PayloadSize uint64 // uncompressed payload bytes
	StoredSize  uint64 // bytes following the header
	Checksum    uint32 // CRC32 of the uncompressed payload
}

// MarshalBinary encodes the header.
func (h *FileHeader) MarshalBinary() ([]byte, error) {
	b := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(b[0:], h.Magic)
	binary.LittleEndian.PutUint32(b[4:], h.Version)
	b[8] = byte(h.Kind)
	b[9] = byte(h.Compression)
	// b[10:12] padding
	binary.LittleEndian.PutUint64(b[12:], h.PayloadSize)
	binary.LittleEndian.PutUint64(b[20:], h.StoredSize)
	binary.LittleEndian.PutUint32(b[28:], h.Checksum)
	return b, nil
}

// UnmarshalBinary decodes and validates a header.
func (h *FileHeader) UnmarshalBinary(b []byte) error {
	if len(b) < HeaderSize {
		return fmt.Errorf("%w: header needs %d bytes, got %d", ErrTruncated, HeaderSize, len(b))
	}
	h.Magic = binary.LittleEndian.Uint32(b[0:])
	h.Version = binary.LittleEndian.Uint32(b[4:])
	h.Kind = Kind(b[8])
	h.Compression = Compression(b[9])
	h.PayloadSize = binary.LittleEndian.Uint64(b[12:])
	h.StoredSize = binary.LittleEndian.Uint64(b[20:])
	h.Checksum = binary.LittleEndian.Uint32(b[28:])

	if h.Magic != MagicNumber {
		return fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, h.Magic)
	}
	if h.Version != Version {
		return fmt.Errorf("%w: got %d", ErrInvalidVersion, h.Version)
	}
	if !h.Compression.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidCompression, h.Compression)
	}
	if h.PayloadSize > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d", ErrCorrupt, h.PayloadSize)
	}
	return nil
}

// Seal wraps payload into a complete file image: header followed by the
// payload compressed with c.
func Seal(kind Kind, c Compression, payload []byte) ([]byte, error) {
	stored, used, err := compress(c, payload)
	if err != nil {
		return nil, err
	}
	h := FileHeader{
		Magic:       MagicNumber,
		Version:     Version,
		Kind:        kind,
		Compression: used,
		PayloadSize: uint64(len(payload)),
		StoredSize:  uint64(len(stored)),
		Checksum:    CalculateChecksum(payload),
	}
	hb, _ := h.MarshalBinary()

	out := make([]byte, 0, HeaderSize+len(stored))
	out = append(out, hb...)
	return append(out, stored...), nil
}

// Open validates a file image produced by Seal and returns its header and
// uncompressed payload. The file must be of the wanted kind.
func Open(data []byte, want Kind) (*FileHeader, []byte, error) {
	var h FileHeader
	if err := h.UnmarshalBinary(data); err != nil {
		return nil, nil, err
	}
	if h.Kind != want {
		return nil, nil, fmt.Errorf("%w: want %s, got %s", ErrInvalidKind, want, h.Kind)
	}
	body := data[HeaderSize:]
	if uint64(len(body)) != h.StoredSize {
		return nil, nil, fmt.Errorf("%w: header declares %d stored bytes, found %d", ErrTruncated, h.StoredSize, len(body))
	}

	payload, err := decompress(h.Compression, body, h.PayloadSize)
	if err != nil {
		return nil, nil, err
	}
	if sum := CalculateChecksum(payload); sum != h.Checksum {
		return nil, nil, &ChecksumMismatchError{Expected: h.Checksum, Actual: sum}
	}
	return &h, payload, nil
}
