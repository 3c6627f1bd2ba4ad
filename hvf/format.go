// Package hvf implements the on-disk container: a single file holding a
// named attribute header plus fixed-shape 4-D datasets with partial
// region reads and writes.
//
// Layout is append-mostly. A fixed superblock at offset zero points at
// the current header-attribute region and dataset index, which are
// rewritten at the end of the file whenever the header changes. Dataset
// bytes live between, either contiguous or as per-row compressed chunks.
package hvf

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
)

const (
	// MagicNumber identifies container files (ASCII: "UVH1").
	MagicNumber = 0x55564831
	// Version is the current file format version (v1.0.0).
	Version = 0x00010000

	superblockSize = 64
)

var (
	ErrInvalidMagic   = errors.New("hvf: invalid magic number")
	ErrInvalidVersion = errors.New("hvf: unsupported version")
	ErrFileExists     = errors.New("hvf: file already exists")
	ErrFileNotFound   = errors.New("hvf: file does not exist")
	ErrReadOnly       = errors.New("hvf: file is opened read-only")
	ErrNoSuchDataset  = errors.New("hvf: no such dataset")
	ErrDatasetExists  = errors.New("hvf: dataset already exists")
	ErrUnknownCodec   = errors.New("hvf: unknown header codec")
)

// ChecksumMismatchError is returned when a region checksum fails to
// verify on open.
type ChecksumMismatchError struct {
	Region   string
	Expected uint32
	Actual   uint32
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("hvf: %s checksum mismatch: expected 0x%08x, got 0x%08x",
		e.Region, e.Expected, e.Actual)
}

func checksum(data []byte) uint32 { return crc32.ChecksumIEEE(data) }

// superblock is the fixed 64-byte block at the start of every file.
type superblock struct {
	Magic     uint32
	Version   uint32
	CodecName [8]byte
	HeaderOff uint64
	HeaderLen uint64
	IndexOff  uint64
	IndexLen  uint64
	HeaderCRC uint32
	IndexCRC  uint32
}

func (sb *superblock) encode() []byte {
	buf := make([]byte, superblockSize)
	binary.LittleEndian.PutUint32(buf[0:], sb.Magic)
	binary.LittleEndian.PutUint32(buf[4:], sb.Version)
	copy(buf[8:16], sb.CodecName[:])
	binary.LittleEndian.PutUint64(buf[16:], sb.HeaderOff)
	binary.LittleEndian.PutUint64(buf[24:], sb.HeaderLen)
	binary.LittleEndian.PutUint64(buf[32:], sb.IndexOff)
	binary.LittleEndian.PutUint64(buf[40:], sb.IndexLen)
	binary.LittleEndian.PutUint32(buf[48:], sb.HeaderCRC)
	binary.LittleEndian.PutUint32(buf[52:], sb.IndexCRC)
	return buf
}

func (sb *superblock) decode(buf []byte) error {
	if len(buf) < superblockSize {
		return fmt.Errorf("hvf: short superblock: %d bytes", len(buf))
	}
	sb.Magic = binary.LittleEndian.Uint32(buf[0:])
	sb.Version = binary.LittleEndian.Uint32(buf[4:])
	copy(sb.CodecName[:], buf[8:16])
	sb.HeaderOff = binary.LittleEndian.Uint64(buf[16:])
	sb.HeaderLen = binary.LittleEndian.Uint64(buf[24:])
	sb.IndexOff = binary.LittleEndian.Uint64(buf[32:])
	sb.IndexLen = binary.LittleEndian.Uint64(buf[40:])
	sb.HeaderCRC = binary.LittleEndian.Uint32(buf[48:])
	sb.IndexCRC = binary.LittleEndian.Uint32(buf[52:])
	if sb.Magic != MagicNumber {
		return ErrInvalidMagic
	}
	if sb.Version != Version {
		return ErrInvalidVersion
	}
	return nil
}

func (sb *superblock) codecName() string {
	n := 0
	for n < len(sb.CodecName) && sb.CodecName[n] != 0 {
		n++
	}
	return string(sb.CodecName[:n])
}
