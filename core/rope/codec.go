// File: core/rope/codec.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Fixed-width integer and UTF-8 encoding on top of Buffer. Integers are
// big endian unless the method name ends in LE.

package rope

import (
	"encoding/binary"
	"io"
	"strconv"
	"unicode/utf8"
)

func (b *Buffer) putUint(width int, put func([]byte)) {
	s := b.writableSegment(width)
	put(s.Writable()[:width])
	s.Limit += width
	b.size += int64(width)
}

// WriteUint16 appends v big endian.
func (b *Buffer) WriteUint16(v uint16) {
	b.putUint(2, func(p []byte) { binary.BigEndian.PutUint16(p, v) })
}

// WriteUint16LE appends v little endian.
func (b *Buffer) WriteUint16LE(v uint16) {
	b.putUint(2, func(p []byte) { binary.LittleEndian.PutUint16(p, v) })
}

// WriteUint32 appends v big endian.
func (b *Buffer) WriteUint32(v uint32) {
	b.putUint(4, func(p []byte) { binary.BigEndian.PutUint32(p, v) })
}

// WriteUint32LE appends v little endian.
func (b *Buffer) WriteUint32LE(v uint32) {
	b.putUint(4, func(p []byte) { binary.LittleEndian.PutUint32(p, v) })
}

// WriteUint64 appends v big endian.
func (b *Buffer) WriteUint64(v uint64) {
	b.putUint(8, func(p []byte) { binary.BigEndian.PutUint64(p, v) })
}

// WriteUint64LE appends v little endian.
func (b *Buffer) WriteUint64LE(v uint64) {
	b.putUint(8, func(p []byte) { binary.LittleEndian.PutUint64(p, v) })
}

// WriteInt16 appends v big endian, two's complement.
func (b *Buffer) WriteInt16(v int16) { b.WriteUint16(uint16(v)) }

// WriteInt32 appends v big endian, two's complement.
func (b *Buffer) WriteInt32(v int32) { b.WriteUint32(uint32(v)) }

// WriteInt64 appends v big endian, two's complement.
func (b *Buffer) WriteInt64(v int64) { b.WriteUint64(uint64(v)) }

// WriteUTF8 appends s. Go strings are UTF-8 already.
func (b *Buffer) WriteUTF8(s string) {
	_, _ = b.WriteString(s)
}

// WriteRune appends the UTF-8 encoding of r.
func (b *Buffer) WriteRune(r rune) (int, error) {
	var tmp [utf8.UTFMax]byte
	n := utf8.EncodeRune(tmp[:], r)
	return b.Write(tmp[:n])
}

// WriteDecimal appends the base-10 text form of v.
func (b *Buffer) WriteDecimal(v int64) {
	var tmp [20]byte
	_, _ = b.Write(strconv.AppendInt(tmp[:0], v, 10))
}

// fixed returns width bytes from the head and consumes them. The returned
// slice is only valid until the next call.
func (b *Buffer) fixed(width int, scratch []byte) ([]byte, error) {
	if err := b.require(int64(width)); err != nil {
		return nil, err
	}
	s := b.head
	if s.Len() >= width {
		copy(scratch, s.Bytes()[:width])
		b.consumed(s, width)
		return scratch[:width], nil
	}
	_ = b.ReadFull(scratch[:width])
	return scratch[:width], nil
}

// ReadUint16 consumes a big-endian uint16.
func (b *Buffer) ReadUint16() (uint16, error) {
	var tmp [2]byte
	p, err := b.fixed(2, tmp[:])
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(p), nil
}

// ReadUint16LE consumes a little-endian uint16.
func (b *Buffer) ReadUint16LE() (uint16, error) {
	var tmp [2]byte
	p, err := b.fixed(2, tmp[:])
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(p), nil
}

// ReadUint32 consumes a big-endian uint32.
func (b *Buffer) ReadUint32() (uint32, error) {
	var tmp [4]byte
	p, err := b.fixed(4, tmp[:])
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(p), nil
}

// ReadUint32LE consumes a little-endian uint32.
func (b *Buffer) ReadUint32LE() (uint32, error) {
	var tmp [4]byte
	p, err := b.fixed(4, tmp[:])
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(p), nil
}

// ReadUint64 consumes a big-endian uint64.
func (b *Buffer) ReadUint64() (uint64, error) {
	var tmp [8]byte
	p, err := b.fixed(8, tmp[:])
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(p), nil
}

// ReadUint64LE consumes a little-endian uint64.
func (b *Buffer) ReadUint64LE() (uint64, error) {
	var tmp [8]byte
	p, err := b.fixed(8, tmp[:])
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(p), nil
}

// ReadInt16 consumes a big-endian int16.
func (b *Buffer) ReadInt16() (int16, error) {
	v, err := b.ReadUint16()
	return int16(v), err
}

// ReadInt32 consumes a big-endian int32.
func (b *Buffer) ReadInt32() (int32, error) {
	v, err := b.ReadUint32()
	return int32(v), err
}

// ReadInt64 consumes a big-endian int64.
func (b *Buffer) ReadInt64() (int64, error) {
	v, err := b.ReadUint64()
	return int64(v), err
}

// ReadUTF8 consumes n bytes as a string. Invalid sequences are kept as is.
func (b *Buffer) ReadUTF8(n int64) (string, error) {
	if err := b.require(n); err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	if s := b.head; int64(s.Len()) >= n {
		str := string(s.Bytes()[:n])
		b.consumed(s, int(n))
		return str, nil
	}
	p, _ := b.ReadBytes(n)
	return string(p), nil
}

// ReadRune consumes one UTF-8 encoded rune. A malformed sequence consumes
// one byte and yields utf8.RuneError; it implements io.RuneReader.
func (b *Buffer) ReadRune() (rune, int, error) {
	if b.size == 0 {
		return 0, 0, io.EOF
	}
	c := b.GetByte(0)
	if c < utf8.RuneSelf {
		_, _ = b.ReadByte()
		return rune(c), 1, nil
	}
	var tmp [utf8.UTFMax]byte
	n := int64(len(tmp))
	if n > b.size {
		n = b.size
	}
	for i := int64(0); i < n; i++ {
		tmp[i] = b.GetByte(i)
	}
	r, width := utf8.DecodeRune(tmp[:n])
	_ = b.Skip(int64(width))
	return r, width, nil
}
