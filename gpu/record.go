// SPDX-License-Identifier: MIT

package gpu

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Record is one emitted non-zero as laid out by the kernel's Entry struct:
// row u32, col u32, value f32, little-endian, no padding.
type Record struct {
	Row   uint32
	Col   uint32
	Value float32
}

// Header is the leading cell pair of the result: Count is the atomic append
// cursor (next free slot, equal to the number of claims), Capacity the
// number of record slots the host allocated.
type Header struct {
	Count    uint32
	Capacity uint32
}

const (
	// RecordSize is the byte size of one encoded Record.
	RecordSize = 12
	// HeaderSize is the byte size of the encoded Header.
	HeaderSize = 8
	// wordSize is the WebGPU copy/binding granularity.
	wordSize = 4
)

func init() {
	if n := binary.Size(Record{}); n != RecordSize {
		panic(fmt.Sprintf("gpu: Record layout is %d bytes, kernel expects %d", n, RecordSize))
	}
	if n := binary.Size(Header{}); n != HeaderSize {
		panic(fmt.Sprintf("gpu: Header layout is %d bytes, kernel expects %d", n, HeaderSize))
	}
}

// PutRecord encodes r into b[:RecordSize].
func PutRecord(b []byte, r Record) {
	_ = b[RecordSize-1]
	binary.LittleEndian.PutUint32(b[0:], r.Row)
	binary.LittleEndian.PutUint32(b[4:], r.Col)
	binary.LittleEndian.PutUint32(b[8:], math.Float32bits(r.Value))
}

// DecodeRecord decodes b[:RecordSize].
func DecodeRecord(b []byte) Record {
	_ = b[RecordSize-1]

	return Record{
		Row:   binary.LittleEndian.Uint32(b[0:]),
		Col:   binary.LittleEndian.Uint32(b[4:]),
		Value: math.Float32frombits(binary.LittleEndian.Uint32(b[8:])),
	}
}

// DecodeRecords decodes n consecutive records from b.
// Returns an error when b holds fewer than n records.
func DecodeRecords(b []byte, n int) ([]Record, error) {
	if n < 0 || len(b) < n*RecordSize {
		return nil, fmt.Errorf("%d bytes for %d records", len(b), n)
	}
	out := make([]Record, n)
	for i := range out {
		out[i] = DecodeRecord(b[i*RecordSize:])
	}

	return out, nil
}

// PutHeader encodes h into b[:HeaderSize].
func PutHeader(b []byte, h Header) {
	_ = b[HeaderSize-1]
	binary.LittleEndian.PutUint32(b[0:], h.Count)
	binary.LittleEndian.PutUint32(b[4:], h.Capacity)
}

// DecodeHeader decodes b[:HeaderSize].
func DecodeHeader(b []byte) Header {
	_ = b[HeaderSize-1]

	return Header{
		Count:    binary.LittleEndian.Uint32(b[0:]),
		Capacity: binary.LittleEndian.Uint32(b[4:]),
	}
}

// recordBytes is the byte size of a records buffer with capacity slots.
// Storage bindings may not be empty, so at least one slot is allocated.
func recordBytes(capacity uint32) uint64 {
	return uint64(max(capacity, 1)) * RecordSize
}

// encodeIndices encodes non-negative ints as u32 words. Empty input yields
// one zero word.
func encodeIndices(xs []int) ([]byte, error) {
	out := make([]byte, max(len(xs), 1)*wordSize)
	for i, x := range xs {
		if x < 0 || uint64(x) > math.MaxUint32 {
			return nil, fmt.Errorf("index %d does not fit in u32", x)
		}
		binary.LittleEndian.PutUint32(out[i*wordSize:], uint32(x))
	}

	return out, nil
}

// encodeValues encodes float64 values as f32 words. Empty input yields one
// zero word.
func encodeValues(xs []float64) []byte {
	out := make([]byte, max(len(xs), 1)*wordSize)
	for i, x := range xs {
		binary.LittleEndian.PutUint32(out[i*wordSize:], math.Float32bits(float32(x)))
	}

	return out
}
