// SPDX-License-Identifier: MIT

package mtx

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/katalvlaran/sparsekit/matrix"
)

const bannerPrefix = "%%MatrixMarket"

// maxPrealloc caps the entry buffer sized from the untrusted size line;
// larger files grow it as entries arrive.
const maxPrealloc = 1 << 16

// Field is the value type declared in the banner.
type Field string

const (
	FieldReal    Field = "real"
	FieldInteger Field = "integer"
	FieldPattern Field = "pattern"
)

// Symmetry is the storage scheme declared in the banner.
type Symmetry string

const (
	General   Symmetry = "general"
	Symmetric Symmetry = "symmetric"
)

// Header describes a parsed file.
type Header struct {
	Field    Field
	Symmetry Symmetry
	Rows     int
	Cols     int
	NNZ      int // entries stored in the file, before symmetric expansion
}

// Read parses a coordinate file into a COO.
//
// Errors:
//   - ErrMalformedInput for a missing or invalid size line, a bad entry line,
//     an index outside the declared shape, or fewer entries than declared.
//   - ErrUnsupported for banners other than "matrix coordinate
//     real|integer|pattern general|symmetric".
//   - read errors of r, wrapped.
func Read(r io.Reader, opts ...matrix.Option) (*matrix.COO, error) {
	coo, _, err := ReadWithHeader(r, opts...)

	return coo, err
}

// ReadWithHeader is Read that also returns the parsed header.
func ReadWithHeader(r io.Reader, opts ...matrix.Option) (*matrix.COO, Header, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	h := Header{Field: FieldReal, Symmetry: General}

	line := 0
	sized := false
	for !sized && sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		switch {
		case line == 1 && strings.HasPrefix(text, bannerPrefix):
			if err := parseBanner(text, &h); err != nil {
				return nil, Header{}, fmt.Errorf("mtx: line 1: %w", err)
			}
		case text == "" || strings.HasPrefix(text, "%"):
			continue
		default:
			if err := parseSize(text, &h); err != nil {
				return nil, Header{}, lineErrorf(line, "size line %q: %v", text, err)
			}
			sized = true
		}
	}
	if err := sc.Err(); err != nil {
		return nil, Header{}, fmt.Errorf("mtx: %w", err)
	}
	if !sized {
		return nil, Header{}, lineErrorf(line, "missing size line")
	}

	capacity := min(h.NNZ, maxPrealloc)
	if h.Symmetry == Symmetric {
		capacity *= 2
	}
	coo, err := matrix.NewCOOWithCapacity(h.Rows, h.Cols, capacity, opts...)
	if err != nil {
		return nil, Header{}, lineErrorf(line, "shape %d×%d: %v", h.Rows, h.Cols, err)
	}

	for k := 0; k < h.NNZ; {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return nil, Header{}, fmt.Errorf("mtx: %w", err)
			}
			return nil, Header{}, lineErrorf(line, "%d of %d entries", k, h.NNZ)
		}
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "%") {
			continue
		}
		i, j, v, err := parseEntry(text, h.Field)
		if err != nil {
			return nil, Header{}, lineErrorf(line, "entry %q: %v", text, err)
		}
		if err := coo.Append(i-1, j-1, v); err != nil {
			return nil, Header{}, lineErrorf(line, "entry (%d,%d): %v", i, j, err)
		}
		if h.Symmetry == Symmetric && i != j {
			if err := coo.Append(j-1, i-1, v); err != nil {
				return nil, Header{}, lineErrorf(line, "mirror of (%d,%d): %v", i, j, err)
			}
		}
		k++
	}

	return coo, h, nil
}

// ReadFile opens path and reads it with Read.
func ReadFile(path string, opts ...matrix.Option) (*matrix.COO, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mtx: %w", err)
	}
	defer f.Close()

	return Read(bufio.NewReader(f), opts...)
}

// parseBanner reads "%%MatrixMarket matrix coordinate <field> <symmetry>".
func parseBanner(text string, h *Header) error {
	parts := strings.Fields(strings.ToLower(text))
	if len(parts) != 5 {
		return fmt.Errorf("banner %q: %w", text, ErrMalformedInput)
	}
	if parts[1] != "matrix" || parts[2] != "coordinate" {
		return fmt.Errorf("%s %s: %w", parts[1], parts[2], ErrUnsupported)
	}
	switch f := Field(parts[3]); f {
	case FieldReal, FieldInteger, FieldPattern:
		h.Field = f
	default:
		return fmt.Errorf("field %s: %w", parts[3], ErrUnsupported)
	}
	switch s := Symmetry(parts[4]); s {
	case General, Symmetric:
		h.Symmetry = s
	default:
		return fmt.Errorf("symmetry %s: %w", parts[4], ErrUnsupported)
	}

	return nil
}

func parseSize(text string, h *Header) error {
	parts := strings.Fields(text)
	if len(parts) != 3 {
		return fmt.Errorf("want 3 integers, got %d fields", len(parts))
	}
	var dims [3]int
	for k, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return err
		}
		if n < 0 {
			return fmt.Errorf("negative %d", n)
		}
		dims[k] = n
	}
	h.Rows, h.Cols, h.NNZ = dims[0], dims[1], dims[2]
	if h.Symmetry == Symmetric && h.Rows != h.Cols {
		return fmt.Errorf("symmetric %d×%d is not square", h.Rows, h.Cols)
	}

	return nil
}

func parseEntry(text string, field Field) (i, j int, v float64, err error) {
	parts := strings.Fields(text)
	want := 3
	if field == FieldPattern {
		want = 2
	}
	if len(parts) < want {
		return 0, 0, 0, fmt.Errorf("want %d fields, got %d", want, len(parts))
	}
	if i, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, 0, err
	}
	if j, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, 0, err
	}
	if i < 1 || j < 1 {
		return 0, 0, 0, fmt.Errorf("indices are 1-based, got (%d,%d)", i, j)
	}
	if field == FieldPattern {
		return i, j, 1, nil
	}
	if v, err = strconv.ParseFloat(parts[2], 64); err != nil {
		return 0, 0, 0, err
	}

	return i, j, v, nil
}
