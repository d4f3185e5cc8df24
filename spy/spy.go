// SPDX-License-Identifier: MIT

// Package spy draws the sparsity pattern of a matrix: one marker per stored
// entry, row 0 at the top, columns left to right.
package spy

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg/draw"

	"github.com/katalvlaran/sparsekit/matrix"
)

// ErrUnsupportedFormat reports an image format gonum/plot cannot encode.
var ErrUnsupportedFormat = errors.New("spy: unsupported format")

var formats = map[string]bool{
	"png": true, "svg": true, "pdf": true, "eps": true,
	"jpg": true, "jpeg": true, "tif": true, "tiff": true,
}

// RenderCOO writes the pattern of coo to w. Duplicated coordinates and
// entries whose value is exactly zero are still drawn: the pattern is the
// storage, not the values.
func RenderCOO(w io.Writer, coo *matrix.COO, opts ...Option) error {
	if coo == nil {
		return fmt.Errorf("spy: RenderCOO: %w", matrix.ErrNilMatrix)
	}
	o := gatherOptions(opts...)
	pts := cells(coo.Shape(), o.resolution, func(yield func(i, j int)) {
		for _, t := range coo.Entries() {
			yield(t.Row, t.Col)
		}
	})

	return render(w, coo.Shape(), pts, o)
}

// RenderCSR writes the pattern of csr to w.
func RenderCSR(w io.Writer, csr *matrix.CSR, opts ...Option) error {
	if csr == nil {
		return fmt.Errorf("spy: RenderCSR: %w", matrix.ErrNilMatrix)
	}
	o := gatherOptions(opts...)
	pts := cells(csr.Shape(), o.resolution, func(yield func(i, j int)) {
		for i := 0; i < csr.Rows(); i++ {
			cols, _ := csr.Row(i)
			for _, j := range cols {
				yield(i, j)
			}
		}
	})

	return render(w, csr.Shape(), pts, o)
}

// SaveFile renders coo into path; the format follows the file extension.
func SaveFile(path string, coo *matrix.COO, opts ...Option) (err error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("spy: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("spy: %w", cerr)
		}
	}()

	return RenderCOO(f, coo, append(opts, WithFormat(ext))...)
}

// cells maps entries onto at most res×res bins and returns one point per
// occupied bin, in first-seen order. Coordinates are bin centres expressed
// in matrix units so the axes keep reading as row and column indices.
func cells(s matrix.Shape, res int, each func(yield func(i, j int))) plotter.XYs {
	rowBin := binWidth(s.Rows, res)
	colBin := binWidth(s.Cols, res)

	seen := make(map[[2]int]struct{})
	var pts plotter.XYs
	each(func(i, j int) {
		key := [2]int{i / rowBin, j / colBin}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		pts = append(pts, plotter.XY{
			X: (float64(key[1]) + 0.5) * float64(colBin),
			Y: (float64(key[0]) + 0.5) * float64(rowBin),
		})
	})

	return pts
}

// binWidth is the number of matrix indices folded into one bin.
func binWidth(n, res int) int {
	if n <= res {
		return 1
	}

	return (n + res - 1) / res
}

func render(w io.Writer, s matrix.Shape, pts plotter.XYs, o Options) error {
	if !formats[o.format] {
		return fmt.Errorf("spy: %q: %w", o.format, ErrUnsupportedFormat)
	}

	p := plot.New()
	p.Title.Text = o.title
	p.X.Label.Text = "column"
	p.Y.Label.Text = "row"
	p.X.Min, p.X.Max = 0, float64(s.Cols)
	p.Y.Min, p.Y.Max = 0, float64(s.Rows)
	p.Y.Scale = plot.InvertedScale{Normalizer: plot.LinearScale{}}

	if len(pts) > 0 {
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return fmt.Errorf("spy: scatter: %w", err)
		}
		sc.GlyphStyle.Shape = draw.BoxGlyph{}
		sc.GlyphStyle.Radius = o.marker
		p.Add(sc)
	}

	wt, err := p.WriterTo(o.size, o.size, o.format)
	if err != nil {
		return fmt.Errorf("spy: encode: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("spy: write: %w", err)
	}

	return nil
}
