// SPDX-License-Identifier: MIT

package mtx

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/katalvlaran/sparsekit/matrix"
)

// Write emits coo as "matrix coordinate real general", entries in storage
// order with 1-based indices. Values use the shortest representation that
// reads back to the same float64.
func Write(w io.Writer, coo *matrix.COO) error {
	if coo == nil {
		return fmt.Errorf("mtx: Write: %w", matrix.ErrNilMatrix)
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s matrix coordinate real general\n", bannerPrefix)
	fmt.Fprintf(bw, "%d %d %d\n", coo.Rows(), coo.Cols(), coo.Len())
	var buf []byte
	for _, e := range coo.Entries() {
		buf = buf[:0]
		buf = strconv.AppendInt(buf, int64(e.Row+1), 10)
		buf = append(buf, ' ')
		buf = strconv.AppendInt(buf, int64(e.Col+1), 10)
		buf = append(buf, ' ')
		buf = strconv.AppendFloat(buf, e.Value, 'g', -1, 64)
		buf = append(buf, '\n')
		if _, err := bw.Write(buf); err != nil {
			return fmt.Errorf("mtx: Write: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("mtx: Write: %w", err)
	}

	return nil
}

// WriteFile creates (or truncates) path and writes coo to it.
func WriteFile(path string, coo *matrix.COO) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("mtx: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("mtx: %w", cerr)
		}
	}()

	return Write(f, coo)
}
