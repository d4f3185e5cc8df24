// SPDX-License-Identifier: MIT

package gpu_test

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/katalvlaran/sparsekit/gpu"
	"github.com/katalvlaran/sparsekit/matrix"
	"github.com/katalvlaran/sparsekit/spgemm"
)

type MultiplierSuite struct {
	suite.Suite
	dev gpu.Device
	m   *gpu.Multiplier
}

func TestMultiplierSuite(t *testing.T) {
	suite.Run(t, new(MultiplierSuite))
}

func (s *MultiplierSuite) SetupTest() {
	s.dev = gpu.NewSoftwareDevice(gpu.WithDeviceWorkers(4))
	m, err := gpu.NewMultiplier(s.dev)
	s.Require().NoError(err)
	s.Require().Equal(gpu.DeviceReady, m.State())
	s.m = m
}

func (s *MultiplierSuite) TearDownTest() {
	s.m.Close()
	s.Require().NoError(s.dev.Close())
}

func (s *MultiplierSuite) csr(rows [][]float64) *matrix.CSR {
	flat := make([]float64, 0, len(rows)*len(rows[0]))
	for _, r := range rows {
		flat = append(flat, r...)
	}
	d, err := matrix.NewDenseFrom(len(rows), len(rows[0]), flat)
	s.Require().NoError(err)
	c, err := matrix.NewCSRFromDense(d)
	s.Require().NoError(err)

	return c
}

// randomCSR draws small integers so every product is exact in float32.
func (s *MultiplierSuite) randomCSR(r, c int, density float64, seed int64) *matrix.CSR {
	rng := rand.New(rand.NewSource(seed))
	coo, err := matrix.NewCOO(r, c)
	s.Require().NoError(err)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if rng.Float64() < density {
				s.Require().NoError(coo.Append(i, j, float64(rng.Intn(9)-4)))
			}
		}
	}
	m, err := matrix.NewCSRFromCOO(coo)
	s.Require().NoError(err)

	return m
}

func (s *MultiplierSuite) requireEqualsCPU(a, b *matrix.CSR, got *matrix.COO) {
	want, err := spgemm.Product(a, b)
	s.Require().NoError(err)
	ok, err := matrix.AllClose(got.ToDense(), want, 0, matrix.DefaultAbsTol)
	s.Require().NoError(err)
	s.Require().True(ok, "want\n%s\ngot\n%s", want, got.ToDense())
}

func (s *MultiplierSuite) TestDiagonal() {
	a := s.csr([][]float64{{1, 0}, {0, 2}})
	b := s.csr([][]float64{{3, 0}, {0, 4}})

	got, err := s.m.Multiply(context.Background(), a, b)
	s.Require().NoError(err)
	s.Equal(2, got.Rows())
	s.Equal(2, got.Cols())
	s.Equal(2, got.Len())
	s.requireEqualsCPU(a, b, got)
	s.Equal(gpu.DeviceReady, s.m.State())
}

func (s *MultiplierSuite) TestRowsAreAccumulatedOnDevice() {
	a := s.csr([][]float64{{1, 2, 3}, {1, -1, 0}})
	b := s.csr([][]float64{{1}, {1}, {1}})

	got, err := s.m.Multiply(context.Background(), a, b)
	s.Require().NoError(err)
	s.Require().Equal(2, got.Len(), "one record per output cell")
	// Cancellation leaves an explicit zero, as on the CPU.
	s.Equal([]matrix.Triplet{{Row: 0, Col: 0, Value: 6}, {Row: 1, Col: 0, Value: 0}}, got.Coalesce().Entries())
}

func (s *MultiplierSuite) TestAgreesWithCPU() {
	for _, tc := range []struct {
		m, k, n int
		density float64
	}{
		{1, 1, 1, 1},
		{17, 9, 13, 0.3},
		{130, 60, 70, 0.05}, // more rows than one workgroup
		{64, 64, 64, 0.1},
	} {
		a := s.randomCSR(tc.m, tc.k, tc.density, int64(tc.m+tc.n))
		b := s.randomCSR(tc.k, tc.n, tc.density, int64(tc.k*7+tc.n))

		got, err := s.m.Multiply(context.Background(), a, b)
		s.Require().NoError(err)
		bound, err := spgemm.PredictNNZ(a, b)
		s.Require().NoError(err)
		s.LessOrEqual(got.Len(), bound)
		s.requireSameEntries(a, b, got)
	}
}

func (s *MultiplierSuite) TestBatchSizes() {
	a := s.randomCSR(130, 40, 0.1, 21)
	b := s.randomCSR(40, 50, 0.1, 22)
	for _, batch := range []int{1, 3, 64, 65, 1000} {
		m, err := gpu.NewMultiplier(s.dev, gpu.WithBatchSize(batch))
		s.Require().NoError(err)
		got, err := m.Multiply(context.Background(), a, b)
		m.Close()
		s.Require().NoError(err, "batch %d", batch)
		s.requireSameEntries(a, b, got)
	}
}

// requireSameEntries checks got holds exactly the cells of the CPU product.
func (s *MultiplierSuite) requireSameEntries(a, b *matrix.CSR, got *matrix.COO) {
	want, err := spgemm.ProductSparse(a, b)
	s.Require().NoError(err)
	s.Require().Equal(want.NNZ(), got.Len())
	s.Require().Len(got.Coalesce().Entries(), got.Len(), "no duplicated cells")
	s.requireEqualsCPU(a, b, got)
}

func (s *MultiplierSuite) TestEmptyProduct() {
	a := s.csr([][]float64{{0, 0}, {0, 0}})
	b := s.csr([][]float64{{1, 2}, {3, 4}})

	got, err := s.m.Multiply(context.Background(), a, b)
	s.Require().NoError(err)
	s.Zero(got.Len())
}

func (s *MultiplierSuite) TestDimensionMismatchTouchesNothing() {
	a := s.csr([][]float64{{1, 2, 3}, {4, 5, 6}})

	err := s.m.Load(a, a)
	s.Require().ErrorIs(err, matrix.ErrDimensionMismatch)
	s.Equal(gpu.DeviceReady, s.m.State())

	_, err = s.m.Multiply(context.Background(), a, nil)
	s.Require().ErrorIs(err, matrix.ErrNilMatrix)
}

func (s *MultiplierSuite) TestStageOrder() {
	a := s.csr([][]float64{{1, 0}, {0, 2}})

	s.Require().ErrorIs(s.m.Dispatch(context.Background()), gpu.ErrInvalidState)
	_, err := s.m.Read()
	s.Require().ErrorIs(err, gpu.ErrInvalidState)

	s.Require().NoError(s.m.Load(a, a))
	s.Equal(gpu.BuffersLoaded, s.m.State())
	s.Require().ErrorIs(s.m.Load(a, a), gpu.ErrInvalidState)
	_, err = s.m.Read()
	s.Require().ErrorIs(err, gpu.ErrInvalidState)

	s.Require().NoError(s.m.Dispatch(context.Background()))
	s.Equal(gpu.Dispatched, s.m.State())

	got, err := s.m.Read()
	s.Require().NoError(err)
	s.Equal(gpu.Done, s.m.State())
	s.Equal(2, got.Len())

	_, err = s.m.Read()
	s.Require().ErrorIs(err, gpu.ErrInvalidState)
	s.m.Release()
	s.Equal(gpu.DeviceReady, s.m.State())
}

func (s *MultiplierSuite) TestCanceledBeforeSubmit() {
	a := s.csr([][]float64{{1, 1}, {1, 1}})
	s.Require().NoError(s.m.Load(a, a))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Require().ErrorIs(s.m.Dispatch(ctx), context.Canceled)
	s.Equal(gpu.BuffersLoaded, s.m.State())

	s.Require().NoError(s.m.Dispatch(context.Background()))
	got, err := s.m.Read()
	s.Require().NoError(err)
	s.requireEqualsCPU(a, a, got)
}

func (s *MultiplierSuite) TestReleaseWhileDispatched() {
	a := s.randomCSR(40, 40, 0.2, 3)
	s.Require().NoError(s.m.Load(a, a))
	s.Require().NoError(s.m.Dispatch(context.Background()))
	s.m.Release()
	s.Equal(gpu.DeviceReady, s.m.State())

	got, err := s.m.Multiply(context.Background(), a, a)
	s.Require().NoError(err)
	s.requireEqualsCPU(a, a, got)
}

func (s *MultiplierSuite) TestCloseReturnsToUninitialized() {
	s.m.Close()
	s.Equal(gpu.Uninitialized, s.m.State())
	a := s.csr([][]float64{{1}})
	s.Require().ErrorIs(s.m.Load(a, a), gpu.ErrInvalidState)
}

func TestMultiplier_Resources(t *testing.T) {
	_, err := gpu.NewMultiplier(nil)
	if !errors.Is(err, gpu.ErrResourceUnavailable) {
		t.Fatalf("nil device: %v", err)
	}

	dev := gpu.NewSoftwareDevice(gpu.WithMaxBufferSize(64))
	defer dev.Close()

	_, err = gpu.NewMultiplier(dev, gpu.WithShaderPath(filepath.Join(t.TempDir(), "missing.wgsl")))
	if !errors.Is(err, gpu.ErrResourceUnavailable) {
		t.Fatalf("missing shader: %v", err)
	}

	// Same kernel without the result group.
	dir := t.TempDir()
	src := gpu.SparseMulSource()
	broken := src[:strings.Index(src, "@group(2)")] + "@compute @workgroup_size(64)\nfn main() {}\n"
	path := filepath.Join(dir, "broken.wgsl")
	if err := os.WriteFile(path, []byte(broken), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err = gpu.NewMultiplier(dev, gpu.WithShaderPath(path))
	if !errors.Is(err, gpu.ErrResourceUnavailable) {
		t.Fatalf("mismatched layout: %v", err)
	}

	// Same interface, body refers to an undeclared name.
	badBody := strings.Replace(src, "let av = a_values[p];", "let av = a_values[p] * scale;", 1)
	if badBody == src {
		t.Fatal("kernel body changed; update the replacement")
	}
	path = filepath.Join(dir, "bad_body.wgsl")
	if err := os.WriteFile(path, []byte(badBody), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err = gpu.NewMultiplier(dev, gpu.WithShaderPath(path))
	if !errors.Is(err, gpu.ErrResourceUnavailable) {
		t.Fatalf("broken body: %v", err)
	}

	path = filepath.Join(dir, "copy.wgsl")
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		t.Fatal(err)
	}
	m, err := gpu.NewMultiplier(dev, gpu.WithShaderPath(path))
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	// 8 candidates * 12 bytes > 64-byte limit.
	coo, _ := matrix.NewCOO(2, 2)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			_ = coo.Append(i, j, 1)
		}
	}
	a, _ := matrix.NewCSRFromCOO(coo)
	if err := m.Load(a, a); !errors.Is(err, gpu.ErrResourceUnavailable) {
		t.Fatalf("buffer limit: %v", err)
	}
	if m.State() != gpu.DeviceReady {
		t.Fatalf("state after failed Load: %s", m.State())
	}
}
