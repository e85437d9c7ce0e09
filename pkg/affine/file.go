package affine

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// LoadMatrix reads a transform from disk. Two serializations are
// understood:
//
//   - .txt: a plain whitespace-separated 4x4 matrix, already in RAS
//     convention.
//   - .tfm: an ITK text transform file as written by ANTs registration
//     (a 3x3 rotation, a translation, and a fixed center of rotation,
//     in LPS convention). It is converted to a RAS 4x4 on load.
func LoadMatrix(path string) (*Transform, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".txt":
		return loadPlainText(path)
	case ".tfm":
		return loadITK(path)
	default:
		return nil, fmt.Errorf("unsupported transform file extension %q (want .txt or .tfm)", ext)
	}
}

// SaveMatrix writes the transform as a plain-text 4x4 matrix.
func SaveMatrix(t *Transform, path string) error {
	var b strings.Builder
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			if j > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(strconv.FormatFloat(t.At(i, j), 'g', 17, 64))
		}
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("error writing transform file: %w", err)
	}
	return nil
}

func loadPlainText(path string) (*Transform, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading transform file: %w", err)
	}
	fields := strings.Fields(string(data))
	if len(fields) != 16 {
		return nil, fmt.Errorf("transform file %s: expected 16 matrix elements, found %d", path, len(fields))
	}
	elems := make([]float64, 16)
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("transform file %s: bad matrix element %q: %w", path, f, err)
		}
		elems[i] = v
	}
	return &Transform{m: mat.NewDense(4, 4, elems)}, nil
}

// loadITK parses an ITK text transform file and converts it to a RAS
// 4x4. ITK stores the affine in LPS world coordinates as a 3x3 matrix R,
// a translation t and a fixed center of rotation c; the equivalent RAS
// translation is (R*c - c - t) with the third component negated, and the
// rotation is conjugated by diag(-1,-1,1).
func loadITK(path string) (*Transform, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error reading transform file: %w", err)
	}
	defer f.Close()

	var params, fixed []float64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "Parameters:"):
			params, err = parseFloats(strings.TrimPrefix(line, "Parameters:"))
		case strings.HasPrefix(line, "FixedParameters:"):
			fixed, err = parseFloats(strings.TrimPrefix(line, "FixedParameters:"))
		}
		if err != nil {
			return nil, fmt.Errorf("transform file %s: %w", path, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading transform file: %w", err)
	}
	if len(params) != 12 {
		return nil, fmt.Errorf("transform file %s: expected 12 affine parameters, found %d", path, len(params))
	}
	if len(fixed) != 3 {
		return nil, fmt.Errorf("transform file %s: expected 3 fixed parameters, found %d", path, len(fixed))
	}

	rot := mat.NewDense(3, 3, params[:9])
	trans := params[9:12]

	// RAS translation: (R*c - c - t), with the I/S axis negated.
	var rc mat.VecDense
	rc.MulVec(rot, mat.NewVecDense(3, fixed))
	rtrans := [3]float64{}
	for i := 0; i < 3; i++ {
		rtrans[i] = rc.AtVec(i) - fixed[i] - trans[i]
	}
	rtrans[2] = -rtrans[2]

	// RAS rotation: conjugate by diag(-1,-1,1).
	lps2ras := mat.NewDiagDense(3, []float64{-1, -1, 1})
	var tmp, ras mat.Dense
	tmp.Mul(lps2ras, rot)
	ras.Mul(&tmp, lps2ras)

	out := mat.NewDense(4, 4, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out.Set(i, j, ras.At(i, j))
		}
		out.Set(i, 3, rtrans[i])
	}
	out.Set(3, 3, 1)
	return &Transform{m: out}, nil
}

func parseFloats(s string) ([]float64, error) {
	fields := strings.Fields(s)
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("bad parameter %q: %w", f, err)
		}
		out[i] = v
	}
	return out, nil
}
