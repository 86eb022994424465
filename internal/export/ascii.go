// Package export writes and reads grid elevations as ESRI ASCII grids (.asc).
package export

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/talgya/landform/internal/grid"
)

// NoData is the NODATA_value written in the header.
const NoData = -9999

// ErrMalformed is returned by ReadASCII for input that is not a valid grid.
var ErrMalformed = errors.New("export: malformed ascii grid")

// ASCIIGrid is a parsed .asc file. Row 0 of Values is the top row.
type ASCIIGrid struct {
	NCols    int
	NRows    int
	XLL      float64
	YLL      float64
	CellSize float64
	NoData   float64
	Values   []float64 // Row-major, len NCols*NRows
}

// WriteASCII writes the six-line header followed by one line per grid row,
// j = 0 first, each elevation with two decimals.
func WriteASCII(w io.Writer, g *grid.Grid) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "ncols         %d\n", g.Width)
	fmt.Fprintf(bw, "nrows         %d\n", g.Height)
	fmt.Fprintf(bw, "xllcorner     0\n")
	fmt.Fprintf(bw, "yllcorner     0\n")
	fmt.Fprintf(bw, "cellsize      %s\n", strconv.FormatFloat(grid.CellSize, 'f', -1, 64))
	fmt.Fprintf(bw, "NODATA_value  %d\n", NoData)

	buf := make([]byte, 0, 16*g.Width)
	for j := 0; j < g.Height; j++ {
		buf = buf[:0]
		for i := 0; i < g.Width; i++ {
			if i > 0 {
				buf = append(buf, ' ')
			}
			buf = strconv.AppendFloat(buf, g.H[g.Index(i, j)], 'f', 2, 64)
		}
		buf = append(buf, '\n')
		if _, err := bw.Write(buf); err != nil {
			return fmt.Errorf("write row %d: %w", j, err)
		}
	}
	return bw.Flush()
}

// ExportASCII writes the grid to path, replacing any existing file.
func ExportASCII(path string, g *grid.Grid) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteASCII(f, g); err != nil {
		f.Close()
		return fmt.Errorf("export %s: %w", path, err)
	}
	return f.Close()
}

var headerKeys = [...]string{"ncols", "nrows", "xllcorner", "yllcorner", "cellsize", "nodata_value"}

// ReadASCII parses an ASCII grid written by WriteASCII (or any reader
// using the same six-key header).
func ReadASCII(r io.Reader) (*ASCIIGrid, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	header := make([]float64, len(headerKeys))
	for k, key := range headerKeys {
		if !sc.Scan() {
			return nil, fmt.Errorf("%w: missing %s", ErrMalformed, key)
		}
		fields := strings.Fields(sc.Text())
		if len(fields) != 2 || !strings.EqualFold(fields[0], key) {
			return nil, fmt.Errorf("%w: expected %s, got %q", ErrMalformed, key, sc.Text())
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, key, err)
		}
		header[k] = v
	}

	a := &ASCIIGrid{
		NCols:    int(header[0]),
		NRows:    int(header[1]),
		XLL:      header[2],
		YLL:      header[3],
		CellSize: header[4],
		NoData:   header[5],
	}
	if a.NCols <= 0 || a.NRows <= 0 {
		return nil, fmt.Errorf("%w: non-positive dimensions %dx%d", ErrMalformed, a.NCols, a.NRows)
	}

	a.Values = make([]float64, 0, a.NCols*a.NRows)
	for row := 0; row < a.NRows; row++ {
		if !sc.Scan() {
			return nil, fmt.Errorf("%w: missing row %d", ErrMalformed, row)
		}
		fields := strings.Fields(sc.Text())
		if len(fields) != a.NCols {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrMalformed, row, len(fields), a.NCols)
		}
		for _, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d: %v", ErrMalformed, row, err)
			}
			a.Values = append(a.Values, v)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read ascii grid: %w", err)
	}
	return a, nil
}

// ImportASCII reads an ASCII grid file from path.
func ImportASCII(path string) (*ASCIIGrid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadASCII(f)
}

// Elevation returns the value at column i, row j.
func (a *ASCIIGrid) Elevation(i, j int) float64 {
	return a.Values[i+j*a.NCols]
}
