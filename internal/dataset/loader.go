package dataset

import (
	"fmt"
	"io"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"goanova/adapters/excel"
	"goanova/domain/dataset"
	"goanova/internal/config"
	"goanova/internal/errors"
)

// missingTokens are cell values read as missing, in addition to blanks
var missingTokens = map[string]bool{
	"NA":   true,
	"N/A":  true,
	"n/a":  true,
	"NaN":  true,
	"nan":  true,
	"null": true,
	"NULL": true,
	"None": true,
	"#N/A": true,
}

// Loader turns uploaded files into typed tables
type Loader struct {
	reader *excel.DataReader
}

// NewLoader creates a loader from the data configuration
func NewLoader(cfg config.DataConfig) *Loader {
	return &Loader{reader: excel.NewDataReader(excel.ReaderConfig{
		Delimiter: cfg.Delimiter,
		Sheet:     cfg.ExcelSheet,
		MaxBytes:  cfg.MaxUploadBytes,
	})}
}

// Load parses src and builds a table. The parser is chosen by filename.
func (l *Loader) Load(filename string, src io.Reader) (*dataset.Table, error) {
	start := time.Now()
	raw, err := l.reader.Read(filename, src)
	if err != nil {
		return nil, err
	}
	table, err := BuildTable(raw)
	if err != nil {
		return nil, err
	}
	log.Printf("[Loader] Loaded %s: %d columns, %d rows in %dms",
		filename, table.ColumnCount(), table.RowCount(), time.Since(start).Milliseconds())
	return table, nil
}

// LoadFile reads and builds a table from a path on disk
func (l *Loader) LoadFile(path string) (*dataset.Table, error) {
	raw, err := l.reader.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return BuildTable(raw)
}

// BuildTable normalizes headers and infers each column's type once. A column
// is numeric when every non-missing cell parses as a finite number.
func BuildTable(raw *excel.RawData) (*dataset.Table, error) {
	if raw == nil || raw.ColumnCount() == 0 {
		return nil, errors.InvalidInput("file has no columns")
	}

	origin := make(map[string]string, raw.ColumnCount())
	columns := make([]*dataset.Column, 0, raw.ColumnCount())
	for j, header := range raw.Headers {
		name := dataset.NormalizeColumnName(header, j+1)
		if previous, dup := origin[name]; dup {
			return nil, errors.InvalidInput(
				fmt.Sprintf("headers %q and %q both normalize to %q", previous, header, name))
		}
		origin[name] = header
		columns = append(columns, inferColumn(name, raw.Column(j)))
	}

	return dataset.NewTable(columns...)
}

func inferColumn(name string, cells []string) *dataset.Column {
	numbers := make([]float64, len(cells))
	labels := make([]string, len(cells))
	numeric := true
	for i, cell := range cells {
		cell = strings.TrimSpace(cell)
		if isMissing(cell) {
			numbers[i] = math.NaN()
			continue
		}
		labels[i] = cell
		if !numeric {
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
			numeric = false
			continue
		}
		numbers[i] = v
	}

	if numeric {
		return dataset.NewNumericColumn(name, numbers)
	}
	return dataset.NewCategoricalColumn(name, labels)
}

func isMissing(cell string) bool {
	return cell == "" || missingTokens[cell]
}
