package excel

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"goanova/internal/errors"

	"github.com/xuri/excelize/v2"
)

// File types understood by the reader
const (
	FileTypeDelimited = "csv"
	FileTypeXLSX      = "xlsx"
)

// ReaderConfig controls how files are parsed
type ReaderConfig struct {
	Delimiter rune   // field separator for delimited text
	Sheet     string // workbook sheet; empty means the first sheet
	MaxBytes  int64  // upper bound on input size; zero means unbounded
}

// DefaultReaderConfig matches the semicolon-separated exports the tool was
// built around.
func DefaultReaderConfig() ReaderConfig {
	return ReaderConfig{Delimiter: ';'}
}

// DataReader handles reading delimited text and Excel workbooks
type DataReader struct {
	config ReaderConfig
}

// NewDataReader creates a new data reader
func NewDataReader(config ReaderConfig) *DataReader {
	if config.Delimiter == 0 {
		config.Delimiter = ';'
	}
	return &DataReader{config: config}
}

// FileType infers the parser from the file name. Anything that is not an
// .xlsx workbook is read as delimited text.
func FileType(filename string) string {
	if strings.EqualFold(filepath.Ext(filename), ".xlsx") {
		return FileTypeXLSX
	}
	return FileTypeDelimited
}

// ReadFile reads a file from disk
func (r *DataReader) ReadFile(path string) (*RawData, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound(fmt.Sprintf("file %s", path))
		}
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer file.Close()

	return r.Read(filepath.Base(path), file)
}

// Read parses src, choosing the parser from filename's extension
func (r *DataReader) Read(filename string, src io.Reader) (*RawData, error) {
	fileType := FileType(filename)
	log.Printf("[DataReader] Starting to read %s file: %s", fileType, filename)

	content, err := r.readLimited(src)
	if err != nil {
		return nil, err
	}

	switch fileType {
	case FileTypeXLSX:
		return r.readExcelData(content)
	default:
		return r.readDelimitedData(content)
	}
}

func (r *DataReader) readLimited(src io.Reader) ([]byte, error) {
	if r.config.MaxBytes <= 0 {
		content, err := io.ReadAll(src)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read upload")
		}
		return content, nil
	}

	content, err := io.ReadAll(io.LimitReader(src, r.config.MaxBytes+1))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read upload")
	}
	if int64(len(content)) > r.config.MaxBytes {
		return nil, errors.InvalidInput(fmt.Sprintf("file exceeds the %d byte limit", r.config.MaxBytes))
	}
	return content, nil
}

// readExcelData reads the configured sheet, or the first one
func (r *DataReader) readExcelData(content []byte) (*RawData, error) {
	startTime := time.Now()
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, errors.InvalidInput(fmt.Sprintf("failed to open Excel workbook: %v", err))
	}
	defer f.Close()

	sheet := r.config.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.InvalidInput("Excel workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.InvalidInput(fmt.Sprintf("failed to read sheet %q: %v", sheet, err))
	}
	log.Printf("[DataReader] Sheet %s read in %.2fms (%d rows)",
		sheet, float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))

	return r.processRows(FileTypeXLSX, rows)
}

// readDelimitedData reads delimited text with the configured separator
func (r *DataReader) readDelimitedData(content []byte) (*RawData, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.Comma = r.config.Delimiter
	reader.FieldsPerRecord = -1

	readStart := time.Now()
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.InvalidInput(fmt.Sprintf("failed to parse delimited file: %v", err))
	}
	log.Printf("[DataReader] Delimited file read in %.2fms (%d rows)",
		float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))

	return r.processRows(FileTypeDelimited, rows)
}

// processRows splits off the header and pads every data row to its width
func (r *DataReader) processRows(fileType string, rows [][]string) (*RawData, error) {
	if len(rows) < 2 {
		return nil, errors.InvalidInput("file must have a header row and at least one data row")
	}

	headers := rows[0]
	width := len(headers)
	var dataRows [][]string
	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		if len(row) > width {
			if !isBlank(row[width:]) {
				return nil, errors.InvalidInput(
					fmt.Sprintf("row %d has %d fields but the header has %d", i+2, len(row), width))
			}
			row = row[:width]
		}
		padded := make([]string, width)
		copy(padded, row)
		dataRows = append(dataRows, padded)
	}
	if len(dataRows) == 0 {
		return nil, errors.InvalidInput("file has no data rows")
	}

	log.Printf("[DataReader] %s file processed (%d columns, %d rows)",
		strings.ToUpper(fileType), width, len(dataRows))

	return &RawData{Headers: headers, Rows: dataRows}, nil
}

func isBlank(cells []string) bool {
	for _, cell := range cells {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
