package excel

import (
	"context"
	"encoding/csv"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"vardrill/domain/drill"
	"vardrill/internal/errors"
	"vardrill/ports"
)

// DataReader loads a dataset from an Excel workbook or a CSV file.
type DataReader struct {
	cfg      ReaderConfig
	fileType string // "xlsx" or "csv"
}

var _ ports.DatasetSource = (*DataReader)(nil)

// NewDataReader creates a reader; the file type follows the extension.
func NewDataReader(cfg ReaderConfig) *DataReader {
	fileType := "xlsx"
	if strings.ToLower(filepath.Ext(cfg.FilePath)) == ".csv" {
		fileType = "csv"
	}
	return &DataReader{cfg: cfg, fileType: fileType}
}

// Path returns the file the reader loads.
func (r *DataReader) Path() string { return r.cfg.FilePath }

// ReadDataset reads the file into typed rows.
func (r *DataReader) ReadDataset(ctx context.Context) (*drill.Dataset, error) {
	log.Printf("[DataReader] Starting to read %s file: %s", r.fileType, r.cfg.FilePath)

	if _, err := os.Stat(r.cfg.FilePath); os.IsNotExist(err) {
		return nil, errors.DataSourceError("data file not found: "+r.cfg.FilePath, err)
	}

	var (
		raw [][]string
		err error
	)
	start := time.Now()
	switch r.fileType {
	case "csv":
		raw, err = r.readCSV()
	default:
		raw, err = r.readExcel()
	}
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log.Printf("[DataReader] %s read in %.2fms (%d rows)", strings.ToUpper(r.fileType),
		float64(time.Since(start).Nanoseconds())/1e6, len(raw))

	return BuildDataset(r.cfg.FilePath, raw)
}

func (r *DataReader) readExcel() ([][]string, error) {
	f, err := excelize.OpenFile(r.cfg.FilePath)
	if err != nil {
		return nil, errors.DataSourceError("failed to open Excel file", err)
	}
	defer f.Close()

	sheet := r.cfg.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.DataSourceError("workbook has no sheets", nil)
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.DataSourceError("failed to read sheet "+sheet, err)
	}
	return rows, nil
}

func (r *DataReader) readCSV() ([][]string, error) {
	file, err := os.Open(r.cfg.FilePath)
	if err != nil {
		return nil, errors.DataSourceError("failed to open CSV file", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.DataSourceError("failed to read CSV file", err)
	}
	return rows, nil
}

// BuildDataset turns a header row plus data rows into typed rows. Blank
// headers are skipped, short rows leave trailing cells null.
func BuildDataset(source string, raw [][]string) (*drill.Dataset, error) {
	if len(raw) < 2 {
		return nil, errors.DataSourceError("file must have a header row and at least one data row", nil)
	}

	type column struct {
		name  string
		index int
	}
	var columns []column
	seen := map[string]bool{}
	for i, h := range raw[0] {
		name := strings.TrimSpace(h)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		columns = append(columns, column{name: name, index: i})
	}
	if len(columns) == 0 {
		return nil, errors.DataSourceError("header row is empty", nil)
	}

	rows := make([]drill.Row, 0, len(raw)-1)
	for _, cells := range raw[1:] {
		if blankRow(cells) {
			continue
		}
		row := make(drill.Row, len(columns))
		for _, c := range columns {
			if c.index < len(cells) {
				row[c.name] = drill.ParseCell(cells[c.index])
			} else {
				row[c.name] = drill.NullValue()
			}
		}
		rows = append(rows, row)
	}

	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.name
	}
	log.Printf("[DataReader] dataset built (%d columns, %d rows)", len(names), len(rows))
	return drill.NewDataset(source, names, rows), nil
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
