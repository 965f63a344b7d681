package source

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/hyperjump/icdlookup/internal/models"
)

// ctxCheckEvery is how many rows are decoded between context checks.
const ctxCheckEvery = 1024

// rawRecord accepts both "desc" and "description" for the description field.
type rawRecord struct {
	Code        string `json:"code" yaml:"code"`
	Desc        string `json:"desc" yaml:"desc"`
	Description string `json:"description" yaml:"description"`
}

func (r rawRecord) record() models.Record {
	desc := r.Desc
	if desc == "" {
		desc = r.Description
	}
	return models.Record{Code: r.Code, Desc: desc}
}

func decodeJSON(r io.Reader) ([]models.Record, error) {
	var raw []rawRecord
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return toRecords(raw), nil
}

func decodeJSONL(ctx context.Context, r io.Reader) ([]models.Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var records []models.Record
	line := 0
	for scanner.Scan() {
		line++
		if line%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		var raw rawRecord
		if err := json.Unmarshal(text, &raw); err != nil {
			return nil, fmt.Errorf("decode jsonl line %d: %w", line, err)
		}
		records = append(records, raw.record())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read jsonl: %w", err)
	}
	return records, nil
}

func decodeYAML(r io.Reader) ([]models.Record, error) {
	var raw []rawRecord
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return toRecords(raw), nil
}

func decodeDelimited(ctx context.Context, r io.Reader, comma rune) ([]models.Record, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var rows [][]string
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read delimited: %w", err)
		}
		rows = append(rows, row)
		if len(rows)%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
	}
	return tableRecords(rows)
}

func decodeXLSX(r io.Reader, sheet string) ([]models.Record, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("get rows for sheet %q: %w", sheet, err)
	}
	return tableRecords(rows)
}

// tableRecords maps header-led rows (CSV, TSV, spreadsheet) to records. The header
// must name a "code" column and a "desc" or "description" column; other columns are ignored.
func tableRecords(rows [][]string) ([]models.Record, error) {
	if len(rows) == 0 {
		return nil, errors.New("missing header row")
	}
	codeCol, descCol := -1, -1
	for i, name := range rows[0] {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		switch name {
		case "code":
			if codeCol < 0 {
				codeCol = i
			}
		case "desc", "description":
			if descCol < 0 {
				descCol = i
			}
		}
	}
	if codeCol < 0 || descCol < 0 {
		return nil, fmt.Errorf("header must contain code and desc columns, got %v", rows[0])
	}

	records := make([]models.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		records = append(records, models.Record{
			Code: cell(row, codeCol),
			Desc: cell(row, descCol),
		})
	}
	return records, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func toRecords(raw []rawRecord) []models.Record {
	records := make([]models.Record, len(raw))
	for i, r := range raw {
		records[i] = r.record()
	}
	return records
}
