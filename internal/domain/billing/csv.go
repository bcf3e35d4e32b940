package billing

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseBillCSV reads an uploaded bill CSV into a CSVBill. The first row is
// the header; column lookup is case-insensitive. Item rows use the name (or
// item), qty and price columns; qty defaults to 1 and price to 0 when their
// columns are absent or blank. Patient metadata columns are captured
// first-non-empty per field, independently of which row they appear on.
// Unrecognized columns are ignored. Any row that fails to parse fails the
// whole upload.
func ParseBillCSV(raw []byte) (*CSVBill, error) {
	if !utf8.Valid(raw) {
		return nil, ErrBadEncoding
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrNoItems
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRow, err)
	}
	colIdx := make(map[string]int, len(header))
	for i, h := range header {
		colIdx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	nameCol, ok := colIdx["name"]
	if !ok {
		nameCol, ok = colIdx["item"]
	}
	if !ok {
		nameCol = -1
	}

	out := &CSVBill{}
	rowNum := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		rowNum++
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrBadRow, rowNum, err)
		}

		captureMeta(out, row, colIdx)

		if nameCol < 0 {
			continue
		}
		name := cell(row, nameCol)
		if name == "" {
			continue
		}
		qty, err := intCell(row, colIdx, "qty", 1)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrBadRow, rowNum, err)
		}
		if qty < 1 {
			return nil, fmt.Errorf("%w: row %d: quantity %d", ErrBadRow, rowNum, qty)
		}
		price, err := floatCell(row, colIdx, "price", 0)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrBadRow, rowNum, err)
		}
		if price < 0 {
			return nil, fmt.Errorf("%w: row %d: negative price", ErrBadRow, rowNum)
		}
		out.Items = append(out.Items, LineItem{Name: name, Qty: qty, Price: price})
	}

	if len(out.Items) == 0 {
		return nil, ErrNoItems
	}
	return out, nil
}

// captureMeta fills patient fields from a row, keeping the first non-empty
// value seen for each field.
func captureMeta(out *CSVBill, row []string, colIdx map[string]int) {
	set := func(dst *string, col string) {
		if *dst != "" {
			return
		}
		if i, ok := colIdx[col]; ok {
			*dst = cell(row, i)
		}
	}
	set(&out.PatientID, "patient_id")
	set(&out.Meta.Name, "patient_name")
	set(&out.Meta.Phone, "patient_phone")
	set(&out.Meta.MRN, "mrn")
	set(&out.Meta.Doctor, "doctor")
}

func cell(row []string, i int) string {
	if i >= 0 && i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func intCell(row []string, colIdx map[string]int, col string, def int) (int, error) {
	i, ok := colIdx[col]
	if !ok {
		return def, nil
	}
	s := cell(row, i)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.New(col + " is not an integer")
	}
	return v, nil
}

func floatCell(row []string, colIdx map[string]int, col string, def float64) (float64, error) {
	i, ok := colIdx[col]
	if !ok {
		return def, nil
	}
	s := cell(row, i)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.New(col + " is not a number")
	}
	return v, nil
}
