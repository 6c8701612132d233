package grade

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/escola/core"
)

var exportHeader = []string{"Matrícula", "Aluno", "1º Bimestre", "2º Bimestre", "3º Bimestre", "4º Bimestre", "Média", "Situação"}

// ExportCSV renders the sheet with one row per student.
// Registration and name are quoted; scores and average have one decimal or are empty.
func ExportCSV(sheet Sheet) string {
	lines := make([]string, 0, len(sheet.Rows)+1)
	lines = append(lines, strings.Join(exportHeader, ","))
	for _, row := range sheet.Rows {
		fields := make([]string, 0, len(exportHeader))
		fields = append(fields, core.QuoteCSV(row.RegistrationNumber), core.QuoteCSV(row.StudentName))
		for _, s := range row.Scores {
			fields = append(fields, formatScore(s))
		}
		fields = append(fields, formatScore(row.Average), StatusLabel(row.Status))
		lines = append(lines, strings.Join(fields, ","))
	}
	return strings.Join(lines, "\n")
}

func formatScore(s *float64) string {
	if s == nil {
		return ""
	}
	return strconv.FormatFloat(*s, 'f', 1, 64)
}

// import columns
const (
	colRegistration = iota
	colName
	colBim1
	colBim2
	colBim3
	colBim4
	numCols
)

var (
	colAliases = [numCols][]string{
		colRegistration: {"matricula", "registro", "registrationnumber", "registration", "enrollment"},
		colName:         {"aluno", "nome", "studentname", "name", "student"},
		colBim1:         {"1bimestre", "bimestre1", "1bim", "bim1"},
		colBim2:         {"2bimestre", "bimestre2", "2bim", "bim2"},
		colBim3:         {"3bimestre", "bimestre3", "3bim", "bim3"},
		colBim4:         {"4bimestre", "bimestre4", "4bim", "bim4"},
	}
	colMinRatio = 0.7

	headerReplacer = strings.NewReplacer(
		"á", "a", "à", "a", "â", "a", "ã", "a",
		"é", "e", "ê", "e", "í", "i",
		"ó", "o", "ô", "o", "õ", "o", "ú", "u", "ü", "u", "ç", "c",
		"º", "", "ª", "", "°", "", " ", "", "_", "", "-", "", ".", "",
	)
)

func normalizeHeader(h string) string {
	return headerReplacer.Replace(core.CleanString(strings.Trim(h, "\ufeff\""), true /* lower */))
}

func headerRatio(a, b string) float64 {
	return difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, "")).Ratio()
}

// resolveColumns maps each import column to the index of its best matching header (-1 when absent).
// Bimester columns also require their number in the header.
func resolveColumns(headers []string) [numCols]int {
	var idx [numCols]int
	var best [numCols]float64
	for c := range idx {
		idx[c] = -1
	}
	for i, h := range headers {
		nh := normalizeHeader(h)
		if nh == "" {
			continue
		}
		for c, aliases := range colAliases {
			if c >= colBim1 && !strings.Contains(nh, strconv.Itoa(c-colBim1+1)) {
				continue
			}
			for _, alias := range aliases {
				if r := headerRatio(nh, alias); r >= colMinRatio && r > best[c] {
					best[c] = r
					idx[c] = i
				}
			}
		}
	}
	return idx
}

// RowError reports a rejected import line (1-based, the header is line 1).
type RowError struct {
	Line  int    `json:"line"`
	Error string `json:"error"`
}

// ImportReport summarizes a grade import.
type ImportReport struct {
	Rows     int        `json:"rows"`
	Imported int        `json:"imported"`
	Errors   []RowError `json:"errors"`
}

// ImportCSV reads a grade sheet (as produced by ExportCSV, or any CSV with recognizable headers)
// and upserts its scores for the class's students, matched by registration number.
// Empty scores are skipped; unknown students and invalid scores are reported per line.
func (svc *Service) ImportCSV(ctx context.Context, q SheetQuery, r io.Reader) (ImportReport, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true
	records, err := reader.ReadAll()
	if err != nil {
		return ImportReport{}, core.NewValidationError(errors.Wrap(err, "invalid CSV file"))
	}
	if len(records) < 2 {
		return ImportReport{}, core.NewValidationError(errors.New("the CSV file needs a header and at least one row"))
	}

	cols := resolveColumns(records[0])
	var missing []string
	for c, i := range cols {
		if i < 0 && c != colName {
			missing = append(missing, exportHeader[c])
		}
	}
	if len(missing) > 0 {
		return ImportReport{}, core.NewValidationError(
			errors.Errorf("missing CSV columns: %s", strings.Join(missing, ", ")),
		)
	}

	sheet, err := svc.Sheet(ctx, q)
	if err != nil {
		return ImportReport{}, err
	}
	periodIDs := make(map[int]string, len(sheet.Periods))
	for _, p := range sheet.Periods {
		periodIDs[p.PeriodNumber] = p.ID
	}
	if len(periodIDs) < periodsPerYear {
		return ImportReport{}, ErrPeriodsMissing
	}
	studentIDs := make(map[string]string, len(sheet.Rows))
	for _, row := range sheet.Rows {
		studentIDs[row.RegistrationNumber] = row.StudentID
	}

	report := ImportReport{Errors: []RowError{}}
	var batch UpsertGrades
	for n, rec := range records[1:] {
		line := n + 2
		if isBlankRecord(rec) {
			continue
		}
		report.Rows++

		registration := field(rec, cols[colRegistration])
		studentID, ok := studentIDs[registration]
		if !ok {
			report.Errors = append(report.Errors, RowError{Line: line, Error: fmt.Sprintf("no student with registration %q in this class", registration)})
			continue
		}

		var rowGrades []UpsertGrade
		var rowErr string
		for num := 1; num <= periodsPerYear; num++ {
			raw := field(rec, cols[colBim1+num-1])
			if raw == "" {
				continue
			}
			s, err := strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64)
			if err != nil || s < 0 || s > 10 {
				rowErr = fmt.Sprintf("invalid score %q for %s", raw, exportHeader[colBim1+num-1])
				break
			}
			rowGrades = append(rowGrades, UpsertGrade{
				StudentID:       studentID,
				SubjectID:       q.SubjectID,
				GradingPeriodID: periodIDs[num],
				Score:           &s,
			})
		}
		if rowErr != "" {
			report.Errors = append(report.Errors, RowError{Line: line, Error: rowErr})
			continue
		}
		batch.Grades = append(batch.Grades, rowGrades...)
	}

	if len(batch.Grades) > 0 {
		saved, err := svc.Upsert(ctx, batch)
		if err != nil {
			return ImportReport{}, errors.Wrap(err, "upserting imported grades")
		}
		report.Imported = len(saved)
	}
	return report, nil
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return core.CleanString(rec[i])
}

func isBlankRecord(rec []string) bool {
	for _, f := range rec {
		if core.CleanString(f) != "" {
			return false
		}
	}
	return true
}
