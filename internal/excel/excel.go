package excel

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gosimple/slug"
	"github.com/xuri/excelize/v2"

	"github.com/derekprior/pooldraw/internal/draw"
	"github.com/derekprior/pooldraw/internal/fixtures"
)

const (
	summarySheet  = "Summary"
	fixturesSheet = "Fixtures"
	balanceSheet  = "Balance"

	maxSheetName = 31
)

var fixtureHeaders = []string{"Pool", "Round", "Home ID", "Home", "Away ID", "Away"}

// Generate creates a workbook with a summary, the fixture list, the
// home/away balance and one sheet per player.
func Generate(tournament string, players []draw.Player, result *fixtures.Result) (*excelize.File, error) {
	f := excelize.NewFile()

	// Set default font for the workbook
	f.SetDefaultFont("Arial")

	names := make(map[string]string, len(players))
	for _, p := range players {
		names[p.ID] = p.Name
	}

	if err := writeSummarySheet(f, tournament, players, result); err != nil {
		return nil, fmt.Errorf("writing summary sheet: %w", err)
	}
	if err := writeFixturesSheet(f, names, result.Matches); err != nil {
		return nil, fmt.Errorf("writing fixtures sheet: %w", err)
	}
	if err := writeBalanceSheet(f, players, result); err != nil {
		return nil, fmt.Errorf("writing balance sheet: %w", err)
	}
	if err := writePlayerSheets(f, players, names, result.Matches); err != nil {
		return nil, fmt.Errorf("writing player sheets: %w", err)
	}

	f.DeleteSheet("Sheet1")
	return f, nil
}

type styles struct {
	header int
	cell   int
}

func newStyles(f *excelize.File) styles {
	header, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 12, Family: "Arial"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#4472C4"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	cell, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 12, Family: "Arial"},
	})
	return styles{header: header, cell: cell}
}

func writeHeaders(f *excelize.File, sheet string, headers []string, st styles) {
	for i, h := range headers {
		f.SetCellValue(sheet, cellRef(i+1, 1), h)
	}
	if st.header != 0 {
		f.SetCellStyle(sheet, cellRef(1, 1), cellRef(len(headers), 1), st.header)
	}
}

func styleRows(f *excelize.File, sheet string, cols, rows int, st styles) {
	if st.cell != 0 && rows > 0 {
		f.SetCellStyle(sheet, cellRef(1, 2), cellRef(cols, rows+1), st.cell)
	}
}

func writeSummarySheet(f *excelize.File, tournament string, players []draw.Player, result *fixtures.Result) error {
	sheet := summarySheet
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	st := newStyles(f)

	rows := [][2]any{
		{"Tournament", tournament},
		{"Run ID", result.RunID},
		{"Seed", strconv.FormatInt(result.Seed, 10)},
		{"State", string(result.State)},
		{"Players", len(players)},
		{"Matches", len(result.Matches)},
		{"Matches per player", result.Report.MatchesPerPlayer},
	}
	for i, r := range rows {
		f.SetCellValue(sheet, cellRef(1, i+1), r[0])
		f.SetCellValue(sheet, cellRef(2, i+1), r[1])
	}
	if st.header != 0 {
		f.SetCellStyle(sheet, "A1", cellRef(1, len(rows)), st.header)
	}

	row := len(rows) + 2
	f.SetCellValue(sheet, cellRef(1, row), "Warnings")
	if len(result.Warnings) == 0 {
		f.SetCellValue(sheet, cellRef(2, row), "None")
	}
	for _, w := range result.Warnings {
		f.SetCellValue(sheet, cellRef(2, row), w)
		row++
	}

	f.SetColWidth(sheet, "A", "A", 22)
	f.SetColWidth(sheet, "B", "B", 60)
	return nil
}

func writeFixturesSheet(f *excelize.File, names map[string]string, matches []draw.Match) error {
	sheet := fixturesSheet
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	st := newStyles(f)
	writeHeaders(f, sheet, fixtureHeaders, st)

	for i, m := range matches {
		row := i + 2
		f.SetCellValue(sheet, cellRef(1, row), m.Pool)
		f.SetCellValue(sheet, cellRef(2, row), m.Round)
		f.SetCellValue(sheet, cellRef(3, row), m.HomeID)
		f.SetCellValue(sheet, cellRef(4, row), names[m.HomeID])
		f.SetCellValue(sheet, cellRef(5, row), m.AwayID)
		f.SetCellValue(sheet, cellRef(6, row), names[m.AwayID])
	}
	styleRows(f, sheet, len(fixtureHeaders), len(matches), st)

	widths := map[string]float64{"A": 12, "B": 8, "C": 18, "D": 26, "E": 18, "F": 26}
	for col, w := range widths {
		f.SetColWidth(sheet, col, col, w)
	}
	return f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func writeBalanceSheet(f *excelize.File, players []draw.Player, result *fixtures.Result) error {
	sheet := balanceSheet
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	st := newStyles(f)
	headers := []string{"Player ID", "Player", "Pool", "Matches", "Home", "Away"}
	writeHeaders(f, sheet, headers, st)

	for i, p := range players {
		row := i + 2
		var m fixtures.PlayerMetrics
		if pm := result.Metrics[p.ID]; pm != nil {
			m = *pm
		}
		f.SetCellValue(sheet, cellRef(1, row), p.ID)
		f.SetCellValue(sheet, cellRef(2, row), p.Name)
		f.SetCellValue(sheet, cellRef(3, row), p.Pool)
		f.SetCellValue(sheet, cellRef(4, row), m.Matches)
		f.SetCellValue(sheet, cellRef(5, row), m.Home)
		f.SetCellValue(sheet, cellRef(6, row), m.Away)
	}
	styleRows(f, sheet, len(headers), len(players), st)

	widths := map[string]float64{"A": 18, "B": 26, "C": 12, "D": 10, "E": 10, "F": 10}
	for col, w := range widths {
		f.SetColWidth(sheet, col, col, w)
	}

	// Conditional formatting: players off an even split get light red
	if len(players) == 0 {
		return nil
	}
	redFill, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#FFC7CE"}},
		Font: &excelize.Font{Size: 12, Family: "Arial"},
	})
	cellRange := fmt.Sprintf("A2:F%d", len(players)+1)
	return f.SetConditionalFormat(sheet, cellRange, []excelize.ConditionalFormatOptions{
		{
			Type:     "formula",
			Criteria: "ABS($E2-$F2)>MOD($D2,2)",
			Format:   &redFill,
		},
	})
}

func writePlayerSheets(f *excelize.File, players []draw.Player, names map[string]string, matches []draw.Match) error {
	taken := map[string]bool{
		strings.ToLower(summarySheet):  true,
		strings.ToLower(fixturesSheet): true,
		strings.ToLower(balanceSheet):  true,
	}
	headers := []string{"Game", "Opponent ID", "Opponent", "Home/Away"}

	for _, p := range players {
		sheet := SheetName(p.ID, taken)
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("sheet for %s: %w", p.ID, err)
		}
		st := newStyles(f)
		f.SetCellValue(sheet, "A1", p.Name)
		writeHeadersAt(f, sheet, headers, 2, st)

		row := 3
		for _, m := range matches {
			var opp, side string
			switch p.ID {
			case m.HomeID:
				opp, side = m.AwayID, "Home"
			case m.AwayID:
				opp, side = m.HomeID, "Away"
			default:
				continue
			}
			f.SetCellValue(sheet, cellRef(1, row), row-2)
			f.SetCellValue(sheet, cellRef(2, row), opp)
			f.SetCellValue(sheet, cellRef(3, row), names[opp])
			f.SetCellValue(sheet, cellRef(4, row), side)
			row++
		}
		if st.cell != 0 && row > 3 {
			f.SetCellStyle(sheet, "A3", cellRef(len(headers), row-1), st.cell)
		}

		widths := map[string]float64{"A": 8, "B": 18, "C": 26, "D": 12}
		for col, w := range widths {
			f.SetColWidth(sheet, col, col, w)
		}
	}
	return nil
}

func writeHeadersAt(f *excelize.File, sheet string, headers []string, row int, st styles) {
	for i, h := range headers {
		f.SetCellValue(sheet, cellRef(i+1, row), h)
	}
	if st.header != 0 {
		f.SetCellStyle(sheet, cellRef(1, row), cellRef(len(headers), row), st.header)
	}
}

// SheetName returns a worksheet name for a player id that is not yet in
// taken, and records it there. Sheet names are compared case-insensitively
// and limited to 31 characters.
func SheetName(id string, taken map[string]bool) string {
	base := slug.Make(id)
	if base == "" {
		base = "player"
	}
	if len(base) > maxSheetName {
		base = base[:maxSheetName]
	}

	name := base
	for n := 2; taken[strings.ToLower(name)]; n++ {
		suffix := fmt.Sprintf("-%d", n)
		trimmed := base
		if len(trimmed)+len(suffix) > maxSheetName {
			trimmed = trimmed[:maxSheetName-len(suffix)]
		}
		name = trimmed + suffix
	}
	taken[strings.ToLower(name)] = true
	return name
}

// ReadMatches reads the Fixtures sheet of a workbook written by Generate.
func ReadMatches(path string) ([]draw.Match, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(fixturesSheet)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", fixturesSheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s is empty", fixturesSheet)
	}

	header := rows[0]
	for i, h := range fixtureHeaders {
		if i >= len(header) || header[i] != h {
			return nil, fmt.Errorf("%s: column %s should be %q", fixturesSheet, colLetter(i+1), h)
		}
	}

	var matches []draw.Match
	for i, row := range rows[1:] {
		if len(row) < 5 || row[2] == "" || row[4] == "" {
			continue
		}
		m := draw.Match{Pool: row[0], HomeID: row[2], AwayID: row[4]}
		if row[1] != "" {
			round, err := strconv.Atoi(row[1])
			if err != nil {
				return nil, fmt.Errorf("%s row %d: invalid round %q", fixturesSheet, i+2, row[1])
			}
			m.Round = round
		}
		matches = append(matches, m)
	}
	return matches, nil
}

func cellRef(col, row int) string {
	return fmt.Sprintf("%s%d", colLetter(col), row)
}

func colLetter(col int) string {
	result := ""
	for col > 0 {
		col--
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}
