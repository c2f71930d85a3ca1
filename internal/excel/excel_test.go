package excel

import (
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/derekprior/pooldraw/internal/draw"
	"github.com/derekprior/pooldraw/internal/fixtures"
)

func testData(t *testing.T) ([]draw.Player, *fixtures.Result) {
	t.Helper()
	players := []draw.Player{
		{ID: "ann", Name: "Ann Lee", Pool: "A"},
		{ID: "bob", Name: "Bob Marsh", Pool: "A"},
		{ID: "cal", Name: "Cal Ng", Pool: "A"},
		{ID: "dee", Name: "Dee Ott", Pool: "A"},
		{ID: "summary", Name: "Sam Mary", Pool: "B"},
		{ID: "fay", Name: "Fay Orr", Pool: "B"},
		{ID: "gus", Name: "Gus Pike", Pool: "B"},
	}
	seed := int64(3)
	result, err := fixtures.Generate(players, fixtures.Options{MatchesPerPlayer: 2, Seed: &seed})
	if err != nil {
		t.Fatalf("fixtures.Generate() error: %v", err)
	}
	return players, result
}

func TestGenerateWorkbook(t *testing.T) {
	players, result := testData(t)

	f, err := Generate("Spring Open", players, result)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	t.Run("has sheets", func(t *testing.T) {
		for _, sheet := range []string{"Summary", "Fixtures", "Balance", "ann", "gus"} {
			idx, err := f.GetSheetIndex(sheet)
			if err != nil {
				t.Fatalf("GetSheetIndex error: %v", err)
			}
			if idx < 0 {
				t.Errorf("%s sheet not found", sheet)
			}
		}
	})

	t.Run("player sheet names avoid fixed sheets", func(t *testing.T) {
		idx, _ := f.GetSheetIndex("summary-2")
		if idx < 0 {
			t.Error("summary-2 sheet not found")
		}
	})

	t.Run("summary", func(t *testing.T) {
		val, _ := f.GetCellValue("Summary", "B1")
		if val != "Spring Open" {
			t.Errorf("B1 = %q, want Spring Open", val)
		}
		val, _ = f.GetCellValue("Summary", "B3")
		if val != "3" {
			t.Errorf("seed = %q, want 3", val)
		}
	})

	t.Run("fixtures sheet has headers", func(t *testing.T) {
		val, _ := f.GetCellValue("Fixtures", "C1")
		if val != "Home ID" {
			t.Errorf("C1 = %q, want Home ID", val)
		}
	})

	t.Run("fixtures sheet has every match", func(t *testing.T) {
		rows, _ := f.GetRows("Fixtures")
		if len(rows)-1 != len(result.Matches) {
			t.Fatalf("fixture rows = %d, want %d", len(rows)-1, len(result.Matches))
		}
		m := result.Matches[0]
		if rows[1][2] != m.HomeID || rows[1][4] != m.AwayID {
			t.Errorf("first row = %v, want %s vs %s", rows[1], m.HomeID, m.AwayID)
		}
	})

	t.Run("balance sheet", func(t *testing.T) {
		rows, _ := f.GetRows("Balance")
		if len(rows) != len(players)+1 {
			t.Fatalf("balance rows = %d, want %d", len(rows), len(players)+1)
		}
		if rows[1][0] != "ann" || rows[1][3] != "2" {
			t.Errorf("ann row = %v, want 2 matches", rows[1])
		}
	})

	t.Run("player sheet lists games", func(t *testing.T) {
		rows, _ := f.GetRows("ann")
		if rows[0][0] != "Ann Lee" {
			t.Errorf("A1 = %q, want Ann Lee", rows[0][0])
		}
		if len(rows) != 4 {
			t.Errorf("ann sheet rows = %d, want 4", len(rows))
		}
		for _, row := range rows[2:] {
			if row[3] != "Home" && row[3] != "Away" {
				t.Errorf("side = %q, want Home or Away", row[3])
			}
		}
	})

	t.Run("default Sheet1 removed", func(t *testing.T) {
		idx, _ := f.GetSheetIndex("Sheet1")
		if idx >= 0 {
			t.Error("Sheet1 should be removed")
		}
	})
}

func TestWriteAndRead(t *testing.T) {
	players, result := testData(t)

	f, err := Generate("Spring Open", players, result)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	path := t.TempDir() + "/draw.xlsx"
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs error: %v", err)
	}

	matches, err := ReadMatches(path)
	if err != nil {
		t.Fatalf("ReadMatches() error: %v", err)
	}
	if len(matches) != len(result.Matches) {
		t.Fatalf("read %d matches, want %d", len(matches), len(result.Matches))
	}
	for i, m := range matches {
		if m != result.Matches[i] {
			t.Errorf("match %d = %+v, want %+v", i, m, result.Matches[i])
		}
	}
}

func TestReadMatchesRejectsOtherWorkbooks(t *testing.T) {
	f := excelize.NewFile()
	f.NewSheet("Fixtures")
	f.SetCellValue("Fixtures", "A1", "Date")
	path := t.TempDir() + "/other.xlsx"
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs error: %v", err)
	}

	_, err := ReadMatches(path)
	if err == nil || !strings.Contains(err.Error(), "Pool") {
		t.Errorf("ReadMatches() error = %v, want header error", err)
	}

	if _, err := ReadMatches(t.TempDir() + "/missing.xlsx"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSheetName(t *testing.T) {
	taken := map[string]bool{"balance": true}

	tests := []struct {
		id   string
		want string
	}{
		{"A01", "a01"},
		{"a01", "a01-2"},
		{"Balance", "balance-2"},
		{"Ünïcode Name", "unicode-name"},
		{"???", "player"},
		{strings.Repeat("x", 40), strings.Repeat("x", 31)},
		{strings.Repeat("x", 40), strings.Repeat("x", 29) + "-2"},
	}
	for _, tt := range tests {
		if got := SheetName(tt.id, taken); got != tt.want {
			t.Errorf("SheetName(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestColLetter(t *testing.T) {
	tests := []struct {
		col  int
		want string
	}{
		{1, "A"},
		{26, "Z"},
		{27, "AA"},
		{52, "AZ"},
	}
	for _, tt := range tests {
		if got := colLetter(tt.col); got != tt.want {
			t.Errorf("colLetter(%d) = %q, want %q", tt.col, got, tt.want)
		}
	}
}
