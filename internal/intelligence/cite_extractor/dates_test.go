package cite_extractor

import (
	"strings"
	"testing"

	"github.com/turtacn/CiteGuard/internal/domain/citation"
)

// dateRecord positions a record over the first occurrence of cite in text.
func dateRecord(t *testing.T, text, cite string) *citation.Record {
	t.Helper()
	idx := strings.Index(text, cite)
	if idx < 0 {
		t.Fatalf("citation %q not in text", cite)
	}
	return citation.NewRecord(cite, idx, idx+len(cite), citation.MethodRegex)
}

func TestAssociateDate_Precedence(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantDate  string
		wantCourt string
	}{
		{
			name:      "court year parenthetical",
			text:      "See 142 Wn.2d 450 (Wash. 2000) for the rule.",
			wantDate:  "2000",
			wantCourt: "Wash.",
		},
		{
			name:     "plain year parenthetical",
			text:     "See 142 Wn.2d 450 (2000) for the rule.",
			wantDate: "2000",
		},
		{
			name:     "filed date",
			text:     "See 2021 WL 123456, filed Mar. 3, 2021, for details.",
			wantDate: "Mar. 3, 2021",
		},
		{
			name:     "month day year without filed",
			text:     "See 2021 WL 123456, decided Sept. 14, 2021, on remand.",
			wantDate: "Sept. 14, 2021",
		},
		{
			name:     "iso date",
			text:     "See 2021 WL 123456, entered 2021-03-03 by the clerk.",
			wantDate: "2021-03-03",
		},
		{
			name:     "bare year fallback",
			text:     "See 2021 WL 123456, a ruling from 1987 revisited.",
			wantDate: "1987",
		},
		{
			name:     "parenthetical beats later full date",
			text:     "See 142 Wn.2d 450 (2000), filed Mar. 3, 2021.",
			wantDate: "2000",
		},
		{
			name:     "nothing dated",
			text:     "See 142 Wn.2d 450 and the surrounding discussion.",
			wantDate: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cite := "142 Wn.2d 450"
			if !strings.Contains(tc.text, cite) {
				cite = "2021 WL 123456"
			}
			rec := dateRecord(t, tc.text, cite)
			associateDate(tc.text, rec)

			if rec.ExtractedDate != tc.wantDate {
				t.Errorf("ExtractedDate = %q, want %q", rec.ExtractedDate, tc.wantDate)
			}
			if rec.Date != tc.wantDate {
				t.Errorf("Date = %q, want %q", rec.Date, tc.wantDate)
			}
			if rec.Court != tc.wantCourt {
				t.Errorf("Court = %q, want %q", rec.Court, tc.wantCourt)
			}
		})
	}
}

func TestAssociateDate_WindowBounded(t *testing.T) {
	text := "See 142 Wn.2d 450" + strings.Repeat(" and so on", 20) + " (2000)."
	rec := dateRecord(t, text, "142 Wn.2d 450")
	associateDate(text, rec)
	if rec.ExtractedDate != "" {
		t.Errorf("date %q found outside the forward window", rec.ExtractedDate)
	}
}

func TestAssociateDate_CanonicalWinsDisplay(t *testing.T) {
	text := "See 142 Wn.2d 450 (2000)."
	rec := dateRecord(t, text, "142 Wn.2d 450")
	associateDate(text, rec)

	if rec.ExtractedDate != "2000" || rec.Date != "2000" {
		t.Fatalf("extracted = %q, date = %q", rec.ExtractedDate, rec.Date)
	}

	rec.CanonicalDate = "2001"
	rec.ResolveDisplayDate()
	if rec.Date != "2001" {
		t.Errorf("Date = %q, canonical value must win the display slot", rec.Date)
	}
	if rec.ExtractedDate != "2000" {
		t.Errorf("ExtractedDate = %q, the extracted value must survive", rec.ExtractedDate)
	}
}
