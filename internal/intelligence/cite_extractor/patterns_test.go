package cite_extractor

import "testing"

func TestPatterns_MatchKnownCitations(t *testing.T) {
	tests := []struct {
		cite    string
		pattern string
	}{
		{"142 Wn.2d 450", "wash_2d"},
		{"142 Wash. 2d 450", "wash_2d"},
		{"78 Wn. App. 123", "wash_app"},
		{"78 Wn.App. 123", "wash_app"},
		{"13 P.3d 1065", "pacific_3d"},
		{"999 P.2d 1", "pacific_2d"},
		{"531 U.S. 98", "us_reports"},
		{"121 S. Ct. 525", "supreme_court"},
		{"148 L. Ed. 2d 388", "lawyers_ed_2d"},
		{"950 F.3d 1242", "federal_3d"},
		{"100 F.4th 50", "federal_4th"},
		{"910 F. Supp. 2d 89", "federal_supp_2d"},
		{"2021 WL 123456", "westlaw"},
		{"2019 U.S. App. LEXIS 4885", "lexis"},
		{"58 Cal.4th 1081", "cal_4th"},
		{"171 Cal. Rptr. 3d 189", "cal_rptr_3d"},
		{"145 N.E.3d 952", "north_east_3d"},
		{"290 So. 3d 419", "southern_3d"},
		{"843 S.E.2d 191", "south_east_2d"},
		{"230 A.3d 912", "atlantic_3d"},
	}

	for _, tt := range tests {
		re, ok := PatternByName(tt.pattern)
		if !ok {
			t.Fatalf("pattern %q is not registered", tt.pattern)
		}
		if !re.MatchString(tt.cite) {
			t.Errorf("pattern %q should match %q", tt.pattern, tt.cite)
		}
	}
}

func TestPatterns_BuiltOnce(t *testing.T) {
	first := Patterns()
	second := Patterns()
	if &first[0] != &second[0] {
		t.Error("Patterns must return the same compiled registry")
	}
	if len(first) == 0 {
		t.Fatal("pattern library is empty")
	}
}

func TestIsStatute(t *testing.T) {
	statutes := []string{
		"42 U.S.C. § 1983",
		"18 U.S.C. 924",
		"29 C.F.R. § 1604.11",
		"§ 12.34",
		"RCW 9A.56.020",
	}
	for _, s := range statutes {
		if !IsStatute(s) {
			t.Errorf("IsStatute(%q) = false, want true", s)
		}
	}

	cases := []string{
		"142 Wn.2d 450",
		"13 P.3d 1065",
		"2021 WL 123456",
		"Smith v. Jones",
	}
	for _, s := range cases {
		if IsStatute(s) {
			t.Errorf("IsStatute(%q) = true, want false", s)
		}
	}
}

func TestIsCitationShaped(t *testing.T) {
	if !IsCitationShaped("142 Wn.2d 450") {
		t.Error("reporter citation should be citation-shaped")
	}
	if IsCitationShaped("Smith v. Jones") {
		t.Error("case name should not be citation-shaped")
	}
}

func TestIsShortFormReference(t *testing.T) {
	shorts := []string{"Id.", "Id", "id.", "Id. at 453", "id. at 12-13"}
	for _, s := range shorts {
		if !IsShortFormReference(s) {
			t.Errorf("IsShortFormReference(%q) = false, want true", s)
		}
	}
	if IsShortFormReference("142 Wn.2d 450") {
		t.Error("full citation is not a short-form reference")
	}
}
