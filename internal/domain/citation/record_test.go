package citation

import "testing"

func TestNewRecord_MethodConfidence(t *testing.T) {
	tests := []struct {
		method Method
		want   float64
	}{
		{MethodRegex, ConfidenceRegex},
		{MethodFallback, ConfidenceRegex},
		{MethodTokenizer, ConfidenceTokenizer},
	}
	for _, tt := range tests {
		rec := NewRecord("142 Wn.2d 450", 10, 24, tt.method)
		if rec.Confidence != tt.want {
			t.Errorf("method %s: confidence = %v, want %v", tt.method, rec.Confidence, tt.want)
		}
		if !rec.HasPosition() {
			t.Errorf("method %s: expected positional record", tt.method)
		}
		if rec.Offset() != 10 {
			t.Errorf("method %s: Offset() = %d, want 10", tt.method, rec.Offset())
		}
	}
}

func TestRecord_OffsetWithoutPosition(t *testing.T) {
	rec := &Record{Citation: "531 U.S. 98", Method: MethodAPI}
	if rec.HasPosition() {
		t.Fatal("API record should carry no position")
	}
	if rec.Offset() != -1 {
		t.Fatalf("Offset() = %d, want -1", rec.Offset())
	}
}

func TestResolveDisplayName_Preference(t *testing.T) {
	rec := &Record{HintedCaseName: "smith v jones"}
	rec.ResolveDisplayName()
	if rec.CaseName != "smith v jones" {
		t.Fatalf("hinted fallback: got %q", rec.CaseName)
	}

	rec.ExtractedCaseName = "Smith v. Jones"
	rec.ResolveDisplayName()
	if rec.CaseName != "Smith v. Jones" {
		t.Fatalf("extracted should beat hinted: got %q", rec.CaseName)
	}

	rec.CanonicalName = "Smith v. Jones Industries, Inc."
	rec.ResolveDisplayName()
	if rec.CaseName != "Smith v. Jones Industries, Inc." {
		t.Fatalf("canonical should beat extracted: got %q", rec.CaseName)
	}
}

func TestAddParallel_NeverSelfNeverDuplicate(t *testing.T) {
	rec := NewRecord("142 Wn.2d 450", 0, 14, MethodRegex)

	rec.AddParallel("142 Wn.2d 450") // own citation
	rec.AddParallel("142 wn.2d 450") // own citation, different case
	if len(rec.ParallelCitations) != 0 || rec.IsParallel {
		t.Fatalf("self citation must not be added: %v", rec.ParallelCitations)
	}

	rec.AddParallel("13 P.3d 1065")
	rec.AddParallel("13 P.3d 1065")
	rec.AddParallel("")
	if len(rec.ParallelCitations) != 1 {
		t.Fatalf("got %v, want exactly one parallel", rec.ParallelCitations)
	}
	if !rec.IsParallel {
		t.Fatal("IsParallel should be set after first parallel")
	}
}

func TestNormalizeCaseName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"  SMITH  v. Jones, ", "smith v. jones"},
		{"State v.\tSmith", "state v. smith"},
		{"Smith v. Jones", "smith v. jones"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeCaseName(tt.in); got != tt.want {
			t.Errorf("NormalizeCaseName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeCitation(t *testing.T) {
	if NormalizeCitation(" 142  Wn.2d 450 ") != "142 wn.2d 450" {
		t.Fatal("whitespace and case must be normalized")
	}
}
