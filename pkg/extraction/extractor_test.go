package extraction

import (
	"errors"
	"strings"
	"testing"
)

func TestExtract_WellFormed(t *testing.T) {
	text := "findings: Small hypoechoic cyst on the left ovary.\n" +
		"summary: A small fluid-filled sac was seen.\n" +
		"recommendation: A follow-up scan is advised."

	result, err := NewExtractor().Extract(text)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if result.Findings != "Small hypoechoic cyst on the left ovary." {
		t.Errorf("Unexpected findings %q", result.Findings)
	}
	if result.Summary != "A small fluid-filled sac was seen." {
		t.Errorf("Unexpected summary %q", result.Summary)
	}
	if result.Recommendation != "A follow-up scan is advised." {
		t.Errorf("Unexpected recommendation %q", result.Recommendation)
	}
}

func TestExtract_Variants(t *testing.T) {
	tests := []struct {
		name               string
		text               string
		wantFindings       string
		wantSummary        string
		wantRecommendation string
	}{
		{
			name:               "case insensitive labels",
			text:               "Findings: none\nSUMMARY: normal\nRecommendation: routine care",
			wantFindings:       "none",
			wantSummary:        "normal",
			wantRecommendation: "routine care",
		},
		{
			name:               "out of order",
			text:               "summary: normal\nrecommendation: routine care\nfindings: none",
			wantFindings:       "none",
			wantSummary:        "normal",
			wantRecommendation: "routine care",
		},
		{
			name:               "markdown decoration",
			text:               "## Findings:\n**Thickened endometrium.**\n\n**Summary:** Lining looks thicker than usual.\n\n**Recommendation:** See a specialist.",
			wantFindings:       "Thickened endometrium.",
			wantSummary:        "Lining looks thicker than usual.",
			wantRecommendation: "See a specialist.",
		},
		{
			name:               "bold label with colon outside",
			text:               "**Findings**: cyst\n**Summary**: small sac\n**Recommendation**: follow up",
			wantFindings:       "cyst",
			wantSummary:        "small sac",
			wantRecommendation: "follow up",
		},
		{
			name:               "pluralised and singular labels",
			text:               "Finding: inflammation\nSummary: some swelling\nRecommendations: clinical assessment",
			wantFindings:       "inflammation",
			wantSummary:        "some swelling",
			wantRecommendation: "clinical assessment",
		},
		{
			name:               "multi line values",
			text:               "findings:\n- cyst\n- fluid\nsummary: two items\nrecommendation: none",
			wantFindings:       "- cyst\n- fluid",
			wantSummary:        "two items",
			wantRecommendation: "none",
		},
		{
			name:               "missing summary",
			text:               "findings: cyst\nrecommendation: follow up",
			wantFindings:       "cyst",
			wantSummary:        "",
			wantRecommendation: "follow up",
		},
		{
			name:               "preamble before first label",
			text:               "Here is my analysis.\nfindings: cyst\nsummary: sac\nrecommendation: scan",
			wantFindings:       "cyst",
			wantSummary:        "sac",
			wantRecommendation: "scan",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := NewExtractor().Extract(tt.text)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if result.Findings != tt.wantFindings {
				t.Errorf("Findings = %q, want %q", result.Findings, tt.wantFindings)
			}
			if result.Summary != tt.wantSummary {
				t.Errorf("Summary = %q, want %q", result.Summary, tt.wantSummary)
			}
			if result.Recommendation != tt.wantRecommendation {
				t.Errorf("Recommendation = %q, want %q", result.Recommendation, tt.wantRecommendation)
			}
		})
	}
}

func TestExtract_NonASCIIKeepsOffsets(t *testing.T) {
	tests := []struct {
		name               string
		text               string
		wantFindings       string
		wantSummary        string
		wantRecommendation string
	}{
		{
			name:               "lowercase form is longer",
			text:               strings.Repeat("Ⱥ", 20) + " recommendation: rest",
			wantRecommendation: "rest",
		},
		{
			name:               "lowercase form is shorter",
			text:               "İİİİİİ findings: cyst\nsummary: ok\nrecommendation: see doctor",
			wantFindings:       "cyst",
			wantSummary:        "ok",
			wantRecommendation: "see doctor",
		},
		{
			name:               "kelvin sign between labels",
			text:               "Findings: fluid at 310\u212a\nSummary: ÉTAT normal\nRecommendation: café visit",
			wantFindings:       "fluid at 310\u212a",
			wantSummary:        "ÉTAT normal",
			wantRecommendation: "café visit",
		},
		{
			name:               "invalid utf-8 before labels",
			text:               "\xff\xfe findings: cyst\nsummary: sac\nrecommendation: scan",
			wantFindings:       "cyst",
			wantSummary:        "sac",
			wantRecommendation: "scan",
		},
		{
			name:               "multibyte text on lenient labels",
			text:               "İnceleme\nFinding: ovaryİ\nRecommendations: follow up Ⱥ",
			wantFindings:       "ovaryİ",
			wantRecommendation: "follow up Ⱥ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := NewExtractor().Extract(tt.text)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if result.Findings != tt.wantFindings {
				t.Errorf("Findings = %q, want %q", result.Findings, tt.wantFindings)
			}
			if result.Summary != tt.wantSummary {
				t.Errorf("Summary = %q, want %q", result.Summary, tt.wantSummary)
			}
			if result.Recommendation != tt.wantRecommendation {
				t.Errorf("Recommendation = %q, want %q", result.Recommendation, tt.wantRecommendation)
			}
		})
	}
}

func TestASCIILower(t *testing.T) {
	in := "FİNDINGS: Ⱥ \xff SUMMARY:"
	got := asciiLower(in)
	if len(got) != len(in) {
		t.Fatalf("Expected byte length %d, got %d", len(in), len(got))
	}
	if got != "fİndings: Ⱥ \xff summary:" {
		t.Errorf("Unexpected result %q", got)
	}
}

func TestExtract_Strict(t *testing.T) {
	text := "Findings: inflammation\nRecommendations: clinical assessment"

	result, err := (&Extractor{Strict: true}).Extract(text)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.Recommendation != "" {
		t.Errorf("Expected no recommendation in strict mode, got %q", result.Recommendation)
	}
	if result.Findings != "inflammation\nRecommendations: clinical assessment" {
		t.Errorf("Expected findings to run to end of text, got %q", result.Findings)
	}
}

func TestExtract_Errors(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr error
	}{
		{"empty", "", ErrEmptyResponse},
		{"whitespace", "  \n\t ", ErrEmptyResponse},
		{"no labels", "The image looks normal and no action is needed.", ErrNoSections},
		{"unrelated labels", "Note: none\nImpression: unclear", ErrNoSections},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewExtractor().Extract(tt.text)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLineLabels(t *testing.T) {
	got := lineLabels("intro\n  - finding: x\nsee http://host\n**summary**: y")
	if len(got) != 2 {
		t.Fatalf("Expected 2 candidate labels, got %d (%+v)", len(got), got)
	}
	if got[0].label != "finding" || got[1].label != "summary" {
		t.Errorf("Unexpected labels %q, %q", got[0].label, got[1].label)
	}
}
