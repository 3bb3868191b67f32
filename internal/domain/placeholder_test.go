package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/ppsgen/backend/internal/model"
)

func TestCleanAIInputDropsDiagnostics(t *testing.T) {
	cases := []string{
		PlaceholderNotGenerated,
		FailedStatus(errors.New("boom")),
		EvidenceTitleConfig.PreconditionFailureText,
		CorrectionPlanConfig.PreconditionFailureText,
		RetryingStatus(2, 3),
		RetriesExhaustedStatus(),
		"  " + PlaceholderNotGenerated + "  ",
	}
	for _, c := range cases {
		if got := CleanAIInput(c); got != "" {
			t.Fatalf("expected %q to be cleaned to empty, got %q", c, got)
		}
	}
}

func TestCleanAIInputKeepsContent(t *testing.T) {
	if got := CleanAIInput("  SK Direktur tentang Tim PPI \n"); got != "SK Direktur tentang Tim PPI" {
		t.Fatalf("unexpected cleaned text: %q", got)
	}
}

func TestEvidenceTitlePrecondition(t *testing.T) {
	item := model.NewItem("1.1.1.1-0", "1.1.1.1", map[model.FieldName]string{
		model.FieldEvidenceDocumentTitle: PlaceholderNotGenerated,
		model.FieldCorrectionPlan:        RetriesExhaustedStatus(),
	})
	if EvidenceTitleConfig.Precondition(item) {
		t.Fatalf("diagnostic text must not satisfy precondition")
	}
	item.SetField(model.FieldTarget, "Seluruh unit patuh")
	if !EvidenceTitleConfig.Precondition(item) {
		t.Fatalf("expected precondition to hold once target is filled")
	}
}

func TestPromptNeverCarriesDiagnostics(t *testing.T) {
	item := model.NewItem("1.1.1.1-0", "1.1.1.1", map[model.FieldName]string{
		model.FieldDescription:    "Ada regulasi PPI",
		model.FieldCorrectionPlan: FailedStatus(errors.New("API key not valid")),
	})
	prompt := IndicatorConfig.BuildPrompt(item)
	if strings.Contains(prompt, StatusFailedPrefix) {
		t.Fatalf("prompt leaked diagnostic text: %s", prompt)
	}
	if !strings.Contains(prompt, "Ada regulasi PPI") {
		t.Fatalf("prompt missing description: %s", prompt)
	}
}

func TestLookupFieldConfig(t *testing.T) {
	for _, f := range GeneratableFields() {
		cfg, ok := LookupFieldConfig(f)
		if !ok || cfg.Field != f {
			t.Fatalf("missing config for %s", f)
		}
	}
	if _, ok := LookupFieldConfig(model.FieldDueDate); ok {
		t.Fatalf("dueDate is not generatable")
	}
}
