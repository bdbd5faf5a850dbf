package counselor

import (
	"strings"
	"testing"

	"counselgo/internal/models"
)

func TestPhaseFor(t *testing.T) {
	cases := []struct {
		aiMessages int
		want       Phase
	}{
		{0, PhaseRapport},
		{1, PhaseRapport},
		{2, PhaseConditional},
		{3, PhaseCounseling},
		{10, PhaseCounseling},
	}
	for _, tc := range cases {
		if got := PhaseFor(tc.aiMessages); got != tc.want {
			t.Fatalf("PhaseFor(%d) = %v, want %v", tc.aiMessages, got, tc.want)
		}
	}
}

func TestDirectiveConditionalSplitsOnStatus(t *testing.T) {
	school := PhaseConditional.Directive(models.StatusSchoolStudent)
	if !strings.Contains(school, "continue the conversation naturally") {
		t.Fatalf("school directive missing natural continuation: %q", school)
	}
	if strings.Contains(school, "resume") {
		t.Fatalf("school directive must not ask for a resume: %q", school)
	}

	for _, status := range []models.Status{models.StatusCollegeStudent, models.StatusPassout} {
		directive := PhaseConditional.Directive(status)
		if !strings.Contains(directive, "resume") {
			t.Fatalf("directive for %s must ask for a resume: %q", status, directive)
		}
	}
}

func TestWantsRoadmap(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"Can I see my roadmap now?", true},
		{"ROADMAP please", true},
		{"what is a good Career Plan for me", true},
		{"I want to plan my career", false},
		{"tell me about roads", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := WantsRoadmap(tc.text); got != tc.want {
			t.Fatalf("WantsRoadmap(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}
