package counselor

import (
	"context"
	"strings"
	"testing"

	"counselgo/internal/models"
)

func TestRespondBuildsPersonaPrompt(t *testing.T) {
	gen := &fakeGenerator{output: "Hello Ravi, welcome!"}
	responder := NewResponder(gen, NewContextAssembler(nil))

	session := &models.Session{
		ID: "sess-1",
		Profile: models.Profile{
			Name:     "Ravi",
			Age:      21,
			Status:   models.StatusCollegeStudent,
			Year:     "third_year",
			Field:    "engineering",
			Concerns: "unsure about placements",
		},
	}
	history := "User: hi\nAI: hello"

	reply, err := responder.Respond(context.Background(), session, "What should I do next?", history, 2)
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if reply != "Hello Ravi, welcome!" {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if gen.lastTokens != 1000 {
		t.Fatalf("expected 1000 token bound, got %d", gen.lastTokens)
	}
	if gen.lastTemp != 0.7 {
		t.Fatalf("expected temperature 0.7, got %v", gen.lastTemp)
	}

	prompt := gen.lastPrompt
	for _, fragment := range []string{
		"career counselor AI named Marvin",
		"politely ask them to attach their resume",
		"- Name: Ravi",
		"- Status: college_student",
		"- Year: third_year",
		"- Concerns: unsure about placements",
		NoResumeContext,
		history,
		`"What should I do next?"`,
	} {
		if !strings.Contains(prompt, fragment) {
			t.Fatalf("prompt missing %q:\n%s", fragment, prompt)
		}
	}
}

func TestRespondOmitsEmptyProfileFields(t *testing.T) {
	gen := &fakeGenerator{output: "ok"}
	responder := NewResponder(gen, NewContextAssembler(nil))

	session := &models.Session{
		ID:      "sess-2",
		Profile: models.Profile{Name: "Asha", Age: 16, Status: models.StatusSchoolStudent},
	}
	if _, err := responder.Respond(context.Background(), session, "hi", "", 0); err != nil {
		t.Fatalf("respond: %v", err)
	}
	for _, absent := range []string{"- Level:", "- Year:", "- Field:", "- Concerns:"} {
		if strings.Contains(gen.lastPrompt, absent) {
			t.Fatalf("prompt must omit %q for empty field:\n%s", absent, gen.lastPrompt)
		}
	}
}

func TestRenderHistory(t *testing.T) {
	messages := []*models.Message{
		{Sender: models.SenderUser, Body: "hi"},
		{Sender: models.SenderAI, Body: "hello there"},
		{Sender: models.SenderUser, Body: "thanks"},
	}
	got := RenderHistory(messages)
	want := "User: hi\nAI: hello there\nUser: thanks"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if RenderHistory(nil) != "" {
		t.Fatalf("empty history must render empty")
	}
}
