package counselor

import "counselgo/internal/models"

// Phase is a stage of the scripted conversation. It is a pure function of
// how many messages the counselor has already sent, so the orchestration
// around it stays independently testable.
type Phase int

const (
	// PhaseRapport covers the counselor's first two messages: a warm
	// welcome, then an open-ended comfort question.
	PhaseRapport Phase = iota
	// PhaseConditional is the counselor's third message: school students
	// continue naturally, everyone else is asked for a resume.
	PhaseConditional
	// PhaseCounseling is every turn after that.
	PhaseCounseling
)

// PhaseFor derives the phase for the counselor's next message given how many
// AI messages exist already.
func PhaseFor(aiMessages int) Phase {
	switch {
	case aiMessages < 2:
		return PhaseRapport
	case aiMessages == 2:
		return PhaseConditional
	default:
		return PhaseCounseling
	}
}

// Directive renders the behavioral rule for the current phase and status,
// injected into the prompt alongside the full rule list.
func (p Phase) Directive(status models.Status) string {
	switch p {
	case PhaseRapport:
		return "You are in Phase 1 (Rapport Building): greet warmly or ask an open-ended question to make the user comfortable. Do not apply resume or status-specific logic yet."
	case PhaseConditional:
		if status == models.StatusSchoolStudent {
			return "You are in Phase 2: the user is a school student, so continue the conversation naturally."
		}
		return "You are in Phase 2: the user is a college student or graduate, so politely ask them to attach their resume."
	default:
		if status == models.StatusSchoolStudent {
			return "You are in Phase 3 (Counseling): analyze the student's concerns and provide direct guidance."
		}
		return "You are in Phase 3 (Counseling): counsel based on the user's resume once it is available."
	}
}

func (p Phase) String() string {
	switch p {
	case PhaseRapport:
		return "rapport"
	case PhaseConditional:
		return "conditional"
	default:
		return "counseling"
	}
}
