package counselor

import (
	"context"
	"fmt"
	"strings"

	"counselgo/internal/models"
)

const (
	chatMaxTokens   = 1000
	chatTemperature = 0.7
)

// TextGenerator is the black-box generator: prompt in, text out. Transport
// failures propagate to the caller untouched.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, maxTokens int, temperature float32) (string, error)
}

const chatPromptTemplate = `You are an expert career counselor AI named Marvin. Your goal is to have a natural, multi-step conversation.

**Conversation Rules:**
1.  **Phase 1: Rapport Building (First 2 AI messages).** Your first message is a warm welcome. Your second message should be an open-ended question to make the user comfortable.
2.  **Phase 2: Conditional Logic (AI's 3rd message).**
    - IF the user's status is 'school_student', continue the conversation naturally.
    - IF the user's status is 'college_student' or 'passout', politely ask them to attach their resume.
3.  **Phase 3: Counseling.**
    - For school students, analyze their concerns and provide guidance.
    - For college/passout, once they provide a resume, analyze it and begin counseling.

**Current Phase:** %s

**User's Background Information:**
%s- **Resume Context:** %s

**Conversation History:**
%s

The user just sent this message: "%s"

---
**IMPORTANT INSTRUCTION:** Your final output must ONLY be the words the counselor would say. Do not add any notes, explanations, or mention your internal rules or phases.

Your next response as the AI Counselor:`

// Responder generates counselor replies for normal chat turns.
type Responder struct {
	generator TextGenerator
	assembler *ContextAssembler
}

// NewResponder wires the responder with its injected collaborators.
func NewResponder(generator TextGenerator, assembler *ContextAssembler) *Responder {
	return &Responder{generator: generator, assembler: assembler}
}

// Respond builds the persona/phase prompt and returns the generator's raw
// output as the counselor's reply. aiMessages is how many AI messages exist
// before this turn; historyText is the full prior conversation rendered as
// "Sender: message" lines.
func (r *Responder) Respond(ctx context.Context, session *models.Session, message, historyText string, aiMessages int) (string, error) {
	phase := PhaseFor(aiMessages)
	resumeContext := r.assembler.Assemble(ctx, session, message, ChatContextChunks)
	prompt := fmt.Sprintf(chatPromptTemplate,
		phase.Directive(session.Profile.Status),
		formatProfile(session.Profile),
		resumeContext,
		historyText,
		message,
	)
	return r.generator.Generate(ctx, prompt, chatMaxTokens, chatTemperature)
}

func formatProfile(profile models.Profile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- Name: %s\n", profile.Name)
	fmt.Fprintf(&b, "- Status: %s\n", profile.Status)
	fmt.Fprintf(&b, "- Age: %d\n", profile.Age)
	if profile.Level != "" {
		fmt.Fprintf(&b, "- Level: %s\n", profile.Level)
	}
	if profile.Year != "" {
		fmt.Fprintf(&b, "- Year: %s\n", profile.Year)
	}
	if profile.Field != "" {
		fmt.Fprintf(&b, "- Field: %s\n", profile.Field)
	}
	if profile.Concerns != "" {
		fmt.Fprintf(&b, "- Concerns: %s\n", profile.Concerns)
	}
	return b.String()
}

// RenderHistory turns stored messages into the "Sender: message" transcript
// fed to the generator, chronological order preserved.
func RenderHistory(messages []*models.Message) string {
	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		lines = append(lines, fmt.Sprintf("%s: %s", senderLabel(msg.Sender), msg.Body))
	}
	return strings.Join(lines, "\n")
}

func senderLabel(sender models.Sender) string {
	if sender == models.SenderAI {
		return "AI"
	}
	return "User"
}
