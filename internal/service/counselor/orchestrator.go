package counselor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"counselgo/internal/models"
	"counselgo/internal/service/record"
)

// MessageLimit is the total message count at which roadmap synthesis is
// forced regardless of trigger phrases.
const MessageLimit = 20

// handoffTemplate is the fixed AI message persisted when the roadmap becomes
// available. Clients pattern-match it, so keep the wording stable.
const handoffTemplate = "We've had a great conversation! I've prepared a personalized career roadmap for you based on everything we've discussed. You can view it here: [View Your Roadmap](/roadmap/%s)"

// openingMessage is the synthetic system-originated turn used to produce the
// session's welcome before any real user message exists.
const openingMessage = "The user has just completed the questionnaire and joined the chat."

var triggerPhrases = []string{"roadmap", "career plan"}

// WantsRoadmap reports whether the user text contains a roadmap-request
// trigger phrase, matched case-insensitively.
func WantsRoadmap(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range triggerPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// Orchestrator is the per-session state machine: it decides whether an
// inbound message continues normal chat or triggers roadmap synthesis.
// Callers must guarantee at most one in-flight call per session; the
// orchestrator itself takes no locks.
type Orchestrator struct {
	store       *record.Store
	responder   *Responder
	synthesizer *Synthesizer
}

// NewOrchestrator wires the orchestrator with its injected services.
func NewOrchestrator(store *record.Store, responder *Responder, synthesizer *Synthesizer) *Orchestrator {
	return &Orchestrator{store: store, responder: responder, synthesizer: synthesizer}
}

// StartSession creates a session from questionnaire answers and produces the
// counselor's opening message before any real user message exists.
func (o *Orchestrator) StartSession(ctx context.Context, profile models.Profile) (*models.Session, *models.Message, error) {
	session, err := o.store.CreateSession(ctx, profile)
	if err != nil {
		return nil, nil, err
	}
	reply, err := o.responder.Respond(ctx, session, openingMessage, "", 0)
	if err != nil {
		return nil, nil, fmt.Errorf("opening message: %w", err)
	}
	welcome, err := o.store.AppendMessage(ctx, session.ID, models.SenderAI, reply)
	if err != nil {
		return nil, nil, err
	}
	return session, welcome, nil
}

// HandleMessage processes one inbound user message end to end and returns
// the counselor's reply (a chat turn or the roadmap hand-off notice).
// Unknown session ids surface as sql.ErrNoRows.
func (o *Orchestrator) HandleMessage(ctx context.Context, sessionID, text string) (*models.Message, error) {
	session, err := o.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := o.store.AppendMessage(ctx, sessionID, models.SenderUser, text); err != nil {
		return nil, err
	}

	count, err := o.store.CountMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if !session.HasRoadmap() && (count >= MessageLimit || WantsRoadmap(text)) {
		return o.synthesizeRoadmap(ctx, session)
	}

	messages, err := o.store.ListMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	aiMessages, err := o.store.CountAIMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	reply, err := o.responder.Respond(ctx, session, text, RenderHistory(messages), aiMessages)
	if err != nil {
		return nil, err
	}
	return o.store.AppendMessage(ctx, sessionID, models.SenderAI, reply)
}

// synthesizeRoadmap runs the one-shot transition into roadmap_complete:
// synthesize, fill the roadmap slot, persist the hand-off notice. No normal
// chat reply is generated on this turn.
func (o *Orchestrator) synthesizeRoadmap(ctx context.Context, session *models.Session) (*models.Message, error) {
	messages, err := o.store.ListMessages(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	artifact, err := o.synthesizer.Synthesize(ctx, session, RenderHistory(messages))
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(artifact)
	if err != nil {
		return nil, fmt.Errorf("marshal roadmap: %w", err)
	}
	if err := o.store.SaveRoadmap(ctx, session.ID, data); err != nil {
		return nil, err
	}
	handoff := fmt.Sprintf(handoffTemplate, session.ID)
	return o.store.AppendMessage(ctx, session.ID, models.SenderAI, handoff)
}
