package counselor

import (
	"context"
	"log"
	"strings"

	"counselgo/internal/models"
)

// NoResumeContext is the fixed sentinel used whenever resume grounding is
// unavailable. Clients and prompts pattern-match it, so keep it stable.
const NoResumeContext = "No resume has been provided for this session yet."

const (
	// ChatContextChunks keeps chat turns focused on the immediate message.
	ChatContextChunks = 2
	// RoadmapContextChunks gives synthesis broader coverage of the resume.
	RoadmapContextChunks = 3
)

// ResumeSearcher is the similarity-index collaborator: it reprocesses the
// document fresh on each call and returns the k most relevant chunks.
type ResumeSearcher interface {
	Search(ctx context.Context, path, query string, k int) ([]string, error)
}

// ContextAssembler produces the bounded resume-context snippet for prompts.
type ContextAssembler struct {
	resumes ResumeSearcher
}

// NewContextAssembler builds an assembler; resumes may be nil when no
// indexing backend is available, which degrades every call to the sentinel.
func NewContextAssembler(resumes ResumeSearcher) *ContextAssembler {
	return &ContextAssembler{resumes: resumes}
}

// Assemble returns resume chunks relevant to query joined by single spaces,
// or the sentinel when the session has no resume or indexing fails.
func (a *ContextAssembler) Assemble(ctx context.Context, session *models.Session, query string, k int) string {
	if a == nil || a.resumes == nil || !session.HasResume() {
		return NoResumeContext
	}
	chunks, err := a.resumes.Search(ctx, session.ResumePath, query, k)
	if err != nil {
		log.Printf("resume context unavailable for session %s: %v", session.ID, err)
		return NoResumeContext
	}
	if len(chunks) == 0 {
		return NoResumeContext
	}
	return strings.Join(chunks, " ")
}
