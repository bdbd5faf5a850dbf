package counselor

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"counselgo/internal/models"
	"counselgo/internal/service/record"
	"counselgo/internal/storage"
)

func openTestStore(t *testing.T) *record.Store {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// A fresh pool connection would get its own empty in-memory database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := storage.Migrate(db, "sqlite3"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return record.NewStore(db)
}

// roadmapAwareGenerator answers roadmap prompts with valid JSON and anything
// else with a plain chat reply, counting each kind.
func roadmapAwareGenerator(roadmapCalls, chatCalls *int) *fakeGenerator {
	return &fakeGenerator{
		generateFn: func(prompt string) (string, error) {
			if strings.Contains(prompt, "JSON generation assistant") || strings.Contains(prompt, "career pathways") {
				*roadmapCalls++
				return schoolRoadmapJSON, nil
			}
			*chatCalls++
			return "Let's keep talking.", nil
		},
	}
}

func newTestOrchestrator(t *testing.T) (*Orchestrator, *record.Store, *int, *int) {
	t.Helper()
	store := openTestStore(t)
	var roadmapCalls, chatCalls int
	gen := roadmapAwareGenerator(&roadmapCalls, &chatCalls)
	assembler := NewContextAssembler(nil)
	orch := NewOrchestrator(store, NewResponder(gen, assembler), NewSynthesizer(gen, assembler, &fakeLookup{}))
	return orch, store, &roadmapCalls, &chatCalls
}

func startedSession(t *testing.T, orch *Orchestrator) *models.Session {
	t.Helper()
	session, welcome, err := orch.StartSession(context.Background(), models.Profile{
		Name: "Asha", Age: 16, Status: models.StatusSchoolStudent,
	})
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if welcome == nil || welcome.Sender != models.SenderAI {
		t.Fatalf("expected AI welcome message, got %+v", welcome)
	}
	return session
}

func TestStartSessionPersistsWelcome(t *testing.T) {
	orch, store, _, chatCalls := newTestOrchestrator(t)
	session := startedSession(t, orch)

	if *chatCalls != 1 {
		t.Fatalf("expected one generator call for the welcome, got %d", *chatCalls)
	}
	messages, err := store.ListMessages(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("expected 1 persisted message, got %d", len(messages))
	}
	if messages[0].Sender != models.SenderAI || messages[0].Body != "Let's keep talking." {
		t.Fatalf("unexpected welcome message: %+v", messages[0])
	}
}

func TestHandleMessageNormalTurn(t *testing.T) {
	orch, store, roadmapCalls, _ := newTestOrchestrator(t)
	session := startedSession(t, orch)

	reply, err := orch.HandleMessage(context.Background(), session.ID, "I like math and physics")
	if err != nil {
		t.Fatalf("handle message: %v", err)
	}
	if reply.Sender != models.SenderAI {
		t.Fatalf("expected AI reply, got %+v", reply)
	}
	if *roadmapCalls != 0 {
		t.Fatalf("normal turn must not synthesize, got %d roadmap calls", *roadmapCalls)
	}

	messages, err := store.ListMessages(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	// welcome + user turn + AI reply
	if len(messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(messages))
	}
}

func TestHandleMessageUnknownSession(t *testing.T) {
	orch, _, _, _ := newTestOrchestrator(t)
	if _, err := orch.HandleMessage(context.Background(), "no-such-session", "hi"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestTriggerPhraseSynthesizesRoadmap(t *testing.T) {
	orch, store, roadmapCalls, _ := newTestOrchestrator(t)
	session := startedSession(t, orch)

	reply, err := orch.HandleMessage(context.Background(), session.ID, "Can I get my Roadmap now?")
	if err != nil {
		t.Fatalf("handle message: %v", err)
	}
	if *roadmapCalls != 1 {
		t.Fatalf("expected one synthesis, got %d", *roadmapCalls)
	}
	wantHandoff := fmt.Sprintf("[View Your Roadmap](/roadmap/%s)", session.ID)
	if !strings.Contains(reply.Body, wantHandoff) {
		t.Fatalf("expected hand-off notice, got %q", reply.Body)
	}

	updated, err := store.GetSession(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if !updated.HasRoadmap() {
		t.Fatalf("roadmap slot must be filled")
	}
	var wire map[string]json.RawMessage
	if err := json.Unmarshal(updated.RoadmapData, &wire); err != nil {
		t.Fatalf("decode stored roadmap: %v", err)
	}
	if _, ok := wire["roadmap"]; !ok {
		t.Fatalf("stored roadmap missing roadmap key: %s", updated.RoadmapData)
	}
}

func TestRoadmapIsSingleShot(t *testing.T) {
	orch, _, roadmapCalls, chatCalls := newTestOrchestrator(t)
	session := startedSession(t, orch)

	if _, err := orch.HandleMessage(context.Background(), session.ID, "show me the roadmap"); err != nil {
		t.Fatalf("first trigger: %v", err)
	}
	chatBefore := *chatCalls

	reply, err := orch.HandleMessage(context.Background(), session.ID, "another roadmap please")
	if err != nil {
		t.Fatalf("second trigger: %v", err)
	}
	if *roadmapCalls != 1 {
		t.Fatalf("synthesis must run once, got %d", *roadmapCalls)
	}
	if *chatCalls != chatBefore+1 {
		t.Fatalf("post-roadmap turn must fall back to chat")
	}
	if reply.Body != "Let's keep talking." {
		t.Fatalf("expected normal chat reply after roadmap, got %q", reply.Body)
	}
}

func TestMessageLimitTriggersSynthesis(t *testing.T) {
	orch, store, roadmapCalls, _ := newTestOrchestrator(t)

	newSeededSession := func(n int) string {
		t.Helper()
		session, err := store.CreateSession(context.Background(), models.Profile{
			Name: "Asha", Age: 16, Status: models.StatusSchoolStudent,
		})
		if err != nil {
			t.Fatalf("create session: %v", err)
		}
		for i := 0; i < n; i++ {
			sender := models.SenderUser
			if i%2 == 1 {
				sender = models.SenderAI
			}
			if _, err := store.AppendMessage(context.Background(), session.ID, sender, fmt.Sprintf("turn %d", i)); err != nil {
				t.Fatalf("seed message %d: %v", i, err)
			}
		}
		return session.ID
	}

	// 18 existing + this user message = 19, below the limit.
	below := newSeededSession(18)
	if _, err := orch.HandleMessage(context.Background(), below, "tell me more"); err != nil {
		t.Fatalf("handle message: %v", err)
	}
	if *roadmapCalls != 0 {
		t.Fatalf("count 19 must not synthesize")
	}

	// 19 existing, so the inbound user message is exactly the 20th.
	exact := newSeededSession(19)
	reply, err := orch.HandleMessage(context.Background(), exact, "tell me even more")
	if err != nil {
		t.Fatalf("handle message: %v", err)
	}
	if *roadmapCalls != 1 {
		t.Fatalf("count reaching %d must synthesize, got %d calls", MessageLimit, *roadmapCalls)
	}
	if !strings.Contains(reply.Body, "[View Your Roadmap]") {
		t.Fatalf("expected hand-off notice at the limit, got %q", reply.Body)
	}
}

func TestFailedSynthesisOccupiesSlot(t *testing.T) {
	store := openTestStore(t)
	var chatCalls int
	gen := &fakeGenerator{
		generateFn: func(prompt string) (string, error) {
			if strings.Contains(prompt, "JSON generation assistant") {
				return "sorry, no JSON today", nil
			}
			chatCalls++
			return "chat reply", nil
		},
	}
	assembler := NewContextAssembler(nil)
	orch := NewOrchestrator(store, NewResponder(gen, assembler), NewSynthesizer(gen, assembler, &fakeLookup{}))

	session, err := store.CreateSession(context.Background(), models.Profile{
		Name: "Asha", Age: 16, Status: models.StatusSchoolStudent,
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if _, err := orch.HandleMessage(context.Background(), session.ID, "roadmap please"); err != nil {
		t.Fatalf("trigger: %v", err)
	}

	updated, err := store.GetSession(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	var wire map[string]string
	if err := json.Unmarshal(updated.RoadmapData, &wire); err != nil {
		t.Fatalf("decode stored artifact: %v", err)
	}
	if wire["error"] != SynthesisFailed {
		t.Fatalf("expected persisted error artifact, got %s", updated.RoadmapData)
	}

	// The slot is spent: the next trigger gets normal chat.
	reply, err := orch.HandleMessage(context.Background(), session.ID, "roadmap again")
	if err != nil {
		t.Fatalf("second trigger: %v", err)
	}
	if reply.Body != "chat reply" {
		t.Fatalf("expected chat reply after failed synthesis, got %q", reply.Body)
	}
}
