package courses

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
)

type fakeTextSearch struct {
	response  string
	err       error
	lastQuery string
}

func (f *fakeTextSearch) Info(context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{Name: "fake_text_search"}, nil
}

func (f *fakeTextSearch) InvokableRun(_ context.Context, arguments string, _ ...tool.Option) (string, error) {
	var req struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal([]byte(arguments), &req); err != nil {
		return "", err
	}
	f.lastQuery = req.Query
	return f.response, f.err
}

func TestSearchUsesFallbackChain(t *testing.T) {
	duck := &fakeTextSearch{response: `{"results": [
		{"title": "React Full Course", "url": "https://example.com/react"},
		{"title": "", "url": "https://example.com/untitled"},
		{"title": "No URL entry", "url": ""}
	]}`}
	svc := &Service{duck: duck}

	results := svc.Search(context.Background(), "React", 3)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %+v", results)
	}
	if results[0].Name != "React Full Course" || results[0].URL != "https://example.com/react" {
		t.Fatalf("unexpected first result: %+v", results[0])
	}
	// A missing title falls back to the URL.
	if results[1].Name != "https://example.com/untitled" {
		t.Fatalf("expected URL as name fallback, got %+v", results[1])
	}
	if !strings.Contains(duck.lastQuery, "React course tutorial for beginners") {
		t.Fatalf("query not reshaped for courses: %q", duck.lastQuery)
	}
}

func TestSearchCapsResults(t *testing.T) {
	duck := &fakeTextSearch{response: `{"results": [
		{"title": "A", "url": "https://example.com/a"},
		{"title": "B", "url": "https://example.com/b"},
		{"title": "C", "url": "https://example.com/c"}
	]}`}
	svc := &Service{duck: duck}

	results := svc.Search(context.Background(), "SQL", 2)
	if len(results) != 2 {
		t.Fatalf("expected capped 2 results, got %d", len(results))
	}
}

func TestSearchDegradesQuietly(t *testing.T) {
	cases := []struct {
		name string
		duck *fakeTextSearch
	}{
		{"provider error", &fakeTextSearch{err: errors.New("rate limited")}},
		{"bad payload", &fakeTextSearch{response: "not json"}},
		{"no results", &fakeTextSearch{response: `{"results": []}`}},
	}
	for _, tc := range cases {
		svc := &Service{duck: tc.duck}
		if results := svc.Search(context.Background(), "Python", 3); results != nil {
			t.Fatalf("%s: expected nil results, got %+v", tc.name, results)
		}
	}
}

func TestSearchInputValidation(t *testing.T) {
	svc := &Service{duck: &fakeTextSearch{response: `{"results": [{"title": "A", "url": "https://a"}]}`}}
	if results := svc.Search(context.Background(), "   ", 3); results != nil {
		t.Fatalf("blank query must short-circuit, got %+v", results)
	}
	if results := svc.Search(context.Background(), "Go", 0); results != nil {
		t.Fatalf("non-positive maxResults must short-circuit, got %+v", results)
	}
}

func TestSearchWithNoProviders(t *testing.T) {
	svc := &Service{}
	if results := svc.Search(context.Background(), "Go", 3); results != nil {
		t.Fatalf("no providers must yield nil, got %+v", results)
	}
}
