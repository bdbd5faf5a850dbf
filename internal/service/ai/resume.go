package ai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cloudwego/eino-ext/components/document/loader/file"
	"github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/components/document/parser"
	"github.com/cloudwego/eino/components/embedding"
	"rsc.io/pdf"
)

const (
	// Chunks overlap so facts spanning a boundary remain retrievable from
	// at least one chunk.
	resumeChunkSize    = 1000
	resumeChunkOverlap = 200
)

// Indexer turns a resume document into a similarity-searchable index.
// Indexing reprocesses the document fresh on every call; nothing is cached.
type Indexer struct {
	embedder embedding.Embedder
	loader   *file.FileLoader
}

// NewIndexer builds a resume indexer over the provided embedder.
func NewIndexer(embedder embedding.Embedder) (*Indexer, error) {
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	parserExt, err := parser.NewExtParser(context.Background(), &parser.ExtParserConfig{
		FallbackParser: parser.TextParser{},
	})
	if err != nil {
		return nil, fmt.Errorf("init parser: %w", err)
	}
	loader, err := file.NewFileLoader(context.Background(), &file.FileLoaderConfig{
		UseNameAsID: true,
		Parser:      parserExt,
	})
	if err != nil {
		return nil, fmt.Errorf("init file loader: %w", err)
	}
	return &Indexer{embedder: embedder, loader: loader}, nil
}

// ResumeIndex is the searchable structure built from one resume document.
type ResumeIndex struct {
	embedder embedding.Embedder
	chunks   []string
	vectors  [][]float64
}

// Index extracts the resume text, splits it into overlapping chunks and
// embeds them. Any failure (missing file, corrupt PDF, empty document) yields
// an error; callers must treat that as "no resume grounding available".
func (ix *Indexer) Index(ctx context.Context, path string) (*ResumeIndex, error) {
	if path == "" {
		return nil, errors.New("resume path is empty")
	}
	text, err := ix.extractText(ctx, path)
	if err != nil {
		return nil, err
	}
	chunks := splitChunks(text, resumeChunkSize, resumeChunkOverlap)
	if len(chunks) == 0 {
		return nil, errors.New("resume has no readable text")
	}
	vectors, err := ix.embedder.EmbedStrings(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("embed resume chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("vector count mismatch: %d chunks, %d vectors", len(chunks), len(vectors))
	}
	return &ResumeIndex{embedder: ix.embedder, chunks: chunks, vectors: vectors}, nil
}

// Search indexes the document fresh and returns the k chunks most similar to
// the query. Indexing is idempotent but uncached; callers tolerate the cost.
func (ix *Indexer) Search(ctx context.Context, path, query string, k int) ([]string, error) {
	index, err := ix.Index(ctx, path)
	if err != nil {
		return nil, err
	}
	return index.Query(ctx, query, k)
}

// Query returns up to k chunk texts ordered by cosine similarity to text.
func (r *ResumeIndex) Query(ctx context.Context, text string, k int) ([]string, error) {
	if r == nil || len(r.chunks) == 0 || k <= 0 {
		return nil, nil
	}
	vectors, err := r.embedder.EmbedStrings(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, errors.New("query embedding missing")
	}
	query := vectors[0]

	type scored struct {
		idx   int
		score float64
	}
	ranked := make([]scored, 0, len(r.vectors))
	for i, vec := range r.vectors {
		ranked = append(ranked, scored{idx: i, score: cosineSimilarity(query, vec)})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	if k > len(ranked) {
		k = len(ranked)
	}
	results := make([]string, 0, k)
	for _, entry := range ranked[:k] {
		results = append(results, r.chunks[entry.idx])
	}
	return results, nil
}

func (ix *Indexer) extractText(ctx context.Context, path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return extractPDFText(path)
	}
	docs, err := ix.loader.Load(ctx, document.Source{URI: path})
	if err != nil {
		return "", fmt.Errorf("load resume: %w", err)
	}
	var builder strings.Builder
	for _, doc := range docs {
		content := strings.TrimSpace(doc.Content)
		if content == "" {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteString(" ")
		}
		builder.WriteString(content)
	}
	text := builder.String()
	if text == "" {
		return "", errors.New("resume has no readable text content")
	}
	return text, nil
}

// extractPDFText reads every text run in the document. rsc.io/pdf panics on
// malformed content streams, so recover and report those as unreadable
// documents; the caller degrades to the no-resume sentinel.
func extractPDFText(path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("parse pdf: %v", r)
		}
	}()
	doc, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	var parts []string
	for pageNum := 1; pageNum <= doc.NumPage(); pageNum++ {
		page := doc.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		content := page.Content()
		for _, text := range content.Text {
			if strings.TrimSpace(text.S) == "" {
				continue
			}
			parts = append(parts, text.S)
		}
	}
	if len(parts) == 0 {
		return "", errors.New("pdf has no extractable text")
	}
	return strings.Join(parts, " "), nil
}

// splitChunks slices text into rune-based windows of the given size, each
// window starting size-overlap runes after the previous one.
func splitChunks(text string, size, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" || size <= 0 {
		return nil
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}
	}
	step := size - overlap
	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
