package counselor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"

	"counselgo/internal/models"
	"counselgo/internal/service/courses"
)

const (
	roadmapMaxTokens   = 1500
	roadmapTemperature = 0.3
	roadmapPathways    = 3
)

// SynthesisFailed is the stable error text persisted when the generator's
// output cannot be decoded into a valid roadmap.
const SynthesisFailed = "Failed to decode or process the roadmap from AI response."

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

const schoolRoadmapPrompt = `You are a JSON generation assistant. Analyze the following conversation and generate a JSON object.
Conversation:
---
%s
---
TASK: Based on the conversation, suggest 3 academic fields for the student.
You MUST respond with ONLY a single, valid JSON object.
The JSON object must have a key "roadmap" which contains a list of 3 objects.
Each object MUST have these exact keys: "title" (string), "skills" (list of strings), "reasoning" (string).
DO NOT add any text before or after the JSON object.`

const careerRoadmapPrompt = `Analyze the conversation and resume context.
Chat History: %s
Resume Context: %s

TASK: Based on this information, suggest 3 detailed career pathways.
You MUST format your response as a single, valid JSON object.
The object must have one key "roadmap", a list of 3 pathway objects.
Each object must have these exact keys: "title", "skills", "courses_to_find", "salary", "growth", "reasoning".
- The "courses_to_find" value MUST be a list of 2-3 strings.
- Each string MUST be a specific, searchable skill or course name (e.g., "User Interface Design", "UX Research Methods").`

// Synthesizer turns a finished conversation into the structured roadmap
// artifact, enriching non-school pathways with verified course links.
type Synthesizer struct {
	generator TextGenerator
	assembler *ContextAssembler
	lookup    courses.Lookup
}

// NewSynthesizer wires the synthesizer with its injected collaborators.
// lookup may be nil, in which case every pathway ends up with empty courses.
func NewSynthesizer(generator TextGenerator, assembler *ContextAssembler, lookup courses.Lookup) *Synthesizer {
	return &Synthesizer{generator: generator, assembler: assembler, lookup: lookup}
}

// Synthesize asks the generator for the strict JSON roadmap and validates
// the result. A generator transport failure is returned as err; any parse or
// shape problem is converted into an artifact carrying an error value.
func (s *Synthesizer) Synthesize(ctx context.Context, session *models.Session, historyText string) (*models.RoadmapArtifact, error) {
	school := session.Profile.Status == models.StatusSchoolStudent

	var prompt string
	if school {
		prompt = fmt.Sprintf(schoolRoadmapPrompt, historyText)
	} else {
		resumeContext := s.assembler.Assemble(ctx, session, historyText, RoadmapContextChunks)
		prompt = fmt.Sprintf(careerRoadmapPrompt, historyText, resumeContext)
	}

	raw, err := s.generator.Generate(ctx, prompt, roadmapMaxTokens, roadmapTemperature)
	if err != nil {
		return nil, fmt.Errorf("roadmap generation: %w", err)
	}

	artifact, err := s.buildArtifact(ctx, raw, school)
	if err != nil {
		log.Printf("roadmap synthesis failed for session %s: %v", session.ID, err)
		return &models.RoadmapArtifact{Error: SynthesisFailed}, nil
	}
	return artifact, nil
}

type rawPathway struct {
	Title         string   `json:"title"`
	Skills        []string `json:"skills"`
	Reasoning     string   `json:"reasoning"`
	CoursesToFind []string `json:"courses_to_find"`
	Salary        string   `json:"salary"`
	Growth        string   `json:"growth"`
}

func (s *Synthesizer) buildArtifact(ctx context.Context, raw string, school bool) (*models.RoadmapArtifact, error) {
	payload, err := ExtractJSON(raw)
	if err != nil {
		return nil, err
	}

	var decoded struct {
		Roadmap []rawPathway `json:"roadmap"`
	}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, fmt.Errorf("decode roadmap: %w", err)
	}
	if len(decoded.Roadmap) != roadmapPathways {
		return nil, fmt.Errorf("expected %d pathways, got %d", roadmapPathways, len(decoded.Roadmap))
	}

	if school {
		pathways := make([]models.SchoolPathway, 0, roadmapPathways)
		for i, entry := range decoded.Roadmap {
			if err := validatePathway(i, entry, false); err != nil {
				return nil, err
			}
			pathways = append(pathways, models.SchoolPathway{
				Title:     entry.Title,
				Skills:    entry.Skills,
				Reasoning: entry.Reasoning,
			})
		}
		return &models.RoadmapArtifact{SchoolPathways: pathways}, nil
	}

	pathways := make([]models.CareerPathway, 0, roadmapPathways)
	for i, entry := range decoded.Roadmap {
		if err := validatePathway(i, entry, true); err != nil {
			return nil, err
		}
		pathways = append(pathways, models.CareerPathway{
			Title:     entry.Title,
			Skills:    entry.Skills,
			Salary:    entry.Salary,
			Growth:    entry.Growth,
			Reasoning: entry.Reasoning,
			Courses:   s.resolveCourses(ctx, entry.CoursesToFind),
		})
	}
	return &models.RoadmapArtifact{CareerPathways: pathways}, nil
}

func validatePathway(idx int, entry rawPathway, career bool) error {
	if strings.TrimSpace(entry.Title) == "" {
		return fmt.Errorf("pathway %d: missing title", idx)
	}
	if entry.Skills == nil {
		return fmt.Errorf("pathway %d: missing skills", idx)
	}
	if strings.TrimSpace(entry.Reasoning) == "" {
		return fmt.Errorf("pathway %d: missing reasoning", idx)
	}
	if career {
		if strings.TrimSpace(entry.Salary) == "" {
			return fmt.Errorf("pathway %d: missing salary", idx)
		}
		if strings.TrimSpace(entry.Growth) == "" {
			return fmt.Errorf("pathway %d: missing growth", idx)
		}
		if entry.CoursesToFind == nil {
			return fmt.Errorf("pathway %d: missing courses_to_find", idx)
		}
	}
	return nil
}

// resolveCourses looks up the single best course per search query. Queries
// with no match are omitted, never padded; result order follows query order.
func (s *Synthesizer) resolveCourses(ctx context.Context, queries []string) []models.Course {
	verified := make([]models.Course, 0, len(queries))
	if s.lookup == nil {
		return verified
	}
	for _, query := range queries {
		results := s.lookup.Search(ctx, query, 1)
		if len(results) > 0 {
			verified = append(verified, results[0])
		}
	}
	return verified
}

// ExtractJSON locates the JSON object in the generator's output, tolerating
// fenced code blocks (tagged json or untagged) and surrounding prose.
func ExtractJSON(raw string) ([]byte, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, errors.New("empty generator output")
	}
	if match := fencedJSON.FindStringSubmatch(trimmed); match != nil {
		return []byte(match[1]), nil
	}
	if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
		return []byte(trimmed), nil
	}
	return nil, errors.New("no JSON object found in generator output")
}
