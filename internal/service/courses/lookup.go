// Package courses resolves skill names into verified course links. YouTube's
// Data API is the primary provider; DuckDuckGo text search is the keyless
// fallback. Lookups never fail loudly: any error degrades to an empty result.
package courses

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/tool/duckduckgo/v2"
	"github.com/cloudwego/eino/components/tool"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"counselgo/internal/config"
	"counselgo/internal/models"
)

// Education category on YouTube.
const educationCategoryID = "27"

// Lookup finds course links for a searchable skill string.
type Lookup interface {
	Search(ctx context.Context, query string, maxResults int) []models.Course
}

// Service implements Lookup with a provider fallback chain.
type Service struct {
	youtube *youtube.Service
	duck    tool.InvokableTool
}

// NewService builds the lookup. A missing YouTube key only disables that
// provider; the service stays usable through the fallback.
func NewService(cfg *config.Config) *Service {
	svc := &Service{}

	if cfg.Youtube.APIKey != "" {
		yt, err := youtube.NewService(context.Background(), option.WithAPIKey(cfg.Youtube.APIKey))
		if err != nil {
			log.Printf("youtube course lookup disabled: %v", err)
		} else {
			svc.youtube = yt
		}
	} else {
		log.Printf("youtube course lookup disabled: missing api key")
	}

	duckTool, err := duckduckgo.NewTextSearchTool(context.Background(), &duckduckgo.Config{
		ToolName:   "course_search_ddg",
		ToolDesc:   "DuckDuckGo course search (no token required)",
		MaxResults: 3,
		Region:     duckduckgo.RegionWT,
		Timeout:    10 * time.Second,
	})
	if err != nil {
		log.Printf("duckduckgo course fallback disabled: %v", err)
	} else {
		svc.duck = duckTool
	}
	return svc
}

// Search returns up to maxResults course links for the skill. An empty slice
// means no verified course was found; errors are logged, never returned.
func (s *Service) Search(ctx context.Context, query string, maxResults int) []models.Course {
	query = strings.TrimSpace(query)
	if query == "" || maxResults <= 0 {
		return nil
	}
	searchText := fmt.Sprintf("%s course tutorial for beginners", query)

	if s.youtube != nil {
		if results := s.searchYoutube(ctx, searchText, maxResults); len(results) > 0 {
			return results
		}
	}
	if s.duck != nil {
		if results := s.searchDuck(ctx, searchText, maxResults); len(results) > 0 {
			return results
		}
	}
	return nil
}

func (s *Service) searchYoutube(ctx context.Context, query string, maxResults int) []models.Course {
	call := s.youtube.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		VideoCategoryId(educationCategoryID).
		MaxResults(int64(maxResults))
	resp, err := call.Context(ctx).Do()
	if err != nil {
		log.Printf("youtube search failed for %q: %v", query, err)
		return nil
	}
	var results []models.Course
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" || item.Snippet == nil {
			continue
		}
		title := item.Snippet.Title
		if title == "" {
			title = "Untitled Video"
		}
		results = append(results, models.Course{
			Name: title,
			URL:  fmt.Sprintf("https://www.youtube.com/watch?v=%s", item.Id.VideoId),
		})
	}
	return results
}

func (s *Service) searchDuck(ctx context.Context, query string, maxResults int) []models.Course {
	payload, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return nil
	}
	raw, err := s.duck.InvokableRun(ctx, string(payload))
	if err != nil {
		log.Printf("duckduckgo search failed for %q: %v", query, err)
		return nil
	}
	var decoded struct {
		Results []struct {
			Title string `json:"title"`
			URL   string `json:"url"`
		} `json:"results"`
	}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		log.Printf("duckduckgo result decode failed: %v", err)
		return nil
	}
	var results []models.Course
	for _, item := range decoded.Results {
		if item.URL == "" {
			continue
		}
		name := item.Title
		if name == "" {
			name = item.URL
		}
		results = append(results, models.Course{Name: name, URL: item.URL})
		if len(results) >= maxResults {
			break
		}
	}
	return results
}
