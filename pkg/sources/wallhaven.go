package sources

import (
	"fmt"
	"net/url"

	"wallscraper/pkg/fetch"
	"wallscraper/pkg/models"
)

const wallhavenBaseURL = "https://wallhaven.cc/api/v1"

// Wallhaven queries the wallhaven.cc search API. The key is optional; an
// anonymous client sees the SFW general catalog.
type Wallhaven struct {
	apiKey  string
	client  *fetch.Client
	baseURL string
}

type wallhavenResponse struct {
	Data []struct {
		ID         string `json:"id"`
		Path       string `json:"path"`
		DimensionX int    `json:"dimension_x"`
		DimensionY int    `json:"dimension_y"`
		Category   string `json:"category"`
	} `json:"data"`
}

func NewWallhaven(apiKey string, client *fetch.Client) *Wallhaven {
	return &Wallhaven{apiKey: apiKey, client: client, baseURL: wallhavenBaseURL}
}

func (w *Wallhaven) Name() string { return "wallhaven" }

// Enabled is always true; wallhaven works without a key.
func (w *Wallhaven) Enabled() bool { return true }

func (w *Wallhaven) Search(term string, count int) ([]models.Candidate, error) {
	params := url.Values{}
	params.Set("q", term)
	params.Set("categories", "100") // general only
	params.Set("purity", "100")     // SFW only
	params.Set("ratios", "portrait")
	params.Set("sorting", "relevance")
	if w.apiKey != "" {
		params.Set("apikey", w.apiKey)
	}

	var resp wallhavenResponse
	if err := w.client.GetJSON(w.baseURL+"/search?"+params.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	if len(resp.Data) > count {
		resp.Data = resp.Data[:count]
	}

	candidates := make([]models.Candidate, 0, len(resp.Data))
	for _, d := range resp.Data {
		if d.Path == "" {
			continue
		}
		candidates = append(candidates, models.Candidate{
			URL:        d.Path,
			RemoteID:   d.ID,
			Title:      fmt.Sprintf("wallhaven-%s", d.ID),
			Source:     w.Name(),
			SearchTerm: term,
			Tags:       []string{d.Category},
			Width:      d.DimensionX,
			Height:     d.DimensionY,
		})
	}
	return candidates, nil
}
