package sources

import (
	"fmt"
	"net/url"
	"strings"

	"wallscraper/pkg/fetch"
	"wallscraper/pkg/models"
)

const pixabayBaseURL = "https://pixabay.com/api/"

// Pixabay queries the Pixabay API. The key travels as a query parameter.
type Pixabay struct {
	apiKey  string
	client  *fetch.Client
	baseURL string
}

type pixabayResponse struct {
	Hits []struct {
		ID            int    `json:"id"`
		Tags          string `json:"tags"`
		User          string `json:"user"`
		ImageWidth    int    `json:"imageWidth"`
		ImageHeight   int    `json:"imageHeight"`
		LargeImageURL string `json:"largeImageURL"`
	} `json:"hits"`
}

func NewPixabay(apiKey string, client *fetch.Client) *Pixabay {
	return &Pixabay{apiKey: apiKey, client: client, baseURL: pixabayBaseURL}
}

func (p *Pixabay) Name() string { return "pixabay" }

func (p *Pixabay) Enabled() bool { return p.apiKey != "" }

func (p *Pixabay) Search(term string, count int) ([]models.Candidate, error) {
	perPage := count
	if perPage > 200 {
		perPage = 200
	}
	if perPage < 3 {
		perPage = 3 // API minimum
	}

	params := url.Values{}
	params.Set("key", p.apiKey)
	params.Set("q", term)
	params.Set("image_type", "photo")
	params.Set("orientation", "vertical")
	params.Set("per_page", fmt.Sprintf("%d", perPage))

	var resp pixabayResponse
	if err := p.client.GetJSON(p.baseURL+"?"+params.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	candidates := make([]models.Candidate, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		if hit.LargeImageURL == "" {
			continue
		}

		var tags []string
		for _, t := range strings.Split(hit.Tags, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}

		candidates = append(candidates, models.Candidate{
			URL:          hit.LargeImageURL,
			RemoteID:     fmt.Sprintf("%d", hit.ID),
			Photographer: hit.User,
			Source:       p.Name(),
			SearchTerm:   term,
			Tags:         tags,
			Width:        hit.ImageWidth,
			Height:       hit.ImageHeight,
		})
	}
	return candidates, nil
}
