package sources

import (
	"fmt"
	"net/url"

	"wallscraper/pkg/fetch"
	"wallscraper/pkg/models"
)

const pexelsBaseURL = "https://api.pexels.com"

// Pexels queries the Pexels search API. The key travels in the
// Authorization header.
type Pexels struct {
	apiKey  string
	client  *fetch.Client
	baseURL string
}

type pexelsResponse struct {
	Photos []struct {
		ID           int    `json:"id"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		Photographer string `json:"photographer"`
		Alt          string `json:"alt"`
		Src          struct {
			Original string `json:"original"`
			Large2x  string `json:"large2x"`
		} `json:"src"`
	} `json:"photos"`
}

func NewPexels(apiKey string, client *fetch.Client) *Pexels {
	return &Pexels{apiKey: apiKey, client: client, baseURL: pexelsBaseURL}
}

func (p *Pexels) Name() string { return "pexels" }

func (p *Pexels) Enabled() bool { return p.apiKey != "" }

func (p *Pexels) Search(term string, count int) ([]models.Candidate, error) {
	// The API caps per_page at 80.
	perPage := count
	if perPage > 80 {
		perPage = 80
	}

	params := url.Values{}
	params.Set("query", term)
	params.Set("per_page", fmt.Sprintf("%d", perPage))
	params.Set("orientation", "portrait")

	headers := map[string]string{"Authorization": p.apiKey}

	var resp pexelsResponse
	if err := p.client.GetJSON(p.baseURL+"/v1/search?"+params.Encode(), headers, &resp); err != nil {
		return nil, err
	}

	candidates := make([]models.Candidate, 0, len(resp.Photos))
	for _, photo := range resp.Photos {
		imageURL := photo.Src.Original
		if imageURL == "" {
			imageURL = photo.Src.Large2x
		}
		if imageURL == "" {
			continue
		}

		candidates = append(candidates, models.Candidate{
			URL:          imageURL,
			RemoteID:     fmt.Sprintf("%d", photo.ID),
			Title:        photo.Alt,
			Photographer: photo.Photographer,
			Source:       p.Name(),
			SearchTerm:   term,
			Width:        photo.Width,
			Height:       photo.Height,
		})
	}
	return candidates, nil
}
