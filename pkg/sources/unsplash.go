package sources

import (
	"fmt"
	"net/url"
	"strings"

	"wallscraper/pkg/fetch"
	"wallscraper/pkg/models"
)

const unsplashBaseURL = "https://api.unsplash.com"

// Unsplash queries the Unsplash search API. Requires an access key.
type Unsplash struct {
	accessKey string
	client    *fetch.Client
	baseURL   string
}

type unsplashResponse struct {
	Results []struct {
		ID             string `json:"id"`
		Description    string `json:"description"`
		AltDescription string `json:"alt_description"`
		Width          int    `json:"width"`
		Height         int    `json:"height"`
		URLs           struct {
			Raw  string `json:"raw"`
			Full string `json:"full"`
		} `json:"urls"`
		User struct {
			Name string `json:"name"`
		} `json:"user"`
		Tags []struct {
			Title string `json:"title"`
		} `json:"tags"`
	} `json:"results"`
}

func NewUnsplash(accessKey string, client *fetch.Client) *Unsplash {
	return &Unsplash{accessKey: accessKey, client: client, baseURL: unsplashBaseURL}
}

func (u *Unsplash) Name() string { return "unsplash" }

func (u *Unsplash) Enabled() bool { return u.accessKey != "" }

func (u *Unsplash) Search(term string, count int) ([]models.Candidate, error) {
	// The API caps per_page at 30.
	perPage := count
	if perPage > 30 {
		perPage = 30
	}

	params := url.Values{}
	params.Set("query", term)
	params.Set("per_page", fmt.Sprintf("%d", perPage))
	params.Set("orientation", "portrait")
	params.Set("client_id", u.accessKey)

	var resp unsplashResponse
	if err := u.client.GetJSON(u.baseURL+"/search/photos?"+params.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	candidates := make([]models.Candidate, 0, len(resp.Results))
	for _, r := range resp.Results {
		imageURL := r.URLs.Full
		if imageURL == "" {
			imageURL = r.URLs.Raw
		}
		if imageURL == "" {
			continue
		}

		title := r.Description
		if title == "" {
			title = r.AltDescription
		}

		tags := make([]string, 0, len(r.Tags))
		for _, t := range r.Tags {
			if t.Title != "" {
				tags = append(tags, strings.ToLower(t.Title))
			}
		}

		candidates = append(candidates, models.Candidate{
			URL:          imageURL,
			RemoteID:     r.ID,
			Title:        title,
			Photographer: r.User.Name,
			Source:       u.Name(),
			SearchTerm:   term,
			Tags:         tags,
			Width:        r.Width,
			Height:       r.Height,
		})
	}
	return candidates, nil
}
