package sources

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallscraper/pkg/config"
	"wallscraper/pkg/fetch"
)

func testClient() *fetch.Client {
	c := fetch.NewClient(5*time.Second, "wallscraper-test/1.0", nil)
	c.SetMaxRetries(0)
	return c
}

func TestUnsplashSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/photos", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "mountain landscape", q.Get("query"))
		assert.Equal(t, "portrait", q.Get("orientation"))
		assert.Equal(t, "test-key", q.Get("client_id"))
		assert.Equal(t, "30", q.Get("per_page"))

		w.Write([]byte(`{
			"results": [{
				"id": "abc123",
				"description": "Misty peak at dawn",
				"width": 3000, "height": 5000,
				"urls": {"full": "https://images.example.com/abc123.jpg"},
				"user": {"name": "Jane Doe"},
				"tags": [{"title": "Mountain"}, {"title": "Mist"}]
			}]
		}`))
	}))
	defer server.Close()

	u := NewUnsplash("test-key", testClient())
	u.baseURL = server.URL

	candidates, err := u.Search("mountain landscape", 50)
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	c := candidates[0]
	assert.Equal(t, "https://images.example.com/abc123.jpg", c.URL)
	assert.Equal(t, "abc123", c.RemoteID)
	assert.Equal(t, "Misty peak at dawn", c.Title)
	assert.Equal(t, "Jane Doe", c.Photographer)
	assert.Equal(t, "unsplash", c.Source)
	assert.Equal(t, []string{"mountain", "mist"}, c.Tags)
	assert.Equal(t, 3000, c.Width)
}

func TestPexelsSearchSendsAuthHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/search", r.URL.Path)
		assert.Equal(t, "pexels-key", r.Header.Get("Authorization"))

		w.Write([]byte(`{
			"photos": [{
				"id": 42,
				"width": 2000, "height": 3500,
				"photographer": "John Roe",
				"alt": "Neon alley",
				"src": {"original": "https://images.pexels.com/42.jpg"}
			}]
		}`))
	}))
	defer server.Close()

	p := NewPexels("pexels-key", testClient())
	p.baseURL = server.URL

	candidates, err := p.Search("neon", 10)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "https://images.pexels.com/42.jpg", candidates[0].URL)
	assert.Equal(t, "42", candidates[0].RemoteID)
	assert.Equal(t, "pexels", candidates[0].Source)
}

func TestPixabaySearchSplitsTags(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "pix-key", q.Get("key"))
		assert.Equal(t, "galaxy", q.Get("q"))
		assert.Equal(t, "vertical", q.Get("orientation"))

		w.Write([]byte(`{
			"hits": [{
				"id": 7,
				"tags": "galaxy, stars, night sky",
				"user": "astro",
				"imageWidth": 1440, "imageHeight": 2560,
				"largeImageURL": "https://pixabay.example.com/7.jpg"
			}]
		}`))
	}))
	defer server.Close()

	p := NewPixabay("pix-key", testClient())
	p.baseURL = server.URL

	candidates, err := p.Search("galaxy", 10)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, []string{"galaxy", "stars", "night sky"}, candidates[0].Tags)
	assert.Equal(t, "pixabay", candidates[0].Source)
}

func TestWallhavenSearchWorksWithoutKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Empty(t, q.Get("apikey"))
		assert.Equal(t, "portrait", q.Get("ratios"))

		w.Write([]byte(`{
			"data": [
				{"id": "x1", "path": "https://w.wallhaven.cc/full/x1.jpg", "dimension_x": 1440, "dimension_y": 2960, "category": "general"},
				{"id": "x2", "path": "https://w.wallhaven.cc/full/x2.jpg", "dimension_x": 1080, "dimension_y": 1920, "category": "general"}
			]
		}`))
	}))
	defer server.Close()

	wh := NewWallhaven("", testClient())
	wh.baseURL = server.URL

	assert.True(t, wh.Enabled())

	candidates, err := wh.Search("abstract", 1)
	require.NoError(t, err)
	require.Len(t, candidates, 1, "count should cap results")
	assert.Equal(t, "x1", candidates[0].RemoteID)
}

func TestEnabledFiltersByKey(t *testing.T) {
	cfg := &config.SourcesConfig{WallhavenAPIKey: ""}
	enabled := Enabled(cfg, testClient())

	// Only wallhaven works without any keys.
	require.Len(t, enabled, 1)
	assert.Equal(t, "wallhaven", enabled[0].Name())

	cfg.UnsplashAccessKey = "k"
	cfg.PexelsAPIKey = "k"
	enabled = Enabled(cfg, testClient())
	assert.Len(t, enabled, 3)
}
