package mu

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(ClientOptions{
		Secret:     "test-secret",
		Platform:   PlatformAndroid,
		HTTPClient: srv.Client(),
		BaseURL:    srv.URL,
	})
	require.NoError(t, err)

	return client
}

func TestRequestCarriesSessionParams(t *testing.T) {
	var query map[string]string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = map[string]string{
			"secret":  r.URL.Query().Get("secret"),
			"app_ver": r.URL.Query().Get("app_ver"),
			"os_ver":  r.URL.Query().Get("os_ver"),
			"lang":    r.URL.Query().Get("lang"),
		}
		_, _ = w.Write(appendMessageField(nil, 1, encodeUserPoint(1, 2, 3)))
	}))

	point, err := client.GetUserPoint(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uint64(6), point.Total())
	assert.Equal(t, "test-secret", query["secret"])
	assert.Equal(t, "61", query["app_ver"])
	assert.Equal(t, "32", query["os_ver"])
	assert.Equal(t, "en", query["lang"])
}

func TestNewClientRequiresSecret(t *testing.T) {
	_, err := NewClient(ClientOptions{})
	assert.Error(t, err)
}

func TestGetMangaStatusError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/manga/detail_v2", r.URL.Path)
		_, _ = w.Write(appendVarintField(nil, 1, uint64(StatusContentNotFound)))
	}))

	_, err := client.GetManga(context.Background(), 240)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, StatusContentNotFound, apiErr.Status)
}

func TestGetChapterImagesSpendsCoins(t *testing.T) {
	var form map[string]string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		form = map[string]string{
			"chapter_id":  r.PostForm.Get("chapter_id"),
			"quality":     r.PostForm.Get("quality"),
			"free_point":  r.PostForm.Get("free_point"),
			"event_point": r.PostForm.Get("event_point"),
			"paid_point":  r.PostForm.Get("paid_point"),
		}

		var page []byte
		page = appendStringField(page, 1, "/pages/0001.avif")
		var block []byte
		block = appendMessageField(block, 3, page)

		var b []byte
		b = appendVarintField(b, 1, uint64(StatusSuccess))
		b = appendMessageField(b, 2, encodeUserPoint(0, 0, 70))
		b = appendMessageField(b, 3, block)
		_, _ = w.Write(b)
	}))

	coins := ConsumeCoin{Free: 10, Event: 5, Paid: 15, Need: 30}
	viewer, err := client.GetChapterImages(context.Background(), 77, QualityHigh, coins)
	require.NoError(t, err)

	assert.Equal(t, "77", form["chapter_id"])
	assert.Equal(t, "high", form["quality"])
	assert.Equal(t, "10", form["free_point"])
	assert.Equal(t, "5", form["event_point"])
	assert.Equal(t, "15", form["paid_point"])

	// The server-declared balance is authoritative.
	require.NotNil(t, viewer.UserPoint)
	assert.Equal(t, uint64(70), viewer.UserPoint.Paid)
}

func TestSearchDecodesResults(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "hero", r.URL.Query().Get("word"))

		var node []byte
		node = appendVarintField(node, 1, 240)
		node = appendStringField(node, 2, "Hero Tale")

		_, _ = w.Write(appendMessageField(nil, 1, node))
	}))

	results, err := client.Search(context.Background(), "hero")
	require.NoError(t, err)

	require.Len(t, results.Titles, 1)
	assert.Equal(t, uint64(240), results.Titles[0].ID)
	assert.Equal(t, "Hero Tale", results.Titles[0].Title)
}

func TestResolveImageURL(t *testing.T) {
	resolved, err := resolveImageURL("/pages/0001.avif")
	require.NoError(t, err)
	assert.Equal(t, "https://"+ImageHost+"/pages/0001.avif", resolved)

	// Absolute URLs get repinned to the image CDN.
	resolved, err = resolveImageURL("https://stale.example/pages/0001.avif?sig=x")
	require.NoError(t, err)
	assert.Equal(t, "https://"+ImageHost+"/pages/0001.avif?sig=x", resolved)
}
