package youtube_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"misinfo/internal/adapter/sink"
	"misinfo/internal/collector"
	"misinfo/internal/collector/youtube"
)

const videoResponse = `{
  "items": [{
    "id": "dQw4w9WgXcQ",
    "snippet": {
      "title": "Never Gonna Give You Up",
      "description": "Official video",
      "publishedAt": "2009-10-25T06:57:33Z",
      "channelTitle": "Rick Astley",
      "channelId": "UCuAXFkgsw1L7xaCfnd5JJOw",
      "tags": ["rick", "astley"],
      "categoryId": "10"
    },
    "contentDetails": {"duration": "PT3M33S"},
    "statistics": {"viewCount": "1000", "likeCount": "10"}
  }]
}`

func fakeAPI(t *testing.T, status int, body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/videos"))
		assert.Equal(t, "dQw4w9WgXcQ", r.URL.Query().Get("id"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
}

func countingBackend(hits *int32) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		w.Write([]byte(`{"status":"success","doc_id":"doc-7"}`))
	}))
}

func TestCollectVideo(t *testing.T) {
	api := fakeAPI(t, http.StatusOK, videoResponse)
	defer api.Close()

	var hits int32
	backend := countingBackend(&hits)
	defer backend.Close()

	c, err := youtube.New(context.Background(), "test-key", sink.NewClient(backend.URL), option.WithEndpoint(api.URL+"/"))
	require.NoError(t, err)

	rec, err := c.CollectVideo(context.Background(), "dQw4w9WgXcQ", true)
	require.NoError(t, err)

	assert.Equal(t, "youtube", rec.Source)
	assert.Equal(t, "video", rec.Type)
	assert.Equal(t, "Never Gonna Give You Up\n\nOfficial video", rec.ContentText)
	assert.Equal(t, "Rick Astley", rec.Metadata["channel"])
	assert.Equal(t, "PT3M33S", rec.Metadata["duration"])
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", rec.Metadata["url"])
	assert.Equal(t, "doc-7", rec.BackendDocID)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestCollectVideo_NoBackendMakesNoPosts(t *testing.T) {
	api := fakeAPI(t, http.StatusOK, videoResponse)
	defer api.Close()

	var hits int32
	backend := countingBackend(&hits)
	defer backend.Close()

	c, err := youtube.New(context.Background(), "test-key", sink.NewClient(backend.URL), option.WithEndpoint(api.URL+"/"))
	require.NoError(t, err)

	rec, err := c.CollectVideo(context.Background(), "dQw4w9WgXcQ", false)
	require.NoError(t, err)
	assert.Empty(t, rec.BackendDocID)
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
}

func TestCollectVideo_NotFound(t *testing.T) {
	api := fakeAPI(t, http.StatusOK, `{"items": []}`)
	defer api.Close()

	c, err := youtube.New(context.Background(), "test-key", nil, option.WithEndpoint(api.URL+"/"))
	require.NoError(t, err)

	_, err = c.CollectVideo(context.Background(), "dQw4w9WgXcQ", false)
	assert.True(t, errors.Is(err, collector.ErrNotFound))
}

func TestCollectVideo_QuotaExceeded(t *testing.T) {
	body := `{"error":{"code":403,"message":"quota","errors":[{"reason":"quotaExceeded","message":"quota"}]}}`
	api := fakeAPI(t, http.StatusForbidden, body)
	defer api.Close()

	c, err := youtube.New(context.Background(), "test-key", nil, option.WithEndpoint(api.URL+"/"))
	require.NoError(t, err)

	_, err = c.CollectVideo(context.Background(), "dQw4w9WgXcQ", false)
	assert.True(t, errors.Is(err, collector.ErrRateLimited))
}

func TestNew_RequiresKey(t *testing.T) {
	_, err := youtube.New(context.Background(), "", nil)
	assert.True(t, errors.Is(err, collector.ErrNotConfigured))
}
