package content_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"misinfo/features/content"
	"misinfo/internal/config"
)

// memRepo keeps content in memory so collect and read-back can be checked end to end.
type memRepo struct {
	mu    sync.Mutex
	items map[string]*content.Content
	err   error
}

func newMemRepo() *memRepo {
	return &memRepo{items: map[string]*content.Content{}}
}

func (r *memRepo) Save(ctx context.Context, c *content.Content) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = uuid.New().String()
	cp := *c
	r.items[c.ID] = &cp
	return nil
}

func (r *memRepo) Get(ctx context.Context, id string) (*content.Content, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return c, nil
}

func (r *memRepo) GetText(ctx context.Context, id string) (string, error) {
	c, err := r.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return c.ContentText, nil
}

func (r *memRepo) SaveAnalysis(ctx context.Context, id, analysis string) error { return nil }

func (r *memRepo) CountByType(ctx context.Context) (map[string]int, error) { return nil, nil }

func (r *memRepo) Count(ctx context.Context) (int, error) { return len(r.items), nil }

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(topic string, body []byte) error {
	args := m.Called(topic, body)
	return args.Error(0)
}

type MockBlobStore struct {
	mock.Mock
}

func (m *MockBlobStore) Put(ctx context.Context, name, contentType string, r io.Reader, public bool) (string, error) {
	data, _ := io.ReadAll(r)
	args := m.Called(name, contentType, string(data), public)
	return args.String(0), args.Error(1)
}

func postForm(h http.HandlerFunc, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/collect", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error.Message
}

func TestCollect_MissingSourceOrType(t *testing.T) {
	repo := newMemRepo()
	h := content.NewHandler(content.NewService(repo, nil, nil, nil, true), 50)

	cases := []url.Values{
		{"type": {"tweet"}, "content_text": {"x"}},
		{"source": {"twitter"}, "content_text": {"x"}},
		{"source": {""}, "type": {""}},
	}
	for i, values := range cases {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			w := postForm(h.Collect, values)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "source and type are required", errorMessage(t, w))
		})
	}
	assert.Empty(t, repo.items)
}

func TestCollect_InvalidMetadata(t *testing.T) {
	repo := newMemRepo()
	h := content.NewHandler(content.NewService(repo, nil, nil, nil, true), 50)

	for _, meta := range []string{"{not json", "[1,2]", `"text"`} {
		w := postForm(h.Collect, url.Values{"source": {"twitter"}, "type": {"tweet"}, "metadata": {meta}})
		assert.Equal(t, http.StatusBadRequest, w.Code, meta)
		assert.Equal(t, "invalid JSON in metadata", errorMessage(t, w))
	}
	assert.Empty(t, repo.items)
}

func TestCollect_RoundTrip(t *testing.T) {
	repo := newMemRepo()
	pub := new(MockPublisher)
	pub.On("Publish", config.TopicContentCollected, mock.Anything).Return(nil)
	h := content.NewHandler(content.NewService(repo, nil, pub, nil, true), 50)

	w := postForm(h.Collect, url.Values{
		"source":       {"youtube"},
		"type":         {"video"},
		"content_text": {"Some title\n\nSome description"},
		"metadata":     {`{"video_id":"dQw4w9WgXcQ"}`},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var created map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "success", created["status"])
	docID := created["doc_id"]
	require.NotEmpty(t, docID)

	req := httptest.NewRequest("GET", "/content/"+docID, nil)
	req.SetPathValue("id", docID)
	rw := httptest.NewRecorder()
	h.Get(rw, req)
	require.Equal(t, http.StatusOK, rw.Code)

	var got struct {
		Data content.Content `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &got))
	assert.Equal(t, "youtube", got.Data.Source)
	assert.Equal(t, "video", got.Data.Type)
	assert.Equal(t, "Some title\n\nSome description", got.Data.ContentText)
	assert.Equal(t, "dQw4w9WgXcQ", got.Data.Metadata["video_id"])
	assert.Equal(t, "pending", got.Data.Status)

	var event map[string]string
	require.NoError(t, json.Unmarshal(pub.Calls[0].Arguments.Get(1).([]byte), &event))
	assert.Equal(t, docID, event["doc_id"])
}

func TestCollect_JSONBody(t *testing.T) {
	repo := newMemRepo()
	h := content.NewHandler(content.NewService(repo, nil, nil, nil, true), 50)

	body := `{"source":"reddit_scraper","type":"reddit_post","content_text":"t","metadata":{"subreddit":"news"}}`
	req := httptest.NewRequest("POST", "/collect", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.Collect(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, repo.items, 1)
	for _, c := range repo.items {
		assert.Equal(t, "news", c.Metadata["subreddit"])
	}
}

func TestCollect_PublishFailureStillSucceeds(t *testing.T) {
	repo := newMemRepo()
	pub := new(MockPublisher)
	pub.On("Publish", config.TopicContentCollected, mock.Anything).Return(errors.New("nsq down"))
	h := content.NewHandler(content.NewService(repo, nil, pub, nil, true), 50)

	w := postForm(h.Collect, url.Values{"source": {"twitter"}, "type": {"tweet"}})
	assert.Equal(t, http.StatusOK, w.Code)
	pub.AssertExpectations(t)
}

func TestCollect_StoreFailureHidesDetail(t *testing.T) {
	repo := newMemRepo()
	repo.err = errors.New("pq: connection refused")
	h := content.NewHandler(content.NewService(repo, nil, nil, nil, true), 50)

	w := postForm(h.Collect, url.Values{"source": {"twitter"}, "type": {"tweet"}})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to collect data", errorMessage(t, w))
	assert.NotContains(t, w.Body.String(), "pq:")
}

func multipartUpload(t *testing.T, fields map[string]string, filename, data string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(data))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUpload(t *testing.T) {
	repo := newMemRepo()
	blobs := new(MockBlobStore)
	blobs.On("Put", mock.MatchedBy(func(name string) bool {
		return strings.HasSuffix(name, "_report.pdf") && len(name) > len("_report.pdf")
	}), "application/octet-stream", "%PDF-1.4", true).Return("https://storage.googleapis.com/b/x_report.pdf", nil)

	h := content.NewHandler(content.NewService(repo, blobs, nil, nil, true), 50)

	w := httptest.NewRecorder()
	h.Upload(w, multipartUpload(t, map[string]string{"source": "file_upload"}, "report.pdf", "%PDF-1.4"))

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp["status"])
	assert.Equal(t, "https://storage.googleapis.com/b/x_report.pdf", resp["file_url"])

	stored := repo.items[resp["doc_id"]]
	require.NotNil(t, stored)
	assert.Equal(t, "file", stored.Type)
	assert.Equal(t, "report.pdf", stored.Metadata["filename"])
	blobs.AssertExpectations(t)
}

func TestUpload_Validation(t *testing.T) {
	h := content.NewHandler(content.NewService(newMemRepo(), new(MockBlobStore), nil, nil, true), 50)

	w := httptest.NewRecorder()
	h.Upload(w, multipartUpload(t, map[string]string{"source": "file_upload"}, "", ""))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No file provided", errorMessage(t, w))

	w = httptest.NewRecorder()
	h.Upload(w, multipartUpload(t, nil, "a.txt", "hello"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Source is required", errorMessage(t, w))
}

func TestUpload_StoreFailure(t *testing.T) {
	blobs := new(MockBlobStore)
	blobs.On("Put", mock.Anything, mock.Anything, mock.Anything, false).Return("", errors.New("bucket gone"))
	h := content.NewHandler(content.NewService(newMemRepo(), blobs, nil, nil, false), 50)

	w := httptest.NewRecorder()
	h.Upload(w, multipartUpload(t, map[string]string{"source": "s"}, "a.txt", "hello"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to upload file", errorMessage(t, w))
}

func TestGet_NotFound(t *testing.T) {
	h := content.NewHandler(content.NewService(newMemRepo(), nil, nil, nil, true), 50)

	for _, id := range []string{"not-a-uuid", uuid.New().String()} {
		req := httptest.NewRequest("GET", "/content/"+id, nil)
		req.SetPathValue("id", id)
		w := httptest.NewRecorder()
		h.Get(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code, id)
	}
}
