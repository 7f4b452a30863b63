package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"misinfo/features/content"
	weaviate_adapter "misinfo/internal/adapter/weaviate"
	"misinfo/internal/app"
	"misinfo/internal/embedding"
	"misinfo/internal/retrieval"
	"misinfo/internal/testutils"
)

// MockEmbedder for E2E
type MockE2EEmbedder struct {
	mock.Mock
}

func (m *MockE2EEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func TestApp_EndToEnd_UploadAndVerify(t *testing.T) {
	s := testutils.NewIntegrationSuite(t)
	s.Setup()
	defer s.Teardown()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	cfg := s.GetAppConfig()

	mockEmbedder := new(MockE2EEmbedder)
	mockEmbedder.On("Embed", mock.Anything, "5G causes covid").Return([]float32{0.9, 0.1, 0.0}, nil)

	vecStore := weaviate_adapter.NewStore(s.Weaviate, cfg.Index)
	_, err := vecStore.Overwrite(context.Background(), []embedding.Record{
		{ID: "0", Embedding: []float32{0.9, 0.1, 0.0}, Metadata: embedding.Metadata{Text: "No link between 5G and covid"}},
		{ID: "1", Embedding: []float32{0.0, 0.1, 0.9}, Metadata: embedding.Metadata{Text: "Elections were not rigged"}},
	})
	require.NoError(t, err)

	application, err := app.New(cfg, s.DB, vecStore, s.NSQ, logger, &app.Options{
		Embedder: mockEmbedder,
		ClaimAudit: retrieval.NewAuditLog(io.Discard),
	})
	require.NoError(t, err)
	defer application.Close()

	// 1. Upload lands on disk and in the content table
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "claim.txt")
	require.NoError(t, err)
	fw.Write([]byte("the earth is flat"))
	mw.WriteField("source", "manual")
	mw.Close()

	req := httptest.NewRequest("POST", "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	application.Handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var up struct {
		DocID   string `json:"doc_id"`
		FileURL string `json:"file_url"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &up))
	assert.NotEmpty(t, up.FileURL)

	req = httptest.NewRequest("GET", "/content/"+up.DocID, nil)
	w = httptest.NewRecorder()
	application.Handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var got struct {
		Data content.Content `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "file", got.Data.Type)
	assert.Equal(t, "claim.txt", got.Data.Metadata["filename"])

	// 2. Claim verification searches the evidence index
	body, _ := json.Marshal(map[string]string{"claim": "5G causes covid"})
	req = httptest.NewRequest("POST", "/claims/verify", bytes.NewReader(body))
	w = httptest.NewRecorder()
	application.Handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var v retrieval.Verification
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	require.NotEmpty(t, v.Evidence)
	assert.Equal(t, "0", v.Evidence[0].ID)

	mockEmbedder.AssertExpectations(t)
}
