package sink_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"misinfo/internal/adapter/sink"
	"misinfo/internal/middleware"
	"misinfo/internal/record"
)

func TestClient_Send(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/collect", r.URL.Path)
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "corr-1", r.Header.Get(middleware.CorrelationHeader))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "youtube", r.FormValue("source"))
		assert.Equal(t, "video", r.FormValue("type"))
		assert.Equal(t, "title\n\ndescription", r.FormValue("content_text"))

		var meta map[string]any
		require.NoError(t, json.Unmarshal([]byte(r.FormValue("metadata")), &meta))
		assert.Equal(t, "dQw4w9WgXcQ", meta["video_id"])

		json.NewEncoder(w).Encode(map[string]string{"status": "success", "doc_id": "42"})
	}))
	defer ts.Close()

	rec := record.New("youtube", "video", "title\n\ndescription").Set("video_id", "dQw4w9WgXcQ")
	ctx := middleware.WithCorrelationID(context.Background(), "corr-1")

	id, err := sink.NewClient(ts.URL+"/").Send(ctx, rec)
	assert.NoError(t, err)
	assert.Equal(t, "42", id)
}

func TestClient_Send_NilMetadataSendsEmptyObject(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "{}", r.FormValue("metadata"))
		json.NewEncoder(w).Encode(map[string]string{"status": "success", "doc_id": "1"})
	}))
	defer ts.Close()

	_, err := sink.NewClient(ts.URL).Send(context.Background(), &record.Record{Source: "s", Type: "t"})
	assert.NoError(t, err)
}

func TestClient_Send_Non200(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"source and type are required"}}`))
	}))
	defer ts.Close()

	_, err := sink.NewClient(ts.URL).Send(context.Background(), &record.Record{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}
