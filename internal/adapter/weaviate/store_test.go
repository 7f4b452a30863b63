package weaviate_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"

	adapter "misinfo/internal/adapter/weaviate"
	"misinfo/internal/embedding"
)

func mockWeaviate(t *testing.T, handler http.HandlerFunc) (*weaviate.Client, *httptest.Server) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/meta" {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"version": "1.19.0"}`))
			return
		}
		handler(w, r)
	}))
	cfg := weaviate.Config{Host: ts.Listener.Addr().String(), Scheme: "http"}
	client, err := weaviate.NewClient(cfg)
	require.NoError(t, err)
	return client, ts
}

func TestStore_Overwrite(t *testing.T) {
	var mu sync.Mutex
	var calls []string
	var batched int
	deleted := false

	client, ts := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls = append(calls, r.Method+" "+r.URL.Path)
		mu.Unlock()

		switch {
		case r.Method == "GET" && r.URL.Path == "/v1/schema/Evidence":
			if deleted {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			json.NewEncoder(w).Encode(map[string]interface{}{"class": "Evidence"})
		case r.Method == "DELETE" && r.URL.Path == "/v1/schema/Evidence":
			deleted = true
			w.WriteHeader(http.StatusOK)
		case r.Method == "POST" && r.URL.Path == "/v1/schema":
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{}`))
		case r.Method == "POST" && r.URL.Path == "/v1/batch/objects":
			var body struct {
				Objects []map[string]interface{} `json:"objects"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			mu.Lock()
			batched += len(body.Objects)
			mu.Unlock()
			resp := make([]map[string]interface{}, 0, len(body.Objects))
			for _, o := range body.Objects {
				assert.Equal(t, "Evidence", o["class"])
				resp = append(resp, map[string]interface{}{"id": o["id"], "class": "Evidence"})
			}
			json.NewEncoder(w).Encode(resp)
		default:
			t.Errorf("unexpected call %s %s", r.Method, r.URL.Path)
		}
	})
	defer ts.Close()

	records := make([]embedding.Record, 3)
	for i := range records {
		records[i] = embedding.Record{
			ID:        string(rune('a' + i)),
			Embedding: []float32{0.1, 0.2},
			Metadata:  embedding.Metadata{Text: "claim"},
		}
	}

	store := adapter.NewStore(client, "Evidence")
	n, err := store.Overwrite(context.Background(), records)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, batched)
	assert.Contains(t, calls, "DELETE /v1/schema/Evidence")
}

func TestStore_Search(t *testing.T) {
	client, ts := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/graphql", r.URL.Path)
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		query := body["query"].(string)
		assert.Contains(t, query, "nearVector")
		assert.Contains(t, query, "limit: 10")

		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"Get": map[string]interface{}{
					"Evidence": []interface{}{
						map[string]interface{}{
							"evidenceId":  "42",
							"text":        "No, drinking bleach does not cure covid",
							"source":      "https://factcheck.example/42",
							"_additional": map[string]interface{}{"distance": 0.25},
						},
					},
				},
			},
		})
	})
	defer ts.Close()

	store := adapter.NewStore(client, "")
	results, err := store.Search(context.Background(), []float32{0.1, 0.2}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "42", results[0].ID)
	assert.Equal(t, "https://factcheck.example/42", results[0].Source)
	assert.InDelta(t, 0.25, results[0].Distance, 0.0001)
}

func TestStore_Search_StringDistance(t *testing.T) {
	client, ts := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"Get": map[string]interface{}{
					"Evidence": []interface{}{
						map[string]interface{}{"evidenceId": "1", "_additional": map[string]interface{}{"distance": "0.5"}},
						map[string]interface{}{"evidenceId": "2", "_additional": map[string]interface{}{"distance": "n/a"}},
					},
				},
			},
		})
	})
	defer ts.Close()

	results, err := adapter.NewStore(client, "").Search(context.Background(), []float32{0.1}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.InDelta(t, 0.5, results[0].Distance, 0.0001)
	assert.Equal(t, "2", results[1].ID)
	assert.Zero(t, results[1].Distance)
}

func TestStore_Count(t *testing.T) {
	client, ts := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/graphql", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"Aggregate": map[string]interface{}{
					"Evidence": []interface{}{
						map[string]interface{}{"meta": map[string]interface{}{"count": 42.0}},
					},
				},
			},
		})
	})
	defer ts.Close()

	store := adapter.NewStore(client, "Evidence")
	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, count)
}

func TestObjectID_Stable(t *testing.T) {
	assert.Equal(t, adapter.ObjectID("7"), adapter.ObjectID("7"))
	assert.NotEqual(t, adapter.ObjectID("7"), adapter.ObjectID("8"))
}
