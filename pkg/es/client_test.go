package es

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"resume-smart-go/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient 启动一个伪造的 Elasticsearch，handler 只需处理业务路径。
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(config.ElasticsearchConfig{Addresses: srv.URL, IndexName: "user_documents"}, 3)
	require.NoError(t, err)
	return c
}

func TestFilterSource(t *testing.T) {
	f := Eq("user_id", "u1").And(Eq("category", "skills"))
	out, err := json.Marshal(f.Source())
	require.NoError(t, err)
	assert.JSONEq(t, `{"bool":{"filter":[{"term":{"user_id":"u1"}},{"term":{"category":"skills"}}]}}`, string(out))

	out, err = json.Marshal(Filter{}.Source())
	require.NoError(t, err)
	assert.JSONEq(t, `{"match_all":{}}`, string(out))
}

func TestFilterAndDoesNotAlias(t *testing.T) {
	base := Eq("user_id", "u1")
	a := base.And(Eq("category", "skills"))
	b := base.And(Eq("category", "education"))

	assert.Len(t, base.terms, 1)
	assert.Equal(t, "skills", a.terms[1].value)
	assert.Equal(t, "education", b.terms[1].value)
}

func TestRelevanceFromScore(t *testing.T) {
	assert.InDelta(t, 1.0, RelevanceFromScore(1.0), 1e-9)
	assert.InDelta(t, 0.0, RelevanceFromScore(0.5), 1e-9)
	assert.InDelta(t, -0.4, RelevanceFromScore(0.3), 1e-9)
}

func TestCountSendsFilter(t *testing.T) {
	var gotBody string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/user_documents/_count"))
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		_, _ = w.Write([]byte(`{"count": 7}`))
	})

	n, err := c.Count(context.Background(), Eq("user_id", "u1"))
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	assert.Contains(t, gotBody, `"user_id":"u1"`)
}

func TestDeleteByQueryReturnsDeleted(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "_delete_by_query")
		assert.Equal(t, "true", r.URL.Query().Get("refresh"))
		_, _ = w.Write([]byte(`{"deleted": 4}`))
	})

	n, err := c.DeleteByQuery(context.Background(), Eq("user_id", "u1").And(Eq("document_id", "d1")))
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestBulkIndexReportsItemFailures(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "wait_for", r.URL.Query().Get("refresh"))
		_, _ = w.Write([]byte(`{"errors": true, "items": [
			{"index": {"_id": "d1_0", "status": 201}},
			{"index": {"_id": "d1_1", "status": 400, "error": {"type": "mapper_parsing_exception", "reason": "bad vector"}}}
		]}`))
	})

	err := c.BulkIndex(context.Background(), []BulkItem{
		{ID: "d1_0", Doc: map[string]string{"content": "a"}},
		{ID: "d1_1", Doc: map[string]string{"content": "b"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "d1_1: bad vector")
}

func TestKNNParsesHits(t *testing.T) {
	var body map[string]interface{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"hits": {"hits": [
			{"_id": "d1_0", "_score": 0.9, "_source": {"content": "Go developer"}}
		]}}`))
	})

	hits, err := c.KNN(context.Background(), []float32{0.1, 0.2, 0.3}, Eq("user_id", "u1"), 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "d1_0", hits[0].ID)
	assert.InDelta(t, 0.9, hits[0].Score, 1e-9)

	knn := body["knn"].(map[string]interface{})
	assert.Equal(t, float64(5), knn["k"])
	assert.Equal(t, float64(100), knn["num_candidates"])
	assert.NotNil(t, knn["filter"])
}

func TestEnsureIndexSkipsExisting(t *testing.T) {
	created := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			created = true
		}
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, c.EnsureIndex(context.Background()))
	assert.False(t, created)
}

func TestEnsureIndexCreatesMissing(t *testing.T) {
	var mapping string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		b, _ := io.ReadAll(r.Body)
		mapping = string(b)
		_, _ = w.Write([]byte(`{"acknowledged": true}`))
	})

	require.NoError(t, c.EnsureIndex(context.Background()))
	assert.Contains(t, mapping, `"dims": 3`)
	assert.Contains(t, mapping, `"similarity": "cosine"`)
}

func TestFilterMatches(t *testing.T) {
	f := Eq("user_id", "u1").And(Eq("chunk_index", 2))

	assert.True(t, f.Matches(map[string]interface{}{"user_id": "u1", "chunk_index": float64(2)}))
	assert.False(t, f.Matches(map[string]interface{}{"user_id": "u2", "chunk_index": float64(2)}))
	assert.False(t, f.Matches(map[string]interface{}{"chunk_index": float64(2)}))
	assert.True(t, Filter{}.Matches(map[string]interface{}{}))
}
