package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/quickcommerce/internal/models"
)

type fakeES struct {
	mu       sync.Mutex
	requests []string
	bodies   []string
	handler  func(w http.ResponseWriter, r *http.Request)
}

func newFakeES(t *testing.T, h func(w http.ResponseWriter, r *http.Request)) (*fakeES, *Index) {
	t.Helper()

	f := &fakeES{handler: h}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.requests = append(f.requests, r.Method+" "+r.URL.Path)
		f.bodies = append(f.bodies, string(body))
		f.mu.Unlock()

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		f.handler(w, r)
	}))
	t.Cleanup(srv.Close)

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return f, New(es, "test_products")
}

func TestSearch_FiltersByStoreAndDecodesHits(t *testing.T) {
	f, idx := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"hits":{"total":{"value":1},"hits":[{"_source":{"id":7,"store_id":3,"name":"Milk","price":4500}}]}}`)
	})

	total, items, err := idx.Search(context.Background(), 3, "mlk", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "Milk", items[0].Name)
	assert.EqualValues(t, 4500, items[0].Price)

	require.Len(t, f.requests, 1)
	assert.Contains(t, f.requests[0], "/test_products/_search")

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(f.bodies[0]), &body))
	filter := body["query"].(map[string]any)["bool"].(map[string]any)["filter"].([]any)
	term := filter[0].(map[string]any)["term"].(map[string]any)
	assert.EqualValues(t, 3, term["store_id"])
	assert.True(t, strings.Contains(f.bodies[0], `"fuzziness":"AUTO"`))
}

func TestSearch_ErrorStatus(t *testing.T) {
	_, idx := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"error":"down"}`)
	})

	_, _, err := idx.Search(context.Background(), 1, "x", 0, 10)
	require.Error(t, err)
}

func TestIndexProduct_UsesProductID(t *testing.T) {
	f, idx := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"result":"created"}`)
	})

	err := idx.IndexProduct(context.Background(), models.StoreProduct{ID: 42, StoreID: 1, Name: "Bread"})
	require.NoError(t, err)
	require.Len(t, f.requests, 1)
	assert.Equal(t, "PUT /test_products/_doc/42", f.requests[0])
	assert.Contains(t, f.bodies[0], `"name":"Bread"`)
}

func TestDeleteProduct_MissingIsOK(t *testing.T) {
	_, idx := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"result":"not_found"}`)
	})

	require.NoError(t, idx.DeleteProduct(context.Background(), 9))
}

func TestEnsureIndex_CreatesWhenMissing(t *testing.T) {
	f, idx := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, `{"acknowledged":true}`)
	})

	require.NoError(t, idx.EnsureIndex(context.Background()))
	require.Len(t, f.requests, 2)
	assert.Equal(t, "HEAD /test_products", f.requests[0])
	assert.Equal(t, "PUT /test_products", f.requests[1])
	assert.Contains(t, f.bodies[1], `"store_id"`)
}
