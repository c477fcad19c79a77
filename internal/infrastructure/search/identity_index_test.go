package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/partner-auth-service/internal/domain/entity"
)

type fakeES struct {
	method, path string
	body         map[string]any
	status       int
	reply        string
}

func newIndex(t *testing.T, f *fakeES) *IdentityIndex {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.method, f.path = r.Method, r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		f.body = nil
		_ = json.Unmarshal(raw, &f.body)
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		status := f.status
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, f.reply)
	}))
	t.Cleanup(srv.Close)

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return NewIdentityIndex(es, "identities")
}

func TestIdentityIndex_Index(t *testing.T) {
	f := &fakeES{reply: `{"result":"created"}`}
	x := newIndex(t, f)

	err := x.Index(context.Background(), entity.IdentityView{ID: "id-1", Email: "alice@x.com", Name: "Alice"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, f.method)
	assert.Equal(t, "/identities/_doc/id-1", f.path)
	assert.Equal(t, "alice@x.com", f.body["email"])
	assert.NotContains(t, f.body, "refreshTokens")
}

func TestIdentityIndex_IndexError(t *testing.T) {
	f := &fakeES{status: http.StatusBadRequest, reply: `{"error":"bad"}`}
	x := newIndex(t, f)
	assert.Error(t, x.Index(context.Background(), entity.IdentityView{ID: "id-1"}))
}

func TestIdentityIndex_Search(t *testing.T) {
	f := &fakeES{reply: `{"hits":{"hits":[
		{"_id":"id-1","_source":{"id":"id-1","email":"alice@x.com","name":"Alice","role":"partner"}},
		{"_id":"id-2","_source":{"email":"alina@x.com","name":"Alina","role":"partner"}}
	]}}`}
	x := newIndex(t, f)

	got, err := x.Search(context.Background(), "ali", 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "alice@x.com", got[0].Email)
	assert.Equal(t, "id-2", got[1].ID)

	assert.True(t, strings.HasSuffix(f.path, "/identities/_search"), f.path)
	assert.EqualValues(t, 5, f.body["size"])
	query := f.body["query"].(map[string]any)
	assert.Contains(t, query, "multi_match")
}

func TestIdentityIndex_SearchEmptyQuery(t *testing.T) {
	f := &fakeES{reply: `{"hits":{"hits":[]}}`}
	x := newIndex(t, f)

	got, err := x.Search(context.Background(), "", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Contains(t, f.body["query"].(map[string]any), "match_all")
}

func TestIdentityIndex_EnsureIndex(t *testing.T) {
	tests := []struct {
		name       string
		existsCode int
		wantCreate bool
	}{
		{name: "already there", existsCode: http.StatusOK},
		{name: "missing", existsCode: http.StatusNotFound, wantCreate: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var created map[string]any
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("X-Elastic-Product", "Elasticsearch")
				w.Header().Set("Content-Type", "application/json")
				switch r.Method {
				case http.MethodHead:
					w.WriteHeader(tt.existsCode)
				case http.MethodPut:
					raw, _ := io.ReadAll(r.Body)
					_ = json.Unmarshal(raw, &created)
					_, _ = io.WriteString(w, `{"acknowledged":true}`)
				default:
					w.WriteHeader(http.StatusMethodNotAllowed)
				}
			}))
			t.Cleanup(srv.Close)
			es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
			require.NoError(t, err)

			require.NoError(t, NewIdentityIndex(es, "identities").EnsureIndex(context.Background()))
			if tt.wantCreate {
				require.NotNil(t, created)
				assert.Contains(t, created, "mappings")
			} else {
				assert.Nil(t, created)
			}
		})
	}
}
