package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/oksasatya/partner-auth-service/internal/application"
	"github.com/oksasatya/partner-auth-service/internal/domain/entity"
)

const requestTimeout = 3 * time.Second

// IdentityIndex keeps redacted identity views in Elasticsearch for admin search.
type IdentityIndex struct {
	ES        *elasticsearch.Client
	IndexName string
}

func NewIdentityIndex(es *elasticsearch.Client, index string) *IdentityIndex {
	return &IdentityIndex{ES: es, IndexName: index}
}

var _ application.Indexer = (*IdentityIndex)(nil)

const identityMapping = `{
  "mappings": {
    "properties": {
      "email":         {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "name":          {"type": "text"},
      "companyName":   {"type": "text"},
      "role":          {"type": "keyword"},
      "isVerified":    {"type": "boolean"},
      "isKycVerified": {"type": "boolean"},
      "lastLogin":     {"type": "date"},
      "createdAt":     {"type": "date"},
      "updatedAt":     {"type": "date"}
    }
  }
}`

// EnsureIndex creates the index with its mapping when it does not exist yet.
func (x *IdentityIndex) EnsureIndex(ctx context.Context) error {
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	exists, err := esapi.IndicesExistsRequest{Index: []string{x.IndexName}}.Do(c, x.ES)
	if err != nil {
		return err
	}
	_ = exists.Body.Close()
	switch exists.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
	default:
		return fmt.Errorf("es exists: %s", exists.Status())
	}

	res, err := esapi.IndicesCreateRequest{Index: x.IndexName, Body: strings.NewReader(identityMapping)}.Do(c, x.ES)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	// a concurrent replica may have created it first
	if res.IsError() && res.StatusCode != http.StatusBadRequest {
		return fmt.Errorf("es create index: %s", res.Status())
	}
	return nil
}

// Index upserts v under its identity id.
func (x *IdentityIndex) Index(ctx context.Context, v entity.IdentityView) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{Index: x.IndexName, DocumentID: v.ID, Body: bytes.NewReader(b), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := req.Do(c, x.ES)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("es index: %s", res.Status())
	}
	return nil
}

// Search runs a multi_match on email and name; an empty query lists recent documents.
func (x *IdentityIndex) Search(ctx context.Context, q string, size int) ([]entity.IdentityView, error) {
	query := map[string]any{"match_all": map[string]any{}}
	if q != "" {
		query = map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"email^2", "name", "companyName"},
			},
		}
	}
	b, err := json.Marshal(map[string]any{"query": query, "size": size})
	if err != nil {
		return nil, err
	}

	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := x.ES.Search(
		x.ES.Search.WithContext(c),
		x.ES.Search.WithIndex(x.IndexName),
		x.ES.Search.WithBody(bytes.NewReader(b)),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("es search: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string              `json:"_id"`
				Source entity.IdentityView `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]entity.IdentityView, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		v := h.Source
		if v.ID == "" {
			v.ID = h.ID
		}
		out = append(out, v)
	}
	return out, nil
}
