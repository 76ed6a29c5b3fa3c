package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"lead-workers/internal/models"
)

// ElasticsearchSource reads leads from a search index whose documents use
// the Lead JSON shape.
type ElasticsearchSource struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticsearchSource(client *elasticsearch.Client, index string) *ElasticsearchSource {
	return &ElasticsearchSource{client: client, index: index}
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string      `json:"_id"`
			Source models.Lead `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (s *ElasticsearchSource) ListLeads(ctx context.Context, filter ListFilter) ([]models.Lead, error) {
	body, err := json.Marshal(buildLeadQuery(filter))
	if err != nil {
		return nil, fmt.Errorf("encode lead query: %w", err)
	}

	size := limitOrDefault(filter.Limit)
	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(body),
		Size:  &size,
	}
	if filter.Offset > 0 {
		from := filter.Offset
		req.From = &from
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("search leads: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, s.index)
	}
	if res.IsError() {
		return nil, fmt.Errorf("search leads: %s", res.String())
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	leads := make([]models.Lead, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		lead := hit.Source
		if lead.ID == "" {
			lead.ID = models.LeadID(hit.ID)
		}
		leads = append(leads, lead)
	}
	return leads, nil
}

func buildLeadQuery(filter ListFilter) map[string]interface{} {
	var terms []interface{}
	if filter.Status != "" && filter.Status != "all" {
		terms = append(terms, map[string]interface{}{"term": map[string]interface{}{"status": filter.Status}})
	}
	if filter.OwnerID != "" {
		terms = append(terms, map[string]interface{}{"term": map[string]interface{}{"ownerId": filter.OwnerID}})
	}

	query := map[string]interface{}{"match_all": map[string]interface{}{}}
	if len(terms) > 0 {
		query = map[string]interface{}{"bool": map[string]interface{}{"filter": terms}}
	}

	return map[string]interface{}{
		"query": query,
		"sort":  []interface{}{map[string]interface{}{"_doc": "asc"}},
	}
}
