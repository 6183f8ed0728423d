package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/google/uuid"

	"github.com/Skotchmaster/animerch/internal/models"
)

// Document is the indexed projection of a product.
type Document struct {
	ID          string  `json:"id"`
	SellerID    string  `json:"seller"`
	CategoryID  string  `json:"category"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	IsListed    bool    `json:"isListed"`
	Rating      float64 `json:"rating"`
}

func NewDocument(p *models.Product) Document {
	price, _ := p.Price.Float64()
	return Document{
		ID:          p.ID.String(),
		SellerID:    p.SellerID.String(),
		CategoryID:  p.CategoryID.String(),
		Name:        p.Name,
		Description: p.Description,
		Price:       price,
		IsListed:    p.IsListed,
		Rating:      p.Rating,
	}
}

type Index struct {
	ES   *elasticsearch.Client
	Name string
}

func NewIndex(es *elasticsearch.Client, name string) *Index {
	return &Index{ES: es, Name: name}
}

func (i *Index) IndexProduct(ctx context.Context, p *models.Product) error {
	body, err := json.Marshal(NewDocument(p))
	if err != nil {
		return fmt.Errorf("index product: %w", err)
	}

	res, err := i.ES.Index(
		i.Name,
		bytes.NewReader(body),
		i.ES.Index.WithDocumentID(p.ID.String()),
		i.ES.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index product: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return responseError("index product", res.Status(), res.Body)
	}
	return nil
}

func (i *Index) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	res, err := i.ES.Delete(i.Name, id.String(), i.ES.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("delete product", res.Status(), res.Body)
	}
	return nil
}

// Search returns the total hit count and the ids of the requested page,
// best match first. Only listed products are returned.
func (i *Index) Search(ctx context.Context, query string, from, size int) (int64, []uuid.UUID, error) {
	body := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": map[string]any{
					"multi_match": map[string]any{
						"query":     query,
						"fields":    []string{"name^2", "description"},
						"fuzziness": "AUTO",
					},
				},
				"filter": map[string]any{
					"term": map[string]any{"isListed": true},
				},
			},
		},
		"_source": false,
		"from":    from,
		"size":    size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}

	res, err := i.ES.Search(
		i.ES.Search.WithContext(ctx),
		i.ES.Search.WithIndex(i.Name),
		i.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, nil, responseError("search", res.Status(), res.Body)
	}

	return decodeHits(res.Body)
}

func decodeHits(r io.Reader) (int64, []uuid.UUID, error) {
	var parsed struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(r).Decode(&parsed); err != nil {
		return 0, nil, fmt.Errorf("search: decode: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		id, err := uuid.Parse(h.ID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return parsed.Hits.Total.Value, ids, nil
}

func responseError(op, status string, body io.Reader) error {
	b, _ := io.ReadAll(body)
	return fmt.Errorf("%s: elasticsearch %s: %s", op, status, b)
}
