package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/catalogue/internal/models"
)

var ErrEmptyQuery = errors.New("search query is empty")

// Service keeps a product index in sync and runs full-text queries over it.
type Service struct {
	ES    *elasticsearch.Client
	Index string
}

type document struct {
	SKU   string          `json:"sku"`
	Name  string          `json:"name"`
	Brand string          `json:"brand"`
	Price decimal.Decimal `json:"price"`
	Views int             `json:"views"`
}

func (s *Service) IndexProduct(ctx context.Context, prod *models.Product) error {
	body, err := json.Marshal(document{
		SKU:   prod.SKU,
		Name:  prod.Name,
		Brand: prod.Brand,
		Price: prod.Price,
		Views: prod.Views,
	})
	if err != nil {
		return fmt.Errorf("search: encode document: %w", err)
	}

	res, err := s.ES.Index(s.Index, bytes.NewReader(body),
		s.ES.Index.WithContext(ctx),
		s.ES.Index.WithDocumentID(prod.SKU),
	)
	if err != nil {
		return fmt.Errorf("search: index: %w", err)
	}
	defer res.Body.Close()
	return responseError(res.StatusCode, res.IsError(), res.Body)
}

// DeleteProduct removes a document; a missing document is not an error.
func (s *Service) DeleteProduct(ctx context.Context, sku string) error {
	res, err := s.ES.Delete(s.Index, sku, s.ES.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("search: delete: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	return responseError(res.StatusCode, res.IsError(), res.Body)
}

func (s *Service) Search(ctx context.Context, query string, from, size int) (int64, []models.Product, error) {
	if query == "" {
		return 0, nil, ErrEmptyQuery
	}

	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"name^2", "brand"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("search: encode query: %w", err)
	}

	res, err := s.ES.Search(
		s.ES.Search.WithContext(ctx),
		s.ES.Search.WithIndex(s.Index),
		s.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if err := responseError(res.StatusCode, res.IsError(), res.Body); err != nil {
		return 0, nil, err
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("search: decode response: %w", err)
	}

	prods := make([]models.Product, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		prods[i] = models.Product{
			SKU:   hit.Source.SKU,
			Name:  hit.Source.Name,
			Brand: hit.Source.Brand,
			Price: hit.Source.Price,
			Views: hit.Source.Views,
		}
	}
	return r.Hits.Total.Value, prods, nil
}

func responseError(status int, isError bool, body io.Reader) error {
	if !isError {
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(body, 4096))
	return fmt.Errorf("search: elasticsearch returned %d: %s", status, bytes.TrimSpace(msg))
}
