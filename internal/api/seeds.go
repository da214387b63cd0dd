package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/uncase/dashboard/internal/models"
)

type SeedFilter struct {
	Domain string
	Limit  int
}

func (f SeedFilter) query() url.Values {
	q := url.Values{}
	if f.Domain != "" {
		q.Set("domain", f.Domain)
	}
	if f.Limit > 0 {
		q.Set("limit", fmt.Sprint(f.Limit))
	}
	return q
}

func (c *Client) ListSeeds(ctx context.Context, filter SeedFilter) ([]models.Seed, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/seeds", filter.query(), nil, &raw); err != nil {
		return nil, err
	}
	return DecodeSeedList(raw)
}

// DecodeSeedList accepts a bare array or an {"items": [...]} / {"seeds": [...]} envelope.
func DecodeSeedList(raw []byte) ([]models.Seed, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return []models.Seed{}, nil
	}

	var seeds []models.Seed
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &seeds); err != nil {
			return nil, fmt.Errorf("failed to decode seeds: %w", err)
		}
		return seeds, nil
	}

	var envelope struct {
		Items []models.Seed `json:"items"`
		Seeds []models.Seed `json:"seeds"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode seeds: %w", err)
	}
	if envelope.Items != nil {
		return envelope.Items, nil
	}
	if envelope.Seeds != nil {
		return envelope.Seeds, nil
	}
	return []models.Seed{}, nil
}

func (c *Client) GetSeed(ctx context.Context, id string) (*models.Seed, error) {
	var seed models.Seed
	if err := c.do(ctx, http.MethodGet, "/seeds/"+url.PathEscape(id), nil, nil, &seed); err != nil {
		return nil, err
	}
	return &seed, nil
}

func (c *Client) CreateSeed(ctx context.Context, seed models.Seed) (*models.Seed, error) {
	var created models.Seed
	if err := c.do(ctx, http.MethodPost, "/seeds", nil, seed, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) DeleteSeed(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/seeds/"+url.PathEscape(id), nil, nil, nil)
}
