package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/uncase/dashboard/internal/models"
)

func (c *Client) ListTools(ctx context.Context, domain string) ([]models.Tool, error) {
	q := url.Values{}
	if domain != "" {
		q.Set("domain", domain)
	}
	var tools []models.Tool
	if err := c.do(ctx, http.MethodGet, "/tools", q, nil, &tools); err != nil {
		return nil, err
	}
	return tools, nil
}

func (c *Client) GetTool(ctx context.Context, name string) (*models.Tool, error) {
	var tool models.Tool
	if err := c.do(ctx, http.MethodGet, "/tools/"+url.PathEscape(name), nil, nil, &tool); err != nil {
		return nil, err
	}
	return &tool, nil
}

func (c *Client) CreateTool(ctx context.Context, tool models.Tool) (*models.Tool, error) {
	var created models.Tool
	if err := c.do(ctx, http.MethodPost, "/tools", nil, tool, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateTool(ctx context.Context, name string, tool models.Tool) (*models.Tool, error) {
	var updated models.Tool
	if err := c.do(ctx, http.MethodPut, "/tools/"+url.PathEscape(name), nil, tool, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteTool(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodDelete, "/tools/"+url.PathEscape(name), nil, nil, nil)
}
