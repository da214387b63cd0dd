package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/uncase/dashboard/internal/models"
)

func (c *Client) ListConversations(ctx context.Context, limit int) ([]models.Conversation, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	var convs []models.Conversation
	if err := c.do(ctx, http.MethodGet, "/conversations", q, nil, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

func (c *Client) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	var conv models.Conversation
	if err := c.do(ctx, http.MethodGet, "/conversations/"+url.PathEscape(id), nil, nil, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

func (c *Client) ListKnowledge(ctx context.Context) ([]models.KnowledgeDocument, error) {
	var docs []models.KnowledgeDocument
	if err := c.do(ctx, http.MethodGet, "/knowledge", nil, nil, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (c *Client) DeleteKnowledge(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/knowledge/"+url.PathEscape(id), nil, nil, nil)
}
