package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/notefold/notefold.go/pkg/models"
)

// CreatePage creates a page and returns the canonical server copy.
func (c *Client) CreatePage(ctx context.Context, draft models.PageCreation) (*models.Page, error) {
	var page models.Page
	if err := c.call(ctx, http.MethodPost, "/page", draft, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetPage fetches a single page.
func (c *Client) GetPage(ctx context.Context, id int) (*models.Page, error) {
	var page models.Page
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("/page/%d", id), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// UpdatePage changes a page's title and returns the canonical copy.
func (c *Client) UpdatePage(ctx context.Context, id int, draft models.PageCreation) (*models.Page, error) {
	var page models.Page
	if err := c.call(ctx, http.MethodPut, fmt.Sprintf("/page/%d", id), draft, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListPages fetches the caller's pages.
func (c *Client) ListPages(ctx context.Context) ([]models.Page, error) {
	var pages []models.Page
	if err := c.call(ctx, http.MethodGet, "/pages", nil, &pages); err != nil {
		return nil, err
	}
	return pages, nil
}

// DeletePage deletes a page and returns the deleted copy.
func (c *Client) DeletePage(ctx context.Context, id int) (*models.Page, error) {
	var page models.Page
	if err := c.call(ctx, http.MethodDelete, fmt.Sprintf("/page/%d", id), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ArchivePage flags a page as archived and returns the canonical copy.
func (c *Client) ArchivePage(ctx context.Context, id int) (*models.Page, error) {
	var page models.Page
	if err := c.call(ctx, http.MethodPut, fmt.Sprintf("/page/%d/archive", id), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// UnarchivePage clears a page's archived flag and returns the canonical copy.
func (c *Client) UnarchivePage(ctx context.Context, id int) (*models.Page, error) {
	var page models.Page
	if err := c.call(ctx, http.MethodPut, fmt.Sprintf("/page/%d/unarchive", id), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}
