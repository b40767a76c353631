package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/notefold/notefold.go/pkg/models"
)

// GetBlock fetches a single block of a page.
func (c *Client) GetBlock(ctx context.Context, pageID int, blockID string) (*models.Block, error) {
	var block models.Block
	path := fmt.Sprintf("/page/%d/block/%s", pageID, url.PathEscape(blockID))
	if err := c.call(ctx, http.MethodGet, path, nil, &block); err != nil {
		return nil, err
	}
	return &block, nil
}

// CreateBlock creates a block with a client-supplied id and returns the
// canonical copy, including the server-assigned sequence.
func (c *Client) CreateBlock(ctx context.Context, pageID int, blockID string, draft models.BlockCreation) (*models.Block, error) {
	var block models.Block
	path := fmt.Sprintf("/page/%d/block/%s", pageID, url.PathEscape(blockID))
	if err := c.call(ctx, http.MethodPost, path, draft, &block); err != nil {
		return nil, err
	}
	return &block, nil
}

// UpdateBlock applies a partial mutation (type and/or data) and returns the
// canonical copy.
func (c *Client) UpdateBlock(ctx context.Context, pageID int, blockID string, patch models.BlockUpdate) (*models.Block, error) {
	var block models.Block
	path := fmt.Sprintf("/page/%d/block/%s", pageID, url.PathEscape(blockID))
	if err := c.call(ctx, http.MethodPut, path, patch, &block); err != nil {
		return nil, err
	}
	return &block, nil
}

// ListBlocks fetches a slice of a page's blocks in sequence order. A
// non-empty start is the id of the block after which the slice begins.
func (c *Client) ListBlocks(ctx context.Context, pageID int, start string) ([]models.Block, error) {
	path := fmt.Sprintf("/page/%d/blocks", pageID)
	if start != "" {
		path += "?start=" + url.QueryEscape(start)
	}

	var blocks []models.Block
	if err := c.call(ctx, http.MethodGet, path, nil, &blocks); err != nil {
		return nil, err
	}
	return blocks, nil
}

// DeleteBlock removes a block and returns the deleted copy.
func (c *Client) DeleteBlock(ctx context.Context, pageID int, blockID string) (*models.Block, error) {
	var block models.Block
	path := fmt.Sprintf("/page/%d/block/%s", pageID, url.PathEscape(blockID))
	if err := c.call(ctx, http.MethodDelete, path, nil, &block); err != nil {
		return nil, err
	}
	return &block, nil
}

// SwapBlocks exchanges the positions of two blocks.
func (c *Client) SwapBlocks(ctx context.Context, pageID int, blockA, blockB string) error {
	path := fmt.Sprintf("/page/%d/blocks/swap", pageID)
	return c.call(ctx, http.MethodPut, path, [2]string{blockA, blockB}, nil)
}

// MoveBlock repositions a block. The server recomputes the sequence of every
// affected block; dest is the destination index.
func (c *Client) MoveBlock(ctx context.Context, pageID int, blockID string, dest int) error {
	path := fmt.Sprintf("/page/%d/block/%s/move", pageID, url.PathEscape(blockID))
	return c.call(ctx, http.MethodPut, path, struct {
		Dest int `json:"dest"`
	}{dest}, nil)
}
