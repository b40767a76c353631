package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/notefold/notefold.go/pkg/models"
)

// Me fetches the authenticated identity.
func (c *Client) Me(ctx context.Context) (*models.UserInfo, error) {
	var info models.UserInfo
	if err := c.call(ctx, http.MethodGet, "/users/me", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// GetUser fetches another user's public profile summary.
func (c *Client) GetUser(ctx context.Context, id int) (*models.User, error) {
	var user models.User
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("/users/%d", id), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser registers an account.
func (c *Client) CreateUser(ctx context.Context, draft models.UserCreation) (*models.User, error) {
	var user models.User
	if err := c.call(ctx, http.MethodPost, "/users/create", draft, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
