package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notefold/notefold.go/pkg/logger"
	"github.com/notefold/notefold.go/pkg/models"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, logger.Nop())
}

func TestGetPage(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/page/42", r.URL.Path)
		json.NewEncoder(w).Encode(models.Page{ID: 42, Title: "Notes", Author: 1, Active: true})
	}))

	page, err := c.GetPage(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, 42, page.ID)
	assert.Equal(t, "Notes", page.Title)
}

func TestCreatePageSendsJSONBody(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/page", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var draft models.PageCreation
		require.NoError(t, json.NewDecoder(r.Body).Decode(&draft))
		json.NewEncoder(w).Encode(models.Page{ID: 1, Title: draft.Title, Active: true})
	}))

	page, err := c.CreatePage(context.Background(), models.PageCreation{Title: "Plan"})
	require.NoError(t, err)
	assert.Equal(t, "Plan", page.Title)
}

func TestServerDetailIsPreferred(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"detail": "This page does not exists"})
	}))

	_, err := c.GetPage(context.Background(), 9)
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "This page does not exists", apiErr.Error())
}

func TestGenericMessageWithoutDetail(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := c.ListPages(context.Background())
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "request failed with status 502", apiErr.Error())
}

func TestTokenHeader(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode([]models.Page{})
	}))
	c.SetToken("tok-123")

	_, err := c.ListPages(context.Background())
	require.NoError(t, err)
}

func TestBlockEndpoints(t *testing.T) {
	var gotPath, gotMethod string
	var gotBody []byte
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		gotBody, _ = io.ReadAll(r.Body)
		json.NewEncoder(w).Encode(models.Block{ID: "b1", PageID: 3, Type: "paragraph", Sequence: 0})
	}))

	ctx := context.Background()

	_, err := c.CreateBlock(ctx, 3, "b1", models.BlockCreation{Type: "paragraph", Data: models.JSONMap{"text": "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "/page/3/block/b1", gotPath)
	assert.Equal(t, http.MethodPost, gotMethod)

	require.NoError(t, c.SwapBlocks(ctx, 3, "b1", "b2"))
	assert.Equal(t, "/page/3/blocks/swap", gotPath)
	assert.JSONEq(t, `["b1","b2"]`, string(gotBody))

	require.NoError(t, c.MoveBlock(ctx, 3, "b1", 4))
	assert.Equal(t, "/page/3/block/b1/move", gotPath)
	assert.JSONEq(t, `{"dest":4}`, string(gotBody))

	_, err = c.DeleteBlock(ctx, 3, "b1")
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, gotMethod)
}

func TestListBlocksCursor(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/page/3/blocks", r.URL.Path)
		assert.Equal(t, "b7", r.URL.Query().Get("start"))
		json.NewEncoder(w).Encode([]models.Block{{ID: "b8", PageID: 3, Sequence: 8}})
	}))

	blocks, err := c.ListBlocks(context.Background(), 3, "b7")
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "b8", blocks[0].ID)
}

func TestLoginFormPostAndClaims(t *testing.T) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "17",
		"exp": float64(4102444800), // 2100-01-01
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "ana", r.PostForm.Get("username"))
		assert.Equal(t, "hunter2", r.PostForm.Get("password"))
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": signed,
			"requires_2fa": false,
			"token_type":   "bearer",
		})
	}))

	session, err := c.Login(context.Background(), Credentials{Username: "ana", Password: "hunter2"})
	require.NoError(t, err)
	assert.False(t, session.Requires2FA)
	assert.Equal(t, signed, c.Token())

	id, ok := session.SubjectID()
	assert.True(t, ok)
	assert.Equal(t, 17, id)
	assert.Equal(t, 2100, session.ExpiresAt.UTC().Year())
}

func TestLogoutClearsToken(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/logout", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	c.SetToken("tok")

	require.NoError(t, c.Logout(context.Background()))
	assert.Empty(t, c.Token())
}

func TestMe(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/me", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"id": 17, "username": "ana", "email": "ana@example.com", "has2fa": true,
		})
	}))

	info, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 17, info.ID)
	assert.Equal(t, "ana", info.Username)
	assert.True(t, info.Has2FA)
}
