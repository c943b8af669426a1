package server

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostBoardRoundTrip(t *testing.T) {
	app, _ := newTestServer(t, nil)
	token, _ := registerUser(t, app, "alice", "pw123")

	status, body := doJSON(t, app, jsonRequest(t, http.MethodPost, "/api/posts",
		map[string]any{"title": "Welcome", "content": "Introduce yourself here"}, token))
	require.Equal(t, http.StatusCreated, status)
	assert.NotZero(t, body["postId"])

	// Reading the board needs no auth.
	status, body = doJSON(t, app, jsonRequest(t, http.MethodGet, "/api/posts", nil, ""))
	require.Equal(t, http.StatusOK, status)
	posts := body["posts"].([]any)
	require.Len(t, posts, 1)
	post := posts[0].(map[string]any)
	assert.Equal(t, "Welcome", post["title"])
	assert.Equal(t, "alice", post["display_name"])
}

func TestPostValidationAndAuth(t *testing.T) {
	app, _ := newTestServer(t, nil)
	token, _ := registerUser(t, app, "alice", "pw123")

	status, _ := doJSON(t, app, jsonRequest(t, http.MethodPost, "/api/posts",
		map[string]any{"title": "", "content": "c"}, token))
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doJSON(t, app, jsonRequest(t, http.MethodPost, "/api/posts",
		map[string]any{"title": "t", "content": "c"}, ""))
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestPostDeleteOwnership(t *testing.T) {
	app, s := newTestServer(t, nil)
	aliceToken, _ := registerUser(t, app, "alice", "pw123")
	bobToken, _ := registerUser(t, app, "bob", "pw456")

	status, body := doJSON(t, app, jsonRequest(t, http.MethodPost, "/api/posts",
		map[string]any{"title": "mine", "content": "keep out"}, aliceToken))
	require.Equal(t, http.StatusCreated, status)
	postID := int64(body["postId"].(float64))

	status, _ = doJSON(t, app, jsonRequest(t, http.MethodDelete,
		fmt.Sprintf("/api/posts/%d", postID), nil, bobToken))
	assert.Equal(t, http.StatusNotFound, status)

	adminToken, adminID := registerUser(t, app, "root", "pw789")
	promoteAdmin(t, s, adminID)
	status, _ = doJSON(t, app, jsonRequest(t, http.MethodDelete,
		fmt.Sprintf("/api/posts/%d", postID), nil, adminToken))
	assert.Equal(t, http.StatusOK, status)
}
