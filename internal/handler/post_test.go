package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/devconnector/internal/handler"
	"github.com/sakif/devconnector/internal/model"
)

func createPost(t *testing.T, api *testAPI, token, text string) model.Post {
	t.Helper()
	rec := api.do(t, http.MethodPost, "/api/posts", token, map[string]string{"text": text})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var p model.Post
	decodeBody(t, rec, &p)
	return p
}

func TestPosts_CreateGetList(t *testing.T) {
	api := newTestAPI(t)
	token, userID := api.register(t, "Ada")

	first := createPost(t, api, token, "first")
	assert.Equal(t, userID, first.UserID)
	assert.Equal(t, "Ada", first.Name)
	assert.NotNil(t, first.Likes)
	assert.NotNil(t, first.Comments)
	second := createPost(t, api, token, "second")

	rec := api.do(t, http.MethodGet, "/api/posts/"+first.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got model.Post
	decodeBody(t, rec, &got)
	assert.Equal(t, "first", got.Text)

	rec = api.do(t, http.MethodGet, "/api/posts", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var posts []model.Post
	decodeBody(t, rec, &posts)
	require.Len(t, posts, 2)
	assert.Equal(t, second.ID, posts[0].ID)

	rec = api.do(t, http.MethodGet, "/api/posts?limit=1&offset=1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &posts)
	require.Len(t, posts, 1)
	assert.Equal(t, first.ID, posts[0].ID)
}

func TestPosts_Errors(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.register(t, "Ada")

	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		body       any
		wantStatus int
		wantKind   string
	}{
		{name: "no token", method: http.MethodGet, path: "/api/posts", wantStatus: http.StatusUnauthorized, wantKind: "unauthorized"},
		{name: "blank text", method: http.MethodPost, path: "/api/posts", token: token, body: map[string]string{"text": "  "}, wantStatus: http.StatusBadRequest, wantKind: "validation_error"},
		{name: "bad limit", method: http.MethodGet, path: "/api/posts?limit=ten", token: token, wantStatus: http.StatusBadRequest, wantKind: "validation_error"},
		{name: "zero limit", method: http.MethodGet, path: "/api/posts?limit=0", token: token, wantStatus: http.StatusBadRequest, wantKind: "validation_error"},
		{name: "negative offset", method: http.MethodGet, path: "/api/posts?offset=-1", token: token, wantStatus: http.StatusBadRequest, wantKind: "validation_error"},
		{name: "unknown post", method: http.MethodGet, path: "/api/posts/nope", token: token, wantStatus: http.StatusNotFound, wantKind: "not_found"},
		{name: "like unknown post", method: http.MethodPut, path: "/api/posts/like/nope", token: token, wantStatus: http.StatusNotFound, wantKind: "not_found"},
		{name: "delete unknown post", method: http.MethodDelete, path: "/api/posts/nope", token: token, wantStatus: http.StatusNotFound, wantKind: "not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(t, tt.method, tt.path, tt.token, tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantKind, errorBody(t, rec).Error)
		})
	}
}

func TestPosts_Likes(t *testing.T) {
	api := newTestAPI(t)
	adaToken, adaID := api.register(t, "Ada")
	bobToken, bobID := api.register(t, "Bob")
	post := createPost(t, api, adaToken, "like me")

	rec := api.do(t, http.MethodPut, "/api/posts/like/"+post.ID, adaToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = api.do(t, http.MethodPut, "/api/posts/like/"+post.ID, bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var likes []model.Like
	decodeBody(t, rec, &likes)
	assert.Equal(t, []model.Like{{UserID: bobID}, {UserID: adaID}}, likes)

	rec = api.do(t, http.MethodPut, "/api/posts/like/"+post.ID, bobToken, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "already_liked", errorBody(t, rec).Error)

	rec = api.do(t, http.MethodPut, "/api/posts/unlike/"+post.ID, bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &likes)
	assert.Equal(t, []model.Like{{UserID: adaID}}, likes)

	rec = api.do(t, http.MethodPut, "/api/posts/unlike/"+post.ID, bobToken, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "not_liked", errorBody(t, rec).Error)
}

func TestPosts_Comments(t *testing.T) {
	api := newTestAPI(t)
	adaToken, _ := api.register(t, "Ada")
	bobToken, bobID := api.register(t, "Bob")
	post := createPost(t, api, adaToken, "discuss")

	rec := api.do(t, http.MethodPost, "/api/posts/comment/"+post.ID, bobToken, map[string]string{"text": "nice"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var comments []model.Comment
	decodeBody(t, rec, &comments)
	require.Len(t, comments, 1)
	assert.Equal(t, bobID, comments[0].UserID)
	assert.Equal(t, "Bob", comments[0].Name)
	commentID := comments[0].ID

	rec = api.do(t, http.MethodPost, "/api/posts/comment/"+post.ID, bobToken, map[string]string{"text": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// the post author cannot remove someone else's comment
	rec = api.do(t, http.MethodDelete, "/api/posts/comment/"+post.ID+"/"+commentID, adaToken, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(t, http.MethodDelete, "/api/posts/comment/"+post.ID+"/missing", bobToken, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, http.MethodDelete, "/api/posts/comments/"+post.ID+"/"+commentID, bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &comments)
	assert.Empty(t, comments)
}

func TestPosts_UncommentPaths(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.register(t, "Ada")
	post := createPost(t, api, token, "paths")

	for _, prefix := range []string{"/api/posts/comments/", "/api/posts/comment/"} {
		t.Run(prefix, func(t *testing.T) {
			rec := api.do(t, http.MethodPost, "/api/posts/comment/"+post.ID, token, map[string]string{"text": "x"})
			require.Equal(t, http.StatusOK, rec.Code)
			var comments []model.Comment
			decodeBody(t, rec, &comments)
			require.Len(t, comments, 1)

			rec = api.do(t, http.MethodDelete, prefix+post.ID+"/"+comments[0].ID, token, nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			decodeBody(t, rec, &comments)
			assert.Empty(t, comments)
		})
	}
}

func TestPosts_Delete(t *testing.T) {
	api := newTestAPI(t)
	adaToken, _ := api.register(t, "Ada")
	bobToken, _ := api.register(t, "Bob")
	post := createPost(t, api, adaToken, "mine")

	rec := api.do(t, http.MethodDelete, "/api/posts/"+post.ID, bobToken, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(t, http.MethodDelete, "/api/posts/"+post.ID, adaToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var msg handler.MessageResponse
	decodeBody(t, rec, &msg)
	assert.Equal(t, "post removed", msg.Message)

	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodGet, "/api/posts/"+post.ID, adaToken, nil).Code)
}
