package handler_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/devconnector/internal/auth"
	"github.com/sakif/devconnector/internal/handler"
	"github.com/sakif/devconnector/internal/repository/sqlite"
	"github.com/sakif/devconnector/internal/service"
)

// testAPI is a router over real services and an in-memory database, with
// the same route patterns the server registers.
type testAPI struct {
	router http.Handler
	tokens *auth.TokenService
	github *httptest.Server
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("handler-test-secret-0123456789", time.Hour)
	require.NoError(t, err)
	passwords, err := auth.NewPasswordService(bcrypt.MinCost)
	require.NoError(t, err)

	gh := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/octocat/repos" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id": 1, "name": "hello-world", "html_url": "https://github.com/octocat/hello-world"}]`))
	}))
	t.Cleanup(gh.Close)

	logger := quietLogger()
	authH := handler.NewAuthHandler(service.NewAuthService(db, tokens, passwords, logger), logger)
	profileH := handler.NewProfileHandler(
		service.NewProfileService(db, db, auth.NewGitHubClient(gh.URL, ""), logger), logger)
	postH := handler.NewPostHandler(service.NewPostService(db, db, logger), logger)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Post("/users", authH.HandleRegister)
		r.Post("/auth", authH.HandleLogin)
		r.Get("/profile", profileH.HandleList)
		r.Get("/profile/user/{userID}", profileH.HandleGetByUser)
		r.Get("/profile/github/{username}", profileH.HandleGitHub)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Get("/auth", authH.HandleMe)
			r.Get("/profile/me", profileH.HandleMe)
			r.Post("/profile", profileH.HandleUpsert)
			r.Delete("/profile", profileH.HandleDeleteAccount)
			r.Put("/profile/experience", profileH.HandleAddExperience)
			r.Delete("/profile/experience/{expID}", profileH.HandleDeleteExperience)
			r.Put("/profile/education", profileH.HandleAddEducation)
			r.Delete("/profile/education/{eduID}", profileH.HandleDeleteEducation)
			r.Post("/posts", postH.HandleCreate)
			r.Get("/posts", postH.HandleList)
			r.Get("/posts/{postID}", postH.HandleGet)
			r.Delete("/posts/{postID}", postH.HandleDelete)
			r.Put("/posts/like/{postID}", postH.HandleLike)
			r.Put("/posts/unlike/{postID}", postH.HandleUnlike)
			r.Post("/posts/comment/{postID}", postH.HandleComment)
			r.Delete("/posts/comments/{postID}/{commentID}", postH.HandleUncomment)
			r.Delete("/posts/comment/{postID}/{commentID}", postH.HandleUncomment)
		})
	})

	return &testAPI{router: r, tokens: tokens, github: gh}
}

// do sends a request with an optional JSON body and bearer token.
func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

// register creates an account and returns its token and user id.
func (a *testAPI) register(t *testing.T, name string) (token, userID string) {
	t.Helper()

	rec := a.do(t, http.MethodPost, "/api/users", "", map[string]string{
		"name":     name,
		"email":    strings.ToLower(name) + "@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp handler.TokenResponse
	decodeBody(t, rec, &resp)

	userID, err := a.tokens.Validate(resp.Token)
	require.NoError(t, err)
	return resp.Token, userID
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) handler.ErrorResponse {
	t.Helper()
	var resp handler.ErrorResponse
	decodeBody(t, rec, &resp)
	return resp
}

func fieldNames(resp handler.ErrorResponse) []string {
	names := make([]string, 0, len(resp.Fields))
	for _, f := range resp.Fields {
		names = append(names, f.Field)
	}
	return names
}
