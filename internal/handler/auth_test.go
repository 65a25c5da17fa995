package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/devconnector/internal/handler"
)

func TestHandleRegister(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/users", "", map[string]string{
		"name":     "Ada",
		"email":    "Ada@Example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp handler.TokenResponse
	decodeBody(t, rec, &resp)
	assert.NotEmpty(t, resp.Token)

	// same address, different case
	rec = api.do(t, http.MethodPost, "/api/users", "", map[string]string{
		"name":     "Imposter",
		"email":    "ada@example.com",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", errorBody(t, rec).Error)
}

func TestHandleRegister_Validation(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name       string
		body       any
		wantFields []string
		wantMsg    string
	}{
		{
			name:       "missing everything",
			body:       map[string]string{},
			wantFields: []string{"name", "email", "password"},
		},
		{
			name:       "blank name, bad email, short password",
			body:       map[string]string{"name": "  ", "email": "not-an-email", "password": "123"},
			wantFields: []string{"name", "email", "password"},
		},
		{
			name:    "malformed JSON",
			body:    `{"name": `,
			wantMsg: "invalid JSON body",
		},
		{
			name:    "empty body",
			body:    "",
			wantMsg: "request body is empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(t, http.MethodPost, "/api/users", "", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			resp := errorBody(t, rec)
			assert.Equal(t, "validation_error", resp.Error)
			if tt.wantFields != nil {
				assert.ElementsMatch(t, tt.wantFields, fieldNames(resp))
			}
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, resp.Message)
			}
		})
	}
}

func TestHandleRegister_FieldMessages(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/users", "", map[string]string{
		"name":     "Ada",
		"email":    "nope",
		"password": "secret123",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	resp := errorBody(t, rec)
	require.Len(t, resp.Fields, 1)
	assert.Equal(t, handler.FieldError{Field: "email", Message: "please include a valid email"}, resp.Fields[0])
}

func TestHandleLogin(t *testing.T) {
	api := newTestAPI(t)
	api.register(t, "Ada")

	rec := api.do(t, http.MethodPost, "/api/auth", "", map[string]string{
		"email":    "ada@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp handler.TokenResponse
	decodeBody(t, rec, &resp)
	assert.NotEmpty(t, resp.Token)

	for _, creds := range []map[string]string{
		{"email": "ada@example.com", "password": "wrong-password"},
		{"email": "nobody@example.com", "password": "secret123"},
	} {
		rec := api.do(t, http.MethodPost, "/api/auth", "", creds)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid credentials", errorBody(t, rec).Message)
	}
}

func TestHandleMe(t *testing.T) {
	api := newTestAPI(t)
	token, userID := api.register(t, "Ada")

	rec := api.do(t, http.MethodGet, "/api/auth", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	decodeBody(t, rec, &body)
	assert.Equal(t, userID, body["id"])
	assert.Equal(t, "Ada", body["name"])
	assert.Equal(t, "ada@example.com", body["email"])
	assert.Contains(t, body["avatar"], "gravatar.com/avatar/")
	assert.NotContains(t, body, "passwordHash")
	assert.NotContains(t, rec.Body.String(), "$2a$")

	rec = api.do(t, http.MethodGet, "/api/auth", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
