package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/devconnector/internal/apperror"
	"github.com/sakif/devconnector/internal/repository"
	"github.com/sakif/devconnector/internal/service"
)

// PostHandler serves /api/posts. Every route requires authentication.
type PostHandler struct {
	svc    *service.PostService
	logger *slog.Logger
}

// NewPostHandler creates a PostHandler.
func NewPostHandler(svc *service.PostService, logger *slog.Logger) *PostHandler {
	return &PostHandler{svc: svc, logger: logger}
}

type textRequest struct {
	Text string `json:"text" validate:"notblank,max=10000"`
}

// HandleCreate publishes a post.
//
// HTTP: POST /api/posts
// REQUEST BODY: {"text": "hello"}
func (h *PostHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, err := actingUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req textRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	post, err := h.svc.Create(r.Context(), userID, req.Text)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, post)
}

// HandleList returns posts newest first.
//
// HTTP: GET /api/posts?limit=20&offset=40
//
// QUERY PARAMETERS:
// Both are optional. A missing limit means repository.DefaultListLimit and
// anything above repository.MaxListLimit is clamped.
func (h *PostHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	posts, err := h.svc.List(r.Context(), opts)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, posts)
}

// HandleGet returns one post.
//
// HTTP: GET /api/posts/{postID}
func (h *PostHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	post, err := h.svc.Get(r.Context(), chi.URLParam(r, "postID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, post)
}

// HandleDelete removes a post owned by the caller.
//
// HTTP: DELETE /api/posts/{postID}
func (h *PostHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, err := actingUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "postID"), userID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "post removed"})
}

// HandleLike likes a post and returns its likes.
//
// HTTP: PUT /api/posts/like/{postID}
func (h *PostHandler) HandleLike(w http.ResponseWriter, r *http.Request) {
	userID, err := actingUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	likes, err := h.svc.Like(r.Context(), chi.URLParam(r, "postID"), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, likes)
}

// HandleUnlike removes the caller's like and returns the remaining likes.
//
// HTTP: PUT /api/posts/unlike/{postID}
func (h *PostHandler) HandleUnlike(w http.ResponseWriter, r *http.Request) {
	userID, err := actingUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	likes, err := h.svc.Unlike(r.Context(), chi.URLParam(r, "postID"), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, likes)
}

// HandleComment adds a comment and returns the post's comments.
//
// HTTP: POST /api/posts/comment/{postID}
func (h *PostHandler) HandleComment(w http.ResponseWriter, r *http.Request) {
	userID, err := actingUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req textRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	comments, err := h.svc.Comment(r.Context(), chi.URLParam(r, "postID"), userID, req.Text)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, comments)
}

// HandleUncomment deletes one of the caller's comments.
//
// HTTP: DELETE /api/posts/comments/{postID}/{commentID}
// (also served at /api/posts/comment/{postID}/{commentID})
func (h *PostHandler) HandleUncomment(w http.ResponseWriter, r *http.Request) {
	userID, err := actingUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	comments, err := h.svc.Uncomment(r.Context(),
		chi.URLParam(r, "postID"),
		chi.URLParam(r, "commentID"),
		userID,
	)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, comments)
}

func listOptions(r *http.Request) (repository.ListOptions, error) {
	var opts repository.ListOptions
	q := r.URL.Query()

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return opts, apperror.ValidationFailed("limit", "limit must be a positive integer")
		}
		opts.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, apperror.ValidationFailed("offset", "offset must be a non-negative integer")
		}
		opts.Offset = n
	}

	return opts.Normalize(), nil
}
