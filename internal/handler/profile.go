package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/devconnector/internal/aggregate"
	"github.com/sakif/devconnector/internal/model"
	"github.com/sakif/devconnector/internal/service"
)

// ProfileHandler serves /api/profile.
type ProfileHandler struct {
	svc    *service.ProfileService
	logger *slog.Logger
}

// NewProfileHandler creates a ProfileHandler.
func NewProfileHandler(svc *service.ProfileService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{svc: svc, logger: logger}
}

// profileRequest is the upsert body. Social links arrive flat, next to the
// other fields, and are nested under "social" only in responses.
type profileRequest struct {
	Company        string `json:"company" validate:"max=200"`
	Website        string `json:"website" validate:"max=500"`
	Location       string `json:"location" validate:"max=200"`
	Bio            string `json:"bio" validate:"max=5000"`
	Status         string `json:"status" validate:"notblank,max=200"`
	Skills         string `json:"skills" validate:"notblank,max=1000"`
	GitHubUsername string `json:"githubusername" validate:"max=100"`
	YouTube        string `json:"youtube" validate:"max=500"`
	Facebook       string `json:"facebook" validate:"max=500"`
	Twitter        string `json:"twitter" validate:"max=500"`
	Instagram      string `json:"instagram" validate:"max=500"`
	LinkedIn       string `json:"linkedin" validate:"max=500"`
}

func (p profileRequest) fields() aggregate.ProfileFields {
	return aggregate.ProfileFields{
		Company:        aggregate.Present(p.Company),
		Website:        aggregate.Present(p.Website),
		Location:       aggregate.Present(p.Location),
		Bio:            aggregate.Present(p.Bio),
		Status:         aggregate.Present(p.Status),
		Skills:         aggregate.Present(p.Skills),
		GitHubUsername: aggregate.Present(p.GitHubUsername),
		YouTube:        aggregate.Present(p.YouTube),
		Facebook:       aggregate.Present(p.Facebook),
		Twitter:        aggregate.Present(p.Twitter),
		Instagram:      aggregate.Present(p.Instagram),
		LinkedIn:       aggregate.Present(p.LinkedIn),
	}
}

// Dates travel as strings here and are parsed after validation; see
// model.ParseDate for the accepted formats.
type experienceRequest struct {
	Title       string `json:"title" validate:"notblank,max=200"`
	Company     string `json:"company" validate:"notblank,max=200"`
	Location    string `json:"location" validate:"max=200"`
	From        string `json:"from" validate:"required,date"`
	To          string `json:"to" validate:"omitempty,date"`
	Current     bool   `json:"current"`
	Description string `json:"description" validate:"max=5000"`
}

type educationRequest struct {
	School       string `json:"school" validate:"notblank,max=200"`
	Degree       string `json:"degree" validate:"notblank,max=200"`
	FieldOfStudy string `json:"fieldofstudy" validate:"notblank,max=200"`
	From         string `json:"from" validate:"required,date"`
	To           string `json:"to" validate:"omitempty,date"`
	Current      bool   `json:"current"`
	Description  string `json:"description" validate:"max=5000"`
}

// HandleMe returns the caller's profile.
//
// HTTP: GET /api/profile/me
func (h *ProfileHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, err := actingUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.writeProfileOf(w, r, userID)
}

// HandleGetByUser returns any user's profile.
//
// HTTP: GET /api/profile/user/{userID}
func (h *ProfileHandler) HandleGetByUser(w http.ResponseWriter, r *http.Request) {
	h.writeProfileOf(w, r, chi.URLParam(r, "userID"))
}

func (h *ProfileHandler) writeProfileOf(w http.ResponseWriter, r *http.Request, userID string) {
	p, err := h.svc.ForUser(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleList returns all profiles.
//
// HTTP: GET /api/profile
func (h *ProfileHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, profiles)
}

// HandleUpsert creates or updates the caller's profile.
//
// HTTP: POST /api/profile
// REQUEST BODY: {"status": "Developer", "skills": "go, sql", "twitter": "..."}
//
// Blank fields are ignored rather than clearing the stored value.
func (h *ProfileHandler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	userID, err := actingUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req profileRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	p, err := h.svc.Upsert(r.Context(), userID, req.fields())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleDeleteAccount removes the caller's posts, profile and account.
//
// HTTP: DELETE /api/profile
func (h *ProfileHandler) HandleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, err := actingUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.svc.DeleteAccount(r.Context(), userID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "user deleted"})
}

// HandleAddExperience adds a job to the caller's profile.
//
// HTTP: PUT /api/profile/experience
func (h *ProfileHandler) HandleAddExperience(w http.ResponseWriter, r *http.Request) {
	userID, err := actingUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req experienceRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	p, err := h.svc.AddExperience(r.Context(), userID, model.ExperienceEntry{
		Title:       req.Title,
		Company:     req.Company,
		Location:    req.Location,
		From:        requiredDate(req.From),
		To:          optionalDate(req.To),
		Current:     req.Current,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleDeleteExperience removes a job from the caller's profile.
//
// HTTP: DELETE /api/profile/experience/{expID}
func (h *ProfileHandler) HandleDeleteExperience(w http.ResponseWriter, r *http.Request) {
	userID, err := actingUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	p, err := h.svc.RemoveExperience(r.Context(), userID, chi.URLParam(r, "expID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleAddEducation adds a school to the caller's profile.
//
// HTTP: PUT /api/profile/education
func (h *ProfileHandler) HandleAddEducation(w http.ResponseWriter, r *http.Request) {
	userID, err := actingUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req educationRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	p, err := h.svc.AddEducation(r.Context(), userID, model.EducationEntry{
		School:       req.School,
		Degree:       req.Degree,
		FieldOfStudy: req.FieldOfStudy,
		From:         requiredDate(req.From),
		To:           optionalDate(req.To),
		Current:      req.Current,
		Description:  req.Description,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleDeleteEducation removes a school from the caller's profile.
//
// HTTP: DELETE /api/profile/education/{eduID}
func (h *ProfileHandler) HandleDeleteEducation(w http.ResponseWriter, r *http.Request) {
	userID, err := actingUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	p, err := h.svc.RemoveEducation(r.Context(), userID, chi.URLParam(r, "eduID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleGitHub lists a GitHub user's latest public repositories.
//
// HTTP: GET /api/profile/github/{username}
func (h *ProfileHandler) HandleGitHub(w http.ResponseWriter, r *http.Request) {
	repos, err := h.svc.GitHubRepos(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, repos)
}
