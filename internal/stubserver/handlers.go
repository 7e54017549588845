package stubserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/models"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

type noteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// handleLogin handles POST /auth/login. Unknown accounts and wrong passwords
// produce the same response so the caller cannot probe for emails.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}

	acct, err := s.store.AccountByEmail(req.Email)
	if err != nil || !acct.VerifyPassword(req.Password) {
		writeJSON(w, http.StatusUnauthorized, errorBody("invalid email or password"))
		return
	}

	token, err := issueToken(s.secret, acct.ID, s.tokenTTL)
	if err != nil {
		s.logger.Error("token issue failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	s.logger.Info("login", slog.String("email", acct.Email), slog.String("tenant", acct.TenantID))
	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: acct.user()})
}

// handleMe handles GET /auth/me.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, accountFrom(r).user())
}

// handleGetTenant handles GET /tenants/{tenantID}. Accounts can only read
// their own tenant.
func (s *Server) handleGetTenant(w http.ResponseWriter, r *http.Request) {
	acct := accountFrom(r)
	tenantID := chi.URLParam(r, "tenantID")
	if tenantID != acct.TenantID {
		writeJSON(w, http.StatusForbidden, errorBody("forbidden"))
		return
	}

	t, err := s.store.TenantByID(tenantID)
	if errors.Is(err, apperr.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody("tenant not found"))
		return
	}
	if err != nil {
		s.logger.Error("tenant lookup failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// handleUpgradeTenant handles POST /tenants/{tenantID}/upgrade. Admin only,
// own tenant only. Idempotent: upgrading a pro tenant succeeds.
func (s *Server) handleUpgradeTenant(w http.ResponseWriter, r *http.Request) {
	acct := accountFrom(r)
	tenantID := chi.URLParam(r, "tenantID")
	if tenantID != acct.TenantID {
		writeJSON(w, http.StatusForbidden, errorBody("forbidden"))
		return
	}
	if acct.Role != models.RoleAdmin {
		writeJSON(w, http.StatusForbidden, errorBody("only admins can upgrade"))
		return
	}

	if err := s.store.SetTenantPlan(tenantID, models.PlanPro); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("tenant not found"))
			return
		}
		s.logger.Error("plan upgrade failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	s.logger.Info("tenant upgraded", slog.String("tenant", tenantID), slog.String("by", acct.Email))
	w.WriteHeader(http.StatusNoContent)
}

// handleListNotes handles GET /notes.
func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := s.store.ListNotes(accountFrom(r).TenantID)
	if err != nil {
		s.logger.Error("list notes failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

// handleCreateNote handles POST /notes. Free-plan tenants are capped at
// their note limit; the check and the insert are not atomic, which is
// acceptable for a development backend.
func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	acct := accountFrom(r)

	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	if req.Title == "" || req.Content == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("title and content are required"))
		return
	}

	t, err := s.store.TenantByID(acct.TenantID)
	if err != nil {
		s.logger.Error("tenant lookup failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if t.Plan == models.PlanFree {
		count, countErr := s.store.CountNotes(acct.TenantID)
		if countErr != nil {
			s.logger.Error("note count failed", slog.String("error", countErr.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
			return
		}
		if count >= t.NoteLimit {
			writeJSON(w, http.StatusForbidden, errorBody("note limit reached"))
			return
		}
	}

	note := models.Note{
		ID:        uuid.NewString(),
		Title:     req.Title,
		Content:   req.Content,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.InsertNote(acct.TenantID, acct.ID, note); err != nil {
		s.logger.Error("insert note failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// handleUpdateNote handles PUT /notes/{noteID}.
func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	acct := accountFrom(r)

	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	if req.Title == "" || req.Content == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("title and content are required"))
		return
	}

	note, err := s.store.UpdateNote(acct.TenantID, chi.URLParam(r, "noteID"), req.Title, req.Content)
	if errors.Is(err, apperr.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody("note not found"))
		return
	}
	if err != nil {
		s.logger.Error("update note failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// handleDeleteNote handles DELETE /notes/{noteID}.
func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	err := s.store.DeleteNote(accountFrom(r).TenantID, chi.URLParam(r, "noteID"))
	if errors.Is(err, apperr.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody("note not found"))
		return
	}
	if err != nil {
		s.logger.Error("delete note failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
