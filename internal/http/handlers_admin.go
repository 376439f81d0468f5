package httpx

import (
	"context"
	"errors"
	"net/http"

	domainauth "github.com/afyacare/hms/internal/domain/auth"
	"github.com/afyacare/hms/internal/ports"
	"github.com/afyacare/hms/internal/service"
)

// AdminHandlers serves user administration and the audit trail. All routes
// here sit behind the superadmin guard except first-run setup, which is public
// until the first superadmin exists.
type AdminHandlers struct {
	Admin *service.UserAdminService
	Audit *service.AuditService
}

func (h *AdminHandlers) handleListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := ParseLimitOffset(r, 50, 200)
	opts := ports.ProfilesListOptions{Limit: limit, Offset: offset}

	query := r.URL.Query()
	if roleParam := query.Get("role"); roleParam != "" {
		role := domainauth.Role(roleParam)
		if !role.Valid() {
			WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_role", Err: errors.New("unknown role")})
			return
		}
		opts.Role = &role
	}
	if statusParam := query.Get("status"); statusParam != "" {
		status := domainauth.Status(statusParam)
		if !status.Valid() {
			WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_status", Err: errors.New("unknown status")})
			return
		}
		opts.Status = &status
	}
	opts.IncludeDeleted = query.Get("include_deleted") == "true"

	users, err := h.Admin.ListUsers(r.Context(), opts)
	if err != nil {
		h.writeError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (h *AdminHandlers) handleApprove(w http.ResponseWriter, r *http.Request) {
	h.statusChange(w, r, h.Admin.Approve)
}

func (h *AdminHandlers) handleReject(w http.ResponseWriter, r *http.Request) {
	h.statusChange(w, r, h.Admin.Reject)
}

func (h *AdminHandlers) handleSuspend(w http.ResponseWriter, r *http.Request) {
	h.statusChange(w, r, h.Admin.Suspend)
}

func (h *AdminHandlers) handleReinstate(w http.ResponseWriter, r *http.Request) {
	h.statusChange(w, r, h.Admin.Reinstate)
}

func (h *AdminHandlers) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	h.statusChange(w, r, h.Admin.Deactivate)
}

func (h *AdminHandlers) statusChange(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, actor, id string) error) {
	if err := fn(r.Context(), actorID(r), r.PathValue("id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandlers) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.Admin.DeleteUser(r.Context(), actorID(r), r.PathValue("id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAuditHistory lists recent audit entries for one entity.
func (h *AdminHandlers) handleAuditHistory(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	entity, entityID := query.Get("entity"), query.Get("entity_id")
	if entity == "" || entityID == "" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "missing_filter", Err: errors.New("entity and entity_id are required")})
		return
	}

	limit, _ := ParseLimitOffset(r, 100, 500)
	entries, err := h.Audit.History(r.Context(), entity, entityID, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// handleSetupStatus reports whether first-run setup is still open.
func (h *AdminHandlers) handleSetupStatus(w http.ResponseWriter, r *http.Request) {
	required, err := h.Admin.SetupRequired(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"setup_required": required})
}

// handleSetup creates the first superadmin. Goes dead after first use.
func (h *AdminHandlers) handleSetup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FullName string `json:"full_name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	principal, err := h.Admin.CompleteSetup(r.Context(), service.SignupInput{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, service.ErrSetupComplete) {
			WriteError(w, ErrorParams{Code: http.StatusConflict, ErrCode: "setup_complete", Err: err})
			return
		}
		h.writeError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]string{"id": principal.ID})
}

func (h *AdminHandlers) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ports.ErrProfileNotFound):
		WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "user_not_found", Err: err})
	case errors.Is(err, service.ErrInvalidTransition):
		WriteError(w, ErrorParams{Code: http.StatusConflict, ErrCode: "invalid_transition", Err: err})
	case isValidationError(err):
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation_failed", Err: err})
	default:
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "internal_error", Err: errors.New("internal error")})
	}
}
