package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/opsportal/portal/internal/portal/service"
	"github.com/opsportal/portal/internal/portal/store"
	"github.com/opsportal/portal/pkg/httpx"
)

// ProjectsHandler serves project CRUD for any authenticated user; the
// service scopes visibility and edit rights per caller.
type ProjectsHandler struct {
	Projects *service.ProjectService
}

type createProjectRequest struct {
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Status       string     `json:"status"`
	Priority     string     `json:"priority"`
	DueDate      *time.Time `json:"dueDate"`
	AssignedToID *string    `json:"assignedToId"`
}

// updateProjectRequest distinguishes absent fields from explicit nulls
// with json.RawMessage so "assignedToId": null clears the assignee.
type updateProjectRequest struct {
	Name         *string         `json:"name"`
	Description  *string         `json:"description"`
	Status       *string         `json:"status"`
	Priority     *string         `json:"priority"`
	DueDate      json.RawMessage `json:"dueDate"`
	AssignedToID json.RawMessage `json:"assignedToId"`
}

func (h *ProjectsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpx.IdentityFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	project, err := h.Projects.Create(r.Context(), actor, service.CreateProjectInput{
		Name:         req.Name,
		Description:  req.Description,
		Status:       req.Status,
		Priority:     req.Priority,
		DueDate:      req.DueDate,
		AssignedToID: req.AssignedToID,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"project": toProjectResponse(project)})
}

func (h *ProjectsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpx.IdentityFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	q := r.URL.Query()
	filter := store.ProjectFilter{
		Status:   q.Get("status"),
		Priority: q.Get("priority"),
		Page:     intParam(q.Get("page")),
		Limit:    intParam(q.Get("limit")),
	}

	projects, total, err := h.Projects.List(r.Context(), actor, filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]projectResponse, 0, len(projects))
	for _, p := range projects {
		out = append(out, toProjectResponse(p))
	}

	page, limit := filter.Page, filter.Limit
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"projects":   out,
		"pagination": pageMeta{Page: page, Limit: limit, Total: total},
	})
}

func (h *ProjectsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpx.IdentityFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	project, err := h.Projects.Get(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"project": toProjectResponse(project)})
}

func (h *ProjectsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpx.IdentityFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req updateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in := service.UpdateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
	}
	if req.DueDate != nil {
		in.DueDateSet = true
		if string(req.DueDate) != "null" {
			var due time.Time
			if err := json.Unmarshal(req.DueDate, &due); err != nil {
				httpx.WriteError(w, http.StatusBadRequest, "invalid dueDate")
				return
			}
			in.DueDate = &due
		}
	}
	if req.AssignedToID != nil {
		in.AssignedToSet = true
		if string(req.AssignedToID) != "null" {
			var assignee string
			if err := json.Unmarshal(req.AssignedToID, &assignee); err != nil {
				httpx.WriteError(w, http.StatusBadRequest, "invalid assignedToId")
				return
			}
			in.AssignedToID = &assignee
		}
	}

	project, err := h.Projects.Update(r.Context(), actor, r.PathValue("id"), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"project": toProjectResponse(project)})
}

func (h *ProjectsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpx.IdentityFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.Projects.Delete(r.Context(), actor, r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"message": "project deleted"})
}

// intParam parses a positive query integer; anything else is zero and
// falls back to the store defaults.
func intParam(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
