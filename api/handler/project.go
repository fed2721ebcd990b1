package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/projecthub/backend/api/transport"
	"github.com/projecthub/backend/domain"
	"github.com/projecthub/backend/pkg/httpcontext"
	projectUC "github.com/projecthub/backend/usecase/project"
)

type ProjectHandler struct {
	baseHandler
	uc *projectUC.UseCase
}

func NewProjectHandler(uc *projectUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Create project
// @Tags projects
// @Router /api/v1/projects [post]
func (h *ProjectHandler) Create(ctx *fasthttp.RequestCtx) {
	userID := h.currentUserID(ctx)
	if userID == "" {
		return
	}

	var req transport.ProjectCreateRequest
	if !h.parseBody(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	project, err := h.uc.Create(stdCtx, userID, req.Name, req.Description)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, project)
}

// @Summary Get project
// @Tags projects
// @Router /api/v1/projects/{id} [get]
func (h *ProjectHandler) Get(ctx *fasthttp.RequestCtx) {
	if h.currentUserID(ctx) == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	project, err := h.uc.Get(stdCtx, pathParam(ctx, "id"))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, project)
}

// @Summary List project members
// @Tags projects
// @Router /api/v1/projects/{id}/members [get]
func (h *ProjectHandler) ListMembers(ctx *fasthttp.RequestCtx) {
	if h.currentUserID(ctx) == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	project, err := h.uc.Get(stdCtx, pathParam(ctx, "id"))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, project.Members)
}

// @Summary List projects the caller belongs to
// @Tags projects
// @Router /api/v1/projects [get]
func (h *ProjectHandler) List(ctx *fasthttp.RequestCtx) {
	userID := h.currentUserID(ctx)
	if userID == "" {
		return
	}

	page, limit := pageParams(ctx)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	projects, total, err := h.uc.List(stdCtx, userID, page, limit)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondPage(ctx, projects, page, limit, total)
}

// @Summary Add a member directly
// @Tags projects
// @Router /api/v1/projects/{id}/members [post]
func (h *ProjectHandler) AddMember(ctx *fasthttp.RequestCtx) {
	userID := h.currentUserID(ctx)
	if userID == "" {
		return
	}

	var req transport.MemberRequest
	if !h.parseBody(ctx, &req) {
		return
	}
	if req.UserID == "" {
		h.respondInvalid(ctx, "user_id is required")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.AddMember(stdCtx, pathParam(ctx, "id"), req.UserID, userID); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, nil)
}

// @Summary Remove a member
// @Tags projects
// @Router /api/v1/projects/{id}/members/{userId} [delete]
func (h *ProjectHandler) RemoveMember(ctx *fasthttp.RequestCtx) {
	userID := h.currentUserID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.RemoveMember(stdCtx, pathParam(ctx, "id"), pathParam(ctx, "userId"), userID); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, nil)
}

// @Summary Transfer project ownership
// @Tags projects
// @Router /api/v1/projects/{id}/owner [put]
func (h *ProjectHandler) TransferOwnership(ctx *fasthttp.RequestCtx) {
	userID := h.currentUserID(ctx)
	if userID == "" {
		return
	}

	var req transport.TransferOwnershipRequest
	if !h.parseBody(ctx, &req) {
		return
	}
	if req.NewOwnerID == "" {
		h.respondInvalid(ctx, "new_owner_id is required")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.TransferOwnership(stdCtx, pathParam(ctx, "id"), req.NewOwnerID, userID); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, nil)
}

// @Summary Leave project
// @Tags projects
// @Router /api/v1/projects/{id}/leave [post]
func (h *ProjectHandler) Leave(ctx *fasthttp.RequestCtx) {
	userID := h.currentUserID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.Leave(stdCtx, pathParam(ctx, "id"), userID); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, nil)
}

// @Summary Update project status
// @Tags projects
// @Router /api/v1/projects/{id}/status [put]
func (h *ProjectHandler) UpdateStatus(ctx *fasthttp.RequestCtx) {
	userID := h.currentUserID(ctx)
	if userID == "" {
		return
	}

	var req transport.StatusUpdateRequest
	if !h.parseBody(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.UpdateStatus(stdCtx, pathParam(ctx, "id"), domain.ProjectStatus(req.Status), userID); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, nil)
}

// @Summary List project activity ledger
// @Tags projects
// @Router /api/v1/projects/{id}/activities [get]
func (h *ProjectHandler) ListActivities(ctx *fasthttp.RequestCtx) {
	if h.currentUserID(ctx) == "" {
		return
	}

	filter := activityFilter(ctx)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	entries, total, err := h.uc.ListActivities(stdCtx, pathParam(ctx, "id"), filter)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondPage(ctx, entries, filter.Page, filter.Limit, total)
}
