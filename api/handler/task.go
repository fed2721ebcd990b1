package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/projecthub/backend/api/transport"
	"github.com/projecthub/backend/domain"
	"github.com/projecthub/backend/pkg/httpcontext"
	"github.com/projecthub/backend/repository"
	taskUC "github.com/projecthub/backend/usecase/task"
)

type TaskHandler struct {
	baseHandler
	uc *taskUC.UseCase
}

func NewTaskHandler(uc *taskUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Create task in a project
// @Tags tasks
// @Router /api/v1/projects/{id}/tasks [post]
func (h *TaskHandler) Create(ctx *fasthttp.RequestCtx) {
	userID := h.currentUserID(ctx)
	if userID == "" {
		return
	}

	var req transport.TaskCreateRequest
	if !h.parseBody(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.uc.Create(stdCtx, pathParam(ctx, "id"), req.Title, req.Description, userID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, task)
}

// @Summary Get task
// @Tags tasks
// @Router /api/v1/tasks/{id} [get]
func (h *TaskHandler) Get(ctx *fasthttp.RequestCtx) {
	if h.currentUserID(ctx) == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.uc.Get(stdCtx, pathParam(ctx, "id"))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}

// @Summary List tasks in a project
// @Tags tasks
// @Router /api/v1/projects/{id}/tasks [get]
func (h *TaskHandler) List(ctx *fasthttp.RequestCtx) {
	if h.currentUserID(ctx) == "" {
		return
	}

	filter := repository.TaskFilter{
		ProjectID: pathParam(ctx, "id"),
		Status:    domain.TaskStatus(string(ctx.QueryArgs().Peek("status"))),
	}
	filter.Page, filter.Limit = pageParams(ctx)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	tasks, total, err := h.uc.List(stdCtx, filter)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondPage(ctx, tasks, filter.Page, filter.Limit, total)
}

// @Summary Assign a member to a task
// @Tags tasks
// @Router /api/v1/tasks/{id}/assignees [post]
func (h *TaskHandler) Assign(ctx *fasthttp.RequestCtx) {
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

	if err := h.uc.Assign(stdCtx, pathParam(ctx, "id"), req.UserID, userID); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, nil)
}

// @Summary Unassign a member from a task
// @Tags tasks
// @Router /api/v1/tasks/{id}/assignees/{userId} [delete]
func (h *TaskHandler) Unassign(ctx *fasthttp.RequestCtx) {
	userID := h.currentUserID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.Unassign(stdCtx, pathParam(ctx, "id"), pathParam(ctx, "userId"), userID); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, nil)
}

// @Summary Update task status
// @Tags tasks
// @Router /api/v1/tasks/{id}/status [put]
func (h *TaskHandler) UpdateStatus(ctx *fasthttp.RequestCtx) {
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

	if err := h.uc.UpdateStatus(stdCtx, pathParam(ctx, "id"), domain.TaskStatus(req.Status), userID); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, nil)
}

// @Summary Add a comment to a task
// @Tags tasks
// @Router /api/v1/tasks/{id}/comments [post]
func (h *TaskHandler) AddComment(ctx *fasthttp.RequestCtx) {
	userID := h.currentUserID(ctx)
	if userID == "" {
		return
	}

	var req transport.CommentRequest
	if !h.parseBody(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	comment, err := h.uc.AddComment(stdCtx, pathParam(ctx, "id"), userID, req.Content, req.Mentions)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, comment)
}

// @Summary Delete a comment
// @Tags tasks
// @Router /api/v1/tasks/{id}/comments/{commentId} [delete]
func (h *TaskHandler) DeleteComment(ctx *fasthttp.RequestCtx) {
	userID := h.currentUserID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.DeleteComment(stdCtx, pathParam(ctx, "id"), pathParam(ctx, "commentId"), userID); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusNoContent, nil)
}

// @Summary List task comments
// @Tags tasks
// @Router /api/v1/tasks/{id}/comments [get]
func (h *TaskHandler) ListComments(ctx *fasthttp.RequestCtx) {
	userID := h.currentUserID(ctx)
	if userID == "" {
		return
	}

	filter := domain.CommentFilter{
		Sort: domain.CommentSort(string(ctx.QueryArgs().Peek("sort"))),
	}
	filter.Page, filter.Limit = pageParams(ctx)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	comments, total, err := h.uc.ListComments(stdCtx, pathParam(ctx, "id"), userID, filter)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondPage(ctx, comments, filter.Page, filter.Limit, total)
}

// @Summary List task activity ledger
// @Tags tasks
// @Router /api/v1/tasks/{id}/activities [get]
func (h *TaskHandler) ListActivities(ctx *fasthttp.RequestCtx) {
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
