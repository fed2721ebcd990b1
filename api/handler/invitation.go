package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/projecthub/backend/api/transport"
	"github.com/projecthub/backend/pkg/httpcontext"
	invitationUC "github.com/projecthub/backend/usecase/invitation"
)

type InvitationHandler struct {
	baseHandler
	uc *invitationUC.UseCase
}

func NewInvitationHandler(uc *invitationUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *InvitationHandler {
	return &InvitationHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Invite a user to a project
// @Tags invitations
// @Router /api/v1/invitations [post]
func (h *InvitationHandler) Send(ctx *fasthttp.RequestCtx) {
	userID := h.currentUserID(ctx)
	if userID == "" {
		return
	}

	var req transport.InvitationSendRequest
	if !h.parseBody(ctx, &req) {
		return
	}
	if req.ProjectID == "" || req.Email == "" {
		h.respondInvalid(ctx, "project_id and email are required")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	invitation, err := h.uc.Send(stdCtx, req.ProjectID, req.Email, userID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, invitation)
}

// @Summary List pending invitations for the caller
// @Tags invitations
// @Router /api/v1/invitations [get]
func (h *InvitationHandler) List(ctx *fasthttp.RequestCtx) {
	userID := h.currentUserID(ctx)
	if userID == "" {
		return
	}

	page, limit := pageParams(ctx)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	invitations, total, err := h.uc.ListForUser(stdCtx, userID, page, limit)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondPage(ctx, invitations, page, limit, total)
}

// @Summary Accept an invitation
// @Tags invitations
// @Router /api/v1/invitations/{id}/accept [post]
func (h *InvitationHandler) Accept(ctx *fasthttp.RequestCtx) {
	userID := h.currentUserID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	invitation, err := h.uc.Accept(stdCtx, pathParam(ctx, "id"), userID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, invitation)
}

// @Summary Reject an invitation
// @Tags invitations
// @Router /api/v1/invitations/{id}/reject [post]
func (h *InvitationHandler) Reject(ctx *fasthttp.RequestCtx) {
	userID := h.currentUserID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.Reject(stdCtx, pathParam(ctx, "id"), userID); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, nil)
}
