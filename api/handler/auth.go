package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/projecthub/backend/api/transport"
	"github.com/projecthub/backend/pkg/httpcontext"
	authUC "github.com/projecthub/backend/usecase/auth"
)

type AuthHandler struct {
	baseHandler
	uc *authUC.UseCase
}

func NewAuthHandler(uc *authUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Register a new account
// @Tags auth
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(ctx *fasthttp.RequestCtx) {
	var req transport.RegisterRequest
	if !h.parseBody(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.uc.Register(stdCtx, req.Username, req.Email, req.Password)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, map[string]interface{}{
		"id":       user.ID,
		"username": user.Username,
		"email":    user.Email,
	})
}

// @Summary Verify an email address
// @Tags auth
// @Router /api/v1/auth/verify [post]
func (h *AuthHandler) VerifyEmail(ctx *fasthttp.RequestCtx) {
	var req transport.VerifyEmailRequest
	if !h.parseBody(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.VerifyEmail(stdCtx, req.Token); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, nil)
}

// @Summary Log in with email and password
// @Tags auth
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(ctx *fasthttp.RequestCtx) {
	var req transport.LoginRequest
	if !h.parseBody(ctx, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		h.respondInvalid(ctx, "email and password are required")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	tokens, err := h.uc.Login(stdCtx, req.Email, req.Password)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, tokens)
}

// @Summary Refresh an access token
// @Tags auth
// @Router /api/v1/auth/refresh [post]
func (h *AuthHandler) Refresh(ctx *fasthttp.RequestCtx) {
	var req transport.RefreshRequest
	if !h.parseBody(ctx, &req) {
		return
	}
	if req.SessionID == "" || req.RefreshToken == "" {
		h.respondInvalid(ctx, "session_id and refresh_token are required")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	tokens, err := h.uc.Refresh(stdCtx, req.SessionID, req.RefreshToken)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, tokens)
}

// @Summary Revoke the current session
// @Tags auth
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(ctx *fasthttp.RequestCtx) {
	var req transport.LogoutRequest
	if !h.parseBody(ctx, &req) {
		return
	}
	if req.SessionID == "" {
		h.respondInvalid(ctx, "session_id is required")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.Logout(stdCtx, req.SessionID); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, nil)
}

// @Summary Request a password reset token
// @Tags auth
// @Router /api/v1/auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(ctx *fasthttp.RequestCtx) {
	var req transport.ForgotPasswordRequest
	if !h.parseBody(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.RequestPasswordReset(stdCtx, req.Email); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, nil)
}

// @Summary Reset a password with a token
// @Tags auth
// @Router /api/v1/auth/reset-password [post]
func (h *AuthHandler) ResetPassword(ctx *fasthttp.RequestCtx) {
	var req transport.ResetPasswordRequest
	if !h.parseBody(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.ResetPassword(stdCtx, req.Token, req.Password); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, nil)
}

// @Summary Block or unblock an account
// @Tags admin
// @Router /api/v1/admin/users/{id}/block [put]
func (h *AuthHandler) SetBlocked(ctx *fasthttp.RequestCtx) {
	adminID := h.currentUserID(ctx)
	if adminID == "" {
		return
	}

	var req transport.BlockUserRequest
	if !h.parseBody(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.SetBlocked(stdCtx, adminID, pathParam(ctx, "id"), req.Blocked); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, nil)
}

// @Summary List all accounts
// @Tags admin
// @Router /api/v1/admin/users [get]
func (h *AuthHandler) ListUsers(ctx *fasthttp.RequestCtx) {
	adminID := h.currentUserID(ctx)
	if adminID == "" {
		return
	}

	page, limit := pageParams(ctx)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	users, total, err := h.uc.ListUsers(stdCtx, adminID, page, limit)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondPage(ctx, users, page, limit, total)
}
