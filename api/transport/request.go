package transport

// Auth

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	SessionID    string `json:"session_id"`
	RefreshToken string `json:"refresh_token"`
}

type LogoutRequest struct {
	SessionID string `json:"session_id"`
}

type VerifyEmailRequest struct {
	Token string `json:"token"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type BlockUserRequest struct {
	Blocked bool `json:"blocked"`
}

// Projects

type ProjectCreateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type MemberRequest struct {
	UserID string `json:"user_id"`
}

type TransferOwnershipRequest struct {
	NewOwnerID string `json:"new_owner_id"`
}

type StatusUpdateRequest struct {
	Status string `json:"status"`
}

// Invitations

type InvitationSendRequest struct {
	ProjectID string `json:"project_id"`
	Email     string `json:"email"`
}

// Tasks

type TaskCreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type CommentRequest struct {
	Content  string   `json:"content"`
	Mentions []string `json:"mentions"`
}
