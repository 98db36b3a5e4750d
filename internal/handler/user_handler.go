package handler

import (
	"context"
	"net/http"
)

// AccountWithdrawer は退会処理。ユーザーの所有データとログインセッションをすべて消す。
type AccountWithdrawer interface {
	Withdraw(ctx context.Context, userID string) error
}

type UserHandler struct {
	accounts AccountWithdrawer
	cookies  AuthHandlerConfig
}

func NewUserHandler(accounts AccountWithdrawer, cookies AuthHandlerConfig) *UserHandler {
	return &UserHandler{accounts: accounts, cookies: cookies}
}

// Withdraw はDELETE /api/users/me。成功したらこのブラウザのセッションCookieも消す。
func (h *UserHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	if err := h.accounts.Withdraw(r.Context(), userID); err != nil {
		handleServiceError(w, err)
		return
	}
	clearSessionCookie(w, h.cookies)
	writeSuccess(w)
}
