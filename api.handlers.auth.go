package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// SessionEnvelope is the payload returned by sign-up, sign-in and
// get-session calls.
type SessionEnvelope struct {
	User    User    `json:"user"`
	Session Session `json:"session"`
}

func (api *APIHandler) issueSession(r *http.Request, user User) (Session, error) {
	now := api.clock.Now().UTC()
	session := Session{
		Token:     api.uids.Generate(SessionIDPrefix),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(api.config.Auth.SessionTTL),
	}
	return session, api.store.Sessions.Add(r.Context(), session, api.config.Auth.SessionTTL)
}

func (api *APIHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(api.config.Auth.SessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   api.config.IsProduction,
	})
}

func (api *APIHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   api.config.IsProduction,
	})
}

// SignUpWithEmail registers a new account then opens a session for it.
// Every new account starts with the user role.
func (api *APIHandler) SignUpWithEmail(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	var req SignUpRequest
	err := DecodeRequestBody(r, &req)
	if err != nil {
		api.logger.Error("failed to sign up", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusBadRequest, "failed to sign up", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	err = ValidateSignUpRequestBody(&req)
	if err != nil {
		api.logger.Error("failed to sign up", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusBadRequest, "failed to sign up", err.Error())
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), api.config.Auth.BcryptCost)
	if err != nil {
		api.logger.Error("failed to hash password", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to sign up", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	user := User{
		ID:           api.uids.Generate(UserIDPrefix),
		Name:         req.Name,
		Email:        req.Email,
		Image:        req.Image,
		Role:         RoleUser,
		PasswordHash: string(hash),
		CreatedAt:    api.clock.Now().UTC(),
	}

	err = api.store.Users.Add(r.Context(), user.ID, user)
	if err == ErrEmailTaken {
		api.logger.Error("email already registered", zap.String("request.id", requestID))
		errResp := NewAPIError(requestID, http.StatusConflict, "email already registered", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	if err != nil {
		api.logger.Error("failed to create user", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to sign up", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	api.cache.Invalidate(ResourceUsers, ResourceAdminDashboard)
	api.pushEvent(r, CreateQueue, "user.created", user.ID, user.Sanitized())

	session, err := api.issueSession(r, user)
	if err != nil {
		api.logger.Error("failed to open session", zap.String("request.id", requestID), zap.String("user.id", user.ID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to sign up", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	api.setSessionCookie(w, session.Token)

	api.logger.Info("success to sign up", zap.String("request.id", requestID), zap.String("user.id", user.ID))
	resp := GenericResponse(requestID, http.StatusCreated, "Account created successfully.", nil, SessionEnvelope{User: user.Sanitized(), Session: session})
	if err = WriteResponse(r.Context(), w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// SignInWithEmail opens a session for an existing account. Unknown
// email and wrong password are indistinguishable to the caller.
func (api *APIHandler) SignInWithEmail(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	var req SignInRequest
	err := DecodeRequestBody(r, &req)
	if err == nil {
		err = ValidateSignInRequestBody(&req)
	}
	if err != nil {
		api.logger.Error("failed to sign in", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusBadRequest, "failed to sign in", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	user, err := api.store.Users.GetByEmail(r.Context(), req.Email)
	if err == nil {
		err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password))
	}
	if err != nil {
		api.logger.Warn("sign in rejected", zap.String("request.id", requestID))
		errResp := NewAPIError(requestID, http.StatusUnauthorized, "invalid email or password", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	session, err := api.issueSession(r, user)
	if err != nil {
		api.logger.Error("failed to open session", zap.String("request.id", requestID), zap.String("user.id", user.ID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to sign in", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	api.setSessionCookie(w, session.Token)

	api.logger.Info("success to sign in", zap.String("request.id", requestID), zap.String("user.id", user.ID))
	resp := GenericResponse(requestID, http.StatusOK, "Signed in successfully.", nil, SessionEnvelope{User: user.Sanitized(), Session: session})
	if err = WriteResponse(r.Context(), w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// SignOut revokes the current session so the token dies server side.
func (api *APIHandler) SignOut(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	session, ok := GetSessionFromContext(r.Context())
	if !ok {
		errResp := NewAPIError(requestID, http.StatusUnauthorized, "no active session", EmptyData)
		if err := WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	err := api.store.Sessions.Delete(r.Context(), session.Token)
	if err != nil && err != ErrSessionNotFound {
		api.logger.Error("failed to revoke session", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to sign out", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	api.clearSessionCookie(w)

	api.logger.Info("success to sign out", zap.String("request.id", requestID), zap.String("user.id", session.UserID))
	resp := GenericResponse(requestID, http.StatusOK, "Signed out successfully.", nil, EmptyData)
	if err = WriteResponse(r.Context(), w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// GetSession returns the caller session with its user, or null data
// when the request carries no valid session.
func (api *APIHandler) GetSession(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	session, ok := GetSessionFromContext(r.Context())
	if !ok {
		resp := GenericResponse(requestID, http.StatusOK, "No active session.", nil, nil)
		if err := WriteResponse(r.Context(), w, resp); err != nil {
			api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	user, _ := GetUserFromContext(r.Context())
	resp := GenericResponse(requestID, http.StatusOK, "Session fetched successfully.", nil, SessionEnvelope{User: user.Sanitized(), Session: session})
	if err := WriteResponse(r.Context(), w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// pushEvent enqueues a mutation event. A queue failure is logged and
// never fails the originating request.
func (api *APIHandler) pushEvent(r *http.Request, qid, kind, entityID string, payload interface{}) {
	event := NewEvent(kind, entityID, payload, api.clock.Now().UTC())
	if err := api.queue.Push(r.Context(), qid, event); err != nil {
		requestID := GetValueFromContext(r.Context(), ContextRequestID)
		api.logger.Error("failed to push event to queue",
			zap.String("request.id", requestID),
			zap.String("qid", qid),
			zap.String("event.kind", kind),
			zap.Error(err),
		)
	}
}
