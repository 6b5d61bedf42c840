package main

import (
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// UserList is the cached payload of the users listing call.
type UserList struct {
	Users []User `json:"users"`
	Total int    `json:"total"`
}

// GetAllUsers serves the paginated accounts listing. Admin only.
func (api *APIHandler) GetAllUsers(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	q := ParseListQuery(r.URL.Query())
	key := NewCacheKey(ResourceUsers, map[string]string{
		"search": q.Search,
		"limit":  strconv.Itoa(q.Limit),
	}, q.Page)

	var list UserList
	if cached, ok := api.cache.Get(key); ok {
		list = cached.(UserList)
	} else {
		users, total, err := api.store.Users.List(r.Context(), q)
		if err != nil {
			api.logger.Error("failed to get all users", zap.String("request.id", requestID), zap.Error(err))
			errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to get all users", EmptyData)
			if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
				api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
			}
			return
		}
		sanitized := make([]User, 0, len(users))
		for _, user := range users {
			sanitized = append(sanitized, user.Sanitized())
		}
		list = UserList{Users: sanitized, Total: total}
		api.cache.Set(key, list)
	}

	resp := GenericResponse(requestID, http.StatusOK, "All users fetched successfully.", &list.Total, list.Users)
	if err := WriteResponse(r.Context(), w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// UpdateUserRole promotes or demotes an account. Admin only. An admin
// cannot change its own role, another admin has to.
func (api *APIHandler) UpdateUserRole(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req UpdateRoleRequest
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	id := ps.ByName("id")
	caller, _ := GetUserFromContext(r.Context())
	err := DecodeRequestBody(r, &req)
	if err == nil {
		err = ValidateUpdateRoleRequestBody(&req)
	}
	if err != nil {
		api.logger.Error("failed to update user role", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusBadRequest, "failed to update the user role", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	if caller.ID == id {
		api.logger.Warn("admin attempted self role change", zap.String("request.id", requestID), zap.String("user.id", id))
		errResp := NewAPIError(requestID, http.StatusForbidden, "cannot change your own role", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	user, err := api.store.Users.UpdateRole(r.Context(), id, ParseRole(req.Role))
	if err == ErrUserNotFound {
		api.logger.Error("user does not exist", zap.String("user.id", id), zap.String("request.id", requestID))
		errResp := NewAPIError(requestID, http.StatusNotFound, "user does not exist", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	if err != nil {
		api.logger.Error("failed to update user role", zap.String("user.id", id), zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to update the user role", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	api.cache.Invalidate(ResourceUsers, ResourceAdminDashboard)
	api.pushEvent(r, UpdateQueue, "user.role.updated", user.ID, user.Sanitized())

	api.logger.Info("success to update user role",
		zap.String("request.id", requestID),
		zap.String("user.id", user.ID),
		zap.String("user.role", user.Role.String()),
	)
	resp := GenericResponse(requestID, http.StatusOK, "User role updated successfully.", nil, user.Sanitized())
	if err = WriteResponse(r.Context(), w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// GetProfile serves the signed-in user own account details.
func (api *APIHandler) GetProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	user, _ := GetUserFromContext(r.Context())
	resp := GenericResponse(requestID, http.StatusOK, "Profile fetched successfully.", nil, user.Sanitized())
	if err := WriteResponse(r.Context(), w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}
