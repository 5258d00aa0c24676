package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-crud-service/internal/usecase/user"
	pkgerrors "user-crud-service/pkg/errors"
	"user-crud-service/pkg/logger"
)

// UserHandler handles HTTP requests for user operations
type UserHandler struct {
	uc           user.Usecase
	log          *zap.Logger
	exposeErrors bool
}

// NewUserHandler creates a new UserHandler instance. Internal error text is
// returned to clients only when production is false.
func NewUserHandler(uc user.Usecase, log *zap.Logger, production bool) *UserHandler {
	return &UserHandler{
		uc:           uc,
		log:          log,
		exposeErrors: !production,
	}
}

// UserResponse represents the HTTP response for user data
type UserResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Age       int       `json:"age"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DeleteUserResponse confirms which user was removed.
type DeleteUserResponse struct {
	ID int64 `json:"id"`
}

func toResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Age:       u.Age,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// CreateUser handles POST /users
func (h *UserHandler) CreateUser(c *gin.Context) {
	log := logger.WithContext(c.Request.Context(), h.log)

	in, ok := h.bindInput(c)
	if !ok {
		return
	}

	resp, err := h.uc.CreateUser(c.Request.Context(), user.CreateUserRequest{Input: in})
	if err != nil {
		h.handleError(c, err)
		return
	}

	log.Info("user created", zap.Int64("id", resp.ID))
	OK(c, http.StatusCreated, toResponse(resp), MsgUserCreated)
}

// ListUsers handles GET /users
func (h *UserHandler) ListUsers(c *gin.Context) {
	resp, err := h.uc.ListUsers(c.Request.Context(), user.ListUsersRequest{})
	if err != nil {
		h.handleError(c, err)
		return
	}

	users := make([]UserResponse, len(resp.Users))
	for i := range resp.Users {
		users[i] = toResponse(&resp.Users[i])
	}

	List(c, http.StatusOK, users, resp.Count)
}

// GetUser handles GET /users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	resp, err := h.uc.GetUser(c.Request.Context(), user.GetUserRequest{ID: id})
	if err != nil {
		h.handleError(c, err)
		return
	}
	if resp == nil {
		Fail(c, http.StatusNotFound, MsgUserNotFound)
		return
	}

	OK(c, http.StatusOK, toResponse(resp), "")
}

// UpdateUser handles PUT /users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	in, ok := h.bindInput(c)
	if !ok {
		return
	}

	resp, err := h.uc.UpdateUser(c.Request.Context(), user.UpdateUserRequest{ID: id, Input: in})
	if err != nil {
		h.handleError(c, err)
		return
	}

	OK(c, http.StatusOK, toResponse(resp), MsgUserUpdated)
}

// DeleteUser handles DELETE /users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	resp, err := h.uc.DeleteUser(c.Request.Context(), user.DeleteUserRequest{ID: id})
	if err != nil {
		h.handleError(c, err)
		return
	}

	OK(c, http.StatusOK, DeleteUserResponse{ID: resp.ID}, MsgUserDeleted)
}

func (h *UserHandler) parseID(c *gin.Context) (int64, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		logger.WithContext(c.Request.Context(), h.log).Warn("invalid user id", zap.String("id", idStr))
		Fail(c, http.StatusBadRequest, MsgInvalidID)
		return 0, false
	}
	return id, true
}

// bindInput decodes the request body. An empty body decodes to an input with
// every field absent; decode failures are answered with a 400 envelope.
func (h *UserHandler) bindInput(c *gin.Context) (user.UserInput, bool) {
	var in user.UserInput
	err := c.ShouldBindJSON(&in)
	if err == nil || errors.Is(err, io.EOF) {
		return in, true
	}

	fields := decodeErrors(err)
	logger.WithContext(c.Request.Context(), h.log).Warn("invalid request body",
		zap.Strings("fields", fields.Fields()), zap.Error(err))
	FailFields(c, http.StatusBadRequest, MsgInvalidData, fields)
	return user.UserInput{}, false
}

func decodeErrors(err error) pkgerrors.FieldErrors {
	var fields pkgerrors.FieldErrors

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		fields.Add(typeErr.Field, typeErr.Field+" must be "+kindName(typeErr.Type))
		return fields
	}
	if errors.As(err, &typeErr) {
		fields.Add("body", "body must be a JSON object")
		return fields
	}

	fields.Add("body", "body must be valid JSON")
	return fields
}

func kindName(t reflect.Type) string {
	if t == nil {
		return "valid"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "an integer"
	case reflect.String:
		return "a string"
	default:
		return "a " + t.Kind().String()
	}
}

// handleError converts usecase errors to HTTP responses
func (h *UserHandler) handleError(c *gin.Context, err error) {
	log := logger.WithContext(c.Request.Context(), h.log)

	switch statusOf(err) {
	case http.StatusBadRequest:
		var validationErr *pkgerrors.ValidationError
		if errors.As(err, &validationErr) {
			log.Warn("request rejected", zap.Strings("fields", validationErr.Fields.Fields()))
			FailFields(c, http.StatusBadRequest, MsgInvalidData, validationErr.Fields)
			return
		}
		Fail(c, http.StatusBadRequest, MsgInvalidData)
	case http.StatusConflict:
		log.Warn("request conflicts with existing user", zap.Error(err))
		Fail(c, http.StatusConflict, MsgEmailInUse)
	case http.StatusNotFound:
		Fail(c, http.StatusNotFound, MsgUserNotFound)
	default:
		log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		AbortInternal(c, err.Error(), h.exposeErrors)
	}
}

// statusOf returns the status carried by err, or 500 for unclassified errors.
func statusOf(err error) int {
	var statuser pkgerrors.HTTPStatuser
	if errors.As(err, &statuser) {
		return statuser.HTTPStatus()
	}
	return http.StatusInternalServerError
}
