package handler

import (
	"context"
	"net/http"

	"github.com/eaglebank/bank-api/shared/cqrs"
	"github.com/eaglebank/bank-api/shared/middleware"
	"github.com/eaglebank/bank-api/shared/models"
	"github.com/gin-gonic/gin"
)

// UserCommander defines the write-side operations used by UserHandler.
type UserCommander interface {
	CreateUser(context.Context, cqrs.CreateUserCommand) (*models.User, error)
	UpdateUser(context.Context, cqrs.UpdateUserCommand) (*models.UserView, error)
	DeleteUser(context.Context, cqrs.DeleteUserCommand) error
}

// UserQuerier defines the read-side operations used by UserHandler.
type UserQuerier interface {
	GetUser(context.Context, cqrs.GetUserQuery) (*models.UserView, error)
}

type UserHandler struct {
	commands UserCommander
	queries  UserQuerier
}

type CreateUserRequest struct {
	Name        string         `json:"name" validate:"required"`
	Email       string         `json:"email" validate:"required,email"`
	Password    string         `json:"password" validate:"required,min=8"`
	PhoneNumber string         `json:"phoneNumber" validate:"required,e164"`
	Address     models.Address `json:"address" validate:"required"`
}

// UpdateUserRequest is a partial update; omitted fields keep their value.
type UpdateUserRequest struct {
	Name        string          `json:"name"`
	Email       string          `json:"email" validate:"omitempty,email"`
	PhoneNumber string          `json:"phoneNumber" validate:"omitempty,e164"`
	Address     *models.Address `json:"address" validate:"omitempty"`
}

func NewUserHandler(commands UserCommander, queries UserQuerier) *UserHandler {
	return &UserHandler{commands: commands, queries: queries}
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if !bindRequest(c, &req) {
		return
	}

	user, err := h.commands.CreateUser(c.Request.Context(), cqrs.CreateUserCommand{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.NewUserView(user))
}

func (h *UserHandler) GetUser(c *gin.Context) {
	requestingUserID, ok := caller(c)
	if !ok {
		return
	}

	view, err := h.queries.GetUser(c.Request.Context(), cqrs.GetUserQuery{
		UserID:           c.Param("userId"),
		RequestingUserID: requestingUserID,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	requestingUserID, ok := caller(c)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if !bindRequest(c, &req) {
		return
	}

	cmd := cqrs.UpdateUserCommand{
		UserID:           c.Param("userId"),
		RequestingUserID: requestingUserID,
		Name:             req.Name,
		Email:            req.Email,
		PhoneNumber:      req.PhoneNumber,
	}
	if req.Address != nil {
		cmd.Address = *req.Address
	}

	view, err := h.commands.UpdateUser(c.Request.Context(), cmd)
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	requestingUserID, ok := caller(c)
	if !ok {
		return
	}

	err := h.commands.DeleteUser(c.Request.Context(), cqrs.DeleteUserCommand{
		UserID:           c.Param("userId"),
		RequestingUserID: requestingUserID,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
