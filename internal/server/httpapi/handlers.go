package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/dmitrijs2005/gatekeeper/internal/logging"
	"github.com/dmitrijs2005/gatekeeper/internal/server/auth/gate"
	"github.com/dmitrijs2005/gatekeeper/internal/server/models"
	"github.com/dmitrijs2005/gatekeeper/internal/server/services"
	"github.com/gin-gonic/gin"
)

const (
	msgDuplicate          = "User with this email already exists."
	msgInvalidCredentials = "Invalid email or password."
	msgBadRequest         = "Invalid request body."
	msgInternal           = "Internal server error."
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type createUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type userResponse struct {
	ID    string      `json:"id"`
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type handlers struct {
	auth   *services.AuthService
	logger logging.Logger
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Role: u.Role}
}

func (h *handlers) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: msgBadRequest})
		return
	}

	u, err := h.auth.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(u))
}

func (h *handlers) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: msgBadRequest})
		return
	}

	res, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *handlers) me(c *gin.Context) {
	id, ok := gate.IdentityFromContext(c.Request.Context())
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	c.JSON(http.StatusOK, id)
}

func (h *handlers) createUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: msgBadRequest})
		return
	}

	role := models.RoleUser
	if req.Role != "" {
		r, err := models.ParseRole(req.Role)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "Unknown role."})
			return
		}
		role = r
	}

	u, err := h.auth.CreateUser(c.Request.Context(), req.Email, req.Password, role)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newUserResponse(u))
}

// writeError maps service errors onto responses. Credential errors carry a
// short message; anything unexpected is a bare 500.
func (h *handlers) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrDuplicateIdentifier):
		c.JSON(http.StatusBadRequest, errorResponse{Error: msgDuplicate})
	case errors.Is(err, common.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, errorResponse{Error: msgInvalidCredentials})
	case errors.Is(err, common.ErrValidation):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		h.logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: msgInternal})
	}
}
