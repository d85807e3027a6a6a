package handlers

import (
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/diewo77/smartstore/auth"
	"github.com/diewo77/smartstore/httpx"
	"github.com/diewo77/smartstore/internal/models"
	"github.com/diewo77/smartstore/validation"
)

const minPasswordLen = 5

type UserHandler struct {
	DB *gorm.DB
}

func NewUserHandler(db *gorm.DB) *UserHandler { return &UserHandler{DB: db} }

// Create registers a new account. Open endpoint: anyone may sign up.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
		Username string `json:"username"`
	}
	if !httpx.Decode(w, r, &input) {
		return
	}
	input.Email = strings.TrimSpace(input.Email)

	v := validation.Violations{}
	validation.Required("email", input.Email, v)
	if _, ok := v["email"]; !ok {
		validation.Email("email", input.Email, v)
	}
	validation.Required("password", input.Password, v)
	if _, ok := v["password"]; !ok {
		validation.MinLen("password", input.Password, minPasswordLen, v)
	}
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "user_create_failed", nil)
		return
	}
	user := models.User{Email: input.Email, Password: hash, Name: input.Name, Username: input.Username}
	if err := h.DB.Create(&user).Error; err != nil {
		if isDuplicateErr(err) {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", validation.Violations{"email": "already_exists"})
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "user_create_failed", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, user)
}

// Token exchanges credentials for the opaque bearer token. All failure modes
// collapse into one 400 so the endpoint confirms nothing about accounts.
func (h *UserHandler) Token(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !httpx.Decode(w, r, &input) {
		return
	}
	v := validation.Violations{}
	validation.Required("email", input.Email, v)
	validation.Required("password", input.Password, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	token, err := auth.IssueToken(h.DB, strings.TrimSpace(input.Email), input.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			httpx.JSONError(w, http.StatusBadRequest, "unable_to_authenticate", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "token_issue_failed", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"token": token.Key})
}

func (h *UserHandler) currentUser(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	var user models.User
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.Unauthorized(w)
		return user, false
	}
	if err := h.DB.First(&user, uid).Error; err != nil {
		httpx.Unauthorized(w)
		return user, false
	}
	return user, true
}

// Me returns the authenticated user's own record.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

// UpdateMe applies a partial update to the authenticated user. Privilege
// flags are not updatable here and ownership fields do not exist on users.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	var input struct {
		Email    *string `json:"email"`
		Name     *string `json:"name"`
		Username *string `json:"username"`
		Password *string `json:"password"`
	}
	if !httpx.Decode(w, r, &input) {
		return
	}

	v := validation.Violations{}
	if input.Email != nil {
		trimmed := strings.TrimSpace(*input.Email)
		validation.Required("email", trimmed, v)
		if _, bad := v["email"]; !bad {
			validation.Email("email", trimmed, v)
		}
		user.Email = trimmed
	}
	if input.Password != nil {
		validation.MinLen("password", *input.Password, minPasswordLen, v)
	}
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Username != nil {
		user.Username = *input.Username
	}
	if input.Password != nil {
		hash, err := auth.HashPassword(*input.Password)
		if err != nil {
			httpx.JSONError(w, http.StatusInternalServerError, "user_update_failed", nil)
			return
		}
		user.Password = hash
	}
	if err := h.DB.Save(&user).Error; err != nil {
		if isDuplicateErr(err) {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", validation.Violations{"email": "already_exists"})
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "user_update_failed", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}
