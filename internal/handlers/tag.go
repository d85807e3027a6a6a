package handlers

import (
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/diewo77/smartstore/httpx"
	"github.com/diewo77/smartstore/internal/models"
	"github.com/diewo77/smartstore/internal/services"
	"github.com/diewo77/smartstore/validation"
)

type TagHandler struct {
	DB  *gorm.DB
	Svc *services.SmartphoneService
}

func NewTagHandler(db *gorm.DB, svc *services.SmartphoneService) *TagHandler {
	return &TagHandler{DB: db, Svc: svc}
}

func (h *TagHandler) fetchOwned(w http.ResponseWriter, r *http.Request, uid uint) (*models.Tag, bool) {
	id, ok := pathID(w, r)
	if !ok {
		return nil, false
	}
	var tag models.Tag
	err := h.DB.Where("user_id = ?", uid).First(&tag, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.NotFound(w)
		} else {
			httpx.JSONError(w, http.StatusInternalServerError, "tag_fetch_failed", nil)
		}
		return nil, false
	}
	return &tag, true
}

// List returns the owner's tags ordered by name descending.
func (h *TagHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	var tags []models.Tag
	if err := h.DB.Where("user_id = ?", uid).Order("name desc").Find(&tags).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "tag_list_failed", nil)
		return
	}
	if tags == nil {
		tags = []models.Tag{}
	}
	httpx.JSON(w, http.StatusOK, tags)
}

// Create makes (or re-finds) the owner's tag with the given name; posting an
// existing name yields the existing row rather than a constraint error.
func (h *TagHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	var input struct {
		Name string `json:"name"`
	}
	if !httpx.Decode(w, r, &input) {
		return
	}
	v := validation.Violations{}
	validation.Required("name", input.Name, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	tag, err := h.Svc.GetOrCreateTag(uid, strings.TrimSpace(input.Name))
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "tag_create_failed", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, tag)
}

func (h *TagHandler) Detail(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	tag, ok := h.fetchOwned(w, r, uid)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, tag)
}

// Update renames a tag. Renaming onto another existing tag of the same owner
// violates the per-owner unique name and is a client error.
func (h *TagHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	tag, ok := h.fetchOwned(w, r, uid)
	if !ok {
		return
	}
	var input struct {
		Name string `json:"name"`
	}
	if !httpx.Decode(w, r, &input) {
		return
	}
	v := validation.Violations{}
	validation.Required("name", input.Name, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	if err := h.DB.Model(tag).Update("name", strings.TrimSpace(input.Name)).Error; err != nil {
		if isDuplicateErr(err) {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", validation.Violations{"name": "already_exists"})
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "tag_update_failed", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, tag)
}

// Delete removes the tag and its smartphone associations. The smartphones
// themselves are untouched.
func (h *TagHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	tag, ok := h.fetchOwned(w, r, uid)
	if !ok {
		return
	}
	if err := h.DB.Exec("DELETE FROM smartphone_tags WHERE tag_id = ?", tag.ID).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "tag_delete_failed", nil)
		return
	}
	if err := h.DB.Delete(tag).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "tag_delete_failed", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
