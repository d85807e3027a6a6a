package handlers

import (
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/diewo77/smartstore/httpx"
	"github.com/diewo77/smartstore/internal/models"
	"github.com/diewo77/smartstore/internal/storage"
	"github.com/diewo77/smartstore/validation"
)

// ImageHandler manages standalone image records. Files attached to phones
// arrive through the smartphone upload action; this surface covers direct
// record CRUD, including multipart creation without a target phone.
type ImageHandler struct {
	DB    *gorm.DB
	Store *storage.Store
}

func NewImageHandler(db *gorm.DB, store *storage.Store) *ImageHandler {
	return &ImageHandler{DB: db, Store: store}
}

func (h *ImageHandler) fetchOwned(w http.ResponseWriter, r *http.Request, uid uint) (*models.SmartphoneImage, bool) {
	id, ok := pathID(w, r)
	if !ok {
		return nil, false
	}
	var img models.SmartphoneImage
	err := h.DB.Where("user_id = ?", uid).First(&img, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.NotFound(w)
		} else {
			httpx.JSONError(w, http.StatusInternalServerError, "image_fetch_failed", nil)
		}
		return nil, false
	}
	return &img, true
}

func (h *ImageHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	var images []models.SmartphoneImage
	if err := h.DB.Where("user_id = ?", uid).Order("id desc").Find(&images).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "image_list_failed", nil)
		return
	}
	if images == nil {
		images = []models.SmartphoneImage{}
	}
	httpx.JSON(w, http.StatusOK, images)
}

// Create accepts either a multipart upload (field "image") or a JSON body
// referencing an already stored path.
func (h *ImageHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_multipart", nil)
			return
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", validation.Violations{"image": "required"})
			return
		}
		defer file.Close()
		path, err := h.Store.Save(header.Filename, file)
		if err != nil {
			httpx.JSONError(w, http.StatusInternalServerError, "image_store_failed", nil)
			return
		}
		img := models.SmartphoneImage{UserID: uid, Image: path}
		if err := h.DB.Create(&img).Error; err != nil {
			httpx.JSONError(w, http.StatusInternalServerError, "image_create_failed", nil)
			return
		}
		httpx.JSON(w, http.StatusCreated, img)
		return
	}

	var input struct {
		Image string `json:"image"`
	}
	if !httpx.Decode(w, r, &input) {
		return
	}
	v := validation.Violations{}
	validation.Required("image", input.Image, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	img := models.SmartphoneImage{UserID: uid, Image: input.Image}
	if err := h.DB.Create(&img).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "image_create_failed", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, img)
}

func (h *ImageHandler) Detail(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	img, ok := h.fetchOwned(w, r, uid)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, img)
}

// Update repoints the record at a different stored path. The old file is
// left in place: other records may still reference it.
func (h *ImageHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	img, ok := h.fetchOwned(w, r, uid)
	if !ok {
		return
	}
	var input struct {
		Image string `json:"image"`
	}
	if !httpx.Decode(w, r, &input) {
		return
	}
	v := validation.Violations{}
	validation.Required("image", input.Image, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	if err := h.DB.Model(img).Update("image", input.Image).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "image_update_failed", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, img)
}

// Delete removes the record, its phone associations, and the stored file.
func (h *ImageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	img, ok := h.fetchOwned(w, r, uid)
	if !ok {
		return
	}
	if err := h.DB.Exec("DELETE FROM smartphone_image_links WHERE smartphone_image_id = ?", img.ID).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "image_delete_failed", nil)
		return
	}
	if err := h.DB.Delete(img).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "image_delete_failed", nil)
		return
	}
	_ = h.Store.Remove(img.Image)
	w.WriteHeader(http.StatusNoContent)
}
