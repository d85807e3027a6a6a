package handlers

import (
	"errors"
	"net/http"

	"gorm.io/gorm"

	"github.com/diewo77/smartstore/httpx"
	"github.com/diewo77/smartstore/internal/models"
	"github.com/diewo77/smartstore/internal/services"
	"github.com/diewo77/smartstore/internal/storage"
	"github.com/diewo77/smartstore/validation"
)

// uploads are small media files; this bounds the multipart memory buffer
const maxUploadMemory = 32 << 20

type SmartphoneHandler struct {
	DB    *gorm.DB
	Svc   *services.SmartphoneService
	Store *storage.Store
}

func NewSmartphoneHandler(db *gorm.DB, svc *services.SmartphoneService, store *storage.Store) *SmartphoneHandler {
	return &SmartphoneHandler{DB: db, Svc: svc, Store: store}
}

// smartphoneInput is the write payload. Tags and Images are pointers so an
// absent field, an empty list, and a populated list stay distinguishable.
type smartphoneInput struct {
	Name        *string                `json:"name"`
	Price       *float64               `json:"price"`
	Description *string                `json:"description"`
	Tags        *[]services.TagInput   `json:"tags"`
	Images      *[]services.ImageInput `json:"images"`
}

// scoped returns the base query with the ownership predicate applied. Every
// read and write goes through this, so foreign rows never surface.
func (h *SmartphoneHandler) scoped(uid uint) *gorm.DB {
	return h.DB.Where("smartphones.user_id = ?", uid)
}

func (h *SmartphoneHandler) fetchOwned(w http.ResponseWriter, r *http.Request, uid uint) (*models.Smartphone, bool) {
	id, ok := pathID(w, r)
	if !ok {
		return nil, false
	}
	var phone models.Smartphone
	err := h.scoped(uid).Preload("Tags").Preload("Images").First(&phone, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.NotFound(w)
		} else {
			httpx.JSONError(w, http.StatusInternalServerError, "smartphone_fetch_failed", nil)
		}
		return nil, false
	}
	return &phone, true
}

// List returns the owner's smartphones, most recent first. The optional
// ?tags=1,2 filter keeps phones carrying any of the given tags, each once.
func (h *SmartphoneHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	q := h.scoped(uid).Preload("Tags").Preload("Images").Order("smartphones.id desc")
	if raw := r.URL.Query().Get("tags"); raw != "" {
		ids, err := parseIDList(raw)
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", validation.Violations{"tags": "invalid_id_list"})
			return
		}
		q = q.Joins("JOIN smartphone_tags ON smartphone_tags.smartphone_id = smartphones.id").
			Where("smartphone_tags.tag_id IN ?", ids).
			Distinct("smartphones.*")
	}
	var phones []models.Smartphone
	if err := q.Find(&phones).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "smartphone_list_failed", nil)
		return
	}
	if phones == nil {
		phones = []models.Smartphone{}
	}
	httpx.JSON(w, http.StatusOK, phones)
}

func validatePhone(name *string, price *float64, requireAll bool) validation.Violations {
	v := validation.Violations{}
	if name != nil {
		validation.Required("name", *name, v)
	} else if requireAll {
		v["name"] = "required"
	}
	if price != nil {
		validation.Price("price", *price, v)
	} else if requireAll {
		v["price"] = "required"
	}
	return v
}

func (h *SmartphoneHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	var input smartphoneInput
	if !httpx.Decode(w, r, &input) {
		return
	}
	if v := validatePhone(input.Name, input.Price, true); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	phone := models.Smartphone{UserID: uid, Name: *input.Name, Price: *input.Price}
	if input.Description != nil {
		phone.Description = *input.Description
	}
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&phone).Error; err != nil {
			return err
		}
		return applyNested(tx, &phone, uid, input.Tags, input.Images)
	})
	if err != nil {
		writeNestedError(w, err, "smartphone_create_failed")
		return
	}
	h.respondWith(w, http.StatusCreated, uid, phone.ID)
}

// applyNested runs the tag and image association writes inside the caller's
// transaction, so a bad nested reference rolls back the whole write.
func applyNested(tx *gorm.DB, phone *models.Smartphone, uid uint, tags *[]services.TagInput, images *[]services.ImageInput) error {
	svc := services.NewSmartphoneService(tx)
	if err := svc.SetTags(phone, uid, tags); err != nil {
		return err
	}
	return svc.SetImages(phone, uid, images)
}

func writeNestedError(w http.ResponseWriter, err error, code string) {
	if errors.Is(err, services.ErrUnknownImage) {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", validation.Violations{"images": "unknown_image"})
		return
	}
	httpx.JSONError(w, http.StatusInternalServerError, code, nil)
}

// respondWith re-reads the record with associations so the response reflects
// exactly what was persisted.
func (h *SmartphoneHandler) respondWith(w http.ResponseWriter, status int, uid, id uint) {
	var phone models.Smartphone
	if err := h.scoped(uid).Preload("Tags").Preload("Images").First(&phone, id).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "smartphone_fetch_failed", nil)
		return
	}
	httpx.JSON(w, status, phone)
}

func (h *SmartphoneHandler) Detail(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	phone, ok := h.fetchOwned(w, r, uid)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, phone)
}

// Update handles PUT (full replace, all writable fields required) and PATCH
// (partial). An omitted tags/images field keeps the current associations; an
// empty list clears them. A user field in the payload is ignored: ownership
// never changes after creation.
func (h *SmartphoneHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	phone, ok := h.fetchOwned(w, r, uid)
	if !ok {
		return
	}
	var input smartphoneInput
	if !httpx.Decode(w, r, &input) {
		return
	}
	full := r.Method == http.MethodPut
	if v := validatePhone(input.Name, input.Price, full); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	if input.Name != nil {
		phone.Name = *input.Name
	}
	if input.Price != nil {
		phone.Price = *input.Price
	}
	if input.Description != nil {
		phone.Description = *input.Description
	} else if full {
		phone.Description = ""
	}
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(phone).Updates(map[string]any{
			"name": phone.Name, "price": phone.Price, "description": phone.Description,
		}).Error; err != nil {
			return err
		}
		return applyNested(tx, phone, uid, input.Tags, input.Images)
	})
	if err != nil {
		writeNestedError(w, err, "smartphone_update_failed")
		return
	}
	h.respondWith(w, http.StatusOK, uid, phone.ID)
}

func (h *SmartphoneHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	phone, ok := h.fetchOwned(w, r, uid)
	if !ok {
		return
	}
	// drop join rows first; tag and image records outlive the phone
	if err := h.DB.Model(phone).Association("Tags").Clear(); err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "smartphone_delete_failed", nil)
		return
	}
	if err := h.DB.Model(phone).Association("Images").Clear(); err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "smartphone_delete_failed", nil)
		return
	}
	if err := h.DB.Delete(phone).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "smartphone_delete_failed", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadImage accepts a single multipart image, stores it under a derived
// path, and links the new image record to the phone.
func (h *SmartphoneHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	phone, ok := h.fetchOwned(w, r, uid)
	if !ok {
		return
	}
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
	img, err := h.Svc.AttachImage(phone, uid, path)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "image_attach_failed", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, img)
}

// UploadVideo sets the phone's single video file from a multipart payload.
func (h *SmartphoneHandler) UploadVideo(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	phone, ok := h.fetchOwned(w, r, uid)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_multipart", nil)
		return
	}
	file, header, err := r.FormFile("video")
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", validation.Violations{"video": "required"})
		return
	}
	defer file.Close()
	path, err := h.Store.Save(header.Filename, file)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "video_store_failed", nil)
		return
	}
	old := phone.Video
	if err := h.DB.Model(phone).Update("video", path).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "video_update_failed", nil)
		return
	}
	if old != "" {
		_ = h.Store.Remove(old)
	}
	h.respondWith(w, http.StatusOK, uid, phone.ID)
}
