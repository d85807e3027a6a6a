package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/diewo77/smartstore/internal/models"
)

func TestImageCreateJSONAndList(t *testing.T) {
	dbi := setupTestDB(t)
	h, _ := testRouter(t, dbi)
	user := createTestUser(t, dbi, "u@example.com")

	rr := do(t, h, user, http.MethodPost, "/smartphone-images", `{"image":"uploads/smartphone/abc.jpg"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = do(t, h, user, http.MethodPost, "/smartphone-images", `{}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("missing image field: expected 400 got %d", rr.Code)
	}

	rr = do(t, h, user, http.MethodGet, "/smartphone-images", "")
	var images []models.SmartphoneImage
	if err := json.Unmarshal(rr.Body.Bytes(), &images); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(images) != 1 {
		t.Fatalf("expected 1 image got %d", len(images))
	}
}

func TestImageCreateMultipart(t *testing.T) {
	dbi := setupTestDB(t)
	h, _ := testRouter(t, dbi)
	user := createTestUser(t, dbi, "u@example.com")

	rr := doMultipart(t, h, user, "/smartphone-images", "image", "shot.png", "file_content")
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", rr.Code, rr.Body.String())
	}
	var img models.SmartphoneImage
	if err := json.Unmarshal(rr.Body.Bytes(), &img); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Image == "" || img.Image == "shot.png" {
		t.Fatalf("expected derived path, got %q", img.Image)
	}
}

func TestImageUpdate(t *testing.T) {
	dbi := setupTestDB(t)
	h, _ := testRouter(t, dbi)
	user := createTestUser(t, dbi, "u@example.com")

	img := models.SmartphoneImage{UserID: user.ID, Image: "uploads/smartphone/old.jpg"}
	if err := dbi.Create(&img).Error; err != nil {
		t.Fatalf("image: %v", err)
	}

	rr := do(t, h, user, http.MethodPatch, fmt.Sprintf("/smartphone-images/%d", img.ID), `{"image":"uploads/smartphone/new.jpg"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", rr.Code, rr.Body.String())
	}
	var stored models.SmartphoneImage
	if err := dbi.First(&stored, img.ID).Error; err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if stored.Image != "uploads/smartphone/new.jpg" {
		t.Fatalf("not updated: %s", stored.Image)
	}

	rr = do(t, h, user, http.MethodPatch, fmt.Sprintf("/smartphone-images/%d", img.ID), `{"image":""}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("empty path: expected 400 got %d", rr.Code)
	}
}

func TestImageOwnerIsolation(t *testing.T) {
	dbi := setupTestDB(t)
	h, _ := testRouter(t, dbi)
	owner := createTestUser(t, dbi, "owner@example.com")
	stranger := createTestUser(t, dbi, "stranger@example.com")

	img := models.SmartphoneImage{UserID: owner.ID, Image: "uploads/smartphone/a.jpg"}
	if err := dbi.Create(&img).Error; err != nil {
		t.Fatalf("image: %v", err)
	}

	rr := do(t, h, stranger, http.MethodGet, fmt.Sprintf("/smartphone-images/%d", img.ID), "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("foreign detail: expected 404 got %d", rr.Code)
	}
	rr = do(t, h, stranger, http.MethodDelete, fmt.Sprintf("/smartphone-images/%d", img.ID), "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("foreign delete: expected 404 got %d", rr.Code)
	}
	rr = do(t, h, owner, http.MethodGet, fmt.Sprintf("/smartphone-images/%d", img.ID), "")
	if rr.Code != http.StatusOK {
		t.Fatalf("owner detail: expected 200 got %d", rr.Code)
	}
}

func TestImageDeleteRemovesFileAndLinks(t *testing.T) {
	dbi := setupTestDB(t)
	h, store := testRouter(t, dbi)
	user := createTestUser(t, dbi, "u@example.com")
	phone := createTestPhone(t, dbi, user, "Phone")

	// upload through the phone action so a join row and a file exist
	rr := doMultipart(t, h, user, fmt.Sprintf("/smartphones/%d/upload-image", phone.ID), "image", "a.jpg", "file_content")
	if rr.Code != http.StatusOK {
		t.Fatalf("upload: expected 200 got %d", rr.Code)
	}
	var img models.SmartphoneImage
	if err := json.Unmarshal(rr.Body.Bytes(), &img); err != nil {
		t.Fatalf("decode: %v", err)
	}

	rr = do(t, h, user, http.MethodDelete, fmt.Sprintf("/smartphone-images/%d", img.ID), "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204 got %d", rr.Code)
	}

	// association gone from the phone
	rr = do(t, h, user, http.MethodGet, fmt.Sprintf("/smartphones/%d", phone.ID), "")
	if got := decodePhone(t, rr.Body.Bytes()); len(got.Images) != 0 {
		t.Fatalf("join row survived: %d", len(got.Images))
	}

	// stored file is gone too; Remove tolerates a missing file, so a second
	// remove succeeding is the observable signal
	if err := store.Remove(img.Image); err != nil {
		t.Fatalf("remove after delete should be a no-op: %v", err)
	}
}
