package handlers

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/diewo77/smartstore/auth"
	"github.com/diewo77/smartstore/internal/models"
	"github.com/diewo77/smartstore/internal/services"
	"github.com/diewo77/smartstore/internal/storage"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Use a unique in-memory database per test to avoid cross-test collisions.
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	dbi, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := dbi.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return dbi
}

func createTestUser(t *testing.T, dbi *gorm.DB, email string) models.User {
	t.Helper()
	u := models.User{Email: email, Password: "hash", Name: "Test User"}
	if err := dbi.Create(&u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func createTestPhone(t *testing.T, dbi *gorm.DB, owner models.User, name string) models.Smartphone {
	t.Helper()
	p := models.Smartphone{UserID: owner.ID, Name: name, Price: 100.00}
	if err := dbi.Create(&p).Error; err != nil {
		t.Fatalf("create phone: %v", err)
	}
	return p
}

// testRouter mounts the handlers without the token middleware; tests inject
// the authenticated user directly into the request context.
func testRouter(t *testing.T, dbi *gorm.DB) (http.Handler, *storage.Store) {
	t.Helper()
	store, err := storage.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	svc := services.NewSmartphoneService(dbi)
	sh := NewSmartphoneHandler(dbi, svc, store)
	th := NewTagHandler(dbi, svc)
	ih := NewImageHandler(dbi, store)

	r := chi.NewRouter()
	r.Route("/smartphones", func(r chi.Router) {
		r.Get("/", sh.List)
		r.Post("/", sh.Create)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", sh.Detail)
			r.Put("/", sh.Update)
			r.Patch("/", sh.Update)
			r.Delete("/", sh.Delete)
			r.Post("/upload-image", sh.UploadImage)
			r.Post("/upload-video", sh.UploadVideo)
		})
	})
	r.Route("/tags", func(r chi.Router) {
		r.Get("/", th.List)
		r.Post("/", th.Create)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", th.Detail)
			r.Patch("/", th.Update)
			r.Delete("/", th.Delete)
		})
	})
	r.Route("/smartphone-images", func(r chi.Router) {
		r.Get("/", ih.List)
		r.Post("/", ih.Create)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", ih.Detail)
			r.Patch("/", ih.Update)
			r.Delete("/", ih.Delete)
		})
	})
	return r, store
}

// do performs a request as the given user and returns the recorder.
func do(t *testing.T, h http.Handler, user models.User, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req = req.WithContext(auth.WithUserID(req.Context(), user.ID))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

// multipartBody builds a single-file multipart payload.
func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func doMultipart(t *testing.T, h http.Handler, user models.User, target, field, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	body, ctype := multipartBody(t, field, filename, content)
	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", ctype)
	req = req.WithContext(auth.WithUserID(req.Context(), user.ID))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}
