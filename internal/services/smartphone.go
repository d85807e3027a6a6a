// Package services holds the write-side logic shared by the smartphone and
// image handlers: nested tag and image association with get-or-create
// semantics.
package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/diewo77/smartstore/internal/models"
)

// ErrUnknownImage is returned when a nested image reference points at an id
// the owner cannot see. Handlers surface it as a field violation.
var ErrUnknownImage = errors.New("unknown image reference")

type TagInput struct {
	Name string `json:"name"`
}

// ImageInput either references an existing owned image record by id or
// carries a storage path for a record to create inline.
type ImageInput struct {
	ID    uint   `json:"id,omitempty"`
	Image string `json:"image,omitempty"`
}

type SmartphoneService struct {
	DB *gorm.DB
}

func NewSmartphoneService(db *gorm.DB) *SmartphoneService {
	return &SmartphoneService{DB: db}
}

func isDuplicateErr(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique")
}

// GetOrCreateTag returns the owner's tag with the given name, creating it on
// miss. The (user_id, name) unique index settles the create race: the loser
// of two concurrent creates re-reads the winner's row.
func (s *SmartphoneService) GetOrCreateTag(ownerID uint, name string) (models.Tag, error) {
	var tag models.Tag
	err := s.DB.Where("user_id = ? AND name = ?", ownerID, name).First(&tag).Error
	if err == nil {
		return tag, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return tag, err
	}
	tag = models.Tag{UserID: ownerID, Name: name}
	if err := s.DB.Create(&tag).Error; err != nil {
		if isDuplicateErr(err) {
			var existing models.Tag
			if ferr := s.DB.Where("user_id = ? AND name = ?", ownerID, name).First(&existing).Error; ferr == nil {
				return existing, nil
			}
		}
		return tag, err
	}
	return tag, nil
}

// applyTags associates each named tag with the target, creating missing tags
// for the owner. Repeated names in the input collapse to one association.
func (s *SmartphoneService) applyTags(target *models.Smartphone, ownerID uint, inputs []TagInput) error {
	seen := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		name := strings.TrimSpace(in.Name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		tag, err := s.GetOrCreateTag(ownerID, name)
		if err != nil {
			return err
		}
		if err := s.DB.Model(target).Association("Tags").Append(&tag); err != nil {
			return err
		}
	}
	return nil
}

// SetTags implements the three-state update contract: a nil slice pointer
// leaves existing associations alone, an empty slice clears them, and a
// populated slice replaces the full set. Detached tags are not deleted,
// only the join rows go away.
func (s *SmartphoneService) SetTags(target *models.Smartphone, ownerID uint, inputs *[]TagInput) error {
	if inputs == nil {
		return nil
	}
	if err := s.DB.Model(target).Association("Tags").Clear(); err != nil {
		return err
	}
	target.Tags = nil
	return s.applyTags(target, ownerID, *inputs)
}

// resolveImage turns an ImageInput into an owned SmartphoneImage row. Ids
// are looked up under the owner filter, so another user's image id reads as
// unknown.
func (s *SmartphoneService) resolveImage(ownerID uint, in ImageInput) (models.SmartphoneImage, error) {
	var img models.SmartphoneImage
	if in.ID != 0 {
		err := s.DB.Where("user_id = ?", ownerID).First(&img, in.ID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return img, ErrUnknownImage
		}
		return img, err
	}
	if strings.TrimSpace(in.Image) == "" {
		return img, ErrUnknownImage
	}
	img = models.SmartphoneImage{UserID: ownerID, Image: in.Image}
	return img, s.DB.Create(&img).Error
}

func (s *SmartphoneService) applyImages(target *models.Smartphone, ownerID uint, inputs []ImageInput) error {
	for _, in := range inputs {
		img, err := s.resolveImage(ownerID, in)
		if err != nil {
			return err
		}
		if err := s.DB.Model(target).Association("Images").Append(&img); err != nil {
			return err
		}
	}
	return nil
}

// SetImages mirrors SetTags for the image association.
func (s *SmartphoneService) SetImages(target *models.Smartphone, ownerID uint, inputs *[]ImageInput) error {
	if inputs == nil {
		return nil
	}
	if err := s.DB.Model(target).Association("Images").Clear(); err != nil {
		return err
	}
	target.Images = nil
	return s.applyImages(target, ownerID, *inputs)
}

// AttachImage creates an owned image record for path and links it to the
// target. Used by the multipart upload action.
func (s *SmartphoneService) AttachImage(target *models.Smartphone, ownerID uint, path string) (models.SmartphoneImage, error) {
	img := models.SmartphoneImage{UserID: ownerID, Image: path}
	if err := s.DB.Create(&img).Error; err != nil {
		return img, err
	}
	if err := s.DB.Model(target).Association("Images").Append(&img); err != nil {
		return img, err
	}
	return img, nil
}
