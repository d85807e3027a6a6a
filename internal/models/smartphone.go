package models

import "time"

// Catalog domain models. Every row carries its owner; queries must filter on
// UserID so records of other users stay invisible (they read as not-found,
// never as forbidden).

type Tag struct {
	ID uint `gorm:"primaryKey" json:"id"`
	// One tag name per owner; the index backs the get-or-create lookup and
	// settles the create race between concurrent requests.
	UserID    uint      `gorm:"not null;uniqueIndex:idx_tag_owner_name,priority:1" json:"-"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Name      string    `gorm:"size:255;not null;uniqueIndex:idx_tag_owner_name,priority:2" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Smartphone struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"not null;index" json:"user_id"`
	User   User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`

	Name        string  `gorm:"size:255;not null" json:"name"`
	Price       float64 `gorm:"not null" json:"price"` // bounded to 5 digits / 2 decimals at validation
	Description string  `gorm:"type:text" json:"description"`
	Video       string  `gorm:"size:255" json:"video,omitempty"`

	Tags   []Tag             `gorm:"many2many:smartphone_tags" json:"tags"`
	Images []SmartphoneImage `gorm:"many2many:smartphone_image_links" json:"images"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type SmartphoneImage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"-"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Image     string    `gorm:"size:255;not null" json:"image"`
	CreatedAt time.Time `json:"created_at"`
}

// All returns every model registered for migration, dependency-ordered.
func All() []any {
	return []any{&User{}, &AuthToken{}, &Tag{}, &SmartphoneImage{}, &Smartphone{}}
}
