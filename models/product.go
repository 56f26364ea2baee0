package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Product struct {
	ID            uint                       `gorm:"primaryKey;autoIncrement" json:"id"`
	Name          string                     `gorm:"not null;size:200" json:"name"`
	Slug          string                     `gorm:"uniqueIndex;not null;size:220" json:"slug"`
	Description   string                     `gorm:"type:text" json:"description"`
	Price         decimal.Decimal            `gorm:"type:decimal(12,2);not null" json:"price"`
	Stock         int                        `gorm:"not null;default:0" json:"stock"`
	Images        datatypes.JSONSlice[string] `json:"images"`
	Featured      bool                       `gorm:"default:false;index" json:"featured"`
	VendorID      string                     `gorm:"size:36;index;not null" json:"vendor_id"`
	Vendor        *User                      `gorm:"foreignKey:VendorID;constraint:OnDelete:CASCADE" json:"-"`
	BrandID       *uint                      `gorm:"index" json:"brand_id"`
	Brand         *Brand                     `gorm:"constraint:OnDelete:SET NULL" json:"brand,omitempty"`
	Categories    []Category                 `gorm:"many2many:product_categories;constraint:OnDelete:CASCADE" json:"categories,omitempty"`
	AverageRating float64                    `gorm:"default:0" json:"average_rating"`
	RatingCount   int                        `gorm:"default:0" json:"rating_count"`
	CreatedAt     time.Time                  `json:"created_at"`
	UpdatedAt     time.Time                  `json:"updated_at"`
	DeletedAt     gorm.DeletedAt             `gorm:"index" json:"-"`
}

// ProductView is a product together with the public fields of its vendor.
type ProductView struct {
	Product
	VendorInfo *PublicUser `json:"vendor,omitempty"`
}

func (p Product) View() ProductView {
	v := ProductView{Product: p}
	if p.Vendor != nil {
		pub := p.Vendor.Public()
		v.VendorInfo = &pub
	}
	return v
}
