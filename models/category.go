package models

import "time"

type Category struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"uniqueIndex;not null;size:100" json:"name"`
	Slug        string    `gorm:"uniqueIndex;not null;size:120" json:"slug"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	Products    []Product `gorm:"many2many:product_categories" json:"products,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Brand struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"uniqueIndex;not null;size:100" json:"name"`
	Slug        string    `gorm:"uniqueIndex;not null;size:120" json:"slug"`
	Description string    `json:"description"`
	Logo        string    `json:"logo"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
