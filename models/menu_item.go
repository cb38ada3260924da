package models

import "time"

type MenuItem struct {
	ItemID      uint      `json:"item_id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"size:120;not null"`
	Description string    `json:"description" gorm:"type:text"`
	Price       float64   `json:"price" gorm:"type:numeric(10,2);not null"`
	Category    string    `json:"category" gorm:"size:60;not null"` // free text, no category table
	Available   bool      `json:"available" gorm:"not null;default:true"`
	ImageURL    string    `json:"image_url" gorm:"size:255"`
	StockQty    int       `json:"stock_qty" gorm:"not null;default:0"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
