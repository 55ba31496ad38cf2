// Package entity defines the domain models for the symbollist feature.
package entity

import "time"

// Symbol is a ticker tracked by the gateway. Active symbols are listed by
// GET /symbols and prefetched by the cache warmer in SortKey order.
type Symbol struct {
	ID        uint      `gorm:"primaryKey"`
	Code      string    `gorm:"size:20;not null;uniqueIndex"`
	Name      string    `gorm:"size:255;not null;default:''"`
	Exchange  string    `gorm:"size:100;not null;default:''"`
	IsActive  bool      `gorm:"not null;default:true"`
	SortKey   int       `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}
