// internal/models/deal.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Deal struct {
	BaseModel
	AuthorID             uuid.UUID      `json:"author_id" gorm:"type:uuid;not null;index"`
	StoreID              uuid.UUID      `json:"store_id" gorm:"type:uuid;not null;index"`
	Slug                 string         `json:"slug" gorm:"uniqueIndex;size:255;not null"`
	Picture              string         `json:"picture" gorm:"size:512;not null"`
	DealTypes            pq.StringArray `json:"deal_types" gorm:"type:text[]"`
	ShortDescription     string         `json:"short_description" gorm:"uniqueIndex;size:255;not null"`
	OriginalPrice        float64        `json:"original_price" gorm:"type:decimal(10,2);not null"`
	DiscountPrice        float64        `json:"discount_price" gorm:"type:decimal(10,2);default:0"`
	PercentageOff        string         `json:"percentage_off" gorm:"size:10"`
	PurchaseLink         string         `json:"purchase_link" gorm:"uniqueIndex;size:512;not null"`
	Description          string         `json:"description" gorm:"type:text;not null"`
	Tags                 pq.StringArray `json:"tags" gorm:"type:text[]"`
	FlashDeal            bool           `json:"flash_deal" gorm:"default:false;index"`
	FlashDealExpireHours *float64       `json:"flash_deal_expire_hours" gorm:"type:decimal(6,2)"`
	Coupon               bool           `json:"coupon" gorm:"default:false"`
	Clearance            bool           `json:"clearance" gorm:"default:false"`
	DisableExpireAt      bool           `json:"disable_expire_at" gorm:"default:false"`
	HotTrend             bool           `json:"hot_trend" gorm:"default:false;index"`
	HolidayDeals         bool           `json:"holiday_deals" gorm:"default:false;index"`
	SeasonalDeals        bool           `json:"seasonal_deals" gorm:"default:false;index"`
	ExpireAt             *time.Time     `json:"expire_at" gorm:"index"`
	Status               DealStatus     `json:"status" gorm:"type:varchar(20);default:'pending';index"`

	// Relationships
	Author  User     `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
	Store   Store    `json:"store,omitempty" gorm:"foreignKey:StoreID"`
	Coupons []Coupon `json:"coupons,omitempty" gorm:"foreignKey:DealID"`
}

// DealTypeVocabulary is the checklist offered on the submission form.
// Stored values are free text[] so the vocabulary can grow without a
// migration.
var DealTypeVocabulary = []string{
	"online",
	"in_store",
	"freebie",
	"gift_card",
	"cashback",
	"price_error",
	"subscription",
	"refurbished",
}

// Expired reports whether a dated or flash deal has passed its expiry.
// Deals in disabled-expiry mode never expire.
func (d *Deal) Expired(now time.Time) bool {
	if d.ExpireAt == nil {
		return false
	}
	return d.ExpireAt.Before(now)
}
