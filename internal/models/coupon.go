// internal/models/coupon.go
package models

import (
	"github.com/google/uuid"
)

// Coupon is owned by exactly one deal. Replacing a deal's coupon set
// deletes the old rows and inserts new ones rather than diffing.
type Coupon struct {
	BaseModel
	DealID  uuid.UUID `json:"deal_id" gorm:"type:uuid;not null;index"`
	Code    string    `json:"code" gorm:"size:100;not null"`
	Comment string    `json:"comment" gorm:"type:text"`
}
