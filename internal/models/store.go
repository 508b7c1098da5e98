// internal/models/store.go
package models

type Store struct {
	BaseModel
	Name    string `json:"name" gorm:"uniqueIndex;size:255;not null"`
	Slug    string `json:"slug" gorm:"uniqueIndex;size:255;not null"`
	Website string `json:"website" gorm:"size:512"`
	Logo    string `json:"logo" gorm:"size:512"`

	// Relationships
	Deals []Deal `json:"deals,omitempty" gorm:"foreignKey:StoreID"`
}
