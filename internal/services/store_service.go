// internal/services/store_service.go
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dealboard/dealboard-backend/internal/models"
	"github.com/dealboard/dealboard-backend/internal/utils"
)

type StoreService struct {
	db *gorm.DB
}

type CreateStoreRequest struct {
	Name    string `json:"name" validate:"required,min=2,max=100"`
	Website string `json:"website" validate:"omitempty,url"`
	Logo    string `json:"logo"`
}

func NewStoreService(db *gorm.DB) *StoreService {
	return &StoreService{db: db}
}

func (s *StoreService) ListStores() ([]models.Store, error) {
	var stores []models.Store
	if err := s.db.Order("name ASC").Find(&stores).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch stores: %w", err)
	}
	return stores, nil
}

func (s *StoreService) GetStore(idOrSlug string) (*models.Store, error) {
	var store models.Store
	query := s.db

	if id, err := uuid.Parse(idOrSlug); err == nil {
		err = query.First(&store, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStoreNotFound
		}
		return &store, err
	}

	err := query.Where("slug = ?", idOrSlug).First(&store).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrStoreNotFound
	}
	return &store, err
}

func (s *StoreService) CreateStore(req *CreateStoreRequest) (*models.Store, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	name := strings.TrimSpace(req.Name)

	var existing models.Store
	if err := s.db.Where("LOWER(name) = ?", strings.ToLower(name)).First(&existing).Error; err == nil {
		return nil, errors.New("store with this name already exists")
	}

	store := &models.Store{
		Name:    name,
		Slug:    utils.Slugify(name),
		Website: req.Website,
		Logo:    req.Logo,
	}

	if err := s.db.Create(store).Error; err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}
	return store, nil
}
