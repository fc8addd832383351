package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	catalogerrors "masterbook/internal/catalog/errors"
	"masterbook/internal/catalog/repository"
	"masterbook/internal/catalog/validator"
	"masterbook/pkg/config"
	apperrors "masterbook/pkg/errors"
	"masterbook/pkg/model"
	"masterbook/pkg/sanitizer"
)

// OrderCounter is the slice of the orders repository the delete guard
// needs.
type OrderCounter interface {
	CountOpenByService(ctx context.Context, serviceID string) (int64, error)
}

type ServiceInput struct {
	CategoryID  string  `json:"category_id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

type CatalogService interface {
	CreateCategory(ctx context.Context, actor *model.User, name string) (*model.Category, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	GetCategory(ctx context.Context, id string) (*model.Category, error)
	UpdateCategory(ctx context.Context, actor *model.User, id, name string) (*model.Category, error)
	DeleteCategory(ctx context.Context, actor *model.User, id string) error

	CreateService(ctx context.Context, actor *model.User, in ServiceInput) (*model.Service, error)
	GetServiceDetails(ctx context.Context, id string) (*model.ServiceDetails, error)
	ListServices(ctx context.Context, filter repository.ServiceFilter) ([]model.ServiceDetails, int64, error)
	UpdateService(ctx context.Context, actor *model.User, id string, in ServiceInput) (*model.Service, error)
	DeleteService(ctx context.Context, actor *model.User, id string) error
}

type catalogService struct {
	repo      repository.Repository
	orders    OrderCounter
	validator *validator.CatalogValidator
	cfg       *config.Config
	now       func() time.Time
}

func NewCatalogService(
	repo repository.Repository,
	orders OrderCounter,
	validator *validator.CatalogValidator,
	cfg *config.Config,
) CatalogService {
	return &catalogService{
		repo:      repo,
		orders:    orders,
		validator: validator,
		cfg:       cfg,
		now:       time.Now,
	}
}

func requireMaster(actor *model.User) error {
	if actor == nil || actor.Role != model.RoleMaster {
		return apperrors.Forbidden("Only masters can manage the catalog")
	}
	return nil
}

func (s *catalogService) CreateCategory(ctx context.Context, actor *model.User, name string) (*model.Category, error) {
	if err := requireMaster(actor); err != nil {
		return nil, err
	}

	category := &model.Category{
		ID:        uuid.NewString(),
		Name:      sanitizer.NormalizeName(name),
		CreatedAt: s.now().UTC(),
	}
	if err := s.validator.ValidateCategory(category); err != nil {
		return nil, apperrors.Validation("Category validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.repo.CreateCategory(ctx, category); err != nil {
		if errors.Is(err, catalogerrors.ErrCategoryNameTaken) {
			return nil, apperrors.Conflict("A category with this name already exists")
		}
		s.cfg.Log.Error("Failed to create category", "name", category.Name, "error", err)
		return nil, apperrors.Internal("Failed to create category", err)
	}

	s.cfg.Log.Info("Category created", "category_id", category.ID, "name", category.Name)
	return category, nil
}

func (s *catalogService) ListCategories(ctx context.Context) ([]model.Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to list categories", "error", err)
		return nil, apperrors.Internal("Failed to list categories", err)
	}
	if categories == nil {
		categories = []model.Category{}
	}
	return categories, nil
}

func (s *catalogService) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Category ID cannot be empty")
	}

	category, err := s.repo.GetCategoryByID(ctx, id)
	if err != nil {
		if errors.Is(err, catalogerrors.ErrCategoryNotFound) {
			return nil, apperrors.NotFoundWithID("Category", id)
		}
		s.cfg.Log.Error("Failed to get category", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve category", err)
	}
	return category, nil
}

func (s *catalogService) UpdateCategory(ctx context.Context, actor *model.User, id, name string) (*model.Category, error) {
	if err := requireMaster(actor); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, apperrors.InvalidInput("Category ID cannot be empty")
	}

	category := &model.Category{ID: id, Name: sanitizer.NormalizeName(name)}
	if err := s.validator.ValidateCategory(category); err != nil {
		return nil, apperrors.Validation("Category validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.repo.UpdateCategory(ctx, category); err != nil {
		switch {
		case errors.Is(err, catalogerrors.ErrCategoryNotFound):
			return nil, apperrors.NotFoundWithID("Category", id)
		case errors.Is(err, catalogerrors.ErrCategoryNameTaken):
			return nil, apperrors.Conflict("A category with this name already exists")
		}
		s.cfg.Log.Error("Failed to update category", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to update category", err)
	}
	return category, nil
}

// DeleteCategory refuses to delete a category still carrying services;
// the services must be moved or removed first.
func (s *catalogService) DeleteCategory(ctx context.Context, actor *model.User, id string) error {
	if err := requireMaster(actor); err != nil {
		return err
	}
	if id == "" {
		return apperrors.InvalidInput("Category ID cannot be empty")
	}

	count, err := s.repo.CountServicesByCategory(ctx, id)
	if err != nil {
		s.cfg.Log.Error("Failed to count services for category", "id", id, "error", err)
		return apperrors.Internal("Failed to delete category", err)
	}
	if count > 0 {
		return apperrors.Conflict("Cannot delete a category that still has services")
	}

	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		if errors.Is(err, catalogerrors.ErrCategoryNotFound) {
			return apperrors.NotFoundWithID("Category", id)
		}
		s.cfg.Log.Error("Failed to delete category", "id", id, "error", err)
		return apperrors.Internal("Failed to delete category", err)
	}

	s.cfg.Log.Info("Category deleted", "category_id", id)
	return nil
}

func (s *catalogService) CreateService(ctx context.Context, actor *model.User, in ServiceInput) (*model.Service, error) {
	if err := requireMaster(actor); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetCategoryByID(ctx, in.CategoryID); err != nil {
		if errors.Is(err, catalogerrors.ErrCategoryNotFound) {
			return nil, apperrors.InvalidInput("Referenced category does not exist")
		}
		s.cfg.Log.Error("Failed to resolve category", "category_id", in.CategoryID, "error", err)
		return nil, apperrors.Internal("Failed to resolve category", err)
	}

	svc := &model.Service{
		ID:          uuid.NewString(),
		MasterID:    actor.ID,
		CategoryID:  in.CategoryID,
		Title:       sanitizer.NormalizeTitle(in.Title),
		Description: sanitizer.NormalizeComment(in.Description),
		Price:       in.Price,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.validator.ValidateService(svc); err != nil {
		return nil, apperrors.Validation("Service validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.repo.CreateService(ctx, svc); err != nil {
		s.cfg.Log.Error("Failed to create service", "master_id", actor.ID, "error", err)
		return nil, apperrors.Internal("Failed to create service", err)
	}

	s.cfg.Log.Info("Service created", "service_id", svc.ID, "master_id", svc.MasterID)
	return svc, nil
}

func (s *catalogService) GetServiceDetails(ctx context.Context, id string) (*model.ServiceDetails, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Service ID cannot be empty")
	}

	details, err := s.repo.GetServiceDetails(ctx, id)
	if err != nil {
		if errors.Is(err, catalogerrors.ErrServiceNotFound) {
			return nil, apperrors.NotFoundWithID("Service", id)
		}
		s.cfg.Log.Error("Failed to get service", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve service", err)
	}
	return details, nil
}

func (s *catalogService) ListServices(ctx context.Context, filter repository.ServiceFilter) ([]model.ServiceDetails, int64, error) {
	services, total, err := s.repo.ListServices(ctx, filter)
	if err != nil {
		s.cfg.Log.Error("Failed to list services", "error", err)
		return nil, 0, apperrors.Internal("Failed to list services", err)
	}
	if services == nil {
		services = []model.ServiceDetails{}
	}
	return services, total, nil
}

func (s *catalogService) UpdateService(ctx context.Context, actor *model.User, id string, in ServiceInput) (*model.Service, error) {
	if err := requireMaster(actor); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, apperrors.InvalidInput("Service ID cannot be empty")
	}

	existing, err := s.repo.GetService(ctx, id)
	if err != nil {
		if errors.Is(err, catalogerrors.ErrServiceNotFound) {
			return nil, apperrors.NotFoundWithID("Service", id)
		}
		s.cfg.Log.Error("Failed to load service", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to load service", err)
	}
	if existing.MasterID != actor.ID {
		return nil, apperrors.Forbidden("You can only edit your own services")
	}

	if _, err := s.repo.GetCategoryByID(ctx, in.CategoryID); err != nil {
		if errors.Is(err, catalogerrors.ErrCategoryNotFound) {
			return nil, apperrors.InvalidInput("Referenced category does not exist")
		}
		return nil, apperrors.Internal("Failed to resolve category", err)
	}

	updated := &model.Service{
		ID:          existing.ID,
		MasterID:    existing.MasterID,
		CategoryID:  in.CategoryID,
		Title:       sanitizer.NormalizeTitle(in.Title),
		Description: sanitizer.NormalizeComment(in.Description),
		Price:       in.Price,
		CreatedAt:   existing.CreatedAt,
	}
	if err := s.validator.ValidateService(updated); err != nil {
		return nil, apperrors.Validation("Service validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.repo.UpdateService(ctx, updated); err != nil {
		if errors.Is(err, catalogerrors.ErrServiceNotFound) {
			return nil, apperrors.NotFoundWithID("Service", id)
		}
		s.cfg.Log.Error("Failed to update service", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to update service", err)
	}
	return updated, nil
}

// DeleteService refuses to delete a service that still has NEW or
// ACCEPTED orders against it.
func (s *catalogService) DeleteService(ctx context.Context, actor *model.User, id string) error {
	if err := requireMaster(actor); err != nil {
		return err
	}
	if id == "" {
		return apperrors.InvalidInput("Service ID cannot be empty")
	}

	existing, err := s.repo.GetService(ctx, id)
	if err != nil {
		if errors.Is(err, catalogerrors.ErrServiceNotFound) {
			return apperrors.NotFoundWithID("Service", id)
		}
		s.cfg.Log.Error("Failed to load service", "id", id, "error", err)
		return apperrors.Internal("Failed to load service", err)
	}
	if existing.MasterID != actor.ID {
		return apperrors.Forbidden("You can only delete your own services")
	}

	open, err := s.orders.CountOpenByService(ctx, id)
	if err != nil {
		s.cfg.Log.Error("Failed to count open orders for service", "id", id, "error", err)
		return apperrors.Internal("Failed to delete service", err)
	}
	if open > 0 {
		return apperrors.Conflict("Cannot delete a service with open orders")
	}

	if err := s.repo.DeleteService(ctx, id); err != nil {
		if errors.Is(err, catalogerrors.ErrServiceNotFound) {
			return apperrors.NotFoundWithID("Service", id)
		}
		s.cfg.Log.Error("Failed to delete service", "id", id, "error", err)
		return apperrors.Internal("Failed to delete service", err)
	}

	s.cfg.Log.Info("Service deleted", "service_id", id, "master_id", actor.ID)
	return nil
}
