package repository

import (
	"context"
	"sort"
	"strings"

	catalogerrors "masterbook/internal/catalog/errors"
	"masterbook/pkg/db/filestore"
	"masterbook/pkg/model"
)

type fileRepository struct {
	store *filestore.Store
}

func NewFileRepository(store *filestore.Store) Repository {
	return &fileRepository{store: store}
}

func (r *fileRepository) CreateCategory(ctx context.Context, c *model.Category) error {
	return r.store.Update(func(d *filestore.Data) error {
		for _, existing := range d.Categories {
			if strings.EqualFold(existing.Name, c.Name) {
				return catalogerrors.ErrCategoryNameTaken
			}
		}
		d.Categories = append(d.Categories, *c)
		return nil
	})
}

func (r *fileRepository) GetCategoryByID(ctx context.Context, id string) (*model.Category, error) {
	var found *model.Category
	err := r.store.View(func(d *filestore.Data) error {
		for i := range d.Categories {
			if d.Categories[i].ID == id {
				c := d.Categories[i]
				found = &c
				return nil
			}
		}
		return catalogerrors.ErrCategoryNotFound
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (r *fileRepository) ListCategories(ctx context.Context) ([]model.Category, error) {
	var out []model.Category
	err := r.store.View(func(d *filestore.Data) error {
		out = append(out, d.Categories...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fileRepository) UpdateCategory(ctx context.Context, c *model.Category) error {
	return r.store.Update(func(d *filestore.Data) error {
		idx := -1
		for i := range d.Categories {
			if d.Categories[i].ID == c.ID {
				idx = i
				continue
			}
			if strings.EqualFold(d.Categories[i].Name, c.Name) {
				return catalogerrors.ErrCategoryNameTaken
			}
		}
		if idx < 0 {
			return catalogerrors.ErrCategoryNotFound
		}
		d.Categories[idx].Name = c.Name
		return nil
	})
}

func (r *fileRepository) DeleteCategory(ctx context.Context, id string) error {
	return r.store.Update(func(d *filestore.Data) error {
		for i := range d.Categories {
			if d.Categories[i].ID == id {
				d.Categories = append(d.Categories[:i], d.Categories[i+1:]...)
				return nil
			}
		}
		return catalogerrors.ErrCategoryNotFound
	})
}

func (r *fileRepository) CountServicesByCategory(ctx context.Context, categoryID string) (int64, error) {
	var count int64
	err := r.store.View(func(d *filestore.Data) error {
		for _, s := range d.Services {
			if s.CategoryID == categoryID {
				count++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *fileRepository) CreateService(ctx context.Context, s *model.Service) error {
	return r.store.Update(func(d *filestore.Data) error {
		d.Services = append(d.Services, *s)
		return nil
	})
}

func (r *fileRepository) GetService(ctx context.Context, id string) (*model.Service, error) {
	var found *model.Service
	err := r.store.View(func(d *filestore.Data) error {
		for i := range d.Services {
			if d.Services[i].ID == id {
				s := d.Services[i]
				found = &s
				return nil
			}
		}
		return catalogerrors.ErrServiceNotFound
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (r *fileRepository) GetServiceDetails(ctx context.Context, id string) (*model.ServiceDetails, error) {
	var found *model.ServiceDetails
	err := r.store.View(func(d *filestore.Data) error {
		for i := range d.Services {
			if d.Services[i].ID == id {
				details := joinService(d, d.Services[i])
				found = &details
				return nil
			}
		}
		return catalogerrors.ErrServiceNotFound
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (r *fileRepository) ListServices(ctx context.Context, filter ServiceFilter) ([]model.ServiceDetails, int64, error) {
	needle := strings.ToLower(strings.TrimSpace(filter.Search))

	var out []model.ServiceDetails
	err := r.store.View(func(d *filestore.Data) error {
		for _, s := range d.Services {
			if filter.CategoryID != "" && s.CategoryID != filter.CategoryID {
				continue
			}
			if filter.MasterID != "" && s.MasterID != filter.MasterID {
				continue
			}
			if filter.MinPrice != nil && s.Price < *filter.MinPrice {
				continue
			}
			if filter.MaxPrice != nil && s.Price > *filter.MaxPrice {
				continue
			}
			if needle != "" &&
				!strings.Contains(strings.ToLower(s.Title), needle) &&
				!strings.Contains(strings.ToLower(s.Description), needle) {
				continue
			}
			out = append(out, joinService(d, s))
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	total := int64(len(out))
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			out = nil
		} else {
			out = out[filter.Offset:]
		}
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, total, nil
}

func (r *fileRepository) UpdateService(ctx context.Context, s *model.Service) error {
	return r.store.Update(func(d *filestore.Data) error {
		for i := range d.Services {
			if d.Services[i].ID == s.ID {
				d.Services[i].CategoryID = s.CategoryID
				d.Services[i].Title = s.Title
				d.Services[i].Description = s.Description
				d.Services[i].Price = s.Price
				return nil
			}
		}
		return catalogerrors.ErrServiceNotFound
	})
}

func (r *fileRepository) DeleteService(ctx context.Context, id string) error {
	return r.store.Update(func(d *filestore.Data) error {
		for i := range d.Services {
			if d.Services[i].ID == id {
				d.Services = append(d.Services[:i], d.Services[i+1:]...)
				return nil
			}
		}
		return catalogerrors.ErrServiceNotFound
	})
}

func joinService(d *filestore.Data, s model.Service) model.ServiceDetails {
	details := model.ServiceDetails{Service: s}
	for _, c := range d.Categories {
		if c.ID == s.CategoryID {
			details.CategoryName = c.Name
			break
		}
	}
	for i := range d.Users {
		if d.Users[i].ID == s.MasterID {
			details.MasterName = d.Users[i].Name
			break
		}
	}
	for _, o := range d.Orders {
		if o.ServiceID == s.ID && o.Status == model.StatusDone {
			details.CompletedOrders++
		}
	}
	return details
}
