package repository

import (
	"context"
	"sort"
	"time"

	ordererrors "masterbook/internal/orders/errors"
	"masterbook/pkg/db/filestore"
	"masterbook/pkg/model"
)

type fileRepository struct {
	store *filestore.Store
}

func NewFileRepository(store *filestore.Store) Repository {
	return &fileRepository{store: store}
}

// Create runs the busy check and the append inside one store Update,
// so two concurrent requests for the same slot cannot both pass.
func (r *fileRepository) Create(ctx context.Context, o *model.Order) error {
	return r.store.Update(func(d *filestore.Data) error {
		for _, existing := range d.Orders {
			if existing.MasterID == o.MasterID &&
				existing.Status.Active() &&
				existing.DesiredAt.Equal(o.DesiredAt) {
				return ordererrors.ErrSlotTaken
			}
		}
		d.Orders = append(d.Orders, *o)
		return nil
	})
}

func (r *fileRepository) GetByID(ctx context.Context, id string) (*model.Order, error) {
	var found *model.Order
	err := r.store.View(func(d *filestore.Data) error {
		for i := range d.Orders {
			if d.Orders[i].ID == id {
				o := d.Orders[i]
				found = &o
				return nil
			}
		}
		return ordererrors.ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (r *fileRepository) GetDetailsByID(ctx context.Context, id string) (*model.OrderDetails, error) {
	var found *model.OrderDetails
	err := r.store.View(func(d *filestore.Data) error {
		for i := range d.Orders {
			if d.Orders[i].ID == id {
				details := join(d, d.Orders[i])
				found = &details
				return nil
			}
		}
		return ordererrors.ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (r *fileRepository) Update(ctx context.Context, o *model.Order) error {
	return r.store.Update(func(d *filestore.Data) error {
		for i := range d.Orders {
			if d.Orders[i].ID == o.ID {
				d.Orders[i].Status = o.Status
				d.Orders[i].StatusChangedAt = o.StatusChangedAt
				d.Orders[i].RejectReason = o.RejectReason
				return nil
			}
		}
		return ordererrors.ErrNotFound
	})
}

func (r *fileRepository) ListByMaster(ctx context.Context, masterID string) ([]model.OrderDetails, error) {
	return r.list(func(o *model.Order) bool { return o.MasterID == masterID })
}

func (r *fileRepository) ListByClient(ctx context.Context, clientID string) ([]model.OrderDetails, error) {
	return r.list(func(o *model.Order) bool { return o.ClientID == clientID })
}

func (r *fileRepository) list(match func(*model.Order) bool) ([]model.OrderDetails, error) {
	var out []model.OrderDetails
	err := r.store.View(func(d *filestore.Data) error {
		for i := range d.Orders {
			if match(&d.Orders[i]) {
				out = append(out, join(d, d.Orders[i]))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fileRepository) ListActiveByMasterBetween(ctx context.Context, masterID string, from, to time.Time) ([]model.Order, error) {
	var out []model.Order
	err := r.store.View(func(d *filestore.Data) error {
		for _, o := range d.Orders {
			if o.MasterID != masterID || !o.Status.Active() {
				continue
			}
			if o.DesiredAt.Before(from) || !o.DesiredAt.Before(to) {
				continue
			}
			out = append(out, o)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *fileRepository) CountOpenByService(ctx context.Context, serviceID string) (int64, error) {
	var count int64
	err := r.store.View(func(d *filestore.Data) error {
		for _, o := range d.Orders {
			if o.ServiceID == serviceID && (o.Status == model.StatusNew || o.Status == model.StatusAccepted) {
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

// join resolves the display names a listing needs from the same data
// snapshot the order came from. A dangling reference renders as an
// empty string rather than failing the listing.
func join(d *filestore.Data, o model.Order) model.OrderDetails {
	details := model.OrderDetails{Order: o}
	for _, svc := range d.Services {
		if svc.ID == o.ServiceID {
			details.ServiceTitle = svc.Title
			details.ServicePrice = svc.Price
			break
		}
	}
	for _, u := range d.Users {
		switch u.ID {
		case o.MasterID:
			details.MasterName = u.Name
		case o.ClientID:
			details.ClientName = u.Name
		}
	}
	return details
}
