package repository

import (
	"context"

	availabilityerrors "masterbook/internal/availability/errors"
	"masterbook/pkg/db/filestore"
	"masterbook/pkg/model"
)

type fileRepository struct {
	store *filestore.Store
}

func NewFileRepository(store *filestore.Store) Repository {
	return &fileRepository{store: store}
}

func (r *fileRepository) Get(_ context.Context, masterID string) (*model.Availability, error) {
	var found *model.Availability
	err := r.store.View(func(d *filestore.Data) error {
		for i := range d.Availabilities {
			if d.Availabilities[i].MasterID == masterID {
				found = d.Availabilities[i].Clone()
				return nil
			}
		}
		return availabilityerrors.ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (r *fileRepository) Put(_ context.Context, av *model.Availability) error {
	snapshot := av.Clone()
	return r.store.Update(func(d *filestore.Data) error {
		for i := range d.Availabilities {
			if d.Availabilities[i].MasterID == snapshot.MasterID {
				d.Availabilities[i] = *snapshot
				return nil
			}
		}
		d.Availabilities = append(d.Availabilities, *snapshot)
		return nil
	})
}
