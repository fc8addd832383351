package repository

import (
	"context"
	"sort"
	"strings"

	accounterrors "masterbook/internal/accounts/errors"
	"masterbook/pkg/db/filestore"
	"masterbook/pkg/model"
)

type fileRepository struct {
	store *filestore.Store
}

func NewFileRepository(store *filestore.Store) Repository {
	return &fileRepository{store: store}
}

// CreateUser checks uniqueness and appends inside one store Update, so
// two concurrent registrations for the same email cannot both win.
func (r *fileRepository) CreateUser(ctx context.Context, u *model.User) error {
	return r.store.Update(func(d *filestore.Data) error {
		for _, existing := range d.Users {
			if existing.Email == u.Email {
				return accounterrors.ErrEmailTaken
			}
		}
		d.Users = append(d.Users, filestore.NewUser(*u))
		return nil
	})
}

func (r *fileRepository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return r.findUser(func(u *filestore.User) bool { return u.ID == id })
}

func (r *fileRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findUser(func(u *filestore.User) bool { return u.Email == email })
}

func (r *fileRepository) findUser(match func(*filestore.User) bool) (*model.User, error) {
	var found *model.User
	err := r.store.View(func(d *filestore.Data) error {
		for i := range d.Users {
			if match(&d.Users[i]) {
				u := d.Users[i].Unwrap()
				found = &u
				return nil
			}
		}
		return accounterrors.ErrUserNotFound
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (r *fileRepository) ListMasters(ctx context.Context, search string) ([]model.User, error) {
	needle := strings.ToLower(strings.TrimSpace(search))

	var out []model.User
	err := r.store.View(func(d *filestore.Data) error {
		for i := range d.Users {
			u := d.Users[i].Unwrap()
			if u.Role != model.RoleMaster {
				continue
			}
			if needle != "" &&
				!strings.Contains(strings.ToLower(u.Name), needle) &&
				!strings.Contains(u.Email, needle) {
				continue
			}
			u.PasswordHash = ""
			out = append(out, u)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fileRepository) CreateSession(ctx context.Context, s *model.Session) error {
	return r.store.Update(func(d *filestore.Data) error {
		d.Sessions = append(d.Sessions, *s)
		return nil
	})
}

func (r *fileRepository) GetSession(ctx context.Context, token string) (*model.Session, error) {
	var found *model.Session
	err := r.store.View(func(d *filestore.Data) error {
		for i := range d.Sessions {
			if d.Sessions[i].Token == token {
				s := d.Sessions[i]
				found = &s
				return nil
			}
		}
		return accounterrors.ErrSessionNotFound
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (r *fileRepository) DeleteSession(ctx context.Context, token string) error {
	return r.store.Update(func(d *filestore.Data) error {
		for i := range d.Sessions {
			if d.Sessions[i].Token == token {
				d.Sessions = append(d.Sessions[:i], d.Sessions[i+1:]...)
				return nil
			}
		}
		return accounterrors.ErrSessionNotFound
	})
}
