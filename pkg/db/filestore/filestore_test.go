package filestore

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"masterbook/pkg/model"
)

func TestOpenCreatesEmptyStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "db.json")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.View(func(d *Data) error {
		if len(d.Users) != 0 || len(d.Orders) != 0 {
			t.Errorf("new store should be empty")
		}
		return nil
	}); err != nil {
		t.Fatalf("View: %v", err)
	}
}

func TestUpdateSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Update(func(d *Data) error {
		d.Categories = append(d.Categories, model.Category{ID: "c1", Name: "Haircuts"})
		return nil
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	_ = reopened.View(func(d *Data) error {
		if len(d.Categories) != 1 || d.Categories[0].Name != "Haircuts" {
			t.Errorf("persisted data missing after reopen: %+v", d.Categories)
		}
		return nil
	})
}

func TestFailedUpdateChangesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	s, _ := Open(path)

	boom := errors.New("boom")
	err := s.Update(func(d *Data) error {
		d.Categories = append(d.Categories, model.Category{ID: "c1", Name: "Haircuts"})
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error back, got %v", err)
	}

	_ = s.View(func(d *Data) error {
		if len(d.Categories) != 0 {
			t.Errorf("failed update must not leak mutations")
		}
		return nil
	})
}

func TestConcurrentUpdatesSerialize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	s, _ := Open(path)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Update(func(d *Data) error {
				d.Orders = append(d.Orders, model.Order{Status: model.StatusNew})
				return nil
			})
		}()
	}
	wg.Wait()

	_ = s.View(func(d *Data) error {
		if len(d.Orders) != 20 {
			t.Errorf("expected 20 orders, got %d", len(d.Orders))
		}
		return nil
	})
}
