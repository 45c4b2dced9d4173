package core

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/timesheet/internal/database"
	"github.com/JonMunkholm/timesheet/internal/logging"
)

// CreateCustomer stores a new customer. A taken name returns
// database.ErrConflict.
func (s *Service) CreateCustomer(ctx context.Context, in CustomerInput) (database.Customer, error) {
	if err := in.Validate(); err != nil {
		return database.Customer{}, err
	}
	c, err := s.store.CreateCustomer(ctx, in.params())
	if err != nil {
		return database.Customer{}, fmt.Errorf("create customer %q: %w", in.Name, err)
	}
	logging.FromContext(ctx, s.logger).Info("customer created", "customer", c.Name)
	return c, nil
}

// GetCustomer returns the customer with name.
func (s *Service) GetCustomer(ctx context.Context, name string) (database.Customer, error) {
	c, err := s.store.GetCustomer(ctx, name)
	if err != nil {
		return database.Customer{}, fmt.Errorf("get customer %q: %w", name, err)
	}
	return c, nil
}

// ListCustomers returns customers ordered by name.
func (s *Service) ListCustomers(ctx context.Context, page Page) ([]database.Customer, error) {
	items, err := s.store.ListCustomers(ctx, page.params())
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return items, nil
}

// UpdateCustomer applies in to the customer with name. Renaming cascades to
// projects and time entries.
func (s *Service) UpdateCustomer(ctx context.Context, name string, in CustomerUpdate) (database.Customer, error) {
	if err := in.Validate(); err != nil {
		return database.Customer{}, err
	}

	var updated database.Customer
	err := s.store.InTx(ctx, func(tx database.Store) error {
		current, err := tx.GetCustomer(ctx, name)
		if err != nil {
			return err
		}
		updated, err = tx.UpdateCustomer(ctx, in.apply(current))
		return err
	})
	if err != nil {
		return database.Customer{}, fmt.Errorf("update customer %q: %w", name, err)
	}

	if updated.Name != name {
		s.invalidateReports(ctx)
	}
	logging.FromContext(ctx, s.logger).Info("customer updated", "customer", name, "name", updated.Name)
	return updated, nil
}

// DeleteCustomer removes the customer. Projects and time entries that
// referenced it keep their rows with the customer cleared.
func (s *Service) DeleteCustomer(ctx context.Context, name string) error {
	if err := s.store.DeleteCustomer(ctx, name); err != nil {
		return fmt.Errorf("delete customer %q: %w", name, err)
	}
	s.invalidateReports(ctx)
	logging.FromContext(ctx, s.logger).Info("customer deleted", "customer", name)
	return nil
}
