package database

import (
	"context"
	"fmt"
)

const customerColumns = `id, name, contact_email, industry, status, address, phone, created_at, updated_at`

func scanCustomer(row rowScanner) (Customer, error) {
	var c Customer
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.ContactEmail,
		&c.Industry,
		&c.Status,
		&c.Address,
		&c.Phone,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	return c, err
}

const getCustomer = `SELECT ` + customerColumns + ` FROM customers WHERE name = $1`

func (q *Queries) GetCustomer(ctx context.Context, name string) (Customer, error) {
	c, err := scanCustomer(q.db.QueryRow(ctx, getCustomer, name))
	return c, mapError(err)
}

const listCustomers = `SELECT ` + customerColumns + ` FROM customers ORDER BY name OFFSET $1 LIMIT $2`

func (q *Queries) ListCustomers(ctx context.Context, arg ListParams) ([]Customer, error) {
	rows, err := q.db.Query(ctx, listCustomers, arg.Offset, arg.Limit)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	items := []Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		items = append(items, c)
	}
	return items, mapError(rows.Err())
}

const createCustomer = `
INSERT INTO customers (name, contact_email, industry, status, address, phone)
VALUES ($1, $2, $3, COALESCE(NULLIF($4, ''), 'active'), $5, $6)
RETURNING ` + customerColumns

type CreateCustomerParams struct {
	Name         string
	ContactEmail *string
	Industry     *string
	Status       string
	Address      *string
	Phone        *string
}

func (q *Queries) CreateCustomer(ctx context.Context, arg CreateCustomerParams) (Customer, error) {
	c, err := scanCustomer(q.db.QueryRow(ctx, createCustomer,
		arg.Name,
		arg.ContactEmail,
		arg.Industry,
		arg.Status,
		arg.Address,
		arg.Phone,
	))
	return c, mapError(err)
}

const updateCustomer = `
UPDATE customers
SET name = $2, contact_email = $3, industry = $4, status = $5, address = $6, phone = $7, updated_at = now()
WHERE name = $1
RETURNING ` + customerColumns

// UpdateCustomerParams replaces every mutable column of the customer keyed by Key.
type UpdateCustomerParams struct {
	Key          string
	Name         string
	ContactEmail *string
	Industry     *string
	Status       string
	Address      *string
	Phone        *string
}

func (q *Queries) UpdateCustomer(ctx context.Context, arg UpdateCustomerParams) (Customer, error) {
	c, err := scanCustomer(q.db.QueryRow(ctx, updateCustomer,
		arg.Key,
		arg.Name,
		arg.ContactEmail,
		arg.Industry,
		arg.Status,
		arg.Address,
		arg.Phone,
	))
	return c, mapError(err)
}

const deleteCustomer = `DELETE FROM customers WHERE name = $1`

func (q *Queries) DeleteCustomer(ctx context.Context, name string) error {
	tag, err := q.db.Exec(ctx, deleteCustomer, name)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
