package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/orderdesk/internal/domain/customer"
)

var _ customer.Repository = (*CustomerRepository)(nil)

var customerColumns = map[string]string{
	"name":     "name",
	"priority": "priority",
}

// CustomerRepository implements customer.Repository backed by PostgreSQL.
type CustomerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository returns a CustomerRepository that uses the given pool.
func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

func (r *CustomerRepository) List(ctx context.Context) ([]customer.Customer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, priority FROM customers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing customers: %w", err)
	}
	defer rows.Close()

	var customers []customer.Customer
	for rows.Next() {
		var c customer.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Priority); err != nil {
			return nil, fmt.Errorf("scanning customer: %w", err)
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

// GetByID returns a single customer. Returns customer.ErrNotFound when no
// matching row exists.
func (r *CustomerRepository) GetByID(ctx context.Context, id int64) (*customer.Customer, error) {
	var c customer.Customer
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, priority FROM customers WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Priority)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, customer.ErrNotFound
		}
		return nil, fmt.Errorf("getting customer %d: %w", id, err)
	}
	return &c, nil
}

func (r *CustomerRepository) Create(ctx context.Context, c *customer.Customer) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO customers (name, priority) VALUES ($1, $2) RETURNING id`,
		c.Name, c.Priority).
		Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("creating customer: %w", err)
	}
	return nil
}

func (r *CustomerRepository) Update(ctx context.Context, c *customer.Customer) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE customers SET name = $2, priority = $3 WHERE id = $1`,
		c.ID, c.Name, c.Priority)
	if err != nil {
		return false, fmt.Errorf("updating customer %d: %w", c.ID, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *CustomerRepository) UpdateFields(ctx context.Context, id int64, fields map[string]any) (bool, error) {
	cols := make(map[string]any, len(fields))
	for f, v := range fields {
		col, ok := customerColumns[f]
		if !ok {
			return false, errors.Errorf("unknown customer field %q", f)
		}
		cols[col] = v
	}

	set, args := buildSetClause(cols, 2)
	tag, err := r.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE customers SET %s WHERE id = $1`, set),
		append([]any{id}, args...)...)
	if err != nil {
		return false, fmt.Errorf("patching customer %d: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *CustomerRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("deleting customer %d: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}
