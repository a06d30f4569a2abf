package postgres

import (
	"context"
	"database/sql"
	"errors"

	"pasarela/internal/domain"
	"pasarela/internal/repository"
)

// CustomerRepository is a PostgreSQL implementation of repository.CustomerRepository.
type CustomerRepository struct {
	q Querier
}

// NewCustomerRepository creates a new PostgreSQL customer repository.
func NewCustomerRepository(db *sql.DB) *CustomerRepository {
	return &CustomerRepository{q: db}
}

// NewCustomerRepositoryWithTx creates a customer repository using a transaction.
func NewCustomerRepositoryWithTx(tx *sql.Tx) *CustomerRepository {
	return &CustomerRepository{q: tx}
}

// GetByNationalID retrieves a customer by cédula.
func (r *CustomerRepository) GetByNationalID(ctx context.Context, nationalID string) (*domain.Customer, error) {
	query := `
		SELECT cedula, nombre, apellido, correo, telefono, direccion,
		       ciudad, provincia, codigo_postal, pais
		FROM clientes WHERE cedula = $1
	`

	var c domain.Customer
	err := r.q.QueryRowContext(ctx, query, nationalID).Scan(
		&c.NationalID,
		&c.FirstName,
		&c.LastName,
		&c.Email,
		&c.Phone,
		&c.Address,
		&c.City,
		&c.State,
		&c.PostalCode,
		&c.Country,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &c, nil
}

// Create persists a new customer.
func (r *CustomerRepository) Create(ctx context.Context, c *domain.Customer) error {
	query := `
		INSERT INTO clientes (cedula, nombre, apellido, correo, telefono,
		                      direccion, ciudad, provincia, codigo_postal, pais)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.q.ExecContext(ctx, query,
		c.NationalID,
		c.FirstName,
		c.LastName,
		c.Email,
		c.Phone,
		c.Address,
		c.City,
		c.State,
		c.PostalCode,
		c.Country,
	)

	return err
}

// Update overwrites the stored attributes of an existing customer.
func (r *CustomerRepository) Update(ctx context.Context, c *domain.Customer) error {
	query := `
		UPDATE clientes
		SET nombre = $2, apellido = $3, correo = $4, telefono = $5,
		    direccion = $6, ciudad = $7, provincia = $8, codigo_postal = $9,
		    pais = $10
		WHERE cedula = $1
	`

	result, err := r.q.ExecContext(ctx, query,
		c.NationalID,
		c.FirstName,
		c.LastName,
		c.Email,
		c.Phone,
		c.Address,
		c.City,
		c.State,
		c.PostalCode,
		c.Country,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}
