package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"pasarela/internal/domain"
	"pasarela/internal/repository"
)

// PaymentRepository is a PostgreSQL implementation of repository.PaymentRepository.
type PaymentRepository struct {
	q Querier
}

// NewPaymentRepository creates a new PostgreSQL payment repository.
func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{q: db}
}

// NewPaymentRepositoryWithTx creates a payment repository using a transaction.
func NewPaymentRepositoryWithTx(tx *sql.Tx) *PaymentRepository {
	return &PaymentRepository{q: tx}
}

// GetByOrderNumber retrieves a payment by its unique order number.
func (r *PaymentRepository) GetByOrderNumber(ctx context.Context, orderNumber string) (*domain.Payment, error) {
	query := `
		SELECT pago_id, numero_orden, cedula, metodo_pago, monto, moneda,
		       estado, COALESCE(numero_autorizacion, ''),
		       COALESCE(marca_tarjeta, ''), COALESCE(datos_respuesta, ''),
		       fecha_transaccion, nonce
		FROM pagos WHERE numero_orden = $1
	`

	var p domain.Payment
	var estado string
	err := r.q.QueryRowContext(ctx, query, orderNumber).Scan(
		&p.ID,
		&p.OrderNumber,
		&p.NationalID,
		&p.Method,
		&p.Amount,
		&p.Currency,
		&estado,
		&p.AuthorizationCode,
		&p.CardBrand,
		&p.RawResponse,
		&p.TransactionDate,
		&p.Nonce,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	p.Status = domain.TransactionStatus(estado)

	return &p, nil
}

// Create persists a new payment.
func (r *PaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	query := `
		INSERT INTO pagos (numero_orden, cedula, metodo_pago, monto, moneda,
		                   estado, numero_autorizacion, marca_tarjeta,
		                   datos_respuesta, fecha_transaccion, nonce)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING pago_id
	`

	return r.q.QueryRowContext(ctx, query,
		p.OrderNumber,
		p.NationalID,
		p.Method,
		p.Amount,
		p.Currency,
		string(p.Status),
		p.AuthorizationCode,
		p.CardBrand,
		p.RawResponse,
		p.TransactionDate,
		p.Nonce,
	).Scan(&p.ID)
}

// Update overwrites the mutable fields of the payment row matching
// p.OrderNumber. The nonce is only replaced when p.Nonce is non-empty.
func (r *PaymentRepository) Update(ctx context.Context, p *domain.Payment) error {
	query := `
		UPDATE pagos
		SET cedula = $2, metodo_pago = $3, monto = $4, moneda = $5,
		    estado = $6, numero_autorizacion = $7, marca_tarjeta = $8,
		    datos_respuesta = $9, fecha_transaccion = $10,
		    nonce = CASE WHEN $11 <> '' THEN $11 ELSE nonce END
		WHERE numero_orden = $1
	`

	result, err := r.q.ExecContext(ctx, query,
		p.OrderNumber,
		p.NationalID,
		p.Method,
		p.Amount,
		p.Currency,
		string(p.Status),
		p.AuthorizationCode,
		p.CardBrand,
		p.RawResponse,
		p.TransactionDate,
		p.Nonce,
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

// ListDashboard returns a filtered, paginated listing joined with the
// customer table, plus the total row count before pagination.
func (r *PaymentRepository) ListDashboard(ctx context.Context, f repository.DashboardFilter) ([]repository.DashboardRow, int, error) {
	var conds []string
	var args []any

	addArg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.From != nil {
		conds = append(conds, "p.fecha_transaccion >= "+addArg(*f.From))
	}
	if f.To != nil {
		conds = append(conds, "p.fecha_transaccion <= "+addArg(*f.To))
	}
	if f.Status != "" {
		conds = append(conds, "p.estado = "+addArg(strings.ToLower(f.Status)))
	}
	if f.Search != "" {
		ph := addArg("%" + strings.ToLower(f.Search) + "%")
		conds = append(conds, fmt.Sprintf(
			"(LOWER(p.cedula) LIKE %[1]s OR LOWER(c.nombre || ' ' || c.apellido) LIKE %[1]s OR LOWER(c.pais) LIKE %[1]s OR LOWER(p.numero_orden) LIKE %[1]s OR LOWER(p.moneda) LIKE %[1]s)", ph))
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	countQuery := `
		SELECT COUNT(*)
		FROM pagos p
		JOIN clientes c ON c.cedula = p.cedula
	` + where

	var total int
	if err := r.q.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	pageSize := f.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	listQuery := `
		SELECT p.cedula, TRIM(c.nombre || ' ' || c.apellido), c.pais,
		       p.monto, p.moneda, p.numero_orden, p.estado, p.fecha_transaccion
		FROM pagos p
		JOIN clientes c ON c.cedula = p.cedula
	` + where + `
		ORDER BY p.fecha_transaccion DESC
		LIMIT ` + addArg(pageSize) + ` OFFSET ` + addArg((page-1)*pageSize)

	rows, err := r.q.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []repository.DashboardRow
	for rows.Next() {
		var row repository.DashboardRow
		var estado string
		var fecha sql.NullTime
		if err := rows.Scan(
			&row.NationalID,
			&row.CustomerName,
			&row.Country,
			&row.Amount,
			&row.Currency,
			&row.OrderNumber,
			&estado,
			&fecha,
		); err != nil {
			return nil, 0, err
		}
		row.Status = domain.TransactionStatus(estado)
		if fecha.Valid {
			t := fecha.Time
			row.TransactionDate = &t
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return result, total, nil
}
