package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fekuna/medequip-catalog-service/internal/assignment"
	"github.com/fekuna/medequip-catalog-service/internal/model"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const (
	findProductOwner = `SELECT id FROM products WHERE id = $1 AND status <> 'deleted'`
	findVariantOwner = `SELECT pv.master_id FROM product_variants pv
        JOIN products p ON p.id = pv.master_id
        WHERE pv.id = $1 AND pv.status <> 'deleted' AND p.status <> 'deleted'`
)

type PGRepository struct {
	DB *sqlx.DB
	q  sqlx.ExtContext
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db, q: db}
}

// Execute runs fn with a repository bound to a new transaction.
func (r *PGRepository) Execute(ctx context.Context, fn func(repo assignment.Repository) error) error {
	return postgres.RunInTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		return fn(&PGRepository{DB: r.DB, q: tx})
	})
}

func (r *PGRepository) FindOwner(ctx context.Context, ownerType model.OwnerType, ownerID string) (string, error) {
	return r.findOwner(ctx, ownerType, ownerID, "")
}

func (r *PGRepository) LockOwner(ctx context.Context, ownerType model.OwnerType, ownerID string) (string, error) {
	suffix := " FOR UPDATE"
	if ownerType == model.OwnerVariant {
		suffix = " FOR UPDATE OF pv"
	}
	return r.findOwner(ctx, ownerType, ownerID, suffix)
}

func (r *PGRepository) findOwner(ctx context.Context, ownerType model.OwnerType, ownerID, suffix string) (string, error) {
	query := findProductOwner
	if ownerType == model.OwnerVariant {
		query = findVariantOwner
	}
	var productID string
	if err := sqlx.GetContext(ctx, r.q, &productID, query+suffix, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", postgres.Classify(err, "find assignment owner")
	}
	return productID, nil
}

func (r *PGRepository) FindByOwner(ctx context.Context, ownerType model.OwnerType, ownerID string) ([]model.Assignment, error) {
	column, err := ownerColumn(ownerType)
	if err != nil {
		return nil, err
	}
	assignments := []model.Assignment{}
	query := fmt.Sprintf(`
        SELECT a.id, a.product_id, a.variant_id, a.value_id, a.additional_value, a.created_at,
               v.group_id, g.name AS group_name, v.value, v.color_hex
        FROM characteristic_assignments a
        JOIN characteristic_values v ON v.id = a.value_id
        JOIN characteristic_groups g ON g.id = v.group_id
        WHERE a.%s = $1
        ORDER BY g.sort_order, g.name, v.sort_order, v.value, a.id
    `, column)
	if err := sqlx.SelectContext(ctx, r.q, &assignments, query, ownerID); err != nil {
		return nil, postgres.Classify(err, "list assignments")
	}
	return assignments, nil
}

func (r *PGRepository) FindActiveValueIDs(ctx context.Context, ids []string) ([]string, error) {
	found := []string{}
	if len(ids) == 0 {
		return found, nil
	}
	query := `
        SELECT v.id FROM characteristic_values v
        JOIN characteristic_groups g ON g.id = v.group_id
        WHERE v.id = ANY($1) AND v.is_active AND g.is_active
    `
	if err := sqlx.SelectContext(ctx, r.q, &found, query, pq.Array(ids)); err != nil {
		return nil, postgres.Classify(err, "check characteristic values")
	}
	return found, nil
}

func (r *PGRepository) DeleteByOwner(ctx context.Context, ownerType model.OwnerType, ownerID string) (int64, error) {
	column, err := ownerColumn(ownerType)
	if err != nil {
		return 0, err
	}
	res, err := r.q.ExecContext(ctx, fmt.Sprintf(`DELETE FROM characteristic_assignments WHERE %s = $1`, column), ownerID)
	if err != nil {
		return 0, postgres.Classify(err, "delete assignments")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, postgres.Classify(err, "delete assignments")
	}
	return n, nil
}

// Insert writes all rows in one statement.
func (r *PGRepository) Insert(ctx context.Context, assignments []model.Assignment) error {
	if len(assignments) == 0 {
		return nil
	}
	query := `INSERT INTO characteristic_assignments (id, product_id, variant_id, value_id, additional_value, created_at)
        VALUES (:id, :product_id, :variant_id, :value_id, :additional_value, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.q, query, assignments); err != nil {
		return postgres.Classify(err, "insert assignments")
	}
	return nil
}

func (r *PGRepository) GetConfigurable(ctx context.Context, productID string) (*model.ConfigurableCharacteristics, error) {
	var doc model.ConfigurableCharacteristics
	query := `SELECT product_id, characteristics, updated_at FROM configurable_characteristics WHERE product_id = $1`
	if err := sqlx.GetContext(ctx, r.q, &doc, query, productID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, postgres.Classify(err, "get configurable characteristics")
	}
	return &doc, nil
}

func (r *PGRepository) UpsertConfigurable(ctx context.Context, doc *model.ConfigurableCharacteristics) error {
	query := `
        INSERT INTO configurable_characteristics (product_id, characteristics, updated_at)
        VALUES (:product_id, :characteristics, :updated_at)
        ON CONFLICT (product_id) DO UPDATE
        SET characteristics = EXCLUDED.characteristics, updated_at = EXCLUDED.updated_at
    `
	if _, err := sqlx.NamedExecContext(ctx, r.q, query, doc); err != nil {
		return postgres.Classify(err, "save configurable characteristics")
	}
	return nil
}

func ownerColumn(ownerType model.OwnerType) (string, error) {
	switch ownerType {
	case model.OwnerProduct:
		return "product_id", nil
	case model.OwnerVariant:
		return "variant_id", nil
	}
	return "", fmt.Errorf("unknown owner type %q", ownerType)
}

var (
	_ assignment.Repository       = (*PGRepository)(nil)
	_ assignment.TransactionScope = (*PGRepository)(nil)
)
