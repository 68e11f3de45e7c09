package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fekuna/medequip-catalog-service/internal/model"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/postgres"
	"github.com/fekuna/medequip-catalog-service/internal/taxonomy"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const groupColumns = `id, name, parent_id, sort_order, is_active, created_at, updated_at`
const valueColumns = `id, group_id, value, color_hex, sort_order, is_active, created_at, updated_at`

type PGRepository struct {
	DB *sqlx.DB
	q  sqlx.ExtContext
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db, q: db}
}

// Execute runs fn with a repository bound to a new transaction.
func (r *PGRepository) Execute(ctx context.Context, fn func(repo taxonomy.Repository) error) error {
	return postgres.RunInTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		return fn(&PGRepository{DB: r.DB, q: tx})
	})
}

func (r *PGRepository) ListActiveGroups(ctx context.Context) ([]model.CharacteristicGroup, error) {
	var groups []model.CharacteristicGroup
	query := `SELECT ` + groupColumns + ` FROM characteristic_groups WHERE is_active ORDER BY sort_order, name, id`
	if err := sqlx.SelectContext(ctx, r.q, &groups, query); err != nil {
		return nil, postgres.Classify(err, "list characteristic groups")
	}
	return groups, nil
}

func (r *PGRepository) ListActiveValues(ctx context.Context) ([]model.CharacteristicValue, error) {
	var values []model.CharacteristicValue
	query := `SELECT ` + valueColumns + ` FROM characteristic_values WHERE is_active ORDER BY group_id, sort_order, value`
	if err := sqlx.SelectContext(ctx, r.q, &values, query); err != nil {
		return nil, postgres.Classify(err, "list characteristic values")
	}
	return values, nil
}

func (r *PGRepository) FindGroupByID(ctx context.Context, id string) (*model.CharacteristicGroup, error) {
	return r.findGroup(ctx, `SELECT `+groupColumns+` FROM characteristic_groups WHERE id = $1 LIMIT 1`, id)
}

func (r *PGRepository) LockGroup(ctx context.Context, id string) (*model.CharacteristicGroup, error) {
	return r.findGroup(ctx, `SELECT `+groupColumns+` FROM characteristic_groups WHERE id = $1 FOR UPDATE`, id)
}

func (r *PGRepository) findGroup(ctx context.Context, query, id string) (*model.CharacteristicGroup, error) {
	var group model.CharacteristicGroup
	err := sqlx.GetContext(ctx, r.q, &group, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, postgres.Classify(err, "find characteristic group")
	}
	return &group, nil
}

func (r *PGRepository) FindChildGroups(ctx context.Context, parentIDs []string) ([]model.CharacteristicGroup, error) {
	var groups []model.CharacteristicGroup
	query := `SELECT ` + groupColumns + ` FROM characteristic_groups WHERE parent_id = ANY($1) ORDER BY sort_order, name, id`
	if err := sqlx.SelectContext(ctx, r.q, &groups, query, pq.Array(parentIDs)); err != nil {
		return nil, postgres.Classify(err, "find child groups")
	}
	return groups, nil
}

func (r *PGRepository) NextGroupSortOrder(ctx context.Context, parentID *string) (int, error) {
	var next int
	query := `SELECT COALESCE(MAX(sort_order) + 1, 0) FROM characteristic_groups WHERE parent_id IS NOT DISTINCT FROM $1::uuid`
	if err := sqlx.GetContext(ctx, r.q, &next, query, parentID); err != nil {
		return 0, postgres.Classify(err, "next group sort order")
	}
	return next, nil
}

func (r *PGRepository) CreateGroup(ctx context.Context, g *model.CharacteristicGroup) error {
	query := `
        INSERT INTO characteristic_groups (id, name, parent_id, sort_order, is_active, created_at, updated_at)
        VALUES (:id, :name, :parent_id, :sort_order, :is_active, :created_at, :updated_at)
    `
	_, err := sqlx.NamedExecContext(ctx, r.q, query, g)
	return postgres.Classify(err, "create characteristic group")
}

func (r *PGRepository) UpdateGroup(ctx context.Context, g *model.CharacteristicGroup) error {
	query := `
        UPDATE characteristic_groups
        SET name = :name,
            parent_id = :parent_id,
            sort_order = :sort_order,
            is_active = :is_active,
            updated_at = :updated_at
        WHERE id = :id
    `
	_, err := sqlx.NamedExecContext(ctx, r.q, query, g)
	return postgres.Classify(err, "update characteristic group")
}

func (r *PGRepository) FindValueByID(ctx context.Context, id string) (*model.CharacteristicValue, error) {
	var value model.CharacteristicValue
	query := `SELECT ` + valueColumns + ` FROM characteristic_values WHERE id = $1 LIMIT 1`
	err := sqlx.GetContext(ctx, r.q, &value, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, postgres.Classify(err, "find characteristic value")
	}
	return &value, nil
}

func (r *PGRepository) ListGroupValues(ctx context.Context, groupID string) ([]model.CharacteristicValue, error) {
	var values []model.CharacteristicValue
	query := `SELECT ` + valueColumns + ` FROM characteristic_values WHERE group_id = $1 ORDER BY sort_order, value, id`
	if err := sqlx.SelectContext(ctx, r.q, &values, query, groupID); err != nil {
		return nil, postgres.Classify(err, "list group values")
	}
	return values, nil
}

func (r *PGRepository) NextValueSortOrder(ctx context.Context, groupID string) (int, error) {
	var next int
	query := `SELECT COALESCE(MAX(sort_order) + 1, 0) FROM characteristic_values WHERE group_id = $1`
	if err := sqlx.GetContext(ctx, r.q, &next, query, groupID); err != nil {
		return 0, postgres.Classify(err, "next value sort order")
	}
	return next, nil
}

func (r *PGRepository) CreateValue(ctx context.Context, v *model.CharacteristicValue) error {
	query := `
        INSERT INTO characteristic_values (id, group_id, value, color_hex, sort_order, is_active, created_at, updated_at)
        VALUES (:id, :group_id, :value, :color_hex, :sort_order, :is_active, :created_at, :updated_at)
    `
	_, err := sqlx.NamedExecContext(ctx, r.q, query, v)
	return postgres.Classify(err, "create characteristic value")
}

func (r *PGRepository) CountValues(ctx context.Context, groupIDs []string) (int, error) {
	return r.count(ctx, "count values",
		`SELECT COUNT(*) FROM characteristic_values WHERE group_id = ANY($1)`, groupIDs)
}

func (r *PGRepository) CountAssignments(ctx context.Context, groupIDs []string) (int, error) {
	return r.count(ctx, "count assignments", `
        SELECT COUNT(*)
        FROM characteristic_assignments a
        JOIN characteristic_values v ON v.id = a.value_id
        WHERE v.group_id = ANY($1)`, groupIDs)
}

// CountAffectedProducts counts products assigned directly or through one of
// their variants.
func (r *PGRepository) CountAffectedProducts(ctx context.Context, groupIDs []string) (int, error) {
	return r.count(ctx, "count affected products", `
        SELECT COUNT(DISTINCT COALESCE(a.product_id, pv.master_id))
        FROM characteristic_assignments a
        JOIN characteristic_values v ON v.id = a.value_id
        LEFT JOIN product_variants pv ON pv.id = a.variant_id
        WHERE v.group_id = ANY($1)`, groupIDs)
}

// AffectedProductIDs lists the products CountAffectedProducts counts.
func (r *PGRepository) AffectedProductIDs(ctx context.Context, groupIDs []string) ([]string, error) {
	ids := []string{}
	query := `
        SELECT DISTINCT COALESCE(a.product_id, pv.master_id)
        FROM characteristic_assignments a
        JOIN characteristic_values v ON v.id = a.value_id
        LEFT JOIN product_variants pv ON pv.id = a.variant_id
        WHERE v.group_id = ANY($1)`
	if err := sqlx.SelectContext(ctx, r.q, &ids, query, pq.Array(groupIDs)); err != nil {
		return nil, postgres.Classify(err, "list affected products")
	}
	return ids, nil
}

func (r *PGRepository) ValueProductIDs(ctx context.Context, valueID string) ([]string, error) {
	ids := []string{}
	query := `
        SELECT DISTINCT COALESCE(a.product_id, pv.master_id)
        FROM characteristic_assignments a
        LEFT JOIN product_variants pv ON pv.id = a.variant_id
        WHERE a.value_id = $1`
	if err := sqlx.SelectContext(ctx, r.q, &ids, query, valueID); err != nil {
		return nil, postgres.Classify(err, "list value products")
	}
	return ids, nil
}

func (r *PGRepository) count(ctx context.Context, op, query string, groupIDs []string) (int, error) {
	var n int
	if err := sqlx.GetContext(ctx, r.q, &n, query, pq.Array(groupIDs)); err != nil {
		return 0, postgres.Classify(err, op)
	}
	return n, nil
}

func (r *PGRepository) SampleAffectedProducts(ctx context.Context, groupIDs []string, limit int) ([]model.ProductRef, error) {
	var refs []model.ProductRef
	query := `
        SELECT DISTINCT p.id, p.name, p.sku
        FROM characteristic_assignments a
        JOIN characteristic_values v ON v.id = a.value_id
        LEFT JOIN product_variants pv ON pv.id = a.variant_id
        JOIN products p ON p.id = COALESCE(a.product_id, pv.master_id)
        WHERE v.group_id = ANY($1)
        ORDER BY p.name, p.id
        LIMIT $2`
	if err := sqlx.SelectContext(ctx, r.q, &refs, query, pq.Array(groupIDs), limit); err != nil {
		return nil, postgres.Classify(err, "sample affected products")
	}
	return refs, nil
}

func (r *PGRepository) DeleteAssignmentsByGroups(ctx context.Context, groupIDs []string) (int64, error) {
	return r.exec(ctx, "delete assignments", `
        DELETE FROM characteristic_assignments a
        USING characteristic_values v
        WHERE v.id = a.value_id AND v.group_id = ANY($1)`, pq.Array(groupIDs))
}

func (r *PGRepository) DeleteValuesByGroups(ctx context.Context, groupIDs []string) (int64, error) {
	return r.exec(ctx, "delete values",
		`DELETE FROM characteristic_values WHERE group_id = ANY($1)`, pq.Array(groupIDs))
}

// DeleteGroups removes all ids in one statement so parent/child references
// are checked only once the whole subtree is gone.
func (r *PGRepository) DeleteGroups(ctx context.Context, groupIDs []string) (int64, error) {
	return r.exec(ctx, "delete groups",
		`DELETE FROM characteristic_groups WHERE id = ANY($1)`, pq.Array(groupIDs))
}

func (r *PGRepository) DeleteAssignmentsByValue(ctx context.Context, valueID string) (int64, error) {
	return r.exec(ctx, "delete value assignments",
		`DELETE FROM characteristic_assignments WHERE value_id = $1`, valueID)
}

func (r *PGRepository) DeleteValue(ctx context.Context, valueID string) (int64, error) {
	return r.exec(ctx, "delete value",
		`DELETE FROM characteristic_values WHERE id = $1`, valueID)
}

func (r *PGRepository) exec(ctx context.Context, op, query string, args ...any) (int64, error) {
	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, postgres.Classify(err, op)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, postgres.Classify(err, op)
	}
	return n, nil
}

var (
	_ taxonomy.Repository       = (*PGRepository)(nil)
	_ taxonomy.TransactionScope = (*PGRepository)(nil)
)
