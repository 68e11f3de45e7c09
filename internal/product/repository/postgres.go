package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/medequip-catalog-service/internal/model"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/postgres"
	"github.com/fekuna/medequip-catalog-service/internal/product"
	"github.com/fekuna/medequip-catalog-service/internal/product/dto"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const productColumns = `p.id, p.name, p.sku, p.price, p.discount_price, p.stock_quantity,
	p.category_id, p.manufacturer_id, p.base_attributes, p.status, p.created_at, p.updated_at,
	EXISTS (SELECT 1 FROM product_variants pv WHERE pv.master_id = p.id AND pv.status = 'active') AS has_variants`

const variantColumns = `id, master_id, sku, price_override, discount_price_override, stock_override,
	attributes, is_default, status, created_at, updated_at`

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, p *model.Product) error {
	query := `
        INSERT INTO products (
            id, name, sku, price, discount_price, stock_quantity, category_id,
            manufacturer_id, base_attributes, status, created_at, updated_at
        )
        VALUES (
            :id, :name, :sku, :price, :discount_price, :stock_quantity, :category_id,
            :manufacturer_id, :base_attributes, :status, :created_at, :updated_at
        )
    `
	if _, err := r.DB.NamedExecContext(ctx, query, p); err != nil {
		return postgres.Classify(err, "create product")
	}
	return nil
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	var p model.Product
	query := `SELECT ` + productColumns + ` FROM products p WHERE p.id = $1 LIMIT 1`
	if err := r.DB.GetContext(ctx, &p, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, postgres.Classify(err, "find product")
	}
	return &p, nil
}

// FindByIDs keeps the order of ids and skips deleted products.
func (r *PGRepository) FindByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}
	var rows []model.Product
	query := `SELECT ` + productColumns + ` FROM products p WHERE p.id = ANY($1) AND p.status <> 'deleted'`
	if err := r.DB.SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		return nil, postgres.Classify(err, "find products")
	}
	byID := make(map[string]model.Product, len(rows))
	for _, p := range rows {
		byID[p.ID] = p
	}
	products := make([]model.Product, 0, len(rows))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			products = append(products, p)
		}
	}
	return products, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.ProductFilters) ([]model.Product, int, error) {
	conditions := []string{}
	args := map[string]interface{}{}

	if f.Status != "" {
		conditions = append(conditions, "p.status = :status")
		args["status"] = f.Status
	} else {
		conditions = append(conditions, "p.status <> 'deleted'")
	}
	if f.CategoryID != "" {
		conditions = append(conditions, "p.category_id = :category_id")
		args["category_id"] = f.CategoryID
	}
	if f.ManufacturerID != "" {
		conditions = append(conditions, "p.manufacturer_id = :manufacturer_id")
		args["manufacturer_id"] = f.ManufacturerID
	}
	if f.SearchQuery != "" {
		conditions = append(conditions, "(p.name ILIKE :search OR p.sku ILIKE :search)")
		args["search"] = "%" + f.SearchQuery + "%"
	}
	if len(f.ValueIDs) > 0 {
		// every requested value must be assigned to the product
		conditions = append(conditions, `p.id IN (
            SELECT a.product_id FROM characteristic_assignments a
            WHERE a.product_id IS NOT NULL AND a.value_id = ANY(:value_ids)
            GROUP BY a.product_id
            HAVING COUNT(DISTINCT a.value_id) = :value_count)`)
		args["value_ids"] = pq.Array(f.ValueIDs)
		args["value_count"] = len(dedupe(f.ValueIDs))
	}
	whereClause := " WHERE " + strings.Join(conditions, " AND ")

	var count int
	countQuery, countArgs, err := sqlx.Named("SELECT COUNT(*) FROM products p"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	if err := r.DB.GetContext(ctx, &count, r.DB.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, postgres.Classify(err, "count products")
	}

	orderBy := "p.created_at DESC"
	if f.SortBy != "" {
		switch f.SortBy {
		case "name":
			orderBy = "p.name"
		case "price":
			orderBy = "p.price"
		default:
			orderBy = "p.created_at"
		}
		if strings.ToLower(f.SortOrder) == "asc" {
			orderBy += " ASC"
		} else {
			orderBy += " DESC"
		}
	}
	query := fmt.Sprintf("SELECT %s FROM products p%s ORDER BY %s, p.id", productColumns, whereClause, orderBy)
	if f.PageSize > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, f.Offset())
	}

	listQuery, listArgs, err := sqlx.Named(query, args)
	if err != nil {
		return nil, 0, err
	}
	products := []model.Product{}
	if err := r.DB.SelectContext(ctx, &products, r.DB.Rebind(listQuery), listArgs...); err != nil {
		return nil, 0, postgres.Classify(err, "list products")
	}
	return products, count, nil
}

func (r *PGRepository) Update(ctx context.Context, p *model.Product) error {
	query := `
        UPDATE products SET
            name = :name, sku = :sku, price = :price, discount_price = :discount_price,
            stock_quantity = :stock_quantity, category_id = :category_id,
            manufacturer_id = :manufacturer_id, base_attributes = :base_attributes,
            status = :status, updated_at = :updated_at
        WHERE id = :id AND status <> 'deleted'
    `
	if _, err := r.DB.NamedExecContext(ctx, query, p); err != nil {
		return postgres.Classify(err, "update product")
	}
	return nil
}

func (r *PGRepository) SoftDelete(ctx context.Context, id string, at time.Time) (bool, error) {
	return r.exec(ctx, "delete product",
		`UPDATE products SET status = 'deleted', updated_at = $2 WHERE id = $1 AND status <> 'deleted'`, id, at)
}

func (r *PGRepository) UpdateStock(ctx context.Context, id string, stock int64) (bool, error) {
	return r.exec(ctx, "update product stock",
		`UPDATE products SET stock_quantity = $2, updated_at = NOW() WHERE id = $1 AND status <> 'deleted'`, id, stock)
}

func (r *PGRepository) IsSKUUnique(ctx context.Context, sku, excludeID string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM products WHERE sku = $1 AND status <> 'deleted'`
	args := []interface{}{sku}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	if err := r.DB.GetContext(ctx, &count, query, args...); err != nil {
		return false, postgres.Classify(err, "check product sku")
	}
	return count == 0, nil
}

func (r *PGRepository) ValueIDs(ctx context.Context, productID string) ([]string, error) {
	ids := []string{}
	query := `
        SELECT a.value_id FROM characteristic_assignments a
        JOIN characteristic_values v ON v.id = a.value_id AND v.is_active
        JOIN characteristic_groups g ON g.id = v.group_id AND g.is_active
        WHERE a.product_id = $1
        ORDER BY a.value_id
    `
	if err := r.DB.SelectContext(ctx, &ids, query, productID); err != nil {
		return nil, postgres.Classify(err, "list product values")
	}
	return ids, nil
}

func (r *PGRepository) CreateVariant(ctx context.Context, v *model.ProductVariant) error {
	query := `
        INSERT INTO product_variants (
            id, master_id, sku, price_override, discount_price_override, stock_override,
            attributes, is_default, status, created_at, updated_at
        )
        VALUES (
            :id, :master_id, :sku, :price_override, :discount_price_override, :stock_override,
            :attributes, :is_default, :status, :created_at, :updated_at
        )
    `
	if _, err := r.DB.NamedExecContext(ctx, query, v); err != nil {
		return postgres.Classify(err, "create product variant")
	}
	return nil
}

func (r *PGRepository) FindVariantByID(ctx context.Context, id string) (*model.ProductVariant, error) {
	return r.findVariant(ctx, `SELECT `+variantColumns+` FROM product_variants WHERE id = $1 LIMIT 1`, id)
}

func (r *PGRepository) FirstVariant(ctx context.Context, productID string) (*model.ProductVariant, error) {
	return r.findVariant(ctx, `SELECT `+variantColumns+` FROM product_variants
        WHERE master_id = $1 AND status <> 'deleted'
        ORDER BY is_default DESC, created_at, id LIMIT 1`, productID)
}

func (r *PGRepository) findVariant(ctx context.Context, query, arg string) (*model.ProductVariant, error) {
	var v model.ProductVariant
	if err := r.DB.GetContext(ctx, &v, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, postgres.Classify(err, "find product variant")
	}
	return &v, nil
}

func (r *PGRepository) ListVariants(ctx context.Context, productID string) ([]model.ProductVariant, error) {
	variants := []model.ProductVariant{}
	query := `SELECT ` + variantColumns + ` FROM product_variants
        WHERE master_id = $1 AND status <> 'deleted'
        ORDER BY is_default DESC, created_at, id`
	if err := r.DB.SelectContext(ctx, &variants, query, productID); err != nil {
		return nil, postgres.Classify(err, "list product variants")
	}
	return variants, nil
}

func (r *PGRepository) InsertDefaultVariant(ctx context.Context, v *model.ProductVariant) (bool, error) {
	query := `
        INSERT INTO product_variants (
            id, master_id, sku, price_override, discount_price_override, stock_override,
            attributes, is_default, status, created_at, updated_at
        )
        VALUES (
            :id, :master_id, :sku, :price_override, :discount_price_override, :stock_override,
            :attributes, TRUE, :status, :created_at, :updated_at
        )
        ON CONFLICT (master_id) WHERE is_default AND status <> 'deleted' DO NOTHING
    `
	res, err := r.DB.NamedExecContext(ctx, query, v)
	if err != nil {
		return false, postgres.Classify(err, "create default variant")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, postgres.Classify(err, "create default variant")
	}
	return n > 0, nil
}

func (r *PGRepository) UpdateVariant(ctx context.Context, v *model.ProductVariant) error {
	query := `
        UPDATE product_variants SET
            sku = :sku, price_override = :price_override,
            discount_price_override = :discount_price_override, stock_override = :stock_override,
            attributes = :attributes, status = :status, updated_at = :updated_at
        WHERE id = :id AND status <> 'deleted'
    `
	if _, err := r.DB.NamedExecContext(ctx, query, v); err != nil {
		return postgres.Classify(err, "update product variant")
	}
	return nil
}

func (r *PGRepository) SoftDeleteVariant(ctx context.Context, id string, at time.Time) (bool, error) {
	return r.exec(ctx, "delete product variant",
		`UPDATE product_variants SET status = 'deleted', updated_at = $2 WHERE id = $1 AND status <> 'deleted'`, id, at)
}

func (r *PGRepository) UpdateVariantStock(ctx context.Context, id string, stock sql.Null[int64]) (bool, error) {
	return r.exec(ctx, "update variant stock",
		`UPDATE product_variants SET stock_override = $2, updated_at = NOW() WHERE id = $1 AND status <> 'deleted'`, id, stock)
}

func (r *PGRepository) exec(ctx context.Context, op, query string, args ...interface{}) (bool, error) {
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return false, postgres.Classify(err, op)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, postgres.Classify(err, op)
	}
	return n > 0, nil
}

func dedupe(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

var _ product.Repository = (*PGRepository)(nil)
