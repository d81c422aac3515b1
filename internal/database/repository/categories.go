package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jask/wizflow/internal/apperrors"
)

const categoryColumns = `id, name, icon, color, type, sort_order, is_custom`

// CategoryFilters defines list filters. A nil Type lists both sides.
type CategoryFilters struct {
	Type *CategoryType
}

// CategoryRepo handles categories. Deleting a category does not touch transactions that
// still carry its name.
type CategoryRepo struct {
	db DBTX
}

func NewCategoryRepo(db DBTX) *CategoryRepo {
	return &CategoryRepo{db: db}
}

func (r *CategoryRepo) List(ctx context.Context, f CategoryFilters) ([]Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories`
	var args []any
	if f.Type != nil {
		query += ` WHERE type = ?`
		args = append(args, *f.Type)
	}
	query += ` ORDER BY sort_order ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CategoryRepo) Get(ctx context.Context, id int64) (*Category, error) {
	return r.getOne(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id)
}

// GetByName returns the first category with that exact name, or nil.
func (r *CategoryRepo) GetByName(ctx context.Context, name string) (*Category, error) {
	return r.getOne(ctx, `SELECT `+categoryColumns+` FROM categories WHERE name = ? ORDER BY id LIMIT 1`, name)
}

func (r *CategoryRepo) getOne(ctx context.Context, query string, arg any) (*Category, error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *CategoryRepo) Create(ctx context.Context, in NewCategory) (int64, error) {
	if err := Validate(in); err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, `
	INSERT INTO categories(name, icon, color, type, sort_order, is_custom)
	VALUES (?, ?, ?, ?, ?, ?)
	`, in.Name, in.Icon, in.Color, in.Type, in.SortOrder, boolInt(in.IsCustom))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Insert writes a complete category row, keeping its id. It is the bulk restore path.
func (r *CategoryRepo) Insert(ctx context.Context, c Category) error {
	if !c.Type.Valid() {
		return apperrors.Validation("category %d: type %q", c.ID, c.Type)
	}
	var id any
	if c.ID > 0 {
		id = c.ID
	}
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO categories(id, name, icon, color, type, sort_order, is_custom)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id, c.Name, c.Icon, c.Color, c.Type, c.SortOrder, boolInt(bool(c.IsCustom)))
	return err
}

// Update applies the non-nil fields of p. Renaming does not rewrite the category text
// stored on existing transactions.
func (r *CategoryRepo) Update(ctx context.Context, id int64, p CategoryPatch) error {
	if err := Validate(p); err != nil {
		return err
	}
	var set patch
	if p.Name != nil {
		set.set("name", *p.Name)
	}
	if p.Icon != nil {
		set.set("icon", *p.Icon)
	}
	if p.Color != nil {
		set.set("color", *p.Color)
	}
	if p.SortOrder != nil {
		set.set("sort_order", *p.SortOrder)
	}
	if set.empty() {
		return nil
	}
	cols, args := set.clause(id)
	_, err := r.db.ExecContext(ctx, `UPDATE categories SET `+cols+` WHERE id = ?`, args...)
	return err
}

// Delete removes the category even when transactions still use its name.
// Check UsageCount first if that matters.
func (r *CategoryRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	return err
}

// UsageCount returns how many transactions carry the category name.
func (r *CategoryRepo) UsageCount(ctx context.Context, name string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE category = ?`, name).Scan(&n)
	return n, err
}

// IsCustom reports whether the category is user-created. Missing categories are not custom.
func (r *CategoryRepo) IsCustom(ctx context.Context, id int64) (bool, error) {
	c, err := r.Get(ctx, id)
	if err != nil || c == nil {
		return false, err
	}
	return bool(c.IsCustom), nil
}

func scanCategory(row scanner) (Category, error) {
	var c Category
	var custom int
	if err := row.Scan(&c.ID, &c.Name, &c.Icon, &c.Color, &c.Type, &c.SortOrder, &custom); err != nil {
		return Category{}, err
	}
	c.IsCustom = custom != 0
	return c, nil
}
