package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/xquisito/pickandgo/internal/checkout"
	"github.com/xquisito/pickandgo/internal/models"
)

var _ checkout.BranchCatalog = (*SQLiteStore)(nil)

// UpsertBranch creates or renames a branch of a restaurant.
func (s *SQLiteStore) UpsertBranch(ctx context.Context, restaurantID string, b models.Branch) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO branches (restaurant_id, branch_number, id, name, address) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(restaurant_id, branch_number) DO UPDATE SET id = excluded.id, name = excluded.name, address = excluded.address`,
		restaurantID, b.BranchNumber, b.ID, b.Name, nullString(b.Address),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert branch: %w", err)
	}
	return nil
}

// Branches lists a restaurant's branches by number.
func (s *SQLiteStore) Branches(ctx context.Context, restaurantID string) ([]models.Branch, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, branch_number, name, address FROM branches WHERE restaurant_id = ? ORDER BY branch_number`,
		restaurantID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query branches: %w", err)
	}
	defer rows.Close()

	var branches []models.Branch
	for rows.Next() {
		var (
			b       models.Branch
			address sql.NullString
		)
		if err := rows.Scan(&b.ID, &b.BranchNumber, &b.Name, &address); err != nil {
			return nil, fmt.Errorf("failed to scan branch: %w", err)
		}
		b.Address = address.String
		branches = append(branches, b)
	}
	return branches, rows.Err()
}

// UpsertMenuItem places an item in a branch menu under the given section.
func (s *SQLiteStore) UpsertMenuItem(ctx context.Context, restaurantID string, branchNumber int, section models.MenuSection, item models.MenuItem) error {
	var available any
	if item.IsAvailable != nil {
		available = *item.IsAvailable
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO menu_items (restaurant_id, branch_number, id, section_id, section_name, name, price, is_available)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(restaurant_id, branch_number, id) DO UPDATE SET
		 section_id = excluded.section_id, section_name = excluded.section_name,
		 name = excluded.name, price = excluded.price, is_available = excluded.is_available`,
		restaurantID, branchNumber, item.ID, section.ID, section.Name, item.Name, item.Price.String(), available,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert menu item: %w", err)
	}
	return nil
}

// MenuForBranch returns the branch menu grouped by section in insertion order.
func (s *SQLiteStore) MenuForBranch(ctx context.Context, restaurantID string, branchNumber int) ([]models.MenuSection, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT section_id, section_name, id, name, price, is_available
		 FROM menu_items WHERE restaurant_id = ? AND branch_number = ? ORDER BY rowid`,
		restaurantID, branchNumber,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query menu: %w", err)
	}
	defer rows.Close()

	var sections []models.MenuSection
	index := map[string]int{}
	for rows.Next() {
		var (
			sectionID, sectionName string
			item                   models.MenuItem
			price                  string
			available              sql.NullBool
		)
		if err := rows.Scan(&sectionID, &sectionName, &item.ID, &item.Name, &price, &available); err != nil {
			return nil, fmt.Errorf("failed to scan menu item: %w", err)
		}
		if item.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("invalid price for menu item %s: %w", item.ID, err)
		}
		if available.Valid {
			v := available.Bool
			item.IsAvailable = &v
		}

		i, ok := index[sectionID]
		if !ok {
			i = len(sections)
			index[sectionID] = i
			sections = append(sections, models.MenuSection{ID: sectionID, Name: sectionName})
		}
		sections[i].Items = append(sections[i].Items, item)
	}
	return sections, rows.Err()
}
