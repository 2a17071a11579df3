package store

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"spendwise/internal/domain"
)

// defaultCategories is the built-in category set, used when no seed file is
// configured.
var defaultCategories = []domain.Category{
	{ID: 1, Name: "Food"},
	{ID: 2, Name: "Housing"},
	{ID: 3, Name: "Transport"},
	{ID: 4, Name: "Utilities"},
	{ID: 5, Name: "Healthcare"},
	{ID: 6, Name: "Entertainment"},
	{ID: 7, Name: "Shopping"},
	{ID: 8, Name: "Savings"},
	{ID: 9, Name: "Other"},
}

// seedCategories inserts the category set on first run. An existing row with
// the same id is left untouched, so renames in a seed file never rewrite
// history.
func (s *SQLiteStore) seedCategories(path string) error {
	categories := defaultCategories
	if path != "" {
		loaded, err := loadCategoriesFile(path)
		if err != nil {
			return err
		}
		categories = loaded
		s.logger.Info("loaded category seed file", "path", path, "count", len(categories))
	}

	for _, c := range categories {
		if _, err := s.db.Exec(
			`INSERT OR IGNORE INTO categories (id, name) VALUES (?, ?)`, c.ID, c.Name,
		); err != nil {
			return fmt.Errorf("seed category %d: %w", c.ID, err)
		}
	}
	return nil
}

func loadCategoriesFile(path string) ([]domain.Category, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read categories file: %w", err)
	}

	var doc struct {
		Categories []domain.Category `yaml:"categories"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse categories file: %w", err)
	}
	if len(doc.Categories) == 0 {
		return nil, fmt.Errorf("categories file %s defines no categories", path)
	}

	for _, c := range doc.Categories {
		if c.ID <= 0 || c.Name == "" {
			return nil, fmt.Errorf("categories file %s has an entry without id or name", path)
		}
	}
	return doc.Categories, nil
}
