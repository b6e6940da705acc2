package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
)

// PGStore keeps the catalog document as rows in catalog.products. Save
// replaces the full row set in one transaction, preserving the
// whole-document-replace semantics of the blob backend.
type PGStore struct {
	db *sql.DB
}

// NewPGStore creates a Postgres-backed document store.
func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

// Load reads every product row in insertion order.
func (s *PGStore) Load(ctx context.Context) (*Document, error) {
	query := `
		SELECT id, category, name, description, link,
		       COALESCE(part_number, ''), COALESCE(condition, ''),
		       COALESCE(images, '{}'::text[]),
		       specifications, created_at
		FROM catalog.products
		ORDER BY position
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	defer rows.Close()

	doc := &Document{Products: []Product{}}
	for rows.Next() {
		var p Product
		var images pq.StringArray
		var specs []byte

		err := rows.Scan(
			&p.ID, &p.Category, &p.Name, &p.Description, &p.Link,
			&p.PartNumber, &p.Condition, &images, &specs, &p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}

		p.Images = []string(images)
		if len(specs) > 0 {
			if err := json.Unmarshal(specs, &p.Specifications); err != nil {
				return nil, fmt.Errorf("decode specifications for %s: %w", p.ID, err)
			}
		}

		doc.Products = append(doc.Products, p)
	}

	return doc, rows.Err()
}

// Save rewrites the whole table from the document. The transaction keeps
// readers from observing a half-replaced catalog.
func (s *PGStore) Save(ctx context.Context, doc *Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM catalog.products"); err != nil {
		return fmt.Errorf("clear products: %w", err)
	}

	insert := `
		INSERT INTO catalog.products (
			position, id, category, name, description, link,
			part_number, condition, images, specifications, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::jsonb, $11)
	`
	for i, p := range doc.Products {
		var specs interface{}
		if len(p.Specifications) > 0 {
			data, err := json.Marshal(p.Specifications)
			if err != nil {
				return fmt.Errorf("encode specifications for %s: %w", p.ID, err)
			}
			specs = string(data)
		}

		_, err := tx.ExecContext(ctx, insert,
			i, p.ID, p.Category, p.Name, p.Description, p.Link,
			p.PartNumber, p.Condition, pq.Array(p.Images), specs, p.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert product %s: %w", p.ID, err)
		}
	}

	return tx.Commit()
}
