package database

import (
	"database/sql"
	"fmt"
)

var _ PublicationRepositoryInterface = (*PublicationRepository)(nil)

// PublicationRepository handles database operations for publications
type PublicationRepository struct {
	db *DB
}

func NewPublicationRepository(db *DB) *PublicationRepository {
	return &PublicationRepository{db: db}
}

// IsPublished reports whether an article with this identifier has been
// published before.
func (r *PublicationRepository) IsPublished(identifier string) (bool, error) {
	var one int
	err := r.db.QueryRow(`SELECT 1 FROM publications WHERE identifier = ? LIMIT 1`, identifier).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check publication: %w", err)
	}
	return true, nil
}

// Record upserts a publication. A republished article keeps its original
// created_at and gets the new event id and confirmation counts.
func (r *PublicationRepository) Record(p Publication) error {
	_, err := r.db.Exec(`
		INSERT INTO publications (
			identifier, url, title, event_id,
			relay_count, confirmed_count, published_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (identifier) DO UPDATE SET
			url = excluded.url,
			title = excluded.title,
			event_id = excluded.event_id,
			relay_count = excluded.relay_count,
			confirmed_count = excluded.confirmed_count,
			published_at = excluded.published_at
	`, p.Identifier, p.URL, p.Title, p.EventID,
		p.RelayCount, p.ConfirmedCount, p.PublishedAt.UTC())

	if err != nil {
		return fmt.Errorf("failed to record publication: %w", err)
	}

	return nil
}

// Count returns the total number of recorded publications
func (r *PublicationRepository) Count() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM publications`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count publications: %w", err)
	}
	return count, nil
}

// Recent returns the most recently recorded publications
func (r *PublicationRepository) Recent(limit int) ([]Publication, error) {
	rows, err := r.db.Query(`
		SELECT identifier, url, title, event_id,
		       relay_count, confirmed_count, published_at, created_at
		FROM publications
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent publications: %w", err)
	}
	defer rows.Close()

	var publications []Publication
	for rows.Next() {
		var p Publication
		err := rows.Scan(&p.Identifier, &p.URL, &p.Title, &p.EventID,
			&p.RelayCount, &p.ConfirmedCount, &p.PublishedAt, &p.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan publication: %w", err)
		}
		publications = append(publications, p)
	}

	return publications, rows.Err()
}
