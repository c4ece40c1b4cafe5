package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/devlink/internal/apperror"
	"github.com/sakif/devlink/internal/model"
	"github.com/sakif/devlink/internal/repository"
)

// compile-time check that *DB implements repository.LinkRepository
var _ repository.LinkRepository = (*DB)(nil)

// CreateLink inserts a new link and publishes the updated collection to
// subscribers. The caller has already assigned Order.
func (db *DB) CreateLink(ctx context.Context, link *model.Link) error {
	link.ID = xid.New().String()

	now := time.Now()
	link.CreatedAt = now
	link.UpdatedAt = now

	stacksJSON, err := encodeStacks(link.Stacks)
	if err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO links (id, profile_id, title, url, description, stacks, order_idx, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		link.ID,
		link.ProfileID,
		link.Title,
		link.URL,
		link.Description,
		stacksJSON,
		link.Order,
		link.CreatedAt,
		link.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating link: %w", err)
	}

	db.publishLinks(link.ProfileID)
	return nil
}

// GetLink retrieves a single link, scoped to the owning profile: a link ID
// that exists under a different profile is NotFound, which is what enforces
// ownership for update and delete paths.
func (db *DB) GetLink(ctx context.Context, profileID, linkID string) (*model.Link, error) {
	var (
		l          model.Link
		stacksJSON string
	)

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, profile_id, title, url, description, stacks, order_idx, created_at, updated_at
		 FROM links
		 WHERE id = ? AND profile_id = ?`,
		linkID, profileID,
	).Scan(
		&l.ID, &l.ProfileID, &l.Title, &l.URL, &l.Description,
		&stacksJSON, &l.Order, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("link", linkID)
		}
		return nil, fmt.Errorf("sqlite: getting link %s: %w", linkID, err)
	}

	if l.Stacks, err = decodeStacks(stacksJSON); err != nil {
		return nil, fmt.Errorf("sqlite: link %s: %w", l.ID, err)
	}

	return &l, nil
}

// ListLinks returns the profile's collection ordered by order_idx
// ascending. rowid breaks ties, so colliding order values still display in a
// stable (insertion) order.
func (db *DB) ListLinks(ctx context.Context, profileID string) ([]model.Link, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, profile_id, title, url, description, stacks, order_idx, created_at, updated_at
		 FROM links
		 WHERE profile_id = ?
		 ORDER BY order_idx ASC, rowid ASC`,
		profileID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing links: %w", err)
	}
	defer rows.Close()

	links := make([]model.Link, 0, 16)
	for rows.Next() {
		var (
			l          model.Link
			stacksJSON string
		)
		if err := rows.Scan(
			&l.ID, &l.ProfileID, &l.Title, &l.URL, &l.Description,
			&stacksJSON, &l.Order, &l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning link row: %w", err)
		}
		if l.Stacks, err = decodeStacks(stacksJSON); err != nil {
			return nil, fmt.Errorf("sqlite: link %s: %w", l.ID, err)
		}
		links = append(links, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating links: %w", err)
	}

	return links, nil
}

// CountLinks returns the size of the profile's collection, used to assign
// the next Order value at append time.
func (db *DB) CountLinks(ctx context.Context, profileID string) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM links WHERE profile_id = ?`, profileID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting links: %w", err)
	}
	return count, nil
}

// UpdateLink applies a partial patch to a link. Only the patch's non-nil fields
// are written; Order in particular stays put unless explicitly patched.
func (db *DB) UpdateLink(ctx context.Context, profileID, linkID string, patch repository.LinkPatch) (*model.Link, error) {
	set := make([]string, 0, 6)
	args := make([]any, 0, 8)

	if patch.Title != nil {
		set = append(set, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.URL != nil {
		set = append(set, "url = ?")
		args = append(args, *patch.URL)
	}
	if patch.Description != nil {
		set = append(set, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.Stacks != nil {
		stacksJSON, err := encodeStacks(*patch.Stacks)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		set = append(set, "stacks = ?")
		args = append(args, stacksJSON)
	}
	if patch.Order != nil {
		set = append(set, "order_idx = ?")
		args = append(args, *patch.Order)
	}

	if len(set) > 0 {
		set = append(set, "updated_at = ?")
		args = append(args, time.Now())
		args = append(args, linkID, profileID)

		query := "UPDATE links SET "
		for i, clause := range set {
			if i > 0 {
				query += ", "
			}
			query += clause
		}
		query += " WHERE id = ? AND profile_id = ?"

		result, err := db.conn.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("sqlite: updating link %s: %w", linkID, err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("sqlite: checking rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return nil, apperror.NotFound("link", linkID)
		}

		db.publishLinks(profileID)
	}

	return db.GetLink(ctx, profileID, linkID)
}

// DeleteLink removes a link. Remaining order values are not renumbered; the gap
// is expected and tolerated by the display ordering.
func (db *DB) DeleteLink(ctx context.Context, profileID, linkID string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM links WHERE id = ? AND profile_id = ?`,
		linkID, profileID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting link %s: %w", linkID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("link", linkID)
	}

	db.publishLinks(profileID)
	return nil
}

// ReorderLinks applies all position updates in one transaction: the single
// multi-record write in the system that must be all-or-nothing. A reorder must
// never be observed partially applied, so any failure (including an unknown
// link ID mid-batch) rolls the whole batch back.
func (db *DB) ReorderLinks(ctx context.Context, profileID string, orders []repository.LinkOrder) error {
	if len(orders) == 0 {
		return nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning reorder transaction: %w", err)
	}
	// Rollback is a no-op after a successful Commit.
	defer tx.Rollback()

	now := time.Now()
	for _, o := range orders {
		result, err := tx.ExecContext(ctx,
			`UPDATE links SET order_idx = ?, updated_at = ? WHERE id = ? AND profile_id = ?`,
			o.Order, now, o.ID, profileID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: reordering link %s: %w", o.ID, err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: checking rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return apperror.NotFound("link", o.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing reorder: %w", err)
	}

	db.publishLinks(profileID)
	return nil
}

// SubscribeLinks implements the push contract: the returned channel fires
// immediately with the current collection snapshot and then on every change.
// The cancel func releases the subscription; holding one open past its use is
// a resource leak (the SSE handler cancels on client disconnect).
func (db *DB) SubscribeLinks(profileID string) (<-chan []model.Link, func()) {
	return db.notifier.subscribe(profileID, func() ([]model.Link, error) {
		return db.ListLinks(context.Background(), profileID)
	})
}

// publishLinks re-reads the collection and fans the snapshot out to active
// subscribers. Called after every mutation; skipped silently when there are
// no subscribers.
func (db *DB) publishLinks(profileID string) {
	if !db.notifier.hasSubscribers(profileID) {
		return
	}
	links, err := db.ListLinks(context.Background(), profileID)
	if err != nil {
		return
	}
	db.notifier.publish(profileID, links)
}
