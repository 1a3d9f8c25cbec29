package repo

import (
	"context"
	"fmt"

	"backdrop/internal/domain"
	"backdrop/internal/infra"
	"backdrop/internal/sqlinline"
)

// ProfileRepositoryPG implements profile storage backed by PostgreSQL.
type ProfileRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewProfileRepository creates a new ProfileRepositoryPG.
func NewProfileRepository(sql infra.SQLExecutor) *ProfileRepositoryPG {
	return &ProfileRepositoryPG{sql: sql}
}

// ProfileByID fetches a profile by UUID.
func (r *ProfileRepositoryPG) ProfileByID(ctx context.Context, id string) (domain.Profile, error) {
	var p domain.Profile
	row := r.sql.QueryRow(ctx, sqlinline.QSelectProfileByID, id)
	if err := row.Scan(&p.ID, &p.Email, &p.Role, &p.ImageLimit, &p.ImagesGenerated, &p.AllowedSystemKey, &p.CreatedAt); err != nil {
		if infra.IsNoRows(err) {
			return domain.Profile{}, domain.ErrNotFound
		}
		return domain.Profile{}, fmt.Errorf("select profile: %w", err)
	}
	return p, nil
}

// AllProfiles lists every profile, newest first.
func (r *ProfileRepositoryPG) AllProfiles(ctx context.Context) ([]domain.Profile, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QSelectAllProfiles)
	if err != nil {
		return nil, fmt.Errorf("select profiles: %w", err)
	}
	defer rows.Close()

	var out []domain.Profile
	for rows.Next() {
		var p domain.Profile
		if err := rows.Scan(&p.ID, &p.Email, &p.Role, &p.ImageLimit, &p.ImagesGenerated, &p.AllowedSystemKey, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return out, nil
}

// IncrementUsage bumps the generation counter. The statement only matches
// rows with remaining quota, so a miss means the limit was already reached.
func (r *ProfileRepositoryPG) IncrementUsage(ctx context.Context, id string) error {
	var used, limit int
	row := r.sql.QueryRow(ctx, sqlinline.QIncrementProfileUsage, id)
	if err := row.Scan(&used, &limit); err != nil {
		if infra.IsNoRows(err) {
			return fmt.Errorf("profile %s: %w", id, domain.ErrQuotaExceeded)
		}
		return fmt.Errorf("increment usage: %w", err)
	}
	return nil
}

// UpdateImageLimit sets a user's quota ceiling.
func (r *ProfileRepositoryPG) UpdateImageLimit(ctx context.Context, id string, limit int) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QUpdateProfileImageLimit, id, limit)
	if err != nil {
		return fmt.Errorf("update image limit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ResetUsageCounter zeroes a user's generation counter.
func (r *ProfileRepositoryPG) ResetUsageCounter(ctx context.Context, id string) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QResetProfileUsageCounter, id)
	if err != nil {
		return fmt.Errorf("reset usage counter: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateSystemKeyAccess toggles the user's access to the shared system key.
func (r *ProfileRepositoryPG) UpdateSystemKeyAccess(ctx context.Context, id string, allowed bool) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QUpdateProfileSystemKeyAccess, id, allowed)
	if err != nil {
		return fmt.Errorf("update system key access: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
