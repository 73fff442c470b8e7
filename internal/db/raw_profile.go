package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/profile-reconciler/internal/types"
)

// -----------------------------------------------------------------------------
// Raw Experience Methods
// -----------------------------------------------------------------------------

// ListRawExperiencesByUser retrieves all raw experience fragments for a user,
// with their bullets loaded
func (db *DB) ListRawExperiencesByUser(ctx context.Context, userID uuid.UUID) ([]types.RawExperience, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, user_id, company, title, COALESCE(location, ''),
		        COALESCE(start_date, ''), COALESCE(end_date, ''), is_current
		 FROM raw_experiences
		 WHERE user_id = $1
		 ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list raw experiences: %w", err)
	}
	defer rows.Close()

	var exps []types.RawExperience
	for rows.Next() {
		var e types.RawExperience
		if err := rows.Scan(&e.ID, &e.UserID, &e.Company, &e.Title, &e.Location,
			&e.StartDate, &e.EndDate, &e.IsCurrent); err != nil {
			return nil, fmt.Errorf("failed to scan raw experience: %w", err)
		}
		exps = append(exps, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read raw experiences: %w", err)
	}

	for i := range exps {
		if err := db.loadRawBullets(ctx, &exps[i]); err != nil {
			return nil, err
		}
	}
	return exps, nil
}

// loadRawBullets loads bullets for a raw experience
func (db *DB) loadRawBullets(ctx context.Context, exp *types.RawExperience) error {
	rows, err := db.pool.Query(ctx,
		`SELECT id, content, source_count, importance, embedding
		 FROM raw_bullets
		 WHERE experience_id = $1
		 ORDER BY created_at`,
		exp.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to load raw bullets: %w", err)
	}
	defer rows.Close()

	exp.Bullets = nil
	for rows.Next() {
		var b types.RawBullet
		var embedding Vector
		if err := rows.Scan(&b.ID, &b.Content, &b.SourceCount, &b.Importance, &embedding); err != nil {
			return fmt.Errorf("failed to scan raw bullet: %w", err)
		}
		b.Embedding = embedding
		exp.Bullets = append(exp.Bullets, b)
	}
	return rows.Err()
}

// CreateRawExperience inserts a manually entered experience with its bullets
func (db *DB) CreateRawExperience(ctx context.Context, userID uuid.UUID, req *types.CreateExperienceRequest) (*types.RawExperience, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	exp := types.RawExperience{
		UserID:    userID,
		Company:   req.Company,
		Title:     req.Title,
		Location:  req.Location,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		IsCurrent: req.IsCurrent,
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO raw_experiences (user_id, company, title, location, start_date, end_date, is_current)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		userID, req.Company, req.Title, nullIfEmpty(req.Location),
		nullIfEmpty(req.StartDate), nullIfEmpty(req.EndDate), req.IsCurrent,
	).Scan(&exp.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create raw experience: %w", err)
	}

	for _, bi := range req.Bullets {
		b := types.RawBullet{Content: bi.Content, SourceCount: 1, Importance: bi.Importance}
		err = tx.QueryRow(ctx,
			`INSERT INTO raw_bullets (experience_id, content, source_count, importance)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id`,
			exp.ID, bi.Content, 1, bi.Importance,
		).Scan(&b.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to create raw bullet: %w", err)
		}
		exp.Bullets = append(exp.Bullets, b)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &exp, nil
}

// DeleteRawExperience removes a raw experience and its bullets (cascades).
// Returns the owning user id so the caller can trigger a rebuild.
func (db *DB) DeleteRawExperience(ctx context.Context, experienceID uuid.UUID) (uuid.UUID, error) {
	var userID uuid.UUID
	err := db.pool.QueryRow(ctx,
		`DELETE FROM raw_experiences WHERE id = $1 RETURNING user_id`,
		experienceID,
	).Scan(&userID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to delete raw experience: %w", err)
	}
	return userID, nil
}

// -----------------------------------------------------------------------------
// Raw Skill Methods
// -----------------------------------------------------------------------------

// ListRawSkillsByUser retrieves all raw skill strings for a user
func (db *DB) ListRawSkillsByUser(ctx context.Context, userID uuid.UUID) ([]types.RawSkill, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, user_id, name, source_count
		 FROM raw_skills
		 WHERE user_id = $1
		 ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list raw skills: %w", err)
	}
	defer rows.Close()

	var skills []types.RawSkill
	for rows.Next() {
		var s types.RawSkill
		if err := rows.Scan(&s.ID, &s.UserID, &s.Name, &s.SourceCount); err != nil {
			return nil, fmt.Errorf("failed to scan raw skill: %w", err)
		}
		skills = append(skills, s)
	}
	return skills, rows.Err()
}

// CreateRawSkill inserts a manually entered skill
func (db *DB) CreateRawSkill(ctx context.Context, userID uuid.UUID, req *types.CreateSkillRequest) (*types.RawSkill, error) {
	count := req.SourceCount
	if count < 1 {
		count = 1
	}

	skill := types.RawSkill{UserID: userID, Name: req.Name, SourceCount: count}
	err := db.pool.QueryRow(ctx,
		`INSERT INTO raw_skills (user_id, name, source_count)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		userID, req.Name, count,
	).Scan(&skill.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create raw skill: %w", err)
	}
	return &skill, nil
}

// nullIfEmpty converts empty strings to nil for nullable columns
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
