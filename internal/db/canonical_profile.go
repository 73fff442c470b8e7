package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/profile-reconciler/internal/types"
)

// ReplaceCanonicalProfile swaps the user's canonical profile for a freshly
// computed one in a single transaction: delete child-before-parent, then insert
// parent-before-child. A crash mid-replace rolls back to the prior generation.
func (db *DB) ReplaceCanonicalProfile(ctx context.Context, userID uuid.UUID, profile *types.CanonicalProfile) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Delete prior generation, children first to respect foreign keys.
	if _, err := tx.Exec(ctx,
		`DELETE FROM canonical_bullets
		 WHERE experience_id IN (SELECT id FROM canonical_experiences WHERE user_id = $1)`,
		userID); err != nil {
		return fmt.Errorf("failed to delete canonical bullets: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM canonical_experiences WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete canonical experiences: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM canonical_skills WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete canonical skills: %w", err)
	}

	for _, exp := range profile.Experiences {
		_, err := tx.Exec(ctx,
			`INSERT INTO canonical_experiences
			   (id, user_id, company_key, company_name, primary_title, title_progression,
			    primary_location, locations, start_date, end_date, is_current, source_experience_ids)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			exp.ID, userID, exp.CompanyKey, exp.CompanyName, exp.PrimaryTitle,
			StringArray(exp.TitleProgression), nullIfEmpty(exp.PrimaryLocation),
			StringArray(exp.Locations), nullIfEmpty(exp.StartDate),
			nullIfEmpty(exp.EndDate), exp.IsCurrent, UUIDArray(exp.SourceExperienceIDs),
		)
		if err != nil {
			return fmt.Errorf("failed to insert canonical experience %s: %w", exp.CompanyKey, err)
		}

		for _, b := range exp.Bullets {
			_, err := tx.Exec(ctx,
				`INSERT INTO canonical_bullets
				   (id, experience_id, content, representative_source_id,
				    supporting_source_ids, source_count, avg_similarity, embedding)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				b.ID, exp.ID, b.Content, b.RepresentativeSourceID,
				UUIDArray(b.SupportingSourceIDs), b.SourceCount, b.AvgSimilarity,
				Vector(b.Embedding),
			)
			if err != nil {
				return fmt.Errorf("failed to insert canonical bullet: %w", err)
			}
		}
	}

	for _, skill := range profile.Skills {
		_, err := tx.Exec(ctx,
			`INSERT INTO canonical_skills
			   (id, user_id, skill_key, label, category, source_skill_ids, source_count, weight)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			skill.ID, userID, skill.Key, skill.Label, skill.Category,
			UUIDArray(skill.SourceSkillIDs), skill.SourceCount, skill.Weight,
		)
		if err != nil {
			return fmt.Errorf("failed to insert canonical skill %s: %w", skill.Key, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetCanonicalProfile retrieves the last-persisted canonical state without
// recomputation
func (db *DB) GetCanonicalProfile(ctx context.Context, userID uuid.UUID) (*types.CanonicalProfile, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, user_id, company_key, company_name, primary_title, title_progression,
		        COALESCE(primary_location, ''), locations, COALESCE(start_date, ''),
		        COALESCE(end_date, ''), is_current, source_experience_ids
		 FROM canonical_experiences
		 WHERE user_id = $1
		 ORDER BY is_current DESC, end_date DESC NULLS LAST, start_date DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list canonical experiences: %w", err)
	}
	defer rows.Close()

	profile := &types.CanonicalProfile{}
	for rows.Next() {
		var e types.CanonicalExperience
		var progression, locations StringArray
		var sourceIDs UUIDArray
		if err := rows.Scan(&e.ID, &e.UserID, &e.CompanyKey, &e.CompanyName, &e.PrimaryTitle,
			&progression, &e.PrimaryLocation, &locations, &e.StartDate,
			&e.EndDate, &e.IsCurrent, &sourceIDs); err != nil {
			return nil, fmt.Errorf("failed to scan canonical experience: %w", err)
		}
		e.TitleProgression = progression
		e.Locations = locations
		e.SourceExperienceIDs = sourceIDs
		profile.Experiences = append(profile.Experiences, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read canonical experiences: %w", err)
	}

	for i := range profile.Experiences {
		if err := db.loadCanonicalBullets(ctx, &profile.Experiences[i]); err != nil {
			return nil, err
		}
	}

	skills, err := db.listCanonicalSkills(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile.Skills = skills

	return profile, nil
}

// loadCanonicalBullets loads bullets for a canonical experience
func (db *DB) loadCanonicalBullets(ctx context.Context, exp *types.CanonicalExperience) error {
	rows, err := db.pool.Query(ctx,
		`SELECT id, content, representative_source_id, supporting_source_ids,
		        source_count, avg_similarity, embedding
		 FROM canonical_bullets
		 WHERE experience_id = $1
		 ORDER BY source_count DESC, content`,
		exp.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to load canonical bullets: %w", err)
	}
	defer rows.Close()

	exp.Bullets = nil
	for rows.Next() {
		var b types.DedupedBullet
		var supporting UUIDArray
		var embedding Vector
		if err := rows.Scan(&b.ID, &b.Content, &b.RepresentativeSourceID, &supporting,
			&b.SourceCount, &b.AvgSimilarity, &embedding); err != nil {
			return fmt.Errorf("failed to scan canonical bullet: %w", err)
		}
		b.SupportingSourceIDs = supporting
		b.Embedding = embedding
		exp.Bullets = append(exp.Bullets, b)
	}
	return rows.Err()
}

// listCanonicalSkills loads the user's canonical skills, heaviest first
func (db *DB) listCanonicalSkills(ctx context.Context, userID uuid.UUID) ([]types.CanonicalSkill, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, user_id, skill_key, label, category, source_skill_ids, source_count, weight
		 FROM canonical_skills
		 WHERE user_id = $1
		 ORDER BY weight DESC, skill_key`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list canonical skills: %w", err)
	}
	defer rows.Close()

	var skills []types.CanonicalSkill
	for rows.Next() {
		var s types.CanonicalSkill
		var sourceIDs UUIDArray
		if err := rows.Scan(&s.ID, &s.UserID, &s.Key, &s.Label, &s.Category,
			&sourceIDs, &s.SourceCount, &s.Weight); err != nil {
			return nil, fmt.Errorf("failed to scan canonical skill: %w", err)
		}
		s.SourceSkillIDs = sourceIDs
		skills = append(skills, s)
	}
	return skills, rows.Err()
}
