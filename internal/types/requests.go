package types

// CreateExperienceRequest is the manual-edit payload for adding a raw experience.
type CreateExperienceRequest struct {
	Company   string                `json:"company" validate:"required"`
	Title     string                `json:"title" validate:"required"`
	Location  string                `json:"location,omitempty"`
	StartDate string                `json:"start_date,omitempty"`
	EndDate   string                `json:"end_date,omitempty"`
	IsCurrent bool                  `json:"is_current"`
	Bullets   []CreateBulletRequest `json:"bullets,omitempty" validate:"dive"`
}

// CreateBulletRequest is one bullet within a manual experience edit.
type CreateBulletRequest struct {
	Content    string   `json:"content" validate:"required"`
	Importance *float64 `json:"importance,omitempty" validate:"omitempty,gte=0,lte=1"`
}

// CreateSkillRequest is the manual-edit payload for adding a raw skill.
type CreateSkillRequest struct {
	Name        string `json:"name" validate:"required"`
	SourceCount int    `json:"source_count,omitempty" validate:"omitempty,gte=1"`
}

// RawImport is a bulk intake document: raw fragments extracted upstream,
// loaded in one shot before a rebuild.
type RawImport struct {
	Experiences []CreateExperienceRequest `json:"experiences,omitempty" validate:"dive"`
	Skills      []CreateSkillRequest      `json:"skills,omitempty" validate:"dive"`
}
