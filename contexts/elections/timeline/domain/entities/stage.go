package entities

import "time"

type Category string

const (
	CategoryRegistration Category = "registration"
	CategoryApplication  Category = "application"
	CategoryVoting       Category = "voting"
	CategoryResults      Category = "results"
	CategoryOther        Category = "other"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryRegistration, CategoryApplication, CategoryVoting, CategoryResults, CategoryOther:
		return true
	default:
		return false
	}
}

// Unique reports whether at most one stage of this category may exist.
func (c Category) Unique() bool {
	return c.Valid() && c != CategoryOther
}

type Stage struct {
	StageID   int64
	Name      string
	Category  Category
	StartTime time.Time
	EndTime   time.Time
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Contains reports whether now falls inside the closed window [start, end].
func (s Stage) Contains(now time.Time) bool {
	return !now.Before(s.StartTime) && !now.After(s.EndTime)
}

// Precedes orders stages by start time, then id.
func (s Stage) Precedes(other Stage) bool {
	if !s.StartTime.Equal(other.StartTime) {
		return s.StartTime.Before(other.StartTime)
	}
	return s.StageID < other.StageID
}

type StageChangeKind string

const (
	StageChangeUpserted StageChangeKind = "upserted"
	StageChangeDeleted  StageChangeKind = "deleted"
)

type StageChange struct {
	StageID    int64
	Kind       StageChangeKind
	Category   Category
	OccurredAt time.Time
}
