package postgresadapter

import (
	"time"

	"agora/contexts/elections/balloting/domain/entities"
)

type voterModel struct {
	ID            string     `gorm:"column:id;primaryKey"`
	Matric        string     `gorm:"column:matric;not null;uniqueIndex"`
	Email         string     `gorm:"column:email;not null"`
	Verified      bool       `gorm:"column:verified;not null;default:false"`
	Voted         bool       `gorm:"column:voted;not null;default:false;index"`
	IssuanceToken *string    `gorm:"column:issuance_token"`
	VotedAt       *time.Time `gorm:"column:voted_at"`
}

func (voterModel) TableName() string {
	return "voters"
}

func (m voterModel) toEntity() entities.Voter {
	voter := entities.Voter{
		VoterID:  m.ID,
		Matric:   m.Matric,
		Email:    m.Email,
		Verified: m.Verified,
		Voted:    m.Voted,
	}
	if m.IssuanceToken != nil {
		token := *m.IssuanceToken
		voter.IssuanceToken = &token
	}
	if m.VotedAt != nil {
		at := m.VotedAt.UTC()
		voter.VotedAt = &at
	}
	return voter
}

type positionModel struct {
	ID            string `gorm:"column:id;primaryKey"`
	Name          string `gorm:"column:name;not null;uniqueIndex"`
	VoteType      string `gorm:"column:vote_type;not null;default:single"`
	MaxSelections int    `gorm:"column:max_selections;not null;default:1"`
	DisplayOrder  int    `gorm:"column:display_order;not null;default:0"`
}

func (positionModel) TableName() string {
	return "positions"
}

func (m positionModel) toEntity() entities.Position {
	return entities.Position{
		PositionID:    m.ID,
		Name:          m.Name,
		VoteType:      entities.VoteType(m.VoteType),
		MaxSelections: m.MaxSelections,
		DisplayOrder:  m.DisplayOrder,
	}
}

type candidateModel struct {
	ID        string `gorm:"column:id;primaryKey"`
	FullName  string `gorm:"column:full_name;not null"`
	Position  string `gorm:"column:position;not null;index"`
	VoteCount int64  `gorm:"column:vote_count;not null;default:0"`
}

func (candidateModel) TableName() string {
	return "candidates"
}

func (m candidateModel) toEntity() entities.Candidate {
	return entities.Candidate{
		CandidateID: m.ID,
		FullName:    m.FullName,
		Position:    m.Position,
		VoteCount:   m.VoteCount,
	}
}

type issuanceModel struct {
	Token    string    `gorm:"column:token;primaryKey"`
	VoterID  string    `gorm:"column:voter_id;not null;index"`
	IssuedAt time.Time `gorm:"column:issued_at;not null"`
}

func (issuanceModel) TableName() string {
	return "issuance_log"
}

// voteModel has no voter column and no timestamp.
type voteModel struct {
	ID            string `gorm:"column:id;primaryKey"`
	IssuanceToken string `gorm:"column:issuance_token;not null;index"`
	CandidateID   string `gorm:"column:candidate_id;not null;index"`
	Position      string `gorm:"column:position;not null"`
}

func (voteModel) TableName() string {
	return "votes"
}

type auditModel struct {
	ID          string    `gorm:"column:id;primaryKey"`
	EventType   string    `gorm:"column:event_type;not null;index"`
	ActorID     *string   `gorm:"column:actor_id"`
	Description string    `gorm:"column:description;not null"`
	Metadata    []byte    `gorm:"column:metadata;type:jsonb"`
	CreatedAt   time.Time `gorm:"column:created_at;not null"`
}

func (auditModel) TableName() string {
	return "audit_events"
}

type reconciliationModel struct {
	ID         string     `gorm:"column:id;primaryKey"`
	VoterID    string     `gorm:"column:voter_id;not null;index"`
	Reason     string     `gorm:"column:reason;not null"`
	Status     string     `gorm:"column:status;not null;index"`
	Resolution string     `gorm:"column:resolution"`
	ResolvedBy string     `gorm:"column:resolved_by"`
	Note       string     `gorm:"column:note"`
	CreatedAt  time.Time  `gorm:"column:created_at;not null"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;not null"`
	ResolvedAt *time.Time `gorm:"column:resolved_at"`
}

func (reconciliationModel) TableName() string {
	return "reconciliation_items"
}

func reconciliationModelFromEntity(item entities.ReconciliationItem) reconciliationModel {
	row := reconciliationModel{
		ID:         item.ItemID,
		VoterID:    item.VoterID,
		Reason:     item.Reason,
		Status:     string(item.Status),
		Resolution: item.Resolution,
		ResolvedBy: item.ResolvedBy,
		Note:       item.Note,
		CreatedAt:  item.CreatedAt.UTC(),
		UpdatedAt:  item.UpdatedAt.UTC(),
	}
	if row.Status == "" {
		row.Status = string(entities.ReconciliationPending)
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	if item.ResolvedAt != nil {
		at := item.ResolvedAt.UTC()
		row.ResolvedAt = &at
	}
	return row
}

func (m reconciliationModel) toEntity() entities.ReconciliationItem {
	item := entities.ReconciliationItem{
		ItemID:     m.ID,
		VoterID:    m.VoterID,
		Reason:     m.Reason,
		Status:     entities.ReconciliationStatus(m.Status),
		Resolution: m.Resolution,
		ResolvedBy: m.ResolvedBy,
		Note:       m.Note,
		CreatedAt:  m.CreatedAt.UTC(),
		UpdatedAt:  m.UpdatedAt.UTC(),
	}
	if m.ResolvedAt != nil {
		at := m.ResolvedAt.UTC()
		item.ResolvedAt = &at
	}
	return item
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type;not null"`
	PartitionKey string     `gorm:"column:partition_key;not null"`
	Payload      []byte     `gorm:"column:payload;type:jsonb;not null"`
	Status       string     `gorm:"column:status;not null;index"`
	CreatedAt    time.Time  `gorm:"column:created_at;not null"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "balloting_outbox"
}
