package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// RunRecord persists one completed pipeline run. Only finished results are
// stored; intermediate job state never touches the database.
type RunRecord struct {
	ID                 uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	RunName            string         `json:"run_name" gorm:"type:varchar(100);not null;uniqueIndex"`
	JobName            string         `json:"job_name" gorm:"type:varchar(200);not null"`
	Service            string         `json:"service" gorm:"type:varchar(20);not null"`
	DocumentConfidence float64        `json:"document_confidence" gorm:"not null"`
	ArtifactKey        string         `json:"artifact_key" gorm:"type:varchar(300);not null"`
	Summary            string         `json:"summary" gorm:"type:text"`
	Turns              datatypes.JSON `json:"turns" gorm:"type:jsonb"`
	CreatedAt          time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt          time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (RunRecord) TableName() string {
	return "run_records"
}
