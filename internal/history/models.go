package history

import "time"

// Run is one recorded script execution.
type Run struct {
	ID            string    `gorm:"primaryKey" json:"run_id"`
	Script        string    `gorm:"not null;index:idx_script" json:"script"`
	Status        string    `gorm:"not null;check:status IN ('success','mismatch','failed','timeout')" json:"status"`
	Error         string    `gorm:"not null;default:''" json:"error,omitempty"`
	ExecutionTime int64     `gorm:"not null;default:0" json:"execution_time"` // milliseconds
	Score         *int      `gorm:"default:null" json:"score,omitempty"`
	Context       string    `gorm:"not null;default:''" json:"context,omitempty"` // JSON
	Suite         string    `gorm:"not null;default:'';index:idx_suite" json:"suite,omitempty"`
	CreatedAt     time.Time `gorm:"index:idx_created_at" json:"created_at"`
}

// TableName specifies the table name for GORM
func (Run) TableName() string { return "runs" }
