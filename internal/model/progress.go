package model

import (
	"strings"
	"time"

	"gorm.io/datatypes"

	"pos-service/internal/apperror"
)

// Progress instance states
const (
	ProgressInProgress = "in_progress"
	ProgressCompleted  = "completed"
	ProgressCancelled  = "cancelled"
)

// ProgressTemplate is an ordered list of production stages
type ProgressTemplate struct {
	Master
	Description string                      `json:"description" gorm:"type:text"`
	Stages      datatypes.JSONSlice[string] `json:"stages" gorm:"type:jsonb;not null"`
}

func (t *ProgressTemplate) Validate() error {
	if len(t.Stages) == 0 {
		return apperror.MissingFields("stages")
	}
	for _, s := range t.Stages {
		if strings.TrimSpace(s) == "" {
			return apperror.InvalidRequest("stage names must not be empty", "stages")
		}
	}
	return nil
}

// ProgressInstance tracks one item through the stages of a template.
// Stages are copied from the template so later template edits do not move
// running instances.
type ProgressInstance struct {
	ID               uint                        `json:"id" gorm:"primarykey"`
	TemplateID       uint                        `json:"template_id" gorm:"index;not null"`
	SalesOrderID     *uint                       `json:"sales_order_id,omitempty" gorm:"index"`
	SalesOrderItemID *uint                       `json:"sales_order_item_id,omitempty"`
	CustomerID       *uint                       `json:"customer_id,omitempty" gorm:"index"`
	Title            string                      `json:"title" gorm:"type:varchar(255);not null"`
	Stages           datatypes.JSONSlice[string] `json:"stages" gorm:"type:jsonb;not null"`
	CurrentStage     int                         `json:"current_stage" gorm:"not null;default:0"`
	Status           string                      `json:"status" gorm:"type:varchar(20);index;not null"`
	StartedAt        time.Time                   `json:"started_at"`
	CompletedAt      *time.Time                  `json:"completed_at,omitempty"`
	CreatedBy        uint                        `json:"created_by"`
	CreatedAt        time.Time                   `json:"created_at"`
	UpdatedAt        time.Time                   `json:"updated_at"`
	Events           []*ProgressEvent            `json:"events,omitempty" gorm:"-"`
}

// ProgressEvent is one stage change of an instance
type ProgressEvent struct {
	ID         uint      `json:"id" gorm:"primarykey"`
	InstanceID uint      `json:"instance_id" gorm:"index;not null"`
	FromStage  string    `json:"from_stage"`
	ToStage    string    `json:"to_stage"`
	Note       string    `json:"note" gorm:"type:text"`
	Actor      uint      `json:"actor"`
	At         time.Time `json:"at"`
}

// StageName returns the name of the current stage
func (p *ProgressInstance) StageName() string {
	if p.CurrentStage < 0 || p.CurrentStage >= len(p.Stages) {
		return ""
	}
	return p.Stages[p.CurrentStage]
}

// Advance moves to the next stage, completing the instance when it leaves
// the last one, and returns the event describing the change.
func (p *ProgressInstance) Advance(actor uint, note string, now time.Time) (*ProgressEvent, error) {
	if p.Status != ProgressInProgress {
		return nil, apperror.InvalidTransition("progress is " + p.Status)
	}

	ev := &ProgressEvent{
		InstanceID: p.ID,
		FromStage:  p.StageName(),
		Note:       note,
		Actor:      actor,
		At:         now,
	}

	if p.CurrentStage >= len(p.Stages)-1 {
		p.Status = ProgressCompleted
		p.CompletedAt = &now
		ev.ToStage = ProgressCompleted
		return ev, nil
	}

	p.CurrentStage++
	ev.ToStage = p.StageName()
	return ev, nil
}

// Cancel stops an in-progress instance
func (p *ProgressInstance) Cancel(actor uint, note string, now time.Time) (*ProgressEvent, error) {
	if p.Status != ProgressInProgress {
		return nil, apperror.InvalidTransition("progress is " + p.Status)
	}
	p.Status = ProgressCancelled
	return &ProgressEvent{
		InstanceID: p.ID,
		FromStage:  p.StageName(),
		ToStage:    ProgressCancelled,
		Note:       note,
		Actor:      actor,
		At:         now,
	}, nil
}
