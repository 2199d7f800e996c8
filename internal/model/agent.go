package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	AgentStatusDraft    = "draft"
	AgentStatusActive   = "active"
	AgentStatusDisabled = "disabled"

	AgentTypeCustomerService = "customer_service"
	AgentTypeSales           = "sales"
)

// Agent is a configured AI persona belonging to a tenant. The four wizard
// forms are stored as JSON blobs and flattened into a system prompt at
// reply time.
type Agent struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID uuid.UUID `json:"tenant_id" gorm:"type:uuid;not null;uniqueIndex:idx_agents_tenant_slug"`
	Name     string    `json:"name" gorm:"type:varchar(100);not null"`
	Slug     string    `json:"slug" gorm:"type:varchar(120);not null;uniqueIndex:idx_agents_tenant_slug"`

	Status    string `json:"status" gorm:"type:varchar(20);not null;default:'draft'"`
	AgentType string `json:"agent_type" gorm:"type:varchar(20);not null;default:'customer_service'"`

	ModelProvider string `json:"model_provider" gorm:"type:varchar(50);not null;default:'groq'"`
	ModelName     string `json:"model_name" gorm:"type:varchar(100);not null;default:'llama-3.1-70b-versatile'"`
	TrainingMode  string `json:"training_mode" gorm:"type:varchar(30);not null;default:'prompt_only'"`

	JobAndCompanyProfile datatypes.JSON `json:"job_and_company_profile" gorm:"not null"`
	CustomerProfile      datatypes.JSON `json:"customer_profile" gorm:"not null"`
	DataProfile          datatypes.JSON `json:"data_profile,omitempty"`
	AllowedWebsites      datatypes.JSON `json:"allowed_websites,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *Agent) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// AgentDocument is a binary knowledge attachment owned by an agent and
// cascade-deleted with it.
type AgentDocument struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	AgentID     uuid.UUID `json:"agent_id" gorm:"type:uuid;index;not null"`
	Filename    string    `json:"filename" gorm:"type:varchar(255);not null"`
	ContentType string    `json:"content_type" gorm:"type:varchar(100);not null"`
	SizeBytes   int       `json:"size_bytes" gorm:"not null"`
	Data        []byte    `json:"-" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at"`

	Agent *Agent `json:"-" gorm:"constraint:OnDelete:CASCADE;foreignKey:AgentID"`
}

func (d *AgentDocument) BeforeCreate(*gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
