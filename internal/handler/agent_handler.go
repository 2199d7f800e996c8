package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/danielforeroj/alwaysonduty/internal/mailer"
	"github.com/danielforeroj/alwaysonduty/internal/middleware"
	"github.com/danielforeroj/alwaysonduty/internal/model"
	"github.com/danielforeroj/alwaysonduty/internal/service"
	"github.com/danielforeroj/alwaysonduty/pkg/database"
	"github.com/danielforeroj/alwaysonduty/pkg/logger"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MaxDocumentSize caps agent training document uploads at 10 MB
const MaxDocumentSize = 10 << 20

// ListAgents returns the tenant's agents, newest first
func ListAgents(c echo.Context) error {
	tenant := middleware.CurrentTenant(c)

	var agents []model.Agent
	err := database.GetDB().Where("tenant_id = ?", tenant.ID).
		Order("created_at DESC").Find(&agents).Error
	if err != nil {
		logger.FromContext(c).Error("agent listing failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"agents": agents})
}

type agentRequest struct {
	Name                 string          `json:"name"`
	AgentType            string          `json:"agent_type"`
	Status               string          `json:"status"`
	ModelName            string          `json:"model_name"`
	TrainingMode         string          `json:"training_mode"`
	JobAndCompanyProfile json.RawMessage `json:"job_and_company_profile"`
	CustomerProfile      json.RawMessage `json:"customer_profile"`
	DataProfile          json.RawMessage `json:"data_profile"`
	AllowedWebsites      json.RawMessage `json:"allowed_websites"`
}

// CreateAgent provisions a new agent with a tenant-unique slug
func CreateAgent(c echo.Context) error {
	log := logger.FromContext(c)
	user := middleware.CurrentUser(c)
	tenant := middleware.CurrentTenant(c)

	var req agentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	agent := &model.Agent{
		TenantID:             tenant.ID,
		Name:                 req.Name,
		JobAndCompanyProfile: datatypes.JSON([]byte("{}")),
		CustomerProfile:      datatypes.JSON([]byte("{}")),
	}
	if req.AgentType != "" {
		agent.AgentType = req.AgentType
	}
	if req.Status != "" {
		agent.Status = req.Status
	}
	if req.ModelName != "" {
		agent.ModelName = req.ModelName
	}
	if req.TrainingMode != "" {
		agent.TrainingMode = req.TrainingMode
	}
	if len(req.JobAndCompanyProfile) > 0 {
		agent.JobAndCompanyProfile = datatypes.JSON(req.JobAndCompanyProfile)
	}
	if len(req.CustomerProfile) > 0 {
		agent.CustomerProfile = datatypes.JSON(req.CustomerProfile)
	}
	if len(req.DataProfile) > 0 {
		agent.DataProfile = datatypes.JSON(req.DataProfile)
	}
	if len(req.AllowedWebsites) > 0 {
		agent.AllowedWebsites = datatypes.JSON(req.AllowedWebsites)
	}

	if err := service.CreateAgentWithSlug(database.GetDB(), agent); err != nil {
		log.Error("agent creation failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create agent"})
	}

	go mailer.SendAgentConfigured(user.Email, agent.Name)

	log.Info("agent created",
		zap.String("agent_id", agent.ID.String()),
		zap.String("slug", agent.Slug))
	return c.JSON(http.StatusCreated, agent)
}

func agentByID(c echo.Context) (*model.Agent, error) {
	tenant := middleware.CurrentTenant(c)
	agentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid agent id")
	}

	var agent model.Agent
	err = database.GetDB().Where("tenant_id = ? AND id = ?", tenant.ID, agentID).First(&agent).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "agent not found")
		}
		return nil, err
	}
	return &agent, nil
}

// GetAgent returns one agent within the tenant boundary
func GetAgent(c echo.Context) error {
	agent, err := agentByID(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, agent)
}

// UpdateAgent patches agent fields. A rename re-allocates the slug,
// excluding the agent's own row from collision checks.
func UpdateAgent(c echo.Context) error {
	log := logger.FromContext(c)

	agent, err := agentByID(c)
	if err != nil {
		return err
	}

	var req agentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	db := database.GetDB()
	updates := map[string]interface{}{}
	if req.AgentType != "" {
		updates["agent_type"] = req.AgentType
	}
	if req.Status != "" {
		updates["status"] = req.Status
	}
	if req.ModelName != "" {
		updates["model_name"] = req.ModelName
	}
	if req.TrainingMode != "" {
		updates["training_mode"] = req.TrainingMode
	}
	if len(req.JobAndCompanyProfile) > 0 {
		updates["job_and_company_profile"] = datatypes.JSON(req.JobAndCompanyProfile)
	}
	if len(req.CustomerProfile) > 0 {
		updates["customer_profile"] = datatypes.JSON(req.CustomerProfile)
	}
	if len(req.DataProfile) > 0 {
		updates["data_profile"] = datatypes.JSON(req.DataProfile)
	}
	if len(req.AllowedWebsites) > 0 {
		updates["allowed_websites"] = datatypes.JSON(req.AllowedWebsites)
	}

	if len(updates) > 0 {
		if err := db.Model(agent).Updates(updates).Error; err != nil {
			log.Error("agent update failed", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update agent"})
		}
	}

	if req.Name != "" && req.Name != agent.Name {
		if err := db.Model(agent).Update("name", req.Name).Error; err != nil {
			log.Error("agent rename failed", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update agent"})
		}
		agent.Name = req.Name
		if err := service.RenameAgentSlug(db, agent, req.Name); err != nil {
			log.Error("agent slug reallocation failed", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update agent"})
		}
	}

	refreshed, err := agentByID(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, refreshed)
}

// DeleteAgent disables the agent instead of removing its history
func DeleteAgent(c echo.Context) error {
	agent, err := agentByID(c)
	if err != nil {
		return err
	}

	if err := database.GetDB().Model(agent).Update("status", model.AgentStatusDisabled).Error; err != nil {
		logger.FromContext(c).Error("agent disable failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to disable agent"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "agent disabled"})
}

// UploadAgentDocument stores one training document for the agent
func UploadAgentDocument(c echo.Context) error {
	log := logger.FromContext(c)

	agent, err := agentByID(c)
	if err != nil {
		return err
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "file is required"})
	}
	if fileHeader.Size > MaxDocumentSize {
		return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "file exceeds 10MB limit"})
	}

	src, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable file"})
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, MaxDocumentSize+1))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable file"})
	}
	if len(data) > MaxDocumentSize {
		return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "file exceeds 10MB limit"})
	}

	document := &model.AgentDocument{
		AgentID:     agent.ID,
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		SizeBytes:   len(data),
		Data:        data,
	}
	if err := database.GetDB().Create(document).Error; err != nil {
		log.Error("document upload failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to store document"})
	}

	// The blob stays out of the response.
	document.Data = nil
	return c.JSON(http.StatusCreated, document)
}

// ListAgentDocuments lists the agent's documents without their blobs
func ListAgentDocuments(c echo.Context) error {
	agent, err := agentByID(c)
	if err != nil {
		return err
	}

	var documents []model.AgentDocument
	err = database.GetDB().
		Select("id", "agent_id", "filename", "content_type", "size_bytes", "created_at").
		Where("agent_id = ?", agent.ID).
		Order("created_at DESC").Find(&documents).Error
	if err != nil {
		logger.FromContext(c).Error("document listing failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"documents": documents})
}

// DeleteAgentDocument removes one document from the agent
func DeleteAgentDocument(c echo.Context) error {
	agent, err := agentByID(c)
	if err != nil {
		return err
	}

	documentID, err := uuid.Parse(c.Param("document_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid document id"})
	}

	result := database.GetDB().Where("agent_id = ? AND id = ?", agent.ID, documentID).
		Delete(&model.AgentDocument{})
	if result.Error != nil {
		logger.FromContext(c).Error("document delete failed", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "document not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "document deleted"})
}
