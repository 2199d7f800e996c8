package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/danielforeroj/alwaysonduty/internal/mailer"
	"github.com/danielforeroj/alwaysonduty/internal/model"
	"github.com/danielforeroj/alwaysonduty/internal/service"
	"github.com/danielforeroj/alwaysonduty/pkg/database"
	"github.com/danielforeroj/alwaysonduty/pkg/logger"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SuperAdminRequestPasswordReset mirrors the tenant flow but only acts
// on SUPER_ADMIN accounts and links to the back-office reset page. The
// response never reveals whether the address matched.
func SuperAdminRequestPasswordReset(c echo.Context) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil || req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email is required"})
	}

	user, token, err := service.RequestPasswordReset(database.GetDB(), req.Email, model.RoleSuperAdmin)
	if err != nil {
		logger.FromContext(c).Error("super admin reset request failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "request failed"})
	}
	if user != nil {
		go mailer.SendPasswordReset(user.Email, token, true)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "if the address exists, a reset link was sent"})
}

// SuperAdminOverview returns platform-wide counts for the back office
func SuperAdminOverview(c echo.Context) error {
	log := logger.FromContext(c)
	db := database.GetDB()

	counts := map[string]int64{}
	for name, query := range map[string]*gorm.DB{
		"tenants":        db.Model(&model.Tenant{}),
		"active_tenants": db.Model(&model.Tenant{}).Where("billing_status IN ?", []string{model.BillingStatusTrial, model.BillingStatusActive}),
		"users":          db.Model(&model.User{}),
		"customers":      db.Model(&model.Customer{}),
		"conversations":  db.Model(&model.Conversation{}),
		"agents":         db.Model(&model.Agent{}),
	} {
		var count int64
		if err := query.Count(&count).Error; err != nil {
			log.Error("overview count failed", zap.String("entity", name), zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
		}
		counts[name] = count
	}

	var signups30d int64
	since := time.Now().UTC().AddDate(0, 0, -30)
	if err := db.Model(&model.Tenant{}).Where("created_at >= ?", since).Count(&signups30d).Error; err != nil {
		log.Error("overview signup count failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	counts["signups_30d"] = signups30d

	return c.JSON(http.StatusOK, counts)
}

type tenantSummary struct {
	model.Tenant
	Owner             *model.User `json:"owner,omitempty"`
	UserCount         int64       `json:"user_count"`
	CustomerCount     int64       `json:"customer_count"`
	ConversationCount int64       `json:"conversation_count"`
}

func summarizeTenant(db *gorm.DB, tenant model.Tenant) tenantSummary {
	summary := tenantSummary{Tenant: tenant}

	var owner model.User
	err := db.Where("tenant_id = ? AND role = ?", tenant.ID, model.RoleTenantAdmin).
		Order("created_at ASC").First(&owner).Error
	if err == nil {
		summary.Owner = &owner
	}

	db.Model(&model.User{}).Where("tenant_id = ?", tenant.ID).Count(&summary.UserCount)
	db.Model(&model.Customer{}).Where("tenant_id = ?", tenant.ID).Count(&summary.CustomerCount)
	db.Model(&model.Conversation{}).Where("tenant_id = ?", tenant.ID).Count(&summary.ConversationCount)
	return summary
}

// SuperAdminListTenants lists tenants with owner and usage counts
func SuperAdminListTenants(c echo.Context) error {
	db := database.GetDB()
	page, pageSize := pagination(c)

	query := db.Model(&model.Tenant{})
	if search := c.QueryParam("search"); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("name LIKE ? OR slug LIKE ?", pattern, pattern)
	}
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("billing_status = ?", status)
	}
	if plan := c.QueryParam("plan_type"); plan != "" {
		query = query.Where("plan_type = ?", plan)
	}
	if special := c.QueryParam("special"); special == "true" {
		query = query.Where("is_special_permissioned = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.FromContext(c).Error("tenant count failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	var tenants []model.Tenant
	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&tenants).Error
	if err != nil {
		logger.FromContext(c).Error("tenant listing failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	summaries := make([]tenantSummary, 0, len(tenants))
	for _, tenant := range tenants {
		summaries = append(summaries, summarizeTenant(db, tenant))
	}

	return c.JSON(http.StatusOK, echo.Map{
		"tenants":   summaries,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// SuperAdminCreateTenant provisions a tenant with its admin user, same
// rollback semantics as public signup
func SuperAdminCreateTenant(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		Name                  string `json:"name"`
		AdminName             string `json:"admin_name"`
		AdminEmail            string `json:"admin_email"`
		AdminPassword         string `json:"admin_password"`
		PlanType              string `json:"plan_type"`
		TrialMode             string `json:"trial_mode"`
		IsSpecialPermissioned bool   `json:"is_special_permissioned"`
		TrialDaysOverride     *int   `json:"trial_days_override"`
		CardRequired          *bool  `json:"card_required"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Name == "" || req.AdminEmail == "" || req.AdminPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, admin_email and admin_password are required"})
	}

	result, err := service.Signup(database.GetDB(), service.SignupInput{
		Name:         req.AdminName,
		BusinessName: req.Name,
		Email:        req.AdminEmail,
		Password:     req.AdminPassword,
		PlanType:     req.PlanType,
		TrialMode:    req.TrialMode,
	})
	if err != nil {
		if errors.Is(err, service.ErrEmailExists) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already registered"})
		}
		log.Error("tenant creation failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create tenant"})
	}

	// Back-office-only flags are applied after the shared provisioning
	// path.
	flags := map[string]interface{}{}
	if req.IsSpecialPermissioned {
		flags["is_special_permissioned"] = true
	}
	if req.TrialDaysOverride != nil {
		flags["trial_days_override"] = *req.TrialDaysOverride
	}
	if req.CardRequired != nil {
		flags["card_required"] = *req.CardRequired
	}
	if len(flags) > 0 {
		if err := database.GetDB().Model(result.Tenant).Updates(flags).Error; err != nil {
			log.Error("tenant flag update failed", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create tenant"})
		}
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"tenant": result.Tenant,
		"user":   result.User,
	})
}

// SuperAdminGetTenant returns one tenant with owner and usage counts
func SuperAdminGetTenant(c echo.Context) error {
	db := database.GetDB()

	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tenant id"})
	}

	var tenant model.Tenant
	if err := db.First(&tenant, "id = ?", tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
		}
		logger.FromContext(c).Error("tenant lookup failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(http.StatusOK, summarizeTenant(db, tenant))
}

// SuperAdminUpdateTenant patches billing and trial flags on a tenant
func SuperAdminUpdateTenant(c echo.Context) error {
	log := logger.FromContext(c)
	db := database.GetDB()

	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tenant id"})
	}

	var tenant model.Tenant
	if err := db.First(&tenant, "id = ?", tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	var req struct {
		Name                  *string    `json:"name"`
		PlanType              *string    `json:"plan_type"`
		BillingStatus         *string    `json:"billing_status"`
		TrialEndsAt           *time.Time `json:"trial_ends_at"`
		IsSpecialPermissioned *bool      `json:"is_special_permissioned"`
		TrialDaysOverride     *int       `json:"trial_days_override"`
		CardRequired          *bool      `json:"card_required"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	updates := map[string]interface{}{}
	if req.Name != nil && *req.Name != "" {
		updates["name"] = *req.Name
	}
	if req.PlanType != nil {
		updates["plan_type"] = *req.PlanType
	}
	if req.BillingStatus != nil {
		switch *req.BillingStatus {
		case model.BillingStatusTrial, model.BillingStatusActive,
			model.BillingStatusPaused, model.BillingStatusCancelled:
			updates["billing_status"] = *req.BillingStatus
		default:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid billing_status"})
		}
	}
	if req.TrialEndsAt != nil {
		updates["trial_ends_at"] = *req.TrialEndsAt
	}
	if req.IsSpecialPermissioned != nil {
		updates["is_special_permissioned"] = *req.IsSpecialPermissioned
	}
	if req.TrialDaysOverride != nil {
		updates["trial_days_override"] = *req.TrialDaysOverride
	}
	if req.CardRequired != nil {
		updates["card_required"] = *req.CardRequired
	}
	if len(updates) == 0 {
		return c.JSON(http.StatusOK, tenant)
	}

	if err := db.Model(&tenant).Updates(updates).Error; err != nil {
		log.Error("tenant update failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update tenant"})
	}
	return c.JSON(http.StatusOK, tenant)
}

// SuperAdminListUsers lists dashboard users across tenants
func SuperAdminListUsers(c echo.Context) error {
	page, pageSize := pagination(c)

	query := database.GetDB().Model(&model.User{}).Preload("Tenant")
	if search := c.QueryParam("search"); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("email LIKE ? OR name LIKE ?", pattern, pattern)
	}
	if role := c.QueryParam("role"); role != "" {
		query = query.Where("role = ?", role)
	}
	if tenantID := c.QueryParam("tenant_id"); tenantID != "" {
		query = query.Where("tenant_id = ?", tenantID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.FromContext(c).Error("user count failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	var users []model.User
	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&users).Error
	if err != nil {
		logger.FromContext(c).Error("user listing failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"users":     users,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// SuperAdminGetUser returns one user with its tenant
func SuperAdminGetUser(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	var user model.User
	err = database.GetDB().Preload("Tenant").First(&user, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(http.StatusOK, user)
}

// SuperAdminCreateUser adds a user to a tenant with a temporary password
// and sends an invite reset link
func SuperAdminCreateUser(c echo.Context) error {
	log := logger.FromContext(c)
	db := database.GetDB()

	var req struct {
		TenantID string `json:"tenant_id"`
		Name     string `json:"name"`
		Email    string `json:"email"`
		Role     string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.TenantID == "" || req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id and email are required"})
	}
	tenantID, err := uuid.Parse(req.TenantID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tenant id"})
	}

	var tenant model.Tenant
	if err := db.First(&tenant, "id = ?", tenantID).Error; err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant not found"})
	}

	role := req.Role
	if role == "" {
		role = model.RoleTenantAdmin
	}
	if role != model.RoleTenantAdmin && role != model.RoleSuperAdmin {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role"})
	}

	// The account starts on an unguessable password; the invite email
	// carries a reset link to set a real one.
	tempPassword, err := service.RandomPassword()
	if err != nil {
		log.Error("temp password generation failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create user"})
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create user"})
	}

	var name *string
	if req.Name != "" {
		name = &req.Name
	}
	user := &model.User{
		TenantID:       tenantID,
		Name:           name,
		Email:          service.NormalizeEmail(req.Email),
		HashedPassword: string(hashed),
		Role:           role,
		IsActive:       true,
	}
	if err := db.Create(user).Error; err != nil {
		if service.IsDuplicateKey(err) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already registered"})
		}
		log.Error("user creation failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create user"})
	}

	if _, token, err := service.RequestPasswordReset(db, user.Email); err == nil && token != "" {
		go mailer.SendPasswordReset(user.Email, token, role == model.RoleSuperAdmin)
	}

	return c.JSON(http.StatusCreated, user)
}

// SuperAdminUpdateUser patches user fields. The last active SUPER_ADMIN
// can be neither demoted nor deactivated.
func SuperAdminUpdateUser(c echo.Context) error {
	log := logger.FromContext(c)
	db := database.GetDB()

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	var user model.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	var req struct {
		Name     *string `json:"name"`
		Role     *string `json:"role"`
		IsActive *bool   `json:"is_active"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	demoting := req.Role != nil && user.Role == model.RoleSuperAdmin && *req.Role != model.RoleSuperAdmin
	deactivating := req.IsActive != nil && !*req.IsActive && user.Role == model.RoleSuperAdmin
	if demoting || deactivating {
		var superAdmins int64
		if err := db.Model(&model.User{}).
			Where("role = ? AND is_active = ?", model.RoleSuperAdmin, true).
			Count(&superAdmins).Error; err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
		}
		if superAdmins <= 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot remove the last super admin"})
		}
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Role != nil {
		if *req.Role != model.RoleTenantAdmin && *req.Role != model.RoleSuperAdmin {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role"})
		}
		updates["role"] = *req.Role
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		return c.JSON(http.StatusOK, user)
	}

	if err := db.Model(&user).Updates(updates).Error; err != nil {
		log.Error("user update failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update user"})
	}
	return c.JSON(http.StatusOK, user)
}

type chatUserSummary struct {
	model.Customer
	ConversationCount int64 `json:"conversation_count"`
	MessageCount      int64 `json:"message_count"`
}

func summarizeChatUser(db *gorm.DB, customer model.Customer) chatUserSummary {
	summary := chatUserSummary{Customer: customer}
	db.Model(&model.Conversation{}).Where("customer_id = ?", customer.ID).Count(&summary.ConversationCount)
	db.Model(&model.Message{}).
		Joins("JOIN conversations ON conversations.id = messages.conversation_id").
		Where("conversations.customer_id = ?", customer.ID).
		Count(&summary.MessageCount)
	return summary
}

// SuperAdminListChatUsers lists end-user customers across tenants with
// usage counts
func SuperAdminListChatUsers(c echo.Context) error {
	db := database.GetDB()
	page, pageSize := pagination(c)

	query := db.Model(&model.Customer{})
	if tenantID := c.QueryParam("tenant_id"); tenantID != "" {
		query = query.Where("tenant_id = ?", tenantID)
	}
	if search := c.QueryParam("search"); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("email LIKE ? OR full_name LIKE ? OR primary_phone LIKE ?", pattern, pattern, pattern)
	}
	if source := c.QueryParam("source"); source != "" {
		query = query.Where("source = ?", source)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.FromContext(c).Error("chat user count failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	var customers []model.Customer
	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&customers).Error
	if err != nil {
		logger.FromContext(c).Error("chat user listing failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	summaries := make([]chatUserSummary, 0, len(customers))
	for _, customer := range customers {
		summaries = append(summaries, summarizeChatUser(db, customer))
	}

	return c.JSON(http.StatusOK, echo.Map{
		"chat_users": summaries,
		"total":      total,
		"page":       page,
		"page_size":  pageSize,
	})
}

// SuperAdminGetChatUser returns one customer with a per-conversation
// rollup
func SuperAdminGetChatUser(c echo.Context) error {
	db := database.GetDB()

	customerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid customer id"})
	}

	var customer model.Customer
	if err := db.First(&customer, "id = ?", customerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "customer not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	var conversations []model.Conversation
	if err := db.Where("customer_id = ?", customer.ID).
		Order("started_at DESC").Find(&conversations).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	type conversationRollup struct {
		model.Conversation
		MessageCount int64 `json:"message_count"`
	}
	rollups := make([]conversationRollup, 0, len(conversations))
	for _, conversation := range conversations {
		rollup := conversationRollup{Conversation: conversation}
		db.Model(&model.Message{}).Where("conversation_id = ?", conversation.ID).Count(&rollup.MessageCount)
		rollups = append(rollups, rollup)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"customer":      summarizeChatUser(db, customer),
		"conversations": rollups,
	})
}

// SuperAdminListAgents lists agents across tenants
func SuperAdminListAgents(c echo.Context) error {
	page, pageSize := pagination(c)

	query := database.GetDB().Model(&model.Agent{})
	if tenantID := c.QueryParam("tenant_id"); tenantID != "" {
		query = query.Where("tenant_id = ?", tenantID)
	}
	if agentType := c.QueryParam("agent_type"); agentType != "" {
		query = query.Where("agent_type = ?", agentType)
	}
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.FromContext(c).Error("agent count failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	var agents []model.Agent
	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&agents).Error
	if err != nil {
		logger.FromContext(c).Error("agent listing failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"agents":    agents,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// SuperAdminGetAgent returns one agent with its usage totals
func SuperAdminGetAgent(c echo.Context) error {
	db := database.GetDB()

	agentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid agent id"})
	}

	var agent model.Agent
	if err := db.First(&agent, "id = ?", agentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "agent not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	var conversationCount, messageCount, documentCount int64
	db.Model(&model.Conversation{}).Where("agent_id = ?", agent.ID).Count(&conversationCount)
	db.Model(&model.Message{}).
		Joins("JOIN conversations ON conversations.id = messages.conversation_id").
		Where("conversations.agent_id = ?", agent.ID).
		Count(&messageCount)
	db.Model(&model.AgentDocument{}).Where("agent_id = ?", agent.ID).Count(&documentCount)

	return c.JSON(http.StatusOK, echo.Map{
		"agent":              agent,
		"conversation_count": conversationCount,
		"message_count":      messageCount,
		"document_count":     documentCount,
	})
}

// SuperAdminUpdateAgent patches an agent's status from the back office
func SuperAdminUpdateAgent(c echo.Context) error {
	db := database.GetDB()

	agentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid agent id"})
	}

	var agent model.Agent
	if err := db.First(&agent, "id = ?", agentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "agent not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	switch req.Status {
	case model.AgentStatusDraft, model.AgentStatusActive, model.AgentStatusDisabled:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}

	if err := db.Model(&agent).Update("status", req.Status).Error; err != nil {
		logger.FromContext(c).Error("agent status update failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update agent"})
	}
	return c.JSON(http.StatusOK, agent)
}
