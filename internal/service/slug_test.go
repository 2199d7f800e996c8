package service

import (
	"testing"

	"github.com/danielforeroj/alwaysonduty/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Acme Inc.":        "acme-inc",
		"  Foo   Bar  ":    "foo-bar",
		"Café & Friends!!": "café-friends",
		"already-slugged":  "already-slugged",
		"UPPER CASE":       "upper-case",
		"!!!":              "",
	}
	for input, want := range cases {
		assert.Equal(t, want, Slugify(input), "input %q", input)
	}
}

func TestCreateTenantWithSlug_Collision(t *testing.T) {
	db := setupDB(t)

	first := &model.Tenant{Name: "Acme Inc"}
	require.NoError(t, CreateTenantWithSlug(db, first))
	assert.Equal(t, "acme-inc", first.Slug)

	second := &model.Tenant{Name: "Acme Inc"}
	require.NoError(t, CreateTenantWithSlug(db, second))
	assert.Equal(t, "acme-inc-2", second.Slug)

	third := &model.Tenant{Name: "Acme Inc"}
	require.NoError(t, CreateTenantWithSlug(db, third))
	assert.Equal(t, "acme-inc-3", third.Slug)
}

func TestCreateAgentWithSlug_ScopedToTenant(t *testing.T) {
	db := setupDB(t)

	tenantA := &model.Tenant{Name: "Tenant A"}
	tenantB := &model.Tenant{Name: "Tenant B"}
	require.NoError(t, CreateTenantWithSlug(db, tenantA))
	require.NoError(t, CreateTenantWithSlug(db, tenantB))

	agentA := &model.Agent{TenantID: tenantA.ID, Name: "Support Bot", JobAndCompanyProfile: []byte("{}"), CustomerProfile: []byte("{}")}
	require.NoError(t, CreateAgentWithSlug(db, agentA))
	assert.Equal(t, "support-bot", agentA.Slug)

	// The same base slug is free in a different tenant.
	agentB := &model.Agent{TenantID: tenantB.ID, Name: "Support Bot", JobAndCompanyProfile: []byte("{}"), CustomerProfile: []byte("{}")}
	require.NoError(t, CreateAgentWithSlug(db, agentB))
	assert.Equal(t, "support-bot", agentB.Slug)

	// But collides within the same tenant.
	agentA2 := &model.Agent{TenantID: tenantA.ID, Name: "Support Bot", JobAndCompanyProfile: []byte("{}"), CustomerProfile: []byte("{}")}
	require.NoError(t, CreateAgentWithSlug(db, agentA2))
	assert.Equal(t, "support-bot-2", agentA2.Slug)
}

func TestRenameAgentSlug_SelfExclusion(t *testing.T) {
	db := setupDB(t)

	tenant := &model.Tenant{Name: "Tenant"}
	require.NoError(t, CreateTenantWithSlug(db, tenant))

	agent := &model.Agent{TenantID: tenant.ID, Name: "Sales Bot", JobAndCompanyProfile: []byte("{}"), CustomerProfile: []byte("{}")}
	require.NoError(t, CreateAgentWithSlug(db, agent))
	require.Equal(t, "sales-bot", agent.Slug)

	// Renaming to the name the agent already holds must not suffix.
	require.NoError(t, RenameAgentSlug(db, agent, "Sales Bot"))
	assert.Equal(t, "sales-bot", agent.Slug)

	other := &model.Agent{TenantID: tenant.ID, Name: "Help Bot", JobAndCompanyProfile: []byte("{}"), CustomerProfile: []byte("{}")}
	require.NoError(t, CreateAgentWithSlug(db, other))

	// Renaming onto a slug held by another agent picks a suffix.
	require.NoError(t, RenameAgentSlug(db, other, "Sales Bot"))
	assert.Equal(t, "sales-bot-2", other.Slug)
}
