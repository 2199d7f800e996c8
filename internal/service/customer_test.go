package service

import (
	"testing"

	"github.com/danielforeroj/alwaysonduty/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCustomer_CreatesIdentityOnce(t *testing.T) {
	db := setupDB(t)
	tenant := testTenant(t, db)

	first, err := ResolveCustomer(db, tenant.ID, "webchat", "session-abc")
	require.NoError(t, err)

	// Same session resolves to the same customer.
	second, err := ResolveCustomer(db, tenant.ID, "webchat", "session-abc")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var identities int64
	require.NoError(t, db.Model(&model.ChannelIdentity{}).Count(&identities).Error)
	assert.Equal(t, int64(1), identities)

	// A different session is a different customer.
	third, err := ResolveCustomer(db, tenant.ID, "webchat", "session-xyz")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID)
}

func TestResolveCustomer_TenantIsolation(t *testing.T) {
	db := setupDB(t)

	tenantA := &model.Tenant{Name: "Tenant A"}
	tenantB := &model.Tenant{Name: "Tenant B"}
	require.NoError(t, CreateTenantWithSlug(db, tenantA))
	require.NoError(t, CreateTenantWithSlug(db, tenantB))

	a, err := ResolveCustomer(db, tenantA.ID, "webchat", "shared-session")
	require.NoError(t, err)
	b, err := ResolveCustomer(db, tenantB.ID, "webchat", "shared-session")
	require.NoError(t, err)

	// The same external id never crosses the tenant boundary.
	assert.NotEqual(t, a.ID, b.ID)
}

func TestUpsertCustomerByEmail_UpdatesSuppliedFields(t *testing.T) {
	db := setupDB(t)
	tenant := testTenant(t, db)

	created, err := UpsertCustomerByEmail(db, tenant.ID, VerificationInput{
		Email:     "upsert@example.com",
		FirstName: "Up",
	})
	require.NoError(t, err)
	require.NotNil(t, created.FullName)
	assert.Equal(t, "Up", *created.FullName)

	updated, err := UpsertCustomerByEmail(db, tenant.ID, VerificationInput{
		Email:    "upsert@example.com",
		LastName: "Sert",
		Source:   "landing",
	})
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	require.NotNil(t, updated.FullName)
	assert.Equal(t, "Up Sert", *updated.FullName)
	require.NotNil(t, updated.Source)
	assert.Equal(t, "landing", *updated.Source)
}

func TestConversations_ListAndDetail(t *testing.T) {
	db := setupDB(t)
	tenant := testTenant(t, db)

	customer, err := ResolveCustomer(db, tenant.ID, "webchat", "conv-session")
	require.NoError(t, err)

	conversation, err := CreateConversation(db, tenant.ID, customer.ID, nil, "webchat", "")
	require.NoError(t, err)
	assert.Equal(t, model.ConversationStatusOpen, conversation.Status)
	assert.Equal(t, "cs", conversation.AgentType)

	_, err = AddMessage(db, conversation.ID, model.SenderUser, "hello", nil)
	require.NoError(t, err)
	_, err = AddMessage(db, conversation.ID, model.SenderAI, "hi there", nil)
	require.NoError(t, err)

	listed, err := ListConversations(db, tenant.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	detail, err := GetConversation(db, tenant.ID, conversation.ID)
	require.NoError(t, err)
	require.Len(t, detail.Messages, 2)
	assert.Equal(t, model.SenderUser, detail.Messages[0].Sender)
	assert.Equal(t, model.SenderAI, detail.Messages[1].Sender)

	// Another tenant cannot see the conversation.
	other := &model.Tenant{Name: "Other"}
	require.NoError(t, CreateTenantWithSlug(db, other))
	_, err = GetConversation(db, other.ID, conversation.ID)
	assert.Error(t, err)
}
