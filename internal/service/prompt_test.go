package service

import (
	"strings"
	"testing"

	"github.com/danielforeroj/alwaysonduty/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestBuildAgentSystemPrompt(t *testing.T) {
	agent := &model.Agent{
		Name:                 "Support Bot",
		JobAndCompanyProfile: []byte(`{"company_name":"Acme Bakery","primary_goal":"Answer order questions","industry":"food"}`),
		CustomerProfile:      []byte(`{"languages":["Spanish","English"],"tone_style":"warm"}`),
		DataProfile:          []byte(`{"strategy_notes":"Prefer the FAQ"}`),
		AllowedWebsites:      []byte(`[{"url":"https://acme.example"},{"url":"https://menu.example"}]`),
	}

	prompt := BuildAgentSystemPrompt(agent)

	assert.Contains(t, prompt, "Acme Bakery")
	assert.Contains(t, prompt, "Answer order questions")
	assert.Contains(t, prompt, "Spanish, English")
	assert.Contains(t, prompt, "warm")
	assert.Contains(t, prompt, "Prefer the FAQ")
	assert.Contains(t, prompt, "https://acme.example, https://menu.example")

	// Section ordering: role before company before customers before data.
	role := strings.Index(prompt, "# 1. Role")
	company := strings.Index(prompt, "# 2. Company context")
	customers := strings.Index(prompt, "# 3. Customers")
	data := strings.Index(prompt, "# 4. Knowledge")
	assert.True(t, role < company && company < customers && customers < data)
}

func TestBuildAgentSystemPrompt_EmptyProfiles(t *testing.T) {
	agent := &model.Agent{
		Name:                 "Bare Bot",
		JobAndCompanyProfile: []byte(`{}`),
		CustomerProfile:      []byte(`{}`),
	}

	prompt := BuildAgentSystemPrompt(agent)

	assert.Contains(t, prompt, "this business")
	assert.Contains(t, prompt, "the customer's language")
	assert.Contains(t, prompt, "no external websites")
}
