package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/danielforeroj/alwaysonduty/internal/model"
)

func decodeProfile(raw []byte) map[string]interface{} {
	profile := map[string]interface{}{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &profile)
	}
	return profile
}

func profileString(profile map[string]interface{}, key, fallback string) string {
	if v, ok := profile[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func profileList(profile map[string]interface{}, key string) []string {
	items, ok := profile[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func joinOr(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	return strings.Join(items, ", ")
}

// BuildAgentSystemPrompt flattens an agent's JSON profiles into the
// system prompt sent to the model. Layering order matters: job
// description first, then customers and tone, then data sources.
func BuildAgentSystemPrompt(agent *model.Agent) string {
	job := decodeProfile(agent.JobAndCompanyProfile)
	customer := decodeProfile(agent.CustomerProfile)
	data := decodeProfile(agent.DataProfile)

	companyName := profileString(job, "company_name", "this business")
	languages := joinOr(profileList(customer, "languages"), "the customer's language")

	var websites []string
	if len(agent.AllowedWebsites) > 0 {
		var entries []map[string]interface{}
		if json.Unmarshal(agent.AllowedWebsites, &entries) == nil {
			for _, entry := range entries {
				if url, ok := entry["url"].(string); ok && url != "" {
					websites = append(websites, url)
				}
			}
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are OnDuty, an AI assistant for %s.\n\n", companyName)

	b.WriteString("# 1. Role & high-level goal\n\n")
	fmt.Fprintf(&b, "Primary goal:\n- %s\n\n", profileString(job, "primary_goal", "Help customers quickly and accurately."))
	fmt.Fprintf(&b, "Success is measured by:\n- %s.\n\n",
		joinOr(profileList(job, "success_metrics"), "helpful, accurate responses and happy customers"))
	b.WriteString("Environment:\n- Primary channel: web chat widget hosted by AlwaysOnDuty (OnDuty).\n" +
		"- Do NOT mention WhatsApp, Telegram, email, or internal tools unless the user explicitly asks.\n\n")
	fmt.Fprintf(&b, "Powers (what you can do today):\n- %s\n\n",
		joinOr(profileList(job, "allowed_actions"), "Answer questions and capture leads (name, email, phone)."))
	fmt.Fprintf(&b, "Constraints:\n- Hard constraints: %s\n- Escalate to a human when: %s\n\n",
		profileString(job, "hard_constraints", "Do not make promises the business cannot keep."),
		profileString(job, "escalation_rules", "you are unsure, the customer is upset, or they ask about refunds, legal, medical, or financial advice."))

	b.WriteString("# 2. Company context\n\n")
	fmt.Fprintf(&b, "Company description:\n- Industry: %s\n- Short description: %s\n- Mission: %s\n\n",
		profileString(job, "industry", "not specified"),
		profileString(job, "short_description", "not specified"),
		profileString(job, "mission", "not specified"))

	b.WriteString("# 3. Customers, tone & culture\n\n")
	fmt.Fprintf(&b, "Target segments:\n- %s\n\n", profileString(customer, "target_segments", "not specified"))
	fmt.Fprintf(&b, "Language(s):\n- You should respond in: %s.\n\n", languages)
	fmt.Fprintf(&b, "Tone:\n- Style: %s.\n- Additional tone notes: %s\n\n",
		profileString(customer, "tone_style", "friendly and professional"),
		profileString(customer, "tone_notes", ""))
	fmt.Fprintf(&b, "Cultural guidance:\n- DOs: %s\n- DON'Ts: %s\n\n",
		profileString(customer, "cultural_dos", "None specified."),
		profileString(customer, "cultural_donts", "None specified."))
	fmt.Fprintf(&b, "Typical intents to handle:\n- %s\n\n", profileString(customer, "typical_intents", "not specified"))

	b.WriteString("# 4. Knowledge & data usage\n\n")
	fmt.Fprintf(&b, "Strategy for using knowledge:\n- %s\n\n",
		profileString(data, "strategy_notes", "Use FAQ, product descriptions, and internal policies as primary sources."))
	fmt.Fprintf(&b, "Allowed external websites:\n- You may reference ONLY these websites: %s.\n"+
		"- If information is not covered in provided docs or allowed websites, say you are not sure and offer to connect the user with a human.\n\n",
		joinOr(websites, "no external websites"))

	b.WriteString("# 5. Interaction rules\n\n" +
		"Always:\n" +
		"- Ask clarifying questions if the request is ambiguous or high-risk.\n" +
		"- Prefer short, clear answers, tailored to the user's language and tone.\n" +
		"- For longer answers, use bullet points where helpful.\n" +
		"- Be honest about uncertainty; do NOT hallucinate policies, prices, or guarantees.\n")

	return b.String()
}
