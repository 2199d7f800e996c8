package service

import "strings"

// PlanLimits describes the quota bundle attached to a plan
type PlanLimits struct {
	MonthlyConversationsLimit int `json:"monthly_conversations_limit"`
	BrandsLimit               int `json:"brands_limit"`
	SeatsIncluded             int `json:"seats_included"`
	ChannelsIncluded          int `json:"channels_included"`
}

var planLimits = map[string]PlanLimits{
	"basic":   {MonthlyConversationsLimit: 200, BrandsLimit: 1, SeatsIncluded: 1, ChannelsIncluded: 1},
	"growth":  {MonthlyConversationsLimit: 500, BrandsLimit: 2, SeatsIncluded: 3, ChannelsIncluded: 2},
	"premium": {MonthlyConversationsLimit: 1000, BrandsLimit: 3, SeatsIncluded: 5, ChannelsIncluded: 3},
}

// GetPlanLimits resolves the limits for a plan type. "starter" is the
// public name of the basic plan; unknown plans fall back to basic.
func GetPlanLimits(planType string) PlanLimits {
	normalized := strings.ToLower(planType)
	if normalized == "" || normalized == "starter" {
		normalized = "basic"
	}
	if limits, ok := planLimits[normalized]; ok {
		return limits
	}
	return planLimits["basic"]
}
