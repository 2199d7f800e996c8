package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetPlanLimits(t *testing.T) {
	assert.Equal(t, 200, GetPlanLimits("basic").MonthlyConversationsLimit)
	assert.Equal(t, 500, GetPlanLimits("growth").MonthlyConversationsLimit)
	assert.Equal(t, 1000, GetPlanLimits("premium").MonthlyConversationsLimit)

	// "starter" is the public alias of basic.
	assert.Equal(t, GetPlanLimits("basic"), GetPlanLimits("starter"))
	assert.Equal(t, GetPlanLimits("basic"), GetPlanLimits("STARTER"))

	// Unknown and empty plans fall back to basic.
	assert.Equal(t, GetPlanLimits("basic"), GetPlanLimits(""))
	assert.Equal(t, GetPlanLimits("basic"), GetPlanLimits("enterprise"))
}
