package service

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/danielforeroj/alwaysonduty/internal/model"

	"gorm.io/gorm"
)

// slugRetryCap bounds the numeric-suffix search. Past it a random suffix
// is used so a pathological collision set cannot loop forever.
const slugRetryCap = 25

// Slugify derives a URL-safe slug: lowercase, runs of non-alphanumerics
// collapsed to a single dash, no leading or trailing dash.
func Slugify(name string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		} else {
			pendingDash = true
		}
	}
	return b.String()
}

func randomSlugSuffix() string {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		return "x"
	}
	return hex.EncodeToString(buf)
}

// IsDuplicateKey reports whether err is a storage-layer uniqueness
// violation. Relies on gorm's TranslateError; the string checks cover
// drivers opened without it.
func IsDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed")
}

// CreateTenantWithSlug inserts the tenant, deriving its slug from the
// name (or the pre-set slug) and retrying with an incrementing numeric
// suffix on uniqueness violations. The insert itself is the collision
// check: a pre-check-then-insert would not be race-free.
func CreateTenantWithSlug(db *gorm.DB, tenant *model.Tenant) error {
	base := tenant.Slug
	if base == "" {
		base = Slugify(tenant.Name)
	}
	if base == "" {
		base = "tenant"
	}

	candidate := base
	for attempt := 2; ; attempt++ {
		tenant.Slug = candidate
		err := db.Create(tenant).Error
		if err == nil {
			return nil
		}
		if !IsDuplicateKey(err) {
			return err
		}
		if attempt > slugRetryCap {
			candidate = fmt.Sprintf("%s-%s", base, randomSlugSuffix())
			continue
		}
		candidate = fmt.Sprintf("%s-%d", base, attempt)
	}
}

// CreateAgentWithSlug inserts the agent with a slug unique within its
// tenant, using the same insert-and-retry contract as tenants.
func CreateAgentWithSlug(db *gorm.DB, agent *model.Agent) error {
	base := agent.Slug
	if base == "" {
		base = Slugify(agent.Name)
	}
	if base == "" {
		base = "agent"
	}

	candidate := base
	for attempt := 2; ; attempt++ {
		agent.Slug = candidate
		err := db.Create(agent).Error
		if err == nil {
			return nil
		}
		if !IsDuplicateKey(err) {
			return err
		}
		if attempt > slugRetryCap {
			candidate = fmt.Sprintf("%s-%s", base, randomSlugSuffix())
			continue
		}
		candidate = fmt.Sprintf("%s-%d", base, attempt)
	}
}

// RenameAgentSlug re-slugs an existing agent from a new base name.
// Renaming an agent to the slug it already holds is a no-op rather than a
// collision: the unique index never conflicts with the agent's own row.
func RenameAgentSlug(db *gorm.DB, agent *model.Agent, newBase string) error {
	base := Slugify(newBase)
	if base == "" {
		base = "agent"
	}
	if agent.Slug == base {
		return nil
	}

	candidate := base
	for attempt := 2; ; attempt++ {
		err := db.Model(agent).Update("slug", candidate).Error
		if err == nil {
			agent.Slug = candidate
			return nil
		}
		if !IsDuplicateKey(err) {
			return err
		}
		if attempt > slugRetryCap {
			candidate = fmt.Sprintf("%s-%s", base, randomSlugSuffix())
			continue
		}
		candidate = fmt.Sprintf("%s-%d", base, attempt)
	}
}
