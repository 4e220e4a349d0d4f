package engine

import (
	"fmt"
	"strings"

	"github.com/buildhive/buildhive-backend/internal/models"
)

// featureRule maps a keyword group to one fixed feature. The rules are a
// deterministic stand-in for a generative system: same prompt, same output.
type featureRule struct {
	keywords []string
	feature  models.Feature
}

// featureRules are scanned in order; output order follows this list, not the
// order keywords appear in the prompt.
var featureRules = []featureRule{
	{
		keywords: []string{"login", "log in", "sign up", "signup", "sign in", "auth", "register", "account", "password"},
		feature: models.Feature{
			Name:           "User Authentication",
			Description:    "Registration, login and session handling with secure password storage",
			Complexity:     models.ComplexityMedium,
			EstimatedHours: 24,
		},
	},
	{
		keywords: []string{"dashboard", "analytics", "chart", "report", "metrics", "statistics"},
		feature: models.Feature{
			Name:           "Analytics Dashboard",
			Description:    "Overview screens with charts, summaries and exportable reports",
			Complexity:     models.ComplexityComplex,
			EstimatedHours: 40,
		},
	},
	{
		keywords: []string{"payment", "checkout", "cart", "shop", "store", "ecommerce", "e-commerce", "billing", "sell"},
		feature: models.Feature{
			Name:           "Payments & Checkout",
			Description:    "Product catalog, cart and card payments through a payment provider",
			Complexity:     models.ComplexityComplex,
			EstimatedHours: 48,
		},
	},
	{
		keywords: []string{"social", "follow", "friend", "feed", "like", "comment", "share", "community"},
		feature: models.Feature{
			Name:           "Social Features",
			Description:    "User profiles, follows and an activity feed with likes and comments",
			Complexity:     models.ComplexityComplex,
			EstimatedHours: 44,
		},
	},
	{
		keywords: []string{"chat", "message", "messaging", "inbox", "conversation"},
		feature: models.Feature{
			Name:           "In-App Messaging",
			Description:    "Real-time one-to-one and group chat with read receipts",
			Complexity:     models.ComplexityComplex,
			EstimatedHours: 36,
		},
	},
	{
		keywords: []string{"map", "location", "gps", "nearby", "geolocation", "directions"},
		feature: models.Feature{
			Name:           "Location Services",
			Description:    "Maps, geocoding and nearby search",
			Complexity:     models.ComplexityMedium,
			EstimatedHours: 20,
		},
	},
	{
		keywords: []string{"photo", "image", "video", "upload", "gallery", "camera", "media"},
		feature: models.Feature{
			Name:           "Media Upload & Gallery",
			Description:    "Image and video upload with cloud storage and gallery views",
			Complexity:     models.ComplexityMedium,
			EstimatedHours: 24,
		},
	},
	{
		keywords: []string{"notification", "alert", "push", "remind", "email updates"},
		feature: models.Feature{
			Name:           "Push Notifications",
			Description:    "Push and in-app notifications with per-user preferences",
			Complexity:     models.ComplexitySimple,
			EstimatedHours: 12,
		},
	},
	{
		keywords: []string{"search", "filter", "sort", "browse", "discover"},
		feature: models.Feature{
			Name:           "Search & Filtering",
			Description:    "Full-text search with filters and sorting",
			Complexity:     models.ComplexitySimple,
			EstimatedHours: 16,
		},
	},
}

const (
	matchedConfidence  = 0.8
	fallbackConfidence = 0.5
)

// SuggestFeatures scans the lowercased prompt for keyword groups and emits
// the fixed feature for each matched group, in rule order. When nothing
// matches it falls back to two generic features so a project never starts
// with an empty plan. No randomness, no external calls.
func SuggestFeatures(prompt string, category models.ProjectCategory) ([]models.Feature, float64) {
	lower := strings.ToLower(prompt)

	var features []models.Feature
	for _, rule := range featureRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				features = append(features, rule.feature)
				break
			}
		}
	}
	if len(features) > 0 {
		return features, matchedConfidence
	}

	if category == "" {
		category = models.CategoryOther
	}
	return []models.Feature{
		{
			Name:           "Core Functionality",
			Description:    fmt.Sprintf("Primary screens and flows for your %s", category),
			Complexity:     models.ComplexityMedium,
			EstimatedHours: 40,
		},
		{
			Name:           "User Interface",
			Description:    "Responsive layout, navigation and basic styling",
			Complexity:     models.ComplexitySimple,
			EstimatedHours: 24,
		},
	}, fallbackConfidence
}
