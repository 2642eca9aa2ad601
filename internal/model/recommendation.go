package model

import (
	"fmt"
	"time"
)

// RecommendationType distinguishes home remedies from clinical products.
type RecommendationType string

const (
	RecommendationRemedy  RecommendationType = "Remedy"
	RecommendationProduct RecommendationType = "Product"
)

// ParseRecommendationType validates a client supplied type. The empty string
// maps to Remedy.
func ParseRecommendationType(s string) (RecommendationType, error) {
	switch RecommendationType(s) {
	case "":
		return RecommendationRemedy, nil
	case RecommendationRemedy, RecommendationProduct:
		return RecommendationType(s), nil
	}
	return "", fmt.Errorf("invalid recommendation type %q", s)
}

// AdminStatus is the verification lifecycle tag on a recommendation.
type AdminStatus string

const (
	AdminStatusPending  AdminStatus = "Pending"
	AdminStatusVerified AdminStatus = "Verified"
	AdminStatusFlagged  AdminStatus = "Flagged"
)

// Recommendation is an admin-approved (or flagged) suggestion attached to a
// scan. Rows are only ever inserted by the verification paths.
type Recommendation struct {
	ID           uint64             // recommendations.rec_id
	AnalysisID   uint64             // recommendations.analysis_id
	Type         RecommendationType // recommendations.type
	ModelVersion string             // recommendations.model_version
	Title        string             // recommendations.title
	Description  string             // recommendations.description
	Link         string             // recommendations.link
	AdminStatus  AdminStatus        // recommendations.admin_status
	CreatedAt    time.Time          // recommendations.created_at
}
