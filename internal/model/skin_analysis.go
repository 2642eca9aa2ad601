package model

import "time"

// SkinAnalysis is one scan: an already computed detection result for an
// image a user submitted. Rows are created by the ingestion pipeline; this
// service only flips IsReviewed to true or deletes the row.
//
// Fields:
//
//	ID              – skin_analysis.analysis_id
//	UserID          – owner of the scan (users.user_id)
//	ScanType        – kind of scan (nullable)
//	DetectedIssue   – free text label, e.g. "Acne" (nullable)
//	ConfidenceScore – model confidence in [0,1] (nullable)
//	IsReviewed      – true once an admin verified or flagged the scan
//	ImagePath       – path of the uploaded image
//	AnalysisDate    – when the scan was taken (UTC)
type SkinAnalysis struct {
	ID              uint64
	UserID          uint64
	ScanType        *string
	DetectedIssue   *string
	ConfidenceScore *float64
	IsReviewed      bool
	ImagePath       string
	AnalysisDate    time.Time
}
