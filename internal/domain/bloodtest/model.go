package bloodtest

import (
	"time"

	"github.com/google/uuid"

	"github.com/advait5300/jivana-health-platform/internal/platform/analysis"
)

// BloodTest is one uploaded report and its results. AIAnalysis is nil until
// the upload pipeline attaches it.
type BloodTest struct {
	ID            uuid.UUID          `json:"id"`
	UserID        uuid.UUID          `json:"userId"`
	DatePerformed time.Time          `json:"datePerformed"`
	FileKey       string             `json:"fileKey"`
	Results       map[string]float64 `json:"results"`
	AIAnalysis    *analysis.Analysis `json:"aiAnalysis"`
	CreatedAt     time.Time          `json:"createdAt"`
}

// UploadInput is everything the upload pipeline needs from a request.
type UploadInput struct {
	UserID        uuid.UUID
	DatePerformed time.Time
	FileName      string
	ContentType   string
	Content       []byte
	Results       map[string]float64
}

// Point is one chart sample.
type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Series is the history of one metric across a user's tests.
type Series struct {
	Metric string  `json:"metric"`
	Points []Point `json:"points"`
}

// FileURL is a time-limited link to the original report.
type FileURL struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}
