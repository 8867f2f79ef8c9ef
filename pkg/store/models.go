package store

import (
	"time"
)

// TestCase is the stable identity shared by all revisions of a test case.
type TestCase struct {
	ID uint `gorm:"primaryKey"`
	// Slug mirrors the slug of the latest revision.
	Slug             string `gorm:"index;not null"`
	Status           string `gorm:"not null"`
	LatestRevisionID *uint
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Revision is one persisted snapshot of a test case.
type Revision struct {
	ID               uint   `gorm:"primaryKey"`
	TestCaseID       uint   `gorm:"not null;uniqueIndex:idx_revision_number"`
	ParentRevisionID *uint  `gorm:"index"`
	Number           int    `gorm:"not null;uniqueIndex:idx_revision_number"`
	Title            string `gorm:"not null"`
	Slug             string `gorm:"index;not null"`
	Description      string `gorm:"type:text"`
	HarnessHTML      string `gorm:"type:text"`
	HarnessSetUp     string `gorm:"type:text"`
	HarnessTearDown  string `gorm:"type:text"`
	Entries          []Entry
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Entry is a persisted code sample of a revision.
type Entry struct {
	ID         uint   `gorm:"primaryKey"`
	RevisionID uint   `gorm:"index;not null"`
	Position   int    `gorm:"not null"`
	Title      string `gorm:"not null"`
	Code       string `gorm:"type:text;not null"`
	CodeHash   string `gorm:"size:40;index;not null"`
	Totals     []Total
}

// Browser is a shared browser name/version dimension.
type Browser struct {
	ID      uint   `gorm:"primaryKey"`
	Name    string `gorm:"not null;uniqueIndex:idx_browser"`
	Version string `gorm:"not null;uniqueIndex:idx_browser"`
}

// OperatingSystem is a shared operating system dimension.
type OperatingSystem struct {
	ID           uint   `gorm:"primaryKey"`
	Architecture string `gorm:"not null;uniqueIndex:idx_operating_system"`
	Family       string `gorm:"not null;uniqueIndex:idx_operating_system"`
	Version      string `gorm:"not null;uniqueIndex:idx_operating_system"`
}

// Total is the aggregated metric of one entry in one environment.
type Total struct {
	ID                uint `gorm:"primaryKey"`
	EntryID           uint `gorm:"index;not null"`
	BrowserID         uint `gorm:"not null"`
	Browser           Browser
	OperatingSystemID uint `gorm:"not null"`
	OperatingSystem   OperatingSystem
	MetricType        string  `gorm:"not null"`
	MetricValue       float64 `gorm:"not null"`
	RunCount          int     `gorm:"not null"`
}

// ErrorLogEntry is a client-side error reported by the benchmark frontend.
type ErrorLogEntry struct {
	ID           uint      `gorm:"primaryKey" json:"-"`
	Message      string    `gorm:"column:msg;type:text;not null" json:"msg"`
	URL          string    `gorm:"type:text" json:"url"`
	LineNumber   int       `json:"lineNo"`
	ColumnNumber int       `json:"colNo"`
	Trace        string    `gorm:"type:text;not null" json:"trace"`
	CreatedAt    time.Time `json:"created_at"`
}
