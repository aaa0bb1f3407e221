package types

import (
	"fmt"
	"strings"
	"time"
)

// Granularity is the category of entity being inspected
type Granularity string

const (
	GranularitySite Granularity = "Site"
)

// IsValid checks if the granularity value is valid
func (g Granularity) IsValid() bool {
	switch g {
	case GranularitySite:
		return true
	}
	return false
}

// Status values that have a configured re-check frequency.
// Any other status is carried through untouched but is never selected for checking.
const (
	StatusActive  = "Active"
	StatusProbing = "Probing"
	StatusBanned  = "Banned"
)

// CheckedStatuses lists the statuses that discovery considers, in query order
var CheckedStatuses = []string{StatusActive, StatusProbing, StatusBanned}

// IsCheckedStatus reports whether a status has a re-check frequency
func IsCheckedStatus(status string) bool {
	for _, s := range CheckedStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Site is a monitored resource whose status is periodically re-evaluated
type Site struct {
	Name          string     `json:"name"`
	Status        string     `json:"status"`
	FormerStatus  string     `json:"former_status"`
	Reason        string     `json:"reason"`
	LastCheckTime *time.Time `json:"last_check_time,omitempty"` // nil = never checked
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Validate checks if the site has valid field values
func (s *Site) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Name) > 255 {
		return fmt.Errorf("name must be 255 characters or less (got %d)", len(s.Name))
	}
	if strings.TrimSpace(s.Status) == "" {
		return fmt.Errorf("status is required")
	}
	return nil
}

// SiteStatus is one row of a discovery query: a site that is due for checking
type SiteStatus struct {
	Name          string
	Status        string
	FormerStatus  string
	Reason        string
	LastCheckTime *time.Time
}

// CheckCandidate is one entity awaiting policy evaluation.
// It is never mutated after creation.
type CheckCandidate struct {
	Granularity  Granularity
	EntityID     string
	Status       string
	FormerStatus string
	Reason       string
}

// NewSiteCandidate builds a candidate for a discovered site row
func NewSiteCandidate(row SiteStatus) CheckCandidate {
	return CheckCandidate{
		Granularity:  GranularitySite,
		EntityID:     row.Name,
		Status:       row.Status,
		FormerStatus: row.FormerStatus,
		Reason:       row.Reason,
	}
}

// String returns a short identifier for log output
func (c CheckCandidate) String() string {
	return fmt.Sprintf("%s/%s (%s)", c.Granularity, c.EntityID, c.Status)
}

// PolicyResult is the outcome of enforcing policy on one entity
type PolicyResult struct {
	Granularity Granularity
	EntityID    string
	Status      string // status after enforcement
	Changed     bool   // true if enforcement changed the status
	Reason      string
}
