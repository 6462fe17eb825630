package domain

import "time"

// IssueStatus enumerates lifecycle states for issues. The transition table in
// the lifecycle service is the single authority on which edges exist; values
// outside this set are rejected at the boundary.
type IssueStatus string

const (
	IssueStatusPending    IssueStatus = "pending"
	IssueStatusInProgress IssueStatus = "in_progress"
	IssueStatusWorking    IssueStatus = "working"
	IssueStatusResolved   IssueStatus = "resolved"
	IssueStatusClosed     IssueStatus = "closed"
	IssueStatusRejected   IssueStatus = "rejected"
)

// Valid reports whether the status is one of the known set.
func (s IssueStatus) Valid() bool {
	switch s {
	case IssueStatusPending, IssueStatusInProgress, IssueStatusWorking,
		IssueStatusResolved, IssueStatusClosed, IssueStatusRejected:
		return true
	}
	return false
}

// IssuePriority enumerates urgency. Boosted issues are always high.
type IssuePriority string

const (
	IssuePriorityNormal IssuePriority = "normal"
	IssuePriorityHigh   IssuePriority = "high"
)

// IssueCategory enumerates complaint categories.
type IssueCategory string

const (
	CategoryRoad        IssueCategory = "road"
	CategoryWater       IssueCategory = "water"
	CategorySanitation  IssueCategory = "sanitation"
	CategoryElectricity IssueCategory = "electricity"
	CategoryOther       IssueCategory = "other"
)

// Valid reports whether the category is one of the known set.
func (c IssueCategory) Valid() bool {
	switch c {
	case CategoryRoad, CategoryWater, CategorySanitation, CategoryElectricity, CategoryOther:
		return true
	}
	return false
}

// AssignedStaff holds the staff identity attached to an issue. The four
// fields are populated together or not at all.
type AssignedStaff struct {
	ID       string
	Name     string
	Email    string
	PhotoURL string
}

// Empty reports whether no staff is assigned.
func (a AssignedStaff) Empty() bool {
	return a.ID == "" && a.Name == "" && a.Email == "" && a.PhotoURL == ""
}

// Issue is the aggregate for citizen-filed infrastructure complaints.
type Issue struct {
	ID            string
	Title         string
	Description   string
	Category      IssueCategory
	Location      string
	ImageURL      *string
	ReporterID    string
	ReporterName  string
	ReporterEmail string
	Status        IssueStatus
	Priority      IssuePriority
	Boosted       bool
	Upvotes       []string
	Assigned      AssignedStaff
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
