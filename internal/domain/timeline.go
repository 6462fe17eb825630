package domain

import "time"

// TimelineEntry is an immutable audit record of one state-affecting action on
// an issue. Entries are never updated or deleted individually; they go away
// only in bulk when the parent issue or authoring user is deleted.
type TimelineEntry struct {
	ID         string
	IssueID    string
	Status     IssueStatus
	Message    string
	ActorName  string
	ActorRole  Role
	ActorEmail string
	CreatedAt  time.Time
}
