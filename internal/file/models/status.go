package models

import "strings"

// Status is a file's global status. The set surfaced to callers is closed; lenient
// services may still carry an unrecognised value verbatim.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusInReview  Status = "In Review"
	StatusInTransit Status = "In Transit"
	StatusApproved  Status = "Approved"
	StatusRejected  Status = "Rejected"
	StatusBlocked   Status = "Blocked"
)

// Statuses lists the closed set in display order.
var Statuses = []Status{
	StatusPending,
	StatusInReview,
	StatusInTransit,
	StatusApproved,
	StatusRejected,
	StatusBlocked,
}

// ParseStatus matches s against the closed set, ignoring case and surrounding space.
func ParseStatus(s string) (Status, bool) {
	s = strings.TrimSpace(s)
	for _, st := range Statuses {
		if strings.EqualFold(string(st), s) {
			return st, true
		}
	}
	return Status(s), false
}

func (s Status) String() string { return string(s) }

// Is compares case-insensitively.
func (s Status) Is(other Status) bool {
	return strings.EqualFold(string(s), string(other))
}

func (s Status) IsKnown() bool {
	_, ok := ParseStatus(string(s))
	return ok
}

// StationStatus is the last observed status of one station. It extends Status with
// Completed, recorded when a holder hands the file on.
type StationStatus string

const (
	StationPending   StationStatus = "Pending"
	StationInReview  StationStatus = "In Review"
	StationInTransit StationStatus = "In Transit"
	StationCompleted StationStatus = "Completed"
	StationApproved  StationStatus = "Approved"
	StationRejected  StationStatus = "Rejected"
	StationBlocked   StationStatus = "Blocked"
)

func (s StationStatus) String() string { return string(s) }

// Display is the lowercase form used by timelines.
func (s StationStatus) Display() string {
	return strings.ToLower(string(s))
}

// Source records how a file reached its current holder.
type Source string

const (
	SourceNew         Source = "new"
	SourceTransferred Source = "transferred"
)
