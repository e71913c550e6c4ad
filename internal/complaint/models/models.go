package models

import (
	"strings"
	"time"

	filemodels "filetrack/internal/file/models"
	id "filetrack/pkg/domain"
	dErrors "filetrack/pkg/domain-errors"
)

// maxMessageLength bounds free-text complaint messages.
const maxMessageLength = 4000

type Status string

const (
	StatusOpen Status = "open"
)

// Complaint is a citizen's recourse against a blocked file. It is addressed to the
// administration holding the file when it was submitted.
type Complaint struct {
	ID               id.ComplaintID
	TrackingNumber   filemodels.TrackingNumber
	FileID           id.FileID
	AdministrationID id.AdministrationID
	Message          string
	Status           Status
	CreatedAt        time.Time
}

// SubmitRequest is the citizen's input.
type SubmitRequest struct {
	TrackingNumber string
	Message        string
}

func (r *SubmitRequest) Normalize() {
	r.TrackingNumber = strings.TrimSpace(r.TrackingNumber)
	r.Message = strings.TrimSpace(r.Message)
}

func (r *SubmitRequest) Validate() error {
	if r.TrackingNumber == "" {
		return dErrors.New(dErrors.CodeValidation, "tracking number is required")
	}
	if r.Message == "" {
		return dErrors.New(dErrors.CodeValidation, "complaint message is required")
	}
	if len(r.Message) > maxMessageLength {
		return dErrors.New(dErrors.CodeValidation, "complaint message is too long")
	}
	return nil
}

// Pending pairs a complaint with the live status of its file.
type Pending struct {
	Complaint  *Complaint
	FileStatus filemodels.Status
}
