package models

import (
	"fmt"
	"maps"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	id "filetrack/pkg/domain"
	dErrors "filetrack/pkg/domain-errors"
)

// TrackingNumber is the citizen-facing lookup key, distinct from the internal FileID.
type TrackingNumber string

const trackingPrefix = "TRK-"

// NewTrackingNumber formats TRK-<unix millis>-<0..9999>.
func NewTrackingNumber(now time.Time) TrackingNumber {
	return TrackingNumber(fmt.Sprintf("%s%d-%d", trackingPrefix, now.UnixMilli(), rand.IntN(10000)))
}

// ParseTrackingNumber normalises user input (citizens type these by hand).
func ParseTrackingNumber(s string) (TrackingNumber, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if !strings.HasPrefix(s, trackingPrefix) || len(s) == len(trackingPrefix) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid tracking number")
	}
	return TrackingNumber(s), nil
}

func (t TrackingNumber) String() string { return string(t) }

// Citizen identifies the person a file was submitted for.
type Citizen struct {
	Name       string
	NationalID string
	Phone      string
}

// File is the tracked work item. NextAdministration is empty when the file sits at
// the terminal station of its route.
type File struct {
	ID                    id.FileID
	TrackingNumber        TrackingNumber
	FileTypeID            id.FileTypeID
	FileTypeName          string
	Citizen               Citizen
	Documents             []string
	CreatedBy             id.AdministrationID
	CurrentAdministration id.AdministrationID
	NextAdministration    id.AdministrationID
	Status                Status
	StationStatuses       map[id.AdministrationID]StationStatus
	Source                Source
	Notes                 string
	Version               int64
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

func (f *File) HasNext() bool {
	return !f.NextAdministration.IsNil()
}

// StationStatus returns the recorded status of a station, Pending when absent.
func (f *File) StationStatus(a id.AdministrationID) StationStatus {
	if s, ok := f.StationStatuses[a]; ok {
		return s
	}
	return StationPending
}

// Clone returns a deep copy so stores never share mutable state with callers.
func (f *File) Clone() *File {
	if f == nil {
		return nil
	}
	c := *f
	c.Documents = slices.Clone(f.Documents)
	c.StationStatuses = maps.Clone(f.StationStatuses)
	return &c
}

// CreateRequest carries intake data for a new file.
type CreateRequest struct {
	FileTypeID id.FileTypeID
	Citizen    Citizen
	Documents  []string
	Notes      string
}

// Validate checks intake data. The caller has already normalised it.
func (r *CreateRequest) Validate() error {
	if r.FileTypeID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "file type is required")
	}
	if strings.TrimSpace(r.Citizen.Name) == "" {
		return dErrors.New(dErrors.CodeValidation, "citizen name is required")
	}
	if strings.TrimSpace(r.Citizen.NationalID) == "" {
		return dErrors.New(dErrors.CodeValidation, "citizen national id is required")
	}
	return nil
}

// ListFilter narrows the files held by an administration.
type ListFilter struct {
	Status Status
}
