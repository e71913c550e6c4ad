package journal

import (
	"time"

	id "filetrack/pkg/domain"
)

type EventType string

const (
	EventFileCreated   EventType = "file_created"
	EventStatusChanged EventType = "status_changed"
	EventFileReceived  EventType = "file_received"
	EventFileRejected  EventType = "file_rejected"
)

// Event is one entry in a file's append-only journal. It records who did what at
// which station; the file record itself only keeps the latest snapshot.
type Event struct {
	ID               string              `json:"id"`
	Type             EventType           `json:"type"`
	FileID           id.FileID           `json:"fileId"`
	TrackingNumber   string              `json:"trackingNumber"`
	AdministrationID id.AdministrationID `json:"administrationId"`
	Status           string              `json:"status"`
	StationStatus    string              `json:"stationStatus,omitempty"`
	Holder           id.AdministrationID `json:"holder"`
	Next             id.AdministrationID `json:"next,omitempty"`
	Notes            string              `json:"notes,omitempty"`
	RequestID        string              `json:"requestId,omitempty"`
	Timestamp        time.Time           `json:"timestamp"`
}
