// Package routing moves files along their routes. The functions are pure: they
// mutate the file they are given and never touch storage, so callers run them inside
// the store's atomic read-modify-write.
package routing

import (
	"fmt"

	"filetrack/internal/file/models"
	routemodels "filetrack/internal/route/models"
	id "filetrack/pkg/domain"
	dErrors "filetrack/pkg/domain-errors"
)

// Seed places a new file at the origin of its route with every station pending.
func Seed(file *models.File, route *routemodels.Route) {
	file.FileTypeID = route.FileTypeID
	if file.FileTypeName == "" {
		file.FileTypeName = route.FileTypeName
	}
	file.CurrentAdministration = route.Origin()
	file.NextAdministration = route.NextAfter(0)
	file.StationStatuses = make(map[id.AdministrationID]models.StationStatus, route.Len())
	for i := range route.Len() {
		file.StationStatuses[route.At(i)] = models.StationPending
	}
	file.Status = models.StatusPending
	file.Source = models.SourceNew
}

// Advance records a status change by the current holder. The holder never moves:
// "in transit" marks the holder's station Completed, "approved" marks it Approved,
// anything else is mirrored onto the station as-is.
func Advance(file *models.File, status models.Status) {
	if file.StationStatuses == nil {
		file.StationStatuses = make(map[id.AdministrationID]models.StationStatus)
	}
	var station models.StationStatus
	switch {
	case status.Is(models.StatusInTransit):
		station = models.StationCompleted
	case status.Is(models.StatusApproved):
		station = models.StationApproved
	default:
		station = models.StationStatus(status)
	}
	file.StationStatuses[file.CurrentAdministration] = station
	file.Status = status
}

// CanReceive reports whether receiver is the designated next holder.
func CanReceive(file *models.File, receiver id.AdministrationID) error {
	if !file.HasNext() || file.NextAdministration != receiver {
		return dErrors.New(dErrors.CodeUnauthorized,
			fmt.Sprintf("administration %s is not the next holder of this file", receiver))
	}
	return nil
}

// ReceiveAt hands the file to receiver, which must be the designated next holder.
// On error the file is left untouched.
func ReceiveAt(file *models.File, route *routemodels.Route, receiver id.AdministrationID) error {
	station, err := PlanReceive(file, route, receiver)
	if err != nil {
		return err
	}
	ApplyReceive(file, route, receiver, station)
	return nil
}

// PlanReceive checks that receiver may take the file and returns the station it
// will occupy. The file is not modified.
func PlanReceive(file *models.File, route *routemodels.Route, receiver id.AdministrationID) (int, error) {
	if err := CanReceive(file, receiver); err != nil {
		return -1, err
	}
	return receiverIndex(file, route, receiver)
}

// ApplyReceive moves the file to receiver at station, as returned by PlanReceive
// for the same snapshot.
func ApplyReceive(file *models.File, route *routemodels.Route, receiver id.AdministrationID, station int) {
	file.CurrentAdministration = receiver
	file.NextAdministration = route.NextAfter(station)
	if file.StationStatuses == nil {
		file.StationStatuses = make(map[id.AdministrationID]models.StationStatus)
	}
	file.StationStatuses[receiver] = models.StationInReview
	file.Status = models.StatusInReview
	file.Source = models.SourceTransferred
}

// receiverIndex resolves the station the receiver occupies. Normally this is the
// station right after the holder; if the route was reconfigured under the file we
// fall back to the receiver's first station.
func receiverIndex(file *models.File, route *routemodels.Route, receiver id.AdministrationID) (int, error) {
	pos := route.Position(file.CurrentAdministration, file.NextAdministration)
	if pos >= 0 && pos+1 < route.Len() && route.At(pos+1) == receiver {
		return pos + 1, nil
	}
	if idx := route.IndexOf(receiver); idx >= 0 {
		return idx, nil
	}
	return -1, dErrors.New(dErrors.CodeInvariantViolation,
		fmt.Sprintf("administration %s is not on the route for %s", receiver, route.FileTypeID))
}

// Reject blocks the file. The holder and station ledger are unchanged.
func Reject(file *models.File) {
	file.Status = models.StatusBlocked
}
