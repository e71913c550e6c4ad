// Package timeline derives the station-by-station view of a file from its current
// snapshot. Nothing here reads or writes storage; the same snapshot always yields the
// same sequence.
package timeline

import (
	"iter"
	"slices"
	"strings"

	"filetrack/internal/file/models"
	routemodels "filetrack/internal/route/models"
	id "filetrack/pkg/domain"
)

// UnknownName labels stations whose administration is missing from the directory.
const UnknownName = "Unknown Admin"

const (
	displayPending   = "pending"
	displayCompleted = "completed"
	displayApproved  = "approved"
	displayBlocked   = "blocked"
	displayInTransit = "in transit"
)

// Snapshot is everything the reconciler looks at. Names is optional; when nil the
// views carry no display name.
type Snapshot struct {
	Route    *routemodels.Route
	Current  id.AdministrationID
	Next     id.AdministrationID
	Stations map[id.AdministrationID]models.StationStatus
	Names    map[id.AdministrationID]string
}

// FromFile builds a snapshot from a stored file and its route.
func FromFile(f *models.File, route *routemodels.Route, names map[id.AdministrationID]string) Snapshot {
	return Snapshot{
		Route:    route,
		Current:  f.CurrentAdministration,
		Next:     f.NextAdministration,
		Stations: f.StationStatuses,
		Names:    names,
	}
}

// StationView is one row of the displayed timeline.
type StationView struct {
	Position         int                 `json:"position"`
	AdministrationID id.AdministrationID `json:"administrationId"`
	Name             string              `json:"name,omitempty"`
	DisplayStatus    string              `json:"displayStatus"`
	IsCurrent        bool                `json:"isCurrent"`
	IsClosure        bool                `json:"isClosure"`
}

// Reconcile yields one view per route station, the closure station included.
//
// Stations before the holder take their display from the station after them
// (approved downstream reads as completed, blocked downstream as blocked), the
// holder's station shows its recorded status, and later stations always read pending.
// When the station before the closure reads "in transit" and the closure reads
// "approved", both are shown completed.
func Reconcile(s Snapshot) iter.Seq[StationView] {
	return func(yield func(StationView) bool) {
		r := s.Route
		if r == nil || r.Len() == 0 {
			return
		}
		n := r.Len()
		currentIdx := r.Position(s.Current, s.Next)
		recorded := func(a id.AdministrationID) string {
			if st, ok := s.Stations[a]; ok && st != "" {
				return strings.ToLower(string(st))
			}
			return displayPending
		}
		closureDone := r.HasClosure() &&
			recorded(r.At(n-2)) == displayInTransit &&
			recorded(r.At(n-1)) == displayApproved

		for idx := range n {
			a := r.At(idx)
			v := StationView{
				Position:         idx,
				AdministrationID: a,
				DisplayStatus:    recorded(a),
				IsCurrent:        a == s.Current,
				IsClosure:        r.HasClosure() && idx == n-1,
			}

			switch {
			case idx < currentIdx:
				switch recorded(r.At(idx + 1)) {
				case displayApproved:
					v.DisplayStatus = displayCompleted
				case displayBlocked:
					v.DisplayStatus = displayBlocked
				}
				v.IsCurrent = false
			case idx == currentIdx:
				v.IsCurrent = true
			default:
				v.DisplayStatus = displayPending
				v.IsCurrent = false
			}

			if closureDone && idx >= n-2 {
				v.DisplayStatus = displayCompleted
				v.IsCurrent = idx == currentIdx
			}

			if s.Names != nil {
				v.Name = s.Names[a]
				if v.Name == "" {
					v.Name = UnknownName
				}
			}

			if !yield(v) {
				return
			}
		}
	}
}

// Collect materialises a timeline.
func Collect(s Snapshot) []StationView {
	return slices.Collect(Reconcile(s))
}
