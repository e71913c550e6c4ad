package models

import (
	"fmt"
	"time"

	id "filetrack/pkg/domain"
	dErrors "filetrack/pkg/domain-errors"
	"filetrack/pkg/platform/strings"
)

// Route is the ordered list of administrations a file type visits. It is immutable
// once built; use NewRoute or FromStations.
type Route struct {
	FileTypeID   id.FileTypeID
	FileTypeName string
	CreatedBy    id.AdministrationID
	CreatedAt    time.Time
	UpdatedAt    time.Time

	stations []id.AdministrationID
	first    map[id.AdministrationID]int
	last     map[id.AdministrationID]int
}

// NewRoute builds a route from the configured departments. When closure is set the
// origin is appended again as the final station.
func NewRoute(fileTypeID id.FileTypeID, fileTypeName string, departments []id.AdministrationID, closure bool) (*Route, error) {
	if fileTypeID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "file type id required")
	}
	if len(departments) == 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "route requires at least one department")
	}
	for _, d := range departments {
		if d.IsNil() {
			return nil, dErrors.New(dErrors.CodeInvariantViolation, "route contains an empty department")
		}
	}
	if dup, ok := strings.FirstDuplicate(departments); ok {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, fmt.Sprintf("department %q appears twice", dup))
	}

	stations := make([]id.AdministrationID, 0, len(departments)+1)
	stations = append(stations, departments...)
	if closure {
		stations = append(stations, departments[0])
	}
	return build(fileTypeID, fileTypeName, stations), nil
}

// FromStations rebuilds a stored route. The only duplicate allowed is a final station
// equal to the first (closure).
func FromStations(fileTypeID id.FileTypeID, fileTypeName string, stations []id.AdministrationID) (*Route, error) {
	if len(stations) == 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "route requires at least one station")
	}
	departments := stations
	closure := len(stations) >= 2 && stations[len(stations)-1] == stations[0]
	if closure {
		departments = stations[:len(stations)-1]
	}
	r, err := NewRoute(fileTypeID, fileTypeName, departments, closure)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func build(fileTypeID id.FileTypeID, fileTypeName string, stations []id.AdministrationID) *Route {
	r := &Route{
		FileTypeID:   fileTypeID,
		FileTypeName: fileTypeName,
		stations:     stations,
		first:        make(map[id.AdministrationID]int, len(stations)),
		last:         make(map[id.AdministrationID]int, len(stations)),
	}
	for i, s := range stations {
		if _, ok := r.first[s]; !ok {
			r.first[s] = i
		}
		r.last[s] = i
	}
	return r
}

// Stations returns a copy of the ordered stations, closure included.
func (r *Route) Stations() []id.AdministrationID {
	out := make([]id.AdministrationID, len(r.stations))
	copy(out, r.stations)
	return out
}

// Departments returns the configured departments without the closure station.
func (r *Route) Departments() []id.AdministrationID {
	n := len(r.stations)
	if r.HasClosure() {
		n--
	}
	out := make([]id.AdministrationID, n)
	copy(out, r.stations[:n])
	return out
}

func (r *Route) Len() int { return len(r.stations) }

func (r *Route) At(i int) id.AdministrationID { return r.stations[i] }

func (r *Route) Origin() id.AdministrationID { return r.stations[0] }

// HasClosure reports whether the last station loops back to the origin.
func (r *Route) HasClosure() bool {
	return len(r.stations) >= 2 && r.stations[len(r.stations)-1] == r.stations[0]
}

func (r *Route) Contains(a id.AdministrationID) bool {
	_, ok := r.first[a]
	return ok
}

// Position resolves the station index of holder. The origin appears twice on closed
// routes: a holder at the origin with no next administration is at the closure
// station, otherwise at index 0. Returns -1 when holder is not on the route.
func (r *Route) Position(holder, next id.AdministrationID) int {
	first, ok := r.first[holder]
	if !ok {
		return -1
	}
	if next.IsNil() {
		return r.last[holder]
	}
	return first
}

// IndexOf returns the first index of a, or -1.
func (r *Route) IndexOf(a id.AdministrationID) int {
	if i, ok := r.first[a]; ok {
		return i
	}
	return -1
}

// NextAfter returns the station following idx, or the empty id at the end of the route.
func (r *Route) NextAfter(idx int) id.AdministrationID {
	if idx < 0 || idx+1 >= len(r.stations) {
		return ""
	}
	return r.stations[idx+1]
}

// Administration is an entry in the administration directory.
type Administration struct {
	ID   id.AdministrationID
	Name string
}
