// Package seed loads routes and the administration directory from a YAML file.
//
//	administrations:
//	  - id: intake
//	    name: Citizen Intake Desk
//	routes:
//	  - file_type_id: building-permit
//	    file_type_name: Building permit
//	    departments: [intake, urbanism, mayor]
//	    closure: true
package seed

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"filetrack/internal/route/models"
	"filetrack/internal/route/service"
	id "filetrack/pkg/domain"
)

type File struct {
	Administrations []AdministrationEntry `yaml:"administrations"`
	Routes          []RouteEntry          `yaml:"routes"`
}

type AdministrationEntry struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

type RouteEntry struct {
	FileTypeID   string   `yaml:"file_type_id"`
	FileTypeName string   `yaml:"file_type_name"`
	Departments  []string `yaml:"departments"`
	Closure      bool     `yaml:"closure"`
}

// Configurer is the subset of the route service the seed writes through.
type Configurer interface {
	Configure(ctx context.Context, req service.ConfigureRequest) (*models.Route, error)
	RegisterAdministration(ctx context.Context, admin models.Administration) error
}

// Result summarises an Apply run.
type Result struct {
	Administrations int
	Routes          int
}

func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &f, nil
}

// Apply registers every administration, then configures every route. It stops at the
// first invalid entry; entries before it stay applied.
func Apply(ctx context.Context, target Configurer, f *File) (Result, error) {
	var res Result
	for _, a := range f.Administrations {
		adminID, err := id.ParseAdministrationID(a.ID)
		if err != nil {
			return res, fmt.Errorf("administration %q: %w", a.ID, err)
		}
		if err := target.RegisterAdministration(ctx, models.Administration{ID: adminID, Name: a.Name}); err != nil {
			return res, fmt.Errorf("administration %q: %w", a.ID, err)
		}
		res.Administrations++
	}
	for _, r := range f.Routes {
		req, err := r.request()
		if err != nil {
			return res, fmt.Errorf("route %q: %w", r.FileTypeID, err)
		}
		if _, err := target.Configure(ctx, req); err != nil {
			return res, fmt.Errorf("route %q: %w", r.FileTypeID, err)
		}
		res.Routes++
	}
	return res, nil
}

func (r RouteEntry) request() (service.ConfigureRequest, error) {
	fileTypeID, err := id.ParseFileTypeID(r.FileTypeID)
	if err != nil {
		return service.ConfigureRequest{}, err
	}
	departments := make([]id.AdministrationID, 0, len(r.Departments))
	for _, d := range r.Departments {
		adminID, err := id.ParseAdministrationID(d)
		if err != nil {
			return service.ConfigureRequest{}, err
		}
		departments = append(departments, adminID)
	}
	return service.ConfigureRequest{
		FileTypeID:   fileTypeID,
		FileTypeName: r.FileTypeName,
		Departments:  departments,
		Closure:      r.Closure,
	}, nil
}
