// Package registry holds the static department configuration: which role
// signs off each clearance stage and where the stage sits in the approval
// sequence. The registry is read-only after construction; lookups are pure.
package registry

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"nodues/internal/clearance"
	"nodues/internal/config"
)

// Department is one resolved registry entry.
type Department struct {
	ID       string
	Role     string
	Position int
	Label    string
}

// Registry maps departments to their authorized roles and sequence positions.
type Registry struct {
	byID  map[string]Department
	order []Department
}

var titleCaser = cases.Title(language.English)

// New builds a registry from configuration. Positions must form a gapless
// 1..N sequence and every department needs a role.
func New(departments []config.Department) (*Registry, error) {
	if len(departments) == 0 {
		return nil, fmt.Errorf("%w: no departments registered", clearance.ErrConfiguration)
	}

	byID := make(map[string]Department, len(departments))
	positions := make(map[int]string, len(departments))
	order := make([]Department, 0, len(departments))

	for _, dept := range departments {
		id := strings.ToLower(strings.TrimSpace(dept.ID))
		if id == "" {
			return nil, fmt.Errorf("%w: department id is required", clearance.ErrConfiguration)
		}
		if _, dup := byID[id]; dup {
			return nil, fmt.Errorf("%w: duplicate department %q", clearance.ErrConfiguration, id)
		}
		role := strings.ToLower(strings.TrimSpace(dept.Role))
		if role == "" {
			return nil, fmt.Errorf("%w: department %s has no registered role", clearance.ErrConfiguration, id)
		}
		if dept.Position <= 0 {
			return nil, fmt.Errorf("%w: department %s has invalid position %d", clearance.ErrConfiguration, id, dept.Position)
		}
		if prior, dup := positions[dept.Position]; dup {
			return nil, fmt.Errorf("%w: departments %s and %s share position %d",
				clearance.ErrConfiguration, prior, id, dept.Position)
		}
		positions[dept.Position] = id

		label := strings.TrimSpace(dept.Label)
		if label == "" {
			label = titleCaser.String(strings.ReplaceAll(id, "_", " "))
		}

		entry := Department{ID: id, Role: role, Position: dept.Position, Label: label}
		byID[id] = entry
		order = append(order, entry)
	}

	for pos := 1; pos <= len(departments); pos++ {
		if _, ok := positions[pos]; !ok {
			return nil, fmt.Errorf("%w: department sequence has a gap at position %d", clearance.ErrConfiguration, pos)
		}
	}

	sort.Slice(order, func(i, j int) bool { return order[i].Position < order[j].Position })
	return &Registry{byID: byID, order: order}, nil
}

// StagesFor returns the ordered stage seeds for the given departments. With
// no departments given, the full registered sequence is returned. Positions
// are re-densified to 1..N so a department subset still forms a gapless
// order.
func (r *Registry) StagesFor(departments ...string) ([]clearance.StageSeed, error) {
	selected := r.order
	if len(departments) > 0 {
		want := make(map[string]struct{}, len(departments))
		for _, id := range departments {
			id = strings.ToLower(strings.TrimSpace(id))
			if _, ok := r.byID[id]; !ok {
				return nil, fmt.Errorf("%w: unknown department %q", clearance.ErrConfiguration, id)
			}
			want[id] = struct{}{}
		}
		selected = make([]Department, 0, len(want))
		for _, dept := range r.order {
			if _, ok := want[dept.ID]; ok {
				selected = append(selected, dept)
			}
		}
	}

	seeds := make([]clearance.StageSeed, 0, len(selected))
	for i, dept := range selected {
		seeds = append(seeds, clearance.StageSeed{Department: dept.ID, Position: i + 1})
	}
	return seeds, nil
}

// AuthorizedRole returns the role allowed to decide the department's stage.
func (r *Registry) AuthorizedRole(department string) (string, error) {
	dept, ok := r.byID[strings.ToLower(strings.TrimSpace(department))]
	if !ok {
		return "", fmt.Errorf("%w: department %q has no registered role", clearance.ErrConfiguration, department)
	}
	return dept.Role, nil
}

// Label returns the department's display name.
func (r *Registry) Label(department string) string {
	if dept, ok := r.byID[strings.ToLower(strings.TrimSpace(department))]; ok {
		return dept.Label
	}
	return titleCaser.String(strings.ReplaceAll(department, "_", " "))
}

// Departments returns all registered departments in sequence order.
func (r *Registry) Departments() []Department {
	out := make([]Department, len(r.order))
	copy(out, r.order)
	return out
}
