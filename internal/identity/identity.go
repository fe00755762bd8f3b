// Package identity resolves actor references to their role and department
// affiliation for authorization checks. The production deployment fronts a
// campus directory; this package ships a configuration-backed implementation
// that serves the same contract.
package identity

import (
	"fmt"
	"strings"

	"nodues/internal/clearance"
	"nodues/internal/config"
)

// Identity is the resolved view of an actor.
type Identity struct {
	ID         string
	Name       string
	Role       string
	Department string
}

// Resolver maps an actor reference to an identity.
type Resolver interface {
	Resolve(actor string) (Identity, error)
}

// Directory is a static resolver built from the approver configuration.
type Directory struct {
	byID map[string]Identity
}

// NewDirectory builds a directory from configured approvers.
func NewDirectory(approvers []config.Approver) *Directory {
	byID := make(map[string]Identity, len(approvers))
	for _, approver := range approvers {
		id := strings.TrimSpace(approver.ID)
		if id == "" {
			continue
		}
		byID[id] = Identity{
			ID:         id,
			Name:       strings.TrimSpace(approver.Name),
			Role:       strings.ToLower(strings.TrimSpace(approver.Role)),
			Department: strings.ToLower(strings.TrimSpace(approver.Department)),
		}
	}
	return &Directory{byID: byID}
}

// Resolve returns the identity for the actor reference.
func (d *Directory) Resolve(actor string) (Identity, error) {
	id, ok := d.byID[strings.TrimSpace(actor)]
	if !ok {
		return Identity{}, fmt.Errorf("%w: unknown actor %q", clearance.ErrUnauthorized, actor)
	}
	return id, nil
}
