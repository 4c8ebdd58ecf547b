package calculator

import (
	"cmp"
	"fmt"
	"strings"
)

// EntityType tags what kind of participant an EntityRef points at.
type EntityType string

const (
	EntityUser  EntityType = "user"
	EntityGuest EntityType = "guest"
	EntityGroup EntityType = "group"
)

// Valid reports whether t is one of the known entity types.
func (t EntityType) Valid() bool {
	switch t {
	case EntityUser, EntityGuest, EntityGroup:
		return true
	}
	return false
}

// EntityRef identifies anything that can owe or be owed money within a trip.
// The pair (ID, Type) is the identity; two refs with the same ID but
// different types are different entities.
type EntityRef struct {
	ID   string     `json:"id" yaml:"id"`
	Type EntityType `json:"type" yaml:"type"`
}

// UserRef returns a reference to a registered user.
func UserRef(id string) EntityRef { return EntityRef{ID: id, Type: EntityUser} }

// GuestRef returns a reference to an unregistered guest.
func GuestRef(id string) EntityRef { return EntityRef{ID: id, Type: EntityGuest} }

// GroupRef returns a reference to a group sharing one balance line.
func GroupRef(id string) EntityRef { return EntityRef{ID: id, Type: EntityGroup} }

// Key returns the canonical "type:id" form of the reference.
func (r EntityRef) Key() string {
	return string(r.Type) + ":" + r.ID
}

func (r EntityRef) String() string { return r.Key() }

// ParseEntityRef parses the "type:id" form produced by Key.
func ParseEntityRef(s string) (EntityRef, error) {
	kind, id, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || id == "" {
		return EntityRef{}, fmt.Errorf("entity reference %q is not of the form type:id", s)
	}
	ref := EntityRef{ID: id, Type: EntityType(kind)}
	if !ref.Type.Valid() {
		return EntityRef{}, fmt.Errorf("entity reference %q has unknown type %q", s, kind)
	}
	return ref, nil
}

// compareRefs orders refs by ID, then by type.
func compareRefs(a, b EntityRef) int {
	if c := cmp.Compare(a.ID, b.ID); c != 0 {
		return c
	}
	return cmp.Compare(a.Type, b.Type)
}

// Entity is a roster entry: a known participant of the trip.
type Entity struct {
	Ref         EntityRef `json:"ref" yaml:"ref"`
	DisplayName string    `json:"display_name" yaml:"display_name"`
}

// roster indexes the known entities of a trip.
type roster map[EntityRef]Entity

func newRoster(entities []Entity) (roster, error) {
	r := make(roster, len(entities))
	for _, e := range entities {
		if !e.Ref.Type.Valid() {
			return nil, dataIntegrity(e.Ref.Key(), "unknown entity type %q", e.Ref.Type)
		}
		if e.Ref.ID == "" {
			return nil, dataIntegrity(e.Ref.Key(), "entity has empty id")
		}
		if _, dup := r[e.Ref]; dup {
			return nil, dataIntegrity(e.Ref.Key(), "entity listed more than once")
		}
		r[e.Ref] = e
	}
	return r, nil
}

// resolve checks that ref names exactly one known entity.
func (r roster) resolve(ref EntityRef, where string) error {
	if !ref.Type.Valid() {
		return dataIntegrity(where, "unknown entity type %q for %s", ref.Type, ref.ID)
	}
	if _, ok := r[ref]; !ok {
		return dataIntegrity(where, "entity %s does not resolve to a trip participant", ref)
	}
	return nil
}
