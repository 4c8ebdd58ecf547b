package models

// ParticipantKind tells apart registered users, guests and groups.
type ParticipantKind string

const (
	KindUser  ParticipantKind = "user"
	KindGuest ParticipantKind = "guest"
	KindGroup ParticipantKind = "group"
)

// Valid reports whether k is a known participant kind.
func (k ParticipantKind) Valid() bool {
	return k == KindUser || k == KindGuest || k == KindGroup
}

// Participant is anyone who can owe or be owed money within a trip.
type Participant struct {
	// ID is the unique identifier for the participant (UUID format).
	ID string

	// TripID is the trip this participant belongs to.
	TripID string

	// Kind is user, guest or group.
	Kind ParticipantKind

	// DisplayName is shown on balance cards and exports.
	DisplayName string

	// Email is set for registered users only.
	Email string

	// Members lists the people a group stands for (e.g. a family).
	// Only meaningful for KindGroup; the group still holds one balance.
	Members []string

	// CreatedAt is the Unix timestamp when the participant was added.
	CreatedAt int64
}
