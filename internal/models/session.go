package models

// SessionStatus is the lifecycle state of a Session.
type SessionStatus string

const (
	// StatusInProgress is the state of a session still being edited.
	StatusInProgress SessionStatus = "in_progress"
	// StatusFinalized marks a retired session. Callers stop mutating it.
	StatusFinalized SessionStatus = "finalized"
)

// Valid reports whether s is a known status.
func (s SessionStatus) Valid() bool {
	return s == StatusInProgress || s == StatusFinalized
}

// Session is one active bill-splitting instance.
type Session struct {
	// ID is the unique identifier for the session (UUID format).
	ID string

	// OwnerID is the user that created the session.
	OwnerID string

	// Name is a display label, e.g. "Friday dinner".
	Name string

	// Items are the bill lines in display order.
	Items []Item

	// Participants are the people sharing the bill.
	// Unique by ID and by case-insensitive name.
	Participants []Participant

	Status SessionStatus

	// ServiceFeePercent is in [0, 100]. Applied after the discount.
	ServiceFeePercent float64

	// DiscountAmount is an absolute amount taken off the gross bill.
	DiscountAmount float64

	// CreatedAt and UpdatedAt are Unix timestamps.
	CreatedAt int64
	UpdatedAt int64
}

// Item is a single line of the bill.
type Item struct {
	// ID is the unique identifier for the item (UUID format).
	ID string

	// Name is the label printed on the receipt (e.g., "Coca-Cola").
	Name string

	// Quantity may be fractional, e.g. one appetizer shared in portions.
	Quantity float64

	UnitPrice float64

	// Assignments map participants to the quantity they consumed.
	// At most one entry per participant.
	Assignments []Assignment
}

// Assignment is the quantity of an item attributed to one participant.
type Assignment struct {
	ParticipantID string
	Quantity      float64
}

// Participant is a person in the split.
type Participant struct {
	ID   string
	Name string
}

// AssignedQuantity returns the sum of all assigned quantities, in assignment order.
func (i *Item) AssignedQuantity() float64 {
	var total float64
	for _, a := range i.Assignments {
		total += a.Quantity
	}
	return total
}

// AssignmentFor returns the quantity assigned to participantID and whether one exists.
func (i *Item) AssignmentFor(participantID string) (float64, bool) {
	for _, a := range i.Assignments {
		if a.ParticipantID == participantID {
			return a.Quantity, true
		}
	}
	return 0, false
}

// Value returns quantity times unit price.
func (i *Item) Value() float64 {
	return i.Quantity * i.UnitPrice
}

// FindItem returns a pointer to the item with the given ID, or nil.
func (s *Session) FindItem(itemID string) *Item {
	for i := range s.Items {
		if s.Items[i].ID == itemID {
			return &s.Items[i]
		}
	}
	return nil
}

// FindParticipant returns a pointer to the participant with the given ID, or nil.
func (s *Session) FindParticipant(participantID string) *Participant {
	for i := range s.Participants {
		if s.Participants[i].ID == participantID {
			return &s.Participants[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Participants = append([]Participant(nil), s.Participants...)
	out.Items = make([]Item, len(s.Items))
	for i, item := range s.Items {
		item.Assignments = append([]Assignment(nil), item.Assignments...)
		out.Items[i] = item
	}
	return &out
}
