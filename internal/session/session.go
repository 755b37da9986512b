// Package session owns the canonical state of one bill split and applies
// mutations to it.
//
// Every mutation validates its input completely before touching the session,
// so a failed call leaves the session exactly as it was. The package assumes a
// single writer per session; callers serialize access (see internal/locker).
package session

import (
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/mmynk/tabsplit/internal/models"
)

// Epsilon absorbs floating point drift in quantity comparisons.
const Epsilon = 1e-9

// DefaultServiceFeePercent is the service fee applied to new sessions.
const DefaultServiceFeePercent = 10.0

// DefaultName labels sessions created without a name.
const DefaultName = "Untitled split"

// ItemInput describes an item to be added to a session.
type ItemInput struct {
	Name      string
	Quantity  float64
	UnitPrice float64
}

// Share is one participant's part of an item distribution.
type Share struct {
	ParticipantID string
	Quantity      float64
}

// New creates a session with generated IDs for every item and participant.
func New(items []ItemInput, participantNames []string) (*models.Session, error) {
	for i, in := range items {
		if err := validateItem(in.Name, in.Quantity, in.UnitPrice); err != nil {
			ve := err.(*ValidationError)
			return nil, invalid("items", "item %d: %s: %s", i, ve.Field, ve.Reason)
		}
	}
	seen := make(map[string]bool, len(participantNames))
	for _, name := range participantNames {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, invalid("name", "participant name must not be empty")
		}
		key := strings.ToLower(name)
		if seen[key] {
			return nil, &ConflictError{Name: name}
		}
		seen[key] = true
	}

	s := &models.Session{
		ID:                uuid.NewString(),
		Name:              DefaultName,
		Status:            models.StatusInProgress,
		ServiceFeePercent: DefaultServiceFeePercent,
		Items:             make([]models.Item, 0, len(items)),
		Participants:      make([]models.Participant, 0, len(participantNames)),
	}
	for _, in := range items {
		s.Items = append(s.Items, newItem(in.Name, in.Quantity, in.UnitPrice))
	}
	for _, name := range participantNames {
		s.Participants = append(s.Participants, models.Participant{
			ID:   uuid.NewString(),
			Name: strings.TrimSpace(name),
		})
	}
	return s, nil
}

// Configure updates the service fee percentage and the discount amount.
// Existing assignments are untouched; they are reinterpreted at settlement time.
func Configure(s *models.Session, serviceFeePercent, discountAmount float64) error {
	if !finite(serviceFeePercent) || serviceFeePercent < 0 || serviceFeePercent > 100 {
		return invalid("service_fee_percent", "must be between 0 and 100, got %v", serviceFeePercent)
	}
	if !finite(discountAmount) || discountAmount < 0 {
		return invalid("discount_amount", "must not be negative, got %v", discountAmount)
	}
	s.ServiceFeePercent = serviceFeePercent
	s.DiscountAmount = discountAmount
	return nil
}

// Rename sets the display name of the session. Blank names reset it to DefaultName.
func Rename(s *models.Session, name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultName
	}
	s.Name = name
}

// AddItem appends a new, unassigned item.
func AddItem(s *models.Session, name string, quantity, unitPrice float64) (*models.Item, error) {
	if err := validateItem(name, quantity, unitPrice); err != nil {
		return nil, err
	}
	s.Items = append(s.Items, newItem(name, quantity, unitPrice))
	return &s.Items[len(s.Items)-1], nil
}

// EditItem replaces the name, quantity and unit price of an item.
//
// Assignments are left as they are even when the new quantity is smaller than
// what is already assigned. Use Overcommitted to detect that state.
func EditItem(s *models.Session, itemID, name string, quantity, unitPrice float64) error {
	item := s.FindItem(itemID)
	if item == nil {
		return &NotFoundError{Kind: "item", ID: itemID}
	}
	if err := validateItem(name, quantity, unitPrice); err != nil {
		return err
	}
	item.Name = strings.TrimSpace(name)
	item.Quantity = quantity
	item.UnitPrice = unitPrice
	return nil
}

// RemoveItem deletes an item together with its assignments.
func RemoveItem(s *models.Session, itemID string) error {
	for i := range s.Items {
		if s.Items[i].ID == itemID {
			s.Items = append(s.Items[:i], s.Items[i+1:]...)
			return nil
		}
	}
	return &NotFoundError{Kind: "item", ID: itemID}
}

// AddParticipant appends a participant. Names are unique ignoring case.
func AddParticipant(s *models.Session, name string) (*models.Participant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name", "participant name must not be empty")
	}
	for _, p := range s.Participants {
		if strings.EqualFold(p.Name, name) {
			return nil, &ConflictError{Name: name}
		}
	}
	s.Participants = append(s.Participants, models.Participant{ID: uuid.NewString(), Name: name})
	return &s.Participants[len(s.Participants)-1], nil
}

// RemoveParticipant removes a participant. On every item they were assigned
// to, their quantity is split equally among the remaining assignees. If nobody
// else shares the item the quantity becomes unassigned.
func RemoveParticipant(s *models.Session, participantID string) error {
	idx := -1
	for i := range s.Participants {
		if s.Participants[i].ID == participantID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return &NotFoundError{Kind: "participant", ID: participantID}
	}

	// Redistribute while the participant's assignments are still visible.
	for i := range s.Items {
		redistribute(&s.Items[i], participantID)
	}
	s.Participants = append(s.Participants[:idx], s.Participants[idx+1:]...)
	return nil
}

func redistribute(item *models.Item, participantID string) {
	freed, ok := item.AssignmentFor(participantID)
	if !ok {
		return
	}
	remaining := make([]models.Assignment, 0, len(item.Assignments)-1)
	for _, a := range item.Assignments {
		if a.ParticipantID != participantID {
			remaining = append(remaining, a)
		}
	}
	if len(remaining) > 0 {
		quota := freed / float64(len(remaining))
		for i := range remaining {
			remaining[i].Quantity += quota
		}
	}
	item.Assignments = remaining
}

// AssignItem replaces the whole assignment list of an item with distribution.
// Zero quantities are accepted and dropped. The previous assignments survive
// any validation failure.
func AssignItem(s *models.Session, itemID string, distribution []Share) error {
	item := s.FindItem(itemID)
	if item == nil {
		return &NotFoundError{Kind: "item", ID: itemID}
	}

	assignments := make([]models.Assignment, 0, len(distribution))
	seen := make(map[string]bool, len(distribution))
	var total float64
	for _, share := range distribution {
		if s.FindParticipant(share.ParticipantID) == nil {
			return &NotFoundError{Kind: "participant", ID: share.ParticipantID}
		}
		if seen[share.ParticipantID] {
			return invalid("distribution", "participant %s listed more than once", share.ParticipantID)
		}
		seen[share.ParticipantID] = true
		if !finite(share.Quantity) || share.Quantity < 0 {
			return invalid("quantity", "must not be negative, got %v", share.Quantity)
		}
		total += share.Quantity
		if share.Quantity > 0 {
			assignments = append(assignments, models.Assignment{
				ParticipantID: share.ParticipantID,
				Quantity:      share.Quantity,
			})
		}
	}
	if total > item.Quantity+Epsilon {
		return invalid("distribution", "distributed quantity %v exceeds available %v", total, item.Quantity)
	}

	item.Assignments = assignments
	return nil
}

// Finalize retires the session.
func Finalize(s *models.Session) {
	s.Status = models.StatusFinalized
}

// Reopen puts a finalized session back in progress.
func Reopen(s *models.Session) {
	s.Status = models.StatusInProgress
}

// Overcommitted returns the IDs of items whose assignments exceed their
// quantity, which can only happen after EditItem shrinks an item.
func Overcommitted(s *models.Session) []string {
	var ids []string
	for i := range s.Items {
		if s.Items[i].AssignedQuantity() > s.Items[i].Quantity+Epsilon {
			ids = append(ids, s.Items[i].ID)
		}
	}
	return ids
}

func newItem(name string, quantity, unitPrice float64) models.Item {
	return models.Item{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(name),
		Quantity:  quantity,
		UnitPrice: unitPrice,
	}
}

func validateItem(name string, quantity, unitPrice float64) error {
	if strings.TrimSpace(name) == "" {
		return invalid("name", "item name must not be empty")
	}
	if !finite(quantity) || quantity < 0 {
		return invalid("quantity", "must not be negative, got %v", quantity)
	}
	if !finite(unitPrice) || unitPrice < 0 {
		return invalid("unit_price", "must not be negative, got %v", unitPrice)
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
