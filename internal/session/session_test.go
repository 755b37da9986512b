package session

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/tabsplit/internal/models"
)

func newTestSession(t *testing.T, names ...string) *models.Session {
	t.Helper()
	s, err := New(nil, names)
	require.NoError(t, err)
	return s
}

func participantID(t *testing.T, s *models.Session, name string) string {
	t.Helper()
	for _, p := range s.Participants {
		if p.Name == name {
			return p.ID
		}
	}
	t.Fatalf("participant %q not found", name)
	return ""
}

func TestNew(t *testing.T) {
	t.Run("generates ids and defaults", func(t *testing.T) {
		s, err := New([]ItemInput{
			{Name: "Pizza", Quantity: 2, UnitPrice: 40},
			{Name: "Soda", Quantity: 3, UnitPrice: 8.5},
		}, []string{"Ana", "Bruno"})
		require.NoError(t, err)

		assert.NotEmpty(t, s.ID)
		assert.Equal(t, models.StatusInProgress, s.Status)
		assert.Equal(t, 10.0, s.ServiceFeePercent)
		assert.Equal(t, 0.0, s.DiscountAmount)
		assert.Equal(t, DefaultName, s.Name)
		require.Len(t, s.Items, 2)
		require.Len(t, s.Participants, 2)

		ids := map[string]bool{s.ID: true}
		for _, item := range s.Items {
			assert.NotEmpty(t, item.ID)
			assert.Empty(t, item.Assignments)
			ids[item.ID] = true
		}
		for _, p := range s.Participants {
			ids[p.ID] = true
		}
		assert.Len(t, ids, 5, "ids must be unique")
	})

	t.Run("empty session", func(t *testing.T) {
		s, err := New(nil, nil)
		require.NoError(t, err)
		assert.Empty(t, s.Items)
		assert.Empty(t, s.Participants)
	})

	tests := []struct {
		name    string
		items   []ItemInput
		names   []string
		wantErr error
	}{
		{"negative quantity", []ItemInput{{Name: "A", Quantity: -1, UnitPrice: 1}}, nil, ErrValidation},
		{"negative price", []ItemInput{{Name: "A", Quantity: 1, UnitPrice: -1}}, nil, ErrValidation},
		{"empty item name", []ItemInput{{Name: " ", Quantity: 1, UnitPrice: 1}}, nil, ErrValidation},
		{"NaN price", []ItemInput{{Name: "A", Quantity: 1, UnitPrice: math.NaN()}}, nil, ErrValidation},
		{"empty participant", nil, []string{"Ana", ""}, ErrValidation},
		{"duplicate participant", nil, []string{"Ana", "ANA"}, ErrConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.items, tt.names)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, s)
		})
	}
}

func TestConfigure(t *testing.T) {
	s := newTestSession(t)

	require.NoError(t, Configure(s, 12.5, 20))
	assert.Equal(t, 12.5, s.ServiceFeePercent)
	assert.Equal(t, 20.0, s.DiscountAmount)

	require.NoError(t, Configure(s, 0, 0))
	require.NoError(t, Configure(s, 100, 0))

	for _, tc := range []struct{ fee, discount float64 }{
		{-0.1, 0}, {100.01, 0}, {10, -1}, {math.Inf(1), 0},
	} {
		err := Configure(s, tc.fee, tc.discount)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve, "fee=%v discount=%v", tc.fee, tc.discount)
	}
	assert.Equal(t, 100.0, s.ServiceFeePercent, "failed configure must not change settings")
	assert.Equal(t, 0.0, s.DiscountAmount)
}

func TestItems(t *testing.T) {
	s := newTestSession(t, "Ana")

	item, err := AddItem(s, "Beer", 4, 12)
	require.NoError(t, err)
	assert.NotEmpty(t, item.ID)
	require.Len(t, s.Items, 1)

	_, err = AddItem(s, "", 1, 1)
	require.ErrorIs(t, err, ErrValidation)
	require.Len(t, s.Items, 1)

	t.Run("edit", func(t *testing.T) {
		require.NoError(t, EditItem(s, s.Items[0].ID, "Draft beer", 5, 11))
		assert.Equal(t, "Draft beer", s.Items[0].Name)
		assert.Equal(t, 5.0, s.Items[0].Quantity)
		assert.Equal(t, 11.0, s.Items[0].UnitPrice)
	})

	t.Run("edit unknown item", func(t *testing.T) {
		var nf *NotFoundError
		require.ErrorAs(t, EditItem(s, "missing", "X", 1, 1), &nf)
		assert.Equal(t, "item", nf.Kind)
	})

	t.Run("edit keeps over-committed assignments", func(t *testing.T) {
		id := s.Items[0].ID
		require.NoError(t, AssignItem(s, id, []Share{{ParticipantID: participantID(t, s, "Ana"), Quantity: 5}}))
		require.NoError(t, EditItem(s, id, "Draft beer", 2, 11))
		assert.Equal(t, 5.0, s.Items[0].AssignedQuantity())
		assert.Equal(t, []string{id}, Overcommitted(s))
	})

	t.Run("remove", func(t *testing.T) {
		require.ErrorIs(t, RemoveItem(s, "missing"), ErrNotFound)
		require.NoError(t, RemoveItem(s, s.Items[0].ID))
		assert.Empty(t, s.Items)
		assert.Empty(t, Overcommitted(s))
	})
}

func TestAddParticipant(t *testing.T) {
	s := newTestSession(t, "Ana")

	p, err := AddParticipant(s, "  Bruno ")
	require.NoError(t, err)
	assert.Equal(t, "Bruno", p.Name)
	assert.NotEmpty(t, p.ID)

	_, err = AddParticipant(s, "bruno")
	var ce *ConflictError
	require.ErrorAs(t, err, &ce)

	_, err = AddParticipant(s, "")
	require.ErrorIs(t, err, ErrValidation)
	assert.Len(t, s.Participants, 2)
}

func TestAssignItem(t *testing.T) {
	s, err := New([]ItemInput{{Name: "Fries", Quantity: 3, UnitPrice: 10}}, []string{"Ana", "Bruno"})
	require.NoError(t, err)
	itemID := s.Items[0].ID
	ana, bruno := participantID(t, s, "Ana"), participantID(t, s, "Bruno")

	require.NoError(t, AssignItem(s, itemID, []Share{{ana, 1.5}, {bruno, 1.5}}))
	assert.Equal(t, []models.Assignment{{ParticipantID: ana, Quantity: 1.5}, {ParticipantID: bruno, Quantity: 1.5}}, s.Items[0].Assignments)

	t.Run("full overwrite", func(t *testing.T) {
		require.NoError(t, AssignItem(s, itemID, []Share{{bruno, 1}}))
		assert.Equal(t, []models.Assignment{{ParticipantID: bruno, Quantity: 1}}, s.Items[0].Assignments)
	})

	t.Run("zero quantities dropped", func(t *testing.T) {
		require.NoError(t, AssignItem(s, itemID, []Share{{ana, 0}, {bruno, 2}}))
		assert.Equal(t, []models.Assignment{{ParticipantID: bruno, Quantity: 2}}, s.Items[0].Assignments)
	})

	t.Run("epsilon tolerance", func(t *testing.T) {
		require.NoError(t, AssignItem(s, itemID, []Share{{ana, 1.0 / 3 * 3}, {bruno, 2 + 5e-10}}))
	})

	before := append([]models.Assignment(nil), s.Items[0].Assignments...)
	failures := []struct {
		name    string
		itemID  string
		dist    []Share
		wantErr error
	}{
		{"over-assignment", itemID, []Share{{ana, 2}, {bruno, 1.1}}, ErrValidation},
		{"negative quantity", itemID, []Share{{ana, -1}}, ErrValidation},
		{"duplicate participant", itemID, []Share{{ana, 1}, {ana, 1}}, ErrValidation},
		{"unknown participant", itemID, []Share{{ana, 1}, {"ghost", 1}}, ErrNotFound},
		{"unknown item", "missing", []Share{{ana, 1}}, ErrNotFound},
	}
	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			err := AssignItem(s, tt.itemID, tt.dist)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, before, s.Items[0].Assignments, "assignments must be unchanged")
		})
	}
}

func TestRemoveParticipant(t *testing.T) {
	t.Run("redistributes equally among remaining assignees", func(t *testing.T) {
		s, err := New([]ItemInput{{Name: "Wings", Quantity: 3, UnitPrice: 9}}, []string{"A", "B", "C"})
		require.NoError(t, err)
		a, b, c := participantID(t, s, "A"), participantID(t, s, "B"), participantID(t, s, "C")
		require.NoError(t, AssignItem(s, s.Items[0].ID, []Share{{a, 1}, {b, 1}, {c, 1}}))

		require.NoError(t, RemoveParticipant(s, b))

		assert.Equal(t, []models.Assignment{{ParticipantID: a, Quantity: 1.5}, {ParticipantID: c, Quantity: 1.5}}, s.Items[0].Assignments)
		assert.Nil(t, s.FindParticipant(b))
		assert.Len(t, s.Participants, 2)
	})

	t.Run("sole assignee leaves quantity unassigned", func(t *testing.T) {
		s, err := New([]ItemInput{{Name: "Steak", Quantity: 2, UnitPrice: 50}}, []string{"A", "B"})
		require.NoError(t, err)
		a := participantID(t, s, "A")
		require.NoError(t, AssignItem(s, s.Items[0].ID, []Share{{a, 2}}))

		require.NoError(t, RemoveParticipant(s, a))
		assert.Empty(t, s.Items[0].Assignments)
	})

	t.Run("unaffected items untouched", func(t *testing.T) {
		s, err := New([]ItemInput{
			{Name: "Soup", Quantity: 1, UnitPrice: 5},
			{Name: "Bread", Quantity: 2, UnitPrice: 1},
		}, []string{"A", "B"})
		require.NoError(t, err)
		a, b := participantID(t, s, "A"), participantID(t, s, "B")
		require.NoError(t, AssignItem(s, s.Items[0].ID, []Share{{a, 1}}))
		require.NoError(t, AssignItem(s, s.Items[1].ID, []Share{{b, 2}}))

		require.NoError(t, RemoveParticipant(s, b))
		assert.Equal(t, []models.Assignment{{ParticipantID: a, Quantity: 1}}, s.Items[0].Assignments)
		assert.Empty(t, s.Items[1].Assignments)
	})

	t.Run("unknown participant", func(t *testing.T) {
		s := newTestSession(t, "A")
		err := RemoveParticipant(s, "missing")
		require.True(t, errors.Is(err, ErrNotFound))
		assert.Len(t, s.Participants, 1)
	})
}

func TestLifecycle(t *testing.T) {
	s := newTestSession(t)
	Finalize(s)
	assert.Equal(t, models.StatusFinalized, s.Status)
	Reopen(s)
	assert.Equal(t, models.StatusInProgress, s.Status)

	Rename(s, "  Friday dinner ")
	assert.Equal(t, "Friday dinner", s.Name)
	Rename(s, "")
	assert.Equal(t, DefaultName, s.Name)
}

func TestClone(t *testing.T) {
	s, err := New([]ItemInput{{Name: "Tea", Quantity: 2, UnitPrice: 3}}, []string{"A"})
	require.NoError(t, err)
	require.NoError(t, AssignItem(s, s.Items[0].ID, []Share{{participantID(t, s, "A"), 2}}))

	c := s.Clone()
	c.Items[0].Assignments[0].Quantity = 1
	c.Participants[0].Name = "Z"

	assert.Equal(t, 2.0, s.Items[0].Assignments[0].Quantity)
	assert.Equal(t, "A", s.Participants[0].Name)
}
