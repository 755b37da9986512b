package billfile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/tabsplit/internal/session"
)

const dinner = `
name: Friday dinner
discount: 10
people: [Ana, Bruno, Carla]
items:
  - name: Pizza
    quantity: 2
    unit_price: 40
    split:
      bruno: 0.5
      Ana: 1.5
  - name: Beer
    quantity: 3
    unit_price: 10
    shared_by: [Ana, Bruno, Carla]
  - name: Bread
    unit_price: 6
`

func TestBuild(t *testing.T) {
	bill, err := Parse(strings.NewReader(dinner))
	require.NoError(t, err)

	s, err := bill.Build()
	require.NoError(t, err)

	assert.Equal(t, "Friday dinner", s.Name)
	assert.Equal(t, session.DefaultServiceFeePercent, s.ServiceFeePercent)
	assert.Equal(t, 10.0, s.DiscountAmount)
	require.Len(t, s.Participants, 3)
	require.Len(t, s.Items, 3)

	ana, bruno, carla := s.Participants[0].ID, s.Participants[1].ID, s.Participants[2].ID

	pizza := s.Items[0]
	require.Len(t, pizza.Assignments, 2)
	assert.Equal(t, ana, pizza.Assignments[0].ParticipantID, "assignments follow participant order")
	assert.Equal(t, 1.5, pizza.Assignments[0].Quantity)
	assert.Equal(t, bruno, pizza.Assignments[1].ParticipantID)

	beer := s.Items[1]
	require.Len(t, beer.Assignments, 3)
	assert.Equal(t, carla, beer.Assignments[2].ParticipantID)
	assert.InDelta(t, 1.0, beer.Assignments[2].Quantity, 1e-9)

	bread := s.Items[2]
	assert.Equal(t, 1.0, bread.Quantity, "quantity defaults to 1")
	assert.Empty(t, bread.Assignments)
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr error
		wantMsg string
	}{
		{
			name:    "unknown person",
			yaml:    "people: [Ana]\nitems:\n  - {name: Tea, unit_price: 3, split: {Zed: 1}}\n",
			wantMsg: `unknown person "Zed"`,
		},
		{
			name:    "over-assigned",
			yaml:    "people: [Ana, Bruno]\nitems:\n  - {name: Tea, unit_price: 3, split: {Ana: 1, Bruno: 1}}\n",
			wantErr: session.ErrValidation,
		},
		{
			name:    "duplicate people",
			yaml:    "people: [Ana, ana]\n",
			wantErr: session.ErrConflict,
		},
		{
			name:    "both split styles",
			yaml:    "people: [Ana]\nitems:\n  - {name: Tea, unit_price: 3, split: {Ana: 1}, shared_by: [Ana]}\n",
			wantMsg: "either split or shared_by",
		},
		{
			name:    "negative price",
			yaml:    "items:\n  - {name: Tea, unit_price: -3}\n",
			wantErr: session.ErrValidation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bill, err := Parse(strings.NewReader(tt.yaml))
			require.NoError(t, err)
			_, err = bill.Build()
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			}
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestParse_RejectsUnknownFields(t *testing.T) {
	_, err := Parse(strings.NewReader("name: x\ntip: 10\n"))
	require.Error(t, err)

	_, err = Parse(strings.NewReader(""))
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bill.yaml")
	require.NoError(t, os.WriteFile(path, []byte(dinner), 0o644))

	bill, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, bill.Items, 3)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
