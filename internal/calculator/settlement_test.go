package calculator

import (
	"math"
	"reflect"
	"testing"

	"github.com/mmynk/tabsplit/internal/models"
)

const tolerance = 1e-6

func approx(a, b float64) bool {
	return math.Abs(a-b) <= tolerance
}

func person(t *testing.T, r *Report, name string) PersonSettlement {
	t.Helper()
	for _, p := range r.People {
		if p.Name == name {
			return p
		}
	}
	t.Fatalf("no settlement for %s", name)
	return PersonSettlement{}
}

func item(id string, qty, price float64, assignments ...models.Assignment) models.Item {
	return models.Item{ID: id, Name: id, Quantity: qty, UnitPrice: price, Assignments: assignments}
}

func assign(participantID string, qty float64) models.Assignment {
	return models.Assignment{ParticipantID: participantID, Quantity: qty}
}

var (
	alice = models.Participant{ID: "p-alice", Name: "Alice"}
	bob   = models.Participant{ID: "p-bob", Name: "Bob"}
	carol = models.Participant{ID: "p-carol", Name: "Carol"}
)

func TestComputeSettlement(t *testing.T) {
	tests := []struct {
		name         string
		session      *models.Session
		validateFunc func(t *testing.T, r *Report)
	}{
		{
			name: "discount before proportional service fee",
			session: &models.Session{
				Participants:      []models.Participant{alice, bob},
				ServiceFeePercent: 10,
				DiscountAmount:    10,
				Items: []models.Item{
					item("Pizza", 2, 40, assign(alice.ID, 1), assign(bob.ID, 1)),
					item("Salad", 1, 20, assign(alice.ID, 1)),
				},
			},
			validateFunc: func(t *testing.T, r *Report) {
				// gross = 100, net = 90, fee = 9, grand = 99
				// Alice: subtotal 60, discount 6, fee 5.4, total 59.4
				// Bob:   subtotal 40, discount 4, fee 3.6, total 39.6
				if !approx(r.GrossTotal, 100) || !approx(r.NetAfterDiscount, 90) ||
					!approx(r.ServiceFeeTotal, 9) || !approx(r.GrandTotal, 99) {
					t.Errorf("bill totals = %+v", r)
				}
				a := person(t, r, "Alice")
				if !approx(a.Subtotal, 60) || !approx(a.DiscountShare, 6) ||
					!approx(a.ServiceFeeShare, 5.4) || !approx(a.Total, 59.4) {
					t.Errorf("Alice = %+v", a)
				}
				if !approx(a.PercentOfBill, 60) {
					t.Errorf("Alice percent = %v, want 60", a.PercentOfBill)
				}
				if len(a.Items) != 2 {
					t.Fatalf("Alice items = %d, want 2", len(a.Items))
				}
				if a.Items[0].ItemName != "Pizza" || !approx(a.Items[0].Value, 40) || !approx(a.Items[0].DiscountApplied, 4) {
					t.Errorf("Alice pizza = %+v", a.Items[0])
				}
				if !approx(a.Items[1].Value, 20) || !approx(a.Items[1].DiscountApplied, 2) {
					t.Errorf("Alice salad = %+v", a.Items[1])
				}

				b := person(t, r, "Bob")
				if !approx(b.Subtotal, 40) || !approx(b.DiscountShare, 4) ||
					!approx(b.ServiceFeeShare, 3.6) || !approx(b.Total, 39.6) {
					t.Errorf("Bob = %+v", b)
				}
				if r.Progress.PercentDistributed != 100 || r.Progress.ItemsIncomplete != 0 {
					t.Errorf("progress = %+v", r.Progress)
				}
			},
		},
		{
			name: "no discount and no fee leaves totals equal to subtotals",
			session: &models.Session{
				Participants: []models.Participant{alice, bob, carol},
				Items: []models.Item{
					item("Wine", 1, 87.3, assign(alice.ID, 0.3), assign(bob.ID, 0.3), assign(carol.ID, 0.4)),
					item("Bread", 3, 4.1, assign(carol.ID, 3)),
				},
			},
			validateFunc: func(t *testing.T, r *Report) {
				for _, p := range r.People {
					if p.Total != p.Subtotal {
						t.Errorf("%s total = %v, want exactly %v", p.Name, p.Total, p.Subtotal)
					}
				}
			},
		},
		{
			name: "shares proportional to consumption",
			session: &models.Session{
				Participants:      []models.Participant{alice, bob},
				ServiceFeePercent: 13,
				DiscountAmount:    7.5,
				Items: []models.Item{
					item("Ribs", 3, 31.9, assign(alice.ID, 2), assign(bob.ID, 1)),
				},
			},
			validateFunc: func(t *testing.T, r *Report) {
				a, b := person(t, r, "Alice"), person(t, r, "Bob")
				if !approx(a.Subtotal, 2*b.Subtotal) {
					t.Fatalf("subtotals %v, %v not 2:1", a.Subtotal, b.Subtotal)
				}
				if !approx(a.DiscountShare, 2*b.DiscountShare) {
					t.Errorf("discount shares %v, %v not 2:1", a.DiscountShare, b.DiscountShare)
				}
				if !approx(a.ServiceFeeShare, 2*b.ServiceFeeShare) {
					t.Errorf("fee shares %v, %v not 2:1", a.ServiceFeeShare, b.ServiceFeeShare)
				}
			},
		},
		{
			name: "unassigned quantity counts toward gross",
			session: &models.Session{
				Participants:      []models.Participant{alice},
				ServiceFeePercent: 10,
				Items: []models.Item{
					item("Beer", 4, 10, assign(alice.ID, 1)),
				},
			},
			validateFunc: func(t *testing.T, r *Report) {
				a := person(t, r, "Alice")
				// gross 40, fee 4; Alice consumed a quarter
				if !approx(r.GrossTotal, 40) || !approx(a.ServiceFeeShare, 1) || !approx(a.Total, 11) {
					t.Errorf("Alice = %+v, gross %v", a, r.GrossTotal)
				}
				if !approx(a.PercentOfBill, 25) {
					t.Errorf("percent = %v, want 25", a.PercentOfBill)
				}
				if r.Progress.PercentDistributed != 25 || r.Progress.ItemsIncomplete != 1 {
					t.Errorf("progress = %+v", r.Progress)
				}
			},
		},
		{
			name: "participant without consumption",
			session: &models.Session{
				Participants:      []models.Participant{alice, bob},
				ServiceFeePercent: 10,
				DiscountAmount:    5,
				Items:             []models.Item{item("Cake", 1, 25, assign(alice.ID, 1))},
			},
			validateFunc: func(t *testing.T, r *Report) {
				b := person(t, r, "Bob")
				if b.Subtotal != 0 || b.DiscountShare != 0 || b.ServiceFeeShare != 0 || b.Total != 0 || len(b.Items) != 0 {
					t.Errorf("Bob = %+v, want zero", b)
				}
				if b.Items == nil {
					t.Error("Bob items should be empty, not nil")
				}
			},
		},
		{
			name: "discount larger than bill",
			session: &models.Session{
				Participants:      []models.Participant{alice},
				ServiceFeePercent: 10,
				DiscountAmount:    50,
				Items:             []models.Item{item("Coffee", 2, 5, assign(alice.ID, 2))},
			},
			validateFunc: func(t *testing.T, r *Report) {
				if r.GrandTotal >= 0 {
					t.Fatalf("grand total = %v, want negative", r.GrandTotal)
				}
				if a := person(t, r, "Alice"); a.PercentOfBill != 0 {
					t.Errorf("percent = %v, want 0 when grand total is not positive", a.PercentOfBill)
				}
			},
		},
		{
			name: "assignments to unknown participants are ignored",
			session: &models.Session{
				Participants: []models.Participant{alice},
				Items:        []models.Item{item("Tea", 2, 3, assign(alice.ID, 1), assign("p-gone", 1))},
			},
			validateFunc: func(t *testing.T, r *Report) {
				if len(r.People) != 1 || !approx(r.People[0].Subtotal, 3) {
					t.Errorf("people = %+v", r.People)
				}
				if r.Progress.PercentDistributed != 100 {
					t.Errorf("progress = %+v", r.Progress)
				}
			},
		},
		{
			name: "zero gross short-circuits",
			session: &models.Session{
				Participants:      []models.Participant{alice, bob},
				ServiceFeePercent: 10,
				DiscountAmount:    3,
				Items: []models.Item{
					item("Water", 0, 2),
					item("Refill", 2, 0, assign(alice.ID, 2)),
				},
			},
			validateFunc: func(t *testing.T, r *Report) {
				for _, p := range r.People {
					if p.Subtotal != 0 || p.DiscountShare != 0 || p.ServiceFeeShare != 0 || p.Total != 0 || p.PercentOfBill != 0 {
						t.Errorf("%s = %+v, want all zero", p.Name, p)
					}
					if p.Items == nil {
						t.Errorf("%s items should be empty, not nil", p.Name)
					}
				}
				if r.Progress.PercentDistributed != 0 || r.Progress.ItemsIncomplete != 2 {
					t.Errorf("progress = %+v, want {0 2}", r.Progress)
				}
			},
		},
		{
			name: "no items",
			session: &models.Session{
				Participants:      []models.Participant{alice},
				ServiceFeePercent: 10,
			},
			validateFunc: func(t *testing.T, r *Report) {
				if len(r.People) != 1 || r.People[0].Total != 0 {
					t.Errorf("people = %+v", r.People)
				}
				if r.Progress.ItemsIncomplete != 0 {
					t.Errorf("progress = %+v", r.Progress)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ComputeSettlement(tt.session)
			if len(r.People) != len(tt.session.Participants) {
				t.Fatalf("people = %d, want %d", len(r.People), len(tt.session.Participants))
			}
			tt.validateFunc(t, r)
		})
	}
}

func TestComputeSettlement_Conservation(t *testing.T) {
	sessions := []*models.Session{
		{
			Participants:      []models.Participant{alice, bob, carol},
			ServiceFeePercent: 10,
			DiscountAmount:    12.34,
			Items: []models.Item{
				item("Pizza", 2, 47.9, assign(alice.ID, 0.7), assign(bob.ID, 0.6), assign(carol.ID, 0.7)),
				item("Beer", 7, 11.5, assign(alice.ID, 3), assign(bob.ID, 4)),
				item("Couvert", 3, 6.25, assign(alice.ID, 1), assign(bob.ID, 1), assign(carol.ID, 1)),
			},
		},
		{
			Participants:      []models.Participant{alice, bob, carol},
			ServiceFeePercent: 13.5,
			Items: []models.Item{
				item("Fondue", 1, 189.99, assign(alice.ID, 1.0/3), assign(bob.ID, 1.0/3), assign(carol.ID, 1.0/3)),
			},
		},
		{
			Participants:      []models.Participant{alice},
			ServiceFeePercent: 100,
			DiscountAmount:    0.01,
			Items:             []models.Item{item("Oysters", 12, 4.75, assign(alice.ID, 12))},
		},
	}

	for i, s := range sessions {
		r := ComputeSettlement(s)
		var sum, percent float64
		for _, p := range r.People {
			sum += p.Total
			percent += p.PercentOfBill
		}
		if math.Abs(sum-r.GrandTotal) > tolerance {
			t.Errorf("session %d: sum of totals %v != grand total %v", i, sum, r.GrandTotal)
		}
		if math.Abs(percent-100) > tolerance {
			t.Errorf("session %d: percentages sum to %v", i, percent)
		}
		for _, p := range r.People {
			var discount float64
			for _, it := range p.Items {
				discount += it.DiscountApplied
			}
			if math.Abs(discount-p.DiscountShare) > tolerance {
				t.Errorf("session %d: %s item discounts %v != discount share %v", i, p.Name, discount, p.DiscountShare)
			}
		}
	}
}

func TestComputeSettlement_Idempotent(t *testing.T) {
	s := &models.Session{
		Participants:      []models.Participant{alice, bob, carol},
		ServiceFeePercent: 10,
		DiscountAmount:    3.3,
		Items: []models.Item{
			item("Nachos", 1, 33.3, assign(carol.ID, 0.1), assign(alice.ID, 0.2), assign(bob.ID, 0.7)),
			item("Lemonade", 3, 7.7, assign(bob.ID, 1.1), assign(carol.ID, 1.9)),
		},
	}
	snapshot := s.Clone()

	first := ComputeSettlement(s)
	second := ComputeSettlement(s)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("reports differ:\n%+v\n%+v", first, second)
	}
	if !reflect.DeepEqual(s, snapshot) {
		t.Error("ComputeSettlement modified the session")
	}
}

func TestDistributionProgress(t *testing.T) {
	tests := []struct {
		name           string
		items          []models.Item
		wantPercent    float64
		wantIncomplete int
	}{
		{
			name: "four of five units",
			items: []models.Item{
				item("A", 2, 1, assign(alice.ID, 2)),
				item("B", 3, 1, assign(alice.ID, 1), assign(bob.ID, 1)),
			},
			wantPercent:    80,
			wantIncomplete: 1,
		},
		{
			name:           "rounded to two decimals",
			items:          []models.Item{item("A", 3, 1, assign(alice.ID, 1))},
			wantPercent:    33.33,
			wantIncomplete: 1,
		},
		{
			name:           "within epsilon counts as complete",
			items:          []models.Item{item("A", 1, 1, assign(alice.ID, 1-5e-10))},
			wantPercent:    100,
			wantIncomplete: 0,
		},
		{
			name:           "binary value below a tie rounds down",
			items:          []models.Item{item("A", 200, 1, assign(alice.ID, 2.01))},
			wantPercent:    1,
			wantIncomplete: 1,
		},
		{
			name:           "zero quantity",
			items:          []models.Item{item("A", 0, 1)},
			wantPercent:    0,
			wantIncomplete: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistributionProgress(&models.Session{Items: tt.items})
			if got.PercentDistributed != tt.wantPercent {
				t.Errorf("percent = %v, want %v", got.PercentDistributed, tt.wantPercent)
			}
			if got.ItemsIncomplete != tt.wantIncomplete {
				t.Errorf("incomplete = %d, want %d", got.ItemsIncomplete, tt.wantIncomplete)
			}
		})
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{33.333333, 33.33},
		{66.666666, 66.67},
		{1.00499999999999989, 1},
		{0.125, 0.12},
		{0.375, 0.38},
		{100, 100},
	}
	for _, tt := range tests {
		if got := round2(tt.in); got != tt.want {
			t.Errorf("round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
