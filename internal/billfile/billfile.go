// Package billfile reads a bill described in YAML and builds the equivalent
// session, so a split can be settled without a server.
//
//	name: Friday dinner
//	service_fee_percent: 10
//	discount: 5
//	people: [Ana, Bruno]
//	items:
//	  - name: Pizza
//	    quantity: 2
//	    unit_price: 40
//	    split: {Ana: 1.5, Bruno: 0.5}
//	  - name: Beer
//	    quantity: 3
//	    unit_price: 10
//	    shared_by: [Ana, Bruno]
package billfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mmynk/tabsplit/internal/models"
	"github.com/mmynk/tabsplit/internal/session"
)

// Bill is the YAML document.
type Bill struct {
	Name              string   `yaml:"name"`
	ServiceFeePercent *float64 `yaml:"service_fee_percent"`
	Discount          float64  `yaml:"discount"`
	People            []string `yaml:"people"`
	Items             []Item   `yaml:"items"`
}

// Item is one line of the bill. Split gives explicit quantities per person;
// SharedBy divides the whole quantity equally. At most one may be set.
type Item struct {
	Name      string             `yaml:"name"`
	Quantity  *float64           `yaml:"quantity"`
	UnitPrice float64            `yaml:"unit_price"`
	Split     map[string]float64 `yaml:"split"`
	SharedBy  []string           `yaml:"shared_by"`
}

// Parse decodes a bill, rejecting unknown fields.
func Parse(r io.Reader) (*Bill, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var b Bill
	if err := dec.Decode(&b); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("bill file is empty")
		}
		return nil, fmt.Errorf("decode bill: %w", err)
	}
	return &b, nil
}

// Load parses the bill file at path.
func Load(path string) (*Bill, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Build creates a session from the bill using the regular session operations,
// so every rule that applies to the server applies here too.
func (b *Bill) Build() (*models.Session, error) {
	inputs := make([]session.ItemInput, len(b.Items))
	for i, item := range b.Items {
		quantity := 1.0
		if item.Quantity != nil {
			quantity = *item.Quantity
		}
		inputs[i] = session.ItemInput{Name: item.Name, Quantity: quantity, UnitPrice: item.UnitPrice}
	}

	s, err := session.New(inputs, b.People)
	if err != nil {
		return nil, err
	}
	session.Rename(s, b.Name)

	fee := session.DefaultServiceFeePercent
	if b.ServiceFeePercent != nil {
		fee = *b.ServiceFeePercent
	}
	if err := session.Configure(s, fee, b.Discount); err != nil {
		return nil, err
	}

	byName := make(map[string]string, len(s.Participants))
	for _, p := range s.Participants {
		byName[strings.ToLower(p.Name)] = p.ID
	}
	for i, item := range b.Items {
		shares, err := item.shares(s, byName, s.Items[i].Quantity)
		if err != nil {
			return nil, fmt.Errorf("item %q: %w", item.Name, err)
		}
		if err := session.AssignItem(s, s.Items[i].ID, shares); err != nil {
			return nil, fmt.Errorf("item %q: %w", item.Name, err)
		}
	}
	return s, nil
}

// shares lists the item's distribution in participant order.
func (it Item) shares(s *models.Session, byName map[string]string, quantity float64) ([]session.Share, error) {
	if len(it.Split) > 0 && len(it.SharedBy) > 0 {
		return nil, errors.New("use either split or shared_by, not both")
	}

	want := make(map[string]float64)
	for name, q := range it.Split {
		id, ok := byName[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("unknown person %q", name)
		}
		want[id] = q
	}
	for _, name := range it.SharedBy {
		id, ok := byName[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("unknown person %q", name)
		}
		if _, dup := want[id]; dup {
			return nil, fmt.Errorf("%q listed more than once", name)
		}
		want[id] = quantity / float64(len(it.SharedBy))
	}

	shares := make([]session.Share, 0, len(want))
	for _, p := range s.Participants {
		if q, ok := want[p.ID]; ok {
			shares = append(shares, session.Share{ParticipantID: p.ID, Quantity: q})
		}
	}
	return shares, nil
}
