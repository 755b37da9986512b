// Package calculator derives per-person settlements from a session.
//
// Discount and service fee are allocated proportionally to consumption:
//
//	share           = person_subtotal / gross_total
//	discount_share  = discount × share
//	service_share   = (gross_total − discount) × fee% × share
//	person_total    = person_subtotal − discount_share + service_share
package calculator

import (
	"strconv"

	"github.com/mmynk/tabsplit/internal/models"
)

// epsilon matches the tolerance used by the session package.
const epsilon = 1e-9

// ConsumedItem is one item a person consumed, as listed in their breakdown.
type ConsumedItem struct {
	ItemID          string  `json:"item_id"`
	ItemName        string  `json:"item_name"`
	Quantity        float64 `json:"quantity"`
	Value           float64 `json:"value"` // Quantity × unit price
	DiscountApplied float64 `json:"discount_applied"`
}

// PersonSettlement is one participant's part of the bill.
type PersonSettlement struct {
	ParticipantID   string         `json:"participant_id"`
	Name            string         `json:"name"`
	Subtotal        float64        `json:"subtotal"`
	DiscountShare   float64        `json:"discount_share"`
	ServiceFeeShare float64        `json:"service_fee_share"`
	Total           float64        `json:"total"`
	PercentOfBill   float64        `json:"percent_of_bill"`
	Items           []ConsumedItem `json:"items"`
}

// Progress tracks how much of the bill has been assigned to someone.
type Progress struct {
	PercentDistributed float64 `json:"percent_distributed"` // 0-100, two decimals
	ItemsIncomplete    int     `json:"items_incomplete"`
}

// Report is the settlement of one session.
// People are listed in the session's participant order.
type Report struct {
	People   []PersonSettlement `json:"people"`
	Progress Progress           `json:"progress"`

	GrossTotal       float64 `json:"gross_total"`
	NetAfterDiscount float64 `json:"net_after_discount"`
	ServiceFeeTotal  float64 `json:"service_fee_total"`
	GrandTotal       float64 `json:"grand_total"`
}

// ComputeSettlement derives the settlement of s. It never modifies s and
// returns identical reports for identical sessions.
//
// Unassigned quantities still count toward the gross total, so the people's
// totals only add up to GrandTotal once every item is fully distributed.
// Assignments to participants not in the session are ignored.
func ComputeSettlement(s *models.Session) *Report {
	people := make([]PersonSettlement, len(s.Participants))
	index := make(map[string]int, len(s.Participants))
	for i, p := range s.Participants {
		people[i] = PersonSettlement{ParticipantID: p.ID, Name: p.Name, Items: []ConsumedItem{}}
		index[p.ID] = i
	}

	var gross float64
	for _, item := range s.Items {
		for _, a := range item.Assignments {
			i, ok := index[a.ParticipantID]
			if !ok {
				continue
			}
			value := a.Quantity * item.UnitPrice
			people[i].Subtotal += value
			people[i].Items = append(people[i].Items, ConsumedItem{
				ItemID:   item.ID,
				ItemName: item.Name,
				Quantity: a.Quantity,
				Value:    value,
			})
		}
		gross += item.Quantity * item.UnitPrice
	}

	if gross == 0 {
		for i := range people {
			people[i] = PersonSettlement{ParticipantID: people[i].ParticipantID, Name: people[i].Name, Items: []ConsumedItem{}}
		}
		return &Report{
			People:   people,
			Progress: Progress{PercentDistributed: 0, ItemsIncomplete: len(s.Items)},
		}
	}

	// Discount comes off first; the fee is charged on what remains.
	net := gross - s.DiscountAmount
	fee := net * (s.ServiceFeePercent / 100)
	grand := net + fee

	for i := range people {
		p := &people[i]
		share := p.Subtotal / gross
		p.DiscountShare = s.DiscountAmount * share
		p.ServiceFeeShare = fee * share
		p.Total = (p.Subtotal - p.DiscountShare) + p.ServiceFeeShare
		if grand > 0 {
			p.PercentOfBill = (p.Total / grand) * 100
		}
		for j := range p.Items {
			var itemShare float64
			if p.Subtotal > 0 {
				itemShare = p.Items[j].Value / p.Subtotal
			}
			p.Items[j].DiscountApplied = p.DiscountShare * itemShare
		}
	}

	return &Report{
		People:           people,
		Progress:         DistributionProgress(s),
		GrossTotal:       gross,
		NetAfterDiscount: net,
		ServiceFeeTotal:  fee,
		GrandTotal:       grand,
	}
}

// DistributionProgress reports the share of total quantity that is assigned
// and how many items still have unassigned quantity.
func DistributionProgress(s *models.Session) Progress {
	var total, distributed float64
	var incomplete int
	for i := range s.Items {
		item := &s.Items[i]
		assigned := item.AssignedQuantity()
		total += item.Quantity
		distributed += assigned
		if item.Quantity-assigned > epsilon {
			incomplete++
		}
	}

	var percent float64
	if total > 0 {
		percent = round2((distributed / total) * 100)
	}
	return Progress{PercentDistributed: percent, ItemsIncomplete: incomplete}
}

// round2 rounds the exact binary value of x to two decimals, ties to even.
func round2(x float64) float64 {
	r, _ := strconv.ParseFloat(strconv.FormatFloat(x, 'f', 2, 64), 64)
	return r
}
