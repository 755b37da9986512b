package service

import (
	"github.com/mmynk/tabsplit/internal/calculator"
	"github.com/mmynk/tabsplit/internal/models"
	"github.com/mmynk/tabsplit/internal/session"
	"github.com/mmynk/tabsplit/pkg/api"
)

func toAPISession(s *models.Session) *api.Session {
	out := &api.Session{
		ID:                s.ID,
		Name:              s.Name,
		Status:            string(s.Status),
		ServiceFeePercent: s.ServiceFeePercent,
		DiscountAmount:    s.DiscountAmount,
		Items:             make([]api.Item, len(s.Items)),
		Participants:      make([]api.Participant, len(s.Participants)),
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
	for i, item := range s.Items {
		assignments := make([]api.Assignment, len(item.Assignments))
		for j, a := range item.Assignments {
			assignments[j] = api.Assignment{ParticipantID: a.ParticipantID, Quantity: a.Quantity}
		}
		out.Items[i] = api.Item{
			ID:          item.ID,
			Name:        item.Name,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Assignments: assignments,
		}
	}
	for i, p := range s.Participants {
		out.Participants[i] = api.Participant{ID: p.ID, Name: p.Name}
	}
	return out
}

func toSummary(s *models.Session) api.SessionSummary {
	var gross float64
	for i := range s.Items {
		gross += s.Items[i].Value()
	}
	return api.SessionSummary{
		ID:               s.ID,
		Name:             s.Name,
		Status:           string(s.Status),
		ItemCount:        len(s.Items),
		ParticipantCount: len(s.Participants),
		GrossTotal:       gross,
		CreatedAt:        s.CreatedAt,
	}
}

func toItemInputs(in []api.ItemInput) []session.ItemInput {
	out := make([]session.ItemInput, len(in))
	for i, item := range in {
		out[i] = session.ItemInput{Name: item.Name, Quantity: item.Quantity, UnitPrice: item.UnitPrice}
	}
	return out
}

func toShares(in []api.Assignment) []session.Share {
	out := make([]session.Share, len(in))
	for i, a := range in {
		out[i] = session.Share{ParticipantID: a.ParticipantID, Quantity: a.Quantity}
	}
	return out
}

func toAPISettlement(r *calculator.Report, overcommitted []string) *api.GetSettlementResponse {
	people := make([]api.PersonSettlement, len(r.People))
	for i, p := range r.People {
		items := make([]api.ConsumedItem, len(p.Items))
		for j, item := range p.Items {
			items[j] = api.ConsumedItem{
				ItemID:          item.ItemID,
				ItemName:        item.ItemName,
				Quantity:        item.Quantity,
				Value:           item.Value,
				DiscountApplied: item.DiscountApplied,
			}
		}
		people[i] = api.PersonSettlement{
			ParticipantID:   p.ParticipantID,
			Name:            p.Name,
			Subtotal:        p.Subtotal,
			DiscountShare:   p.DiscountShare,
			ServiceFeeShare: p.ServiceFeeShare,
			Total:           p.Total,
			PercentOfBill:   p.PercentOfBill,
			Items:           items,
		}
	}
	return &api.GetSettlementResponse{
		People:               people,
		PercentDistributed:   r.Progress.PercentDistributed,
		ItemsIncomplete:      r.Progress.ItemsIncomplete,
		GrossTotal:           r.GrossTotal,
		NetAfterDiscount:     r.NetAfterDiscount,
		ServiceFeeTotal:      r.ServiceFeeTotal,
		GrandTotal:           r.GrandTotal,
		OvercommittedItemIDs: overcommitted,
	}
}

func toAPIUser(u *models.User) *api.User {
	return &api.User{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}
}
