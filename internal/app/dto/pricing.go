package dto

import domainpricing "buckler/internal/domain/pricing"

type Fee struct {
	Name   string   `json:"name"`
	Amount MoneyDTO `json:"amount"`
}

type PriceBreakdown struct {
	Nights          int       `json:"nights,omitempty"`
	Participants    int       `json:"participants,omitempty"`
	Unit            MoneyDTO  `json:"unit"`
	Base            MoneyDTO  `json:"base"`
	Fees            []Fee     `json:"fees,omitempty"`
	SecurityDeposit *MoneyDTO `json:"security_deposit,omitempty"`
	Total           MoneyDTO  `json:"total"`
}

func MapBreakdown(b domainpricing.Breakdown) PriceBreakdown {
	out := PriceBreakdown{
		Nights:          b.Nights,
		Participants:    b.Participants,
		Unit:            MapMoney(b.Unit),
		Base:            MapMoney(b.Base),
		SecurityDeposit: MapMoneyPtr(b.SecurityDeposit),
		Total:           MapMoney(b.Total),
	}
	for _, fee := range b.Fees {
		out.Fees = append(out.Fees, Fee{Name: fee.Name, Amount: MapMoney(fee.Amount)})
	}
	return out
}
