package models

import "errors"

// ErrMissingEffectivePrice means neither the row nor its linked service
// carries a price. Creation rules make this unreachable for clean data.
var ErrMissingEffectivePrice = errors.New("offering has no effective price")

// Offering is the effective view of a SocietyService after coalescing its
// overrides with the linked catalogue Service.
type Offering struct {
	ID              string          `json:"id"`
	SocietyID       string          `json:"societyId"`
	ServiceID       *string         `json:"serviceId"`
	Name            LocalizedString `json:"name"`
	Description     LocalizedString `json:"description"`
	EffectivePrice  float64         `json:"effectivePrice"`
	BasePrice       *float64        `json:"basePrice"`
	PriceOverride   *float64        `json:"priceOverride"`
	DurationMinutes int             `json:"durationMinutes"`
	Icon            string          `json:"icon"`
	IsGeneric       bool            `json:"isGeneric"`
	IsActive        bool            `json:"isActive"`
	IsExclusive     bool            `json:"isExclusive"`
}

// ResolveOffering coalesces row against global, field by field: the local
// override wins, then the global value. global may be nil for exclusive rows
// or dangling links.
func ResolveOffering(row SocietyService, global *Service) (Offering, error) {
	o := Offering{
		ID:          row.ID,
		SocietyID:   row.SocietyID,
		ServiceID:   row.ServiceID,
		IsActive:    row.IsActive,
		IsExclusive: row.IsExclusive(),
	}
	if row.IsExclusive() {
		global = nil
	}

	o.Name = coalesceText(row.Name, global, func(s *Service) LocalizedString { return s.Name })
	o.Description = coalesceText(row.Description, global, func(s *Service) LocalizedString { return s.Description })

	if row.Price != nil {
		p := *row.Price
		o.PriceOverride = &p
	}
	if global != nil {
		bp := global.BasePrice
		o.BasePrice = &bp
	}
	switch {
	case o.PriceOverride != nil:
		o.EffectivePrice = *o.PriceOverride
	case o.BasePrice != nil:
		o.EffectivePrice = *o.BasePrice
	default:
		return o, ErrMissingEffectivePrice
	}

	switch {
	case row.Duration != nil:
		o.DurationMinutes = *row.Duration
	case global != nil:
		o.DurationMinutes = global.DurationMinutes
	}
	switch {
	case row.Icon != nil:
		o.Icon = *row.Icon
	case global != nil:
		o.Icon = global.Icon
	}
	switch {
	case row.IsGeneric != nil:
		o.IsGeneric = *row.IsGeneric
	case global != nil:
		o.IsGeneric = global.IsGeneric
	}
	return o, nil
}

func coalesceText(local LocalizedString, global *Service, pick func(*Service) LocalizedString) LocalizedString {
	if local != nil {
		return local.clone()
	}
	if global != nil {
		if v := pick(global); v != nil {
			return v.clone()
		}
	}
	return Text("")
}
