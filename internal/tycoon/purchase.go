package tycoon

import "fmt"

// Refusal says why an offer cannot be bought right now. The empty value means it can.
type Refusal string

const (
	RefusalNone              Refusal = ""
	RefusalUnknownOffer      Refusal = "unknown_offer"
	RefusalAlreadyPurchased  Refusal = "already_purchased"
	RefusalLocked            Refusal = "locked"
	RefusalInsufficientFunds Refusal = "insufficient_funds"
	RefusalMissingStation    Refusal = "missing_station"
)

// PurchaseRefusal checks an offer against the state without changing anything.
func (s *State) PurchaseRefusal(offerID string) Refusal {
	i := s.offerIndex(offerID)
	if i < 0 {
		return RefusalUnknownOffer
	}
	o := s.Offers[i]
	switch {
	case o.Purchased:
		return RefusalAlreadyPurchased
	case !o.Unlocked:
		return RefusalLocked
	case s.Money < o.Cost:
		return RefusalInsufficientFunds
	case !s.hasStation(o.Kind, o.Target):
		return RefusalMissingStation
	}
	return RefusalNone
}

// Purchase buys an offer: it deducts the cost, marks it purchased, unlocks
// the target station and opens the next offer of the chain. It returns false
// and leaves the state untouched when the offer cannot be bought.
func (e Engine) Purchase(st *State, offerID string) bool {
	if st.PurchaseRefusal(offerID) != RefusalNone {
		return false
	}
	o := &st.Offers[st.offerIndex(offerID)]
	st.Money -= o.Cost
	o.Purchased = true
	st.setUnlocked(o.Kind, o.Target, true)
	st.RefreshOffers()

	e.emit(Event{
		Type:      EventPurchase,
		Message:   fmt.Sprintf("Purchased: %s!", o.Name),
		Amount:    o.Cost,
		StationID: o.Target,
	})
	return true
}

// RefreshOffers opens offer i once offer i-1 is purchased. Flags only ever move forward here.
func (s *State) RefreshOffers() {
	for i := range s.Offers {
		if s.Offers[i].Unlocked {
			continue
		}
		if i == 0 || s.Offers[i-1].Purchased {
			s.Offers[i].Unlocked = true
		}
	}
}

func (s *State) resetOffers() {
	for i := range s.Offers {
		s.Offers[i].Purchased = false
		s.Offers[i].Unlocked = i == 0
	}
}

// NextOffer is the first offer that is open and not yet bought.
func (s *State) NextOffer() (Offer, bool) {
	for _, o := range s.Offers {
		if o.Unlocked && !o.Purchased {
			return o, true
		}
	}
	return Offer{}, false
}

// claimStarter takes the first offer when it is free, which is how a new or
// reborn factory gets its first dropper.
func (e Engine) claimStarter(st *State) {
	if len(st.Offers) == 0 || st.Offers[0].Cost != 0 {
		return
	}
	e.Purchase(st, st.Offers[0].ID)
}
