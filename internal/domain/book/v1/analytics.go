package bookv1

import (
	"fmt"
	"math"
)

// Stats is the derived top-of-book and aggregate state of a book. It is
// recomputed wholly from the two sides after every mutation; nothing in
// it accumulates across calls.
//
// Spread, Midquote, Imbalance and SmartPrice are meaningful only when
// both HasBid and HasAsk are set. Misbalance is always defined.
type Stats struct {
	Bid        float64 `json:"bid"`
	Ask        float64 `json:"ask"`
	BidVol     float64 `json:"bidVol"`
	AskVol     float64 `json:"askVol"`
	Spread     float64 `json:"spread"`
	Midquote   float64 `json:"midquote"`
	Imbalance  float64 `json:"imbalance"`
	Misbalance float64 `json:"misbalance"`
	SmartPrice float64 `json:"smartPrice"`
	HasBid     bool    `json:"hasBid"`
	HasAsk     bool    `json:"hasAsk"`
}

// ComputeStats derives the full stat set from the two sides.
//
// Imbalance is -ln(bidVol/askVol): positive when ask volume dominates
// the top of book. SmartPrice is the inverse-volume-weighted blend
// (bid/bidVol + ask/askVol)/2, guarded against zero volumes even though
// excision of empty levels should make them impossible.
func ComputeStats(bids, asks *SideBook) Stats {
	var s Stats

	if price, ok := bids.BestPrice(); ok {
		s.Bid = price
		s.BidVol = bids.Level(price).TotalVolume
		s.HasBid = true
	}
	if price, ok := asks.BestPrice(); ok {
		s.Ask = price
		s.AskVol = asks.Level(price).TotalVolume
		s.HasAsk = true
	}

	s.Misbalance = bids.Depth() - asks.Depth()

	if s.HasBid && s.HasAsk {
		s.Spread = s.Ask - s.Bid
		s.Midquote = (s.Ask + s.Bid) / 2
		if s.BidVol > 0 && s.AskVol > 0 {
			s.Imbalance = -math.Log(s.BidVol / s.AskVol)
			s.SmartPrice = (s.Bid/s.BidVol + s.Ask/s.AskVol) / 2
		}
	}

	return s
}

// TwoSided reports whether both sides carry liquidity, i.e. whether the
// paired quote fields are meaningful.
func (s Stats) TwoSided() bool {
	return s.HasBid && s.HasAsk
}

// Validate rejects quotes a healthy book can never produce: negative
// prices or a crossed quote surviving a refresh.
func (s Stats) Validate() error {
	if s.HasBid && s.Bid < 0 {
		return fmt.Errorf("%w: bid %f", ErrInvalidQuote, s.Bid)
	}
	if s.HasAsk && s.Ask < 0 {
		return fmt.Errorf("%w: ask %f", ErrInvalidQuote, s.Ask)
	}
	if s.TwoSided() && s.Bid >= s.Ask {
		return fmt.Errorf("%w: crossed quote %f/%f", ErrInvalidQuote, s.Bid, s.Ask)
	}
	return nil
}
