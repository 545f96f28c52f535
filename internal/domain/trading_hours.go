package domain

import "time"

// SessionStatus describes the exchange session at a point in time.
type SessionStatus string

const (
	SessionTrading     SessionStatus = "trading"
	SessionCallAuction SessionStatus = "call_auction"
	SessionClosed      SessionStatus = "closed"
)

type clockRange struct{ from, to int } // minutes since midnight, inclusive

var (
	tradingRanges     = []clockRange{{9*60 + 30, 11*60 + 30}, {13 * 60, 15 * 60}}
	callAuctionRanges = []clockRange{{9*60 + 15, 9*60 + 25}, {14*60 + 57, 15 * 60}}
)

// Exchange is the timezone of the Shanghai and Shenzhen exchanges.
var Exchange = loadExchangeLocation()

func loadExchangeLocation() *time.Location {
	loc, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		return time.FixedZone("CST", 8*60*60)
	}
	return loc
}

func inRanges(t time.Time, ranges []clockRange) bool {
	t = t.In(Exchange)
	if wd := t.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}
	m := t.Hour()*60 + t.Minute()
	for _, r := range ranges {
		if m >= r.from && m <= r.to {
			return true
		}
	}
	return false
}

func IsTradingTime(t time.Time) bool { return inRanges(t, tradingRanges) }

func IsCallAuction(t time.Time) bool { return inRanges(t, callAuctionRanges) }

// Session reports trading first, so 14:57-15:00 counts as trading.
func Session(t time.Time) SessionStatus {
	switch {
	case IsTradingTime(t):
		return SessionTrading
	case IsCallAuction(t):
		return SessionCallAuction
	default:
		return SessionClosed
	}
}
