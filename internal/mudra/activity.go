package mudra

// Activity names a way of earning mudras.
type Activity string

const (
	SignupBonus      Activity = "signup_bonus"
	DailyLogin       Activity = "daily_login"
	ProfileComplete  Activity = "profile_complete"
	PujaBooking      Activity = "puja_booking"
	ReferralReferrer Activity = "referral_referrer"
	ReferralReferee  Activity = "referral_referee"
	DarshanView      Activity = "darshan_view"
	SpecialDayPuja   Activity = "special_day_puja"
)

// Cap describes how often an activity pays out.
type Cap string

const (
	CapNone  Cap = "none"
	CapDaily Cap = "daily"
	CapOnce  Cap = "once"
)

// Rule is the fixed payout of an activity.
type Rule struct {
	Activity Activity `json:"activity"`
	Amount   int64    `json:"amount"`
	Cap      Cap      `json:"cap"`
	// ClientAwardable activities may be claimed directly by the app.
	ClientAwardable bool `json:"client_awardable"`
}

var rules = []Rule{
	{Activity: SignupBonus, Amount: 50, Cap: CapOnce},
	{Activity: DailyLogin, Amount: 5, Cap: CapDaily, ClientAwardable: true},
	{Activity: ProfileComplete, Amount: 25, Cap: CapOnce},
	{Activity: PujaBooking, Amount: 20, Cap: CapDaily},
	{Activity: ReferralReferrer, Amount: 100, Cap: CapNone},
	{Activity: ReferralReferee, Amount: 50, Cap: CapOnce},
	{Activity: DarshanView, Amount: 2, Cap: CapDaily, ClientAwardable: true},
	{Activity: SpecialDayPuja, Amount: 10, Cap: CapDaily},
}

// Rules returns the payout table in display order.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// RuleFor looks up the rule of a.
func RuleFor(a Activity) (Rule, bool) {
	for _, r := range rules {
		if r.Activity == a {
			return r, true
		}
	}
	return Rule{}, false
}
