package outbreaksim

import "math"

// groupAverage computes g_ave, the effective offspring mean, from the
// logarithmic group-size parameters (p, mu) according to the selected
// group model (§3, §4.A). The formulas are taken verbatim from the
// original source's CLI help text, which is the only place they are
// stated explicitly.
func groupAverage(t GroupType, p, mu float64) (float64, error) {
	switch t {
	case GroupLogAttendeesPlus1:
		// R0 = lambda*tbar*(g_ave-1)*pinf with g_ave = mu + 1.
		return mu + 1, nil
	case GroupLogAttendees:
		if p == 0 {
			return 2, nil
		}
		// g_ave = -p*p / ((1-p) * (log(1-p) + p))
		return -p * p / ((1 - p) * (math.Log(1-p) + p)), nil
	case GroupLogInvitees:
		return 0, ErrGroupLogInviteesUnimplemented
	default:
		return 0, ErrUnknownGroupType
	}
}
