package outbreaksim

import (
	"math"

	"github.com/pkg/errors"
)

// GroupType selects the distribution used for the number of people
// present at a transmission event, which determines the mapping from
// mu to the effective offspring mean g_ave (§3, §4.A).
type GroupType int

const (
	// GroupLogAttendeesPlus1 is the default: attendees at an event are
	// logarithmically distributed plus 1. g_ave = mu + 1.
	GroupLogAttendeesPlus1 GroupType = iota
	// GroupLogAttendees: attendees follow a logarithmic distribution
	// truncated below 2. g_ave = -p*p / ((1-p)*(log(1-p)+p)).
	GroupLogAttendees
	// GroupLogInvitees is accepted by the CLI but has no known g_ave
	// formula in the original source (design note); rejected at
	// validation time until a formula is supplied.
	GroupLogInvitees
)

// TimeType selects the origin used to report path timelines: time
// since the first primary was created, or time since it became
// infectious (which can require negative bins, see the reltime frame
// shape in §4.G).
type TimeType int

const (
	// TimePriCreated anchors t=0 at each path's primary creation.
	TimePriCreated TimeType = iota
	// TimePriInfectious anchors t=0 at the primary's infectious onset,
	// which can make the primary's own latent period negative-valued.
	TimePriInfectious
)

// CommPerType is a bitmask recorded on each InfectiousIndividual
// frame describing which period types applied to it.
type CommPerType uint32

const (
	CommPerMain CommPerType = 1 << iota
	CommPerAlt
	CommPerInterrupted
	CommPerTmaxTruncated
	CommPerTruePositiveTest
)

// PriCommPerType is a bitmask of which period types are permitted for
// primary individuals (§3).
type PriCommPerType uint32

const (
	PriCommPerMain PriCommPerType = 1 << iota
	PriCommPerAlt
	PriCommPerMainInterrupted
	PriCommPerAltInterrupted
)

// DefaultPriCommPerType allows every period type for primaries.
const DefaultPriCommPerType = PriCommPerMain | PriCommPerAlt | PriCommPerMainInterrupted | PriCommPerAltInterrupted

// GammaParams holds the three mutually-determining parameters of one
// gamma-distributed period: exactly one of Kappa or X95 must be
// supplied, Ave is always required.
type GammaParams struct {
	Ave   float64
	Kappa float64
	X95   float64
}

func (g GammaParams) isZero() bool {
	return math.IsNaN(g.Ave) && math.IsNaN(g.Kappa) && math.IsNaN(g.X95)
}

// ModelParameters holds the complete set of parameters accepted by
// §6's CLI/config surface. Every real-valued field defaults to NaN
// ("unknown, to be solved"); Solve derives the ones that can be
// derived and returns an error for an inconsistent or underdetermined
// system (§4.A, §7).
type ModelParameters struct {
	// Transmission rate and basic reproduction number relations.
	Lambda  float64 // rate of transmission events per infectious individual
	Lambdap float64 // event rate for a finite population (unused by the core, §1 Non-goals)
	P       float64 // logarithmic group-size distribution parameter
	Mu      float64 // mean of the logarithmic group-size distribution
	Pinf    float64 // per-contact infection probability
	R0      float64 // basic reproduction number
	GAve    float64 // effective offspring mean derived from the group model

	GroupType GroupType

	Main   GammaParams // main communicable period (tbar, kappa, t95)
	Latent GammaParams // latent period (lbar, kappal, l95)

	Q   float64     // probability of the alternate communicable period
	Alt GammaParams // alternate communicable period (mbar, kappaq, m95)

	Pit         float64     // probability of an interrupted main period
	Interrupted GammaParams // interrupted main period (itbar, kappait, it95)

	Pim            float64     // probability of an interrupted alternate period
	AltInterrupted GammaParams // interrupted alternate period (imbar, kappaim, im95)

	Ttpr    float64 // true-positive test probability for the main period
	Mtpr    float64 // true-positive test probability for the alternate period
	Tdeltat float64 // delay between end of communicable period and test result report

	Tmax           float64 // inclusive upper time bound, default +Inf
	Nstart         int     // number of primary infectious individuals
	PopSize        int     // population size; 0 means infinite
	PriCommPerType PriCommPerType
	Lmax           uint32 // maximum DFS depth contributing to newinf_timeline; NewModelParameters defaults this to MaxUint32 ("unlimited"), but an explicit lmax of 0 means depth 0 (primaries excluded), not unlimited
	Nimax          uint32 // maximum concurrent infectious individuals per time bin; MaxUint32 means unlimited
	TimeType       TimeType
}

// NewModelParameters returns a ModelParameters with every numeric
// field set to NaN ("unknown") and the documented non-NaN defaults
// applied, matching sim_pars_init in the original source.
func NewModelParameters() *ModelParameters {
	nan := math.NaN()
	gp := GammaParams{Ave: nan, Kappa: nan, X95: nan}
	return &ModelParameters{
		Lambda: nan, Lambdap: nan, P: nan, Mu: nan, Pinf: nan, R0: nan, GAve: nan,
		GroupType:      GroupLogAttendeesPlus1,
		Main:           gp,
		Latent:         gp,
		Q:              0,
		Alt:            gp,
		Pit:            0,
		Interrupted:    gp,
		Pim:            nan,
		AltInterrupted: gp,
		Ttpr:           nan,
		Mtpr:           nan,
		Tdeltat:        nan,
		Tmax:           math.Inf(1),
		Nstart:         1,
		PopSize:        0,
		PriCommPerType: DefaultPriCommPerType,
		Lmax:           math.MaxUint32,
		Nimax:          math.MaxUint32,
	}
}

// Solve derives every parameter that can be derived exactly once
// (§4.A) and validates the result. It must be called exactly once,
// before any simulation starts; it is not retried or made incremental
// (§1 Non-goals).
func (p *ModelParameters) Solve() error {
	if err := p.solveR0Group(); err != nil {
		return err
	}
	if err := solveGammaGroup(&p.Main); err != nil {
		return errors.Wrap(err, "cannot solve parameters for the main time gamma distribution")
	}
	if p.Pit > 0 {
		if err := solveGammaGroup(&p.Interrupted); err != nil {
			return errors.Wrap(err, "cannot solve parameters for the interrupted main time gamma distribution")
		}
	}
	if p.Q > 0 {
		if err := solveGammaGroup(&p.Alt); err != nil {
			return errors.Wrap(err, "cannot solve parameters for the alternate time gamma distribution")
		}
		if math.IsNaN(p.Pim) {
			p.Pim = p.Pit
		}
		if p.Pim > 0 {
			if math.IsNaN(p.AltInterrupted.Ave) && math.IsNaN(p.AltInterrupted.Kappa) && math.IsNaN(p.AltInterrupted.X95) {
				p.AltInterrupted = p.Interrupted
			} else {
				if math.IsNaN(p.AltInterrupted.Ave) {
					p.AltInterrupted.Ave = p.Interrupted.Ave
				}
				if err := solveGammaGroup(&p.AltInterrupted); err != nil {
					return errors.Wrap(err, "cannot solve parameters for the interrupted alternate time gamma distribution")
				}
			}
		}
	}
	if !p.Latent.isZero() {
		if err := solveGammaGroup(&p.Latent); err != nil {
			return errors.Wrap(err, "cannot solve parameters for the latent time gamma distribution")
		}
	} else {
		p.Latent = GammaParams{Ave: 0, Kappa: math.Inf(1), X95: 0}
	}
	return nil
}

// solveR0Group implements model_solve_R0_group: exactly three of
// {tbar, lambda, p-or-mu, R0} must be known; the fourth is derived
// from R0 = lambda * tbar * mu, and g_ave/mu is derived from the
// selected group model.
func (p *ModelParameters) solveR0Group() error {
	known := 0
	if !math.IsNaN(p.Main.Ave) {
		known++
	}
	if !math.IsNaN(p.Lambda) {
		known++
	}
	if !math.IsNaN(p.P) || !math.IsNaN(p.Mu) {
		known++
	}
	if !math.IsNaN(p.R0) {
		known++
	}
	if known != 3 {
		return ErrUnderOrOverDetermined
	}

	if !math.IsNaN(p.P) {
		if p.P < 0 {
			return ErrNegativeP
		}
		p.Mu = muFromP(p.P)
	}
	if !math.IsNaN(p.Main.Ave) && p.Main.Ave <= 0 {
		return ErrNonPositiveTbar
	}
	if !math.IsNaN(p.Lambda) && p.Lambda <= 0 {
		return ErrNonPositiveLambda
	}
	if !math.IsNaN(p.R0) && p.R0 <= 0 {
		return ErrNonPositiveR0
	}

	switch {
	case math.IsNaN(p.R0):
		p.R0 = p.Lambda * p.Main.Ave * p.Mu
	case math.IsNaN(p.Lambda):
		p.Lambda = p.R0 / (p.Main.Ave * p.Mu)
	case math.IsNaN(p.Main.Ave):
		p.Main.Ave = p.R0 / (p.Lambda * p.Mu)
	default:
		p.Mu = p.R0 / (p.Lambda * p.Main.Ave)
	}

	if math.IsNaN(p.P) {
		var err error
		p.P, err = pFromMu(p.Mu)
		if err != nil {
			return err
		}
	}

	gAve, err := groupAverage(p.GroupType, p.P, p.Mu)
	if err != nil {
		return err
	}
	p.GAve = gAve
	return nil
}

// muFromP computes mu = -p / ((1-p) * ln(1-p)) for p in (0,1), and 1
// in the limit p -> 0.
func muFromP(p float64) float64 {
	if p <= 0 {
		return 1
	}
	return -p / ((1 - p) * math.Log(1-p))
}

// pFromMu finds the unique root of mu*(1-p)*ln(1-p) + p = 0 on
// (0,1) by bisection, matching the "logroot" equation solved by the
// bracketed root finder in model_solve_R0_group.
func pFromMu(mu float64) (float64, error) {
	if mu <= 1 {
		return 0, nil
	}
	const eps = 1e-12
	f := func(p float64) float64 {
		return mu*(1-p)*math.Log(1-p) + p
	}
	lo, hi := eps, 1-eps
	flo, fhi := f(lo), f(hi)
	if flo*fhi > 0 {
		return 0, ErrRootFinderNonConvergence
	}
	for i := 0; i < 100; i++ {
		mid := (lo + hi) / 2
		fmid := f(mid)
		if math.Abs(fmid) < eps || hi-lo < eps {
			return mid, nil
		}
		if flo*fmid <= 0 {
			hi, fhi = mid, fmid
		} else {
			lo, flo = mid, fmid
		}
	}
	return 0, ErrRootFinderNonConvergence
}
