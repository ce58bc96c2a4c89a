package outbreaksim

import (
	"runtime"

	"github.com/pkg/errors"
)

// Config is the TOML- and CLI-decodable surface of §6. Every field is
// a pointer so "not provided" is distinguishable from "provided as
// the zero value" at decode time, the config-layer analogue of
// ModelParameters' own NaN-as-unset convention. The TOML tags match
// the CLI option names verbatim; cli.go's applyOption maps each option
// name to its field.
//
// A handful of fields (Out, CTOut, CTSQLite, CSVOut, Seed, Postest,
// RelTime, PriInfectious, Trace)
// have no named CLI option in §6's table; §6 specifies the binary
// frame layout and the substream contract but leaves "where does it
// write to" and "which frame shape" to the caller, so these are
// supplemented here the way loader.go's SingleHostConfig supplements
// bin/contagion/main.go's flag surface (see DESIGN.md).
type Config struct {
	Config *string `toml:"config"`

	OLog     *string `toml:"olog"`
	ELog     *string `toml:"elog"`
	Out      *string `toml:"out"`
	CTOut    *string `toml:"ctout"`
	CTSQLite *string `toml:"ctsqlite"`
	CSVOut   *string `toml:"csvout"`

	Tbar    *float64 `toml:"tbar"`
	Kappa   *float64 `toml:"kappa"`
	T95     *float64 `toml:"t95"`
	Lbar    *float64 `toml:"lbar"`
	Kappal  *float64 `toml:"kappal"`
	L95     *float64 `toml:"l95"`
	Mbar    *float64 `toml:"mbar"`
	Kappaq  *float64 `toml:"kappaq"`
	M95     *float64 `toml:"m95"`
	Itbar   *float64 `toml:"itbar"`
	Kappait *float64 `toml:"kappait"`
	It95    *float64 `toml:"it95"`
	Imbar   *float64 `toml:"imbar"`
	Kappaim *float64 `toml:"kappaim"`
	Im95    *float64 `toml:"im95"`

	Lambda  *float64 `toml:"lambda"`
	Lambdap *float64 `toml:"lambdap"`
	P       *float64 `toml:"p"`
	Mu      *float64 `toml:"mu"`
	Pinf    *float64 `toml:"pinf"`
	R0      *float64 `toml:"R0"`

	Q   *float64 `toml:"q"`
	Pit *float64 `toml:"pit"`
	Pim *float64 `toml:"pim"`

	Ttpr    *float64 `toml:"ttpr"`
	Mtpr    *float64 `toml:"mtpr"`
	Tdeltat *float64 `toml:"tdeltat"`

	PopSize        *int     `toml:"popsize"`
	Nstart         *int     `toml:"nstart"`
	NPaths         *int     `toml:"npaths"`
	NThreads       *int     `toml:"nthreads"`
	NSetsPerThread *int     `toml:"nsetsperthread"`
	Nimax          *int     `toml:"nimax"`
	Lmax           *int     `toml:"lmax"`
	Tmax           *float64 `toml:"tmax"`

	GroupLogAttendeesPlus1 *bool `toml:"group_log_attendees_plus_1"`
	GroupLogAttendees      *bool `toml:"group_log_attendees"`
	GroupLogInvitees       *bool `toml:"group_log_invitees"`

	PriNoMainPeriod    *bool `toml:"pri_no_main_period"`
	PriNoAltPeriod     *bool `toml:"pri_no_alt_period"`
	PriNoMainPeriodInt *bool `toml:"pri_no_main_period_int"`
	PriNoAltPeriodInt  *bool `toml:"pri_no_alt_period_int"`

	Ninfhist      *bool `toml:"ninfhist"`
	Postest       *bool `toml:"postest"`
	RelTime       *bool `toml:"reltime"`
	PriInfectious *bool `toml:"pri_infectious"`
	Trace         *bool `toml:"trace"`

	Seed *int64 `toml:"seed"`

	Help *bool `toml:"help"`
}

// NewConfig returns an all-nil Config ready to be filled in by
// ConfigFromFile and/or ParseArgs.
func NewConfig() *Config {
	return &Config{}
}

// ToModelParameters overlays every field this Config has explicitly
// set onto a freshly-defaulted ModelParameters, then calls Solve
// (§4.A). Fields left nil keep sim_pars_init's defaults.
func (c *Config) ToModelParameters() (*ModelParameters, error) {
	p := NewModelParameters()

	setFloat(&p.Main.Ave, c.Tbar)
	setFloat(&p.Main.Kappa, c.Kappa)
	setFloat(&p.Main.X95, c.T95)
	setFloat(&p.Latent.Ave, c.Lbar)
	setFloat(&p.Latent.Kappa, c.Kappal)
	setFloat(&p.Latent.X95, c.L95)
	setFloat(&p.Alt.Ave, c.Mbar)
	setFloat(&p.Alt.Kappa, c.Kappaq)
	setFloat(&p.Alt.X95, c.M95)
	setFloat(&p.Interrupted.Ave, c.Itbar)
	setFloat(&p.Interrupted.Kappa, c.Kappait)
	setFloat(&p.Interrupted.X95, c.It95)
	setFloat(&p.AltInterrupted.Ave, c.Imbar)
	setFloat(&p.AltInterrupted.Kappa, c.Kappaim)
	setFloat(&p.AltInterrupted.X95, c.Im95)

	setFloat(&p.Lambda, c.Lambda)
	setFloat(&p.Lambdap, c.Lambdap)
	setFloat(&p.P, c.P)
	setFloat(&p.Mu, c.Mu)
	setFloat(&p.Pinf, c.Pinf)
	setFloat(&p.R0, c.R0)

	setFloat(&p.Q, c.Q)
	setFloat(&p.Pit, c.Pit)
	setFloat(&p.Pim, c.Pim)

	setFloat(&p.Ttpr, c.Ttpr)
	setFloat(&p.Mtpr, c.Mtpr)
	setFloat(&p.Tdeltat, c.Tdeltat)
	setFloat(&p.Tmax, c.Tmax)

	if c.PopSize != nil {
		p.PopSize = *c.PopSize
	}
	if c.Nstart != nil {
		p.Nstart = *c.Nstart
	}
	if c.Nimax != nil {
		p.Nimax = uint32(*c.Nimax)
	}
	if c.Lmax != nil {
		p.Lmax = uint32(*c.Lmax)
	}
	if boolVal(c.PriInfectious) {
		p.TimeType = TimePriInfectious
	}

	nGroupFlags := 0
	if boolVal(c.GroupLogAttendeesPlus1) {
		p.GroupType = GroupLogAttendeesPlus1
		nGroupFlags++
	}
	if boolVal(c.GroupLogAttendees) {
		p.GroupType = GroupLogAttendees
		nGroupFlags++
	}
	if boolVal(c.GroupLogInvitees) {
		p.GroupType = GroupLogInvitees
		nGroupFlags++
	}
	if nGroupFlags > 1 {
		return nil, errors.New("at most one of group_log_attendees_plus_1, group_log_attendees, group_log_invitees may be given")
	}

	if boolVal(c.PriNoMainPeriod) {
		p.PriCommPerType &^= PriCommPerMain
	}
	if boolVal(c.PriNoAltPeriod) {
		p.PriCommPerType &^= PriCommPerAlt
	}
	if boolVal(c.PriNoMainPeriodInt) {
		p.PriCommPerType &^= PriCommPerMainInterrupted
	}
	if boolVal(c.PriNoAltPeriodInt) {
		p.PriCommPerType &^= PriCommPerAltInterrupted
	}

	if err := p.Solve(); err != nil {
		return nil, err
	}
	return p, nil
}

// ToRunConfig builds the driver-facing RunConfig (§4.F), defaulting
// npaths/nsetsperthread to 1, nthreads to runtime.NumCPU() (matching
// bin/contagion/main.go's "threads" flag default) when not given, and
// npers to a fixed 1024 bins (there is no option for it).
// pri_infectious shifts each path's origin to the primary's infectious
// onset, which can fall before t=0 (growNegative, stats.go); only the
// reltime frame shapes carry the negbins field needed to recover that
// shift on read-back (writer.go), so pri_infectious always implies
// reltime regardless of whether --reltime was also given.
func (c *Config) ToRunConfig() RunConfig {
	cfg := RunConfig{
		NPaths:         1,
		NThreads:       runtime.NumCPU(),
		NSetsPerThread: 1,
		NPers:          1024,
	}
	if c.NPaths != nil {
		cfg.NPaths = *c.NPaths
	}
	if c.NThreads != nil {
		cfg.NThreads = *c.NThreads
	}
	if c.NSetsPerThread != nil {
		cfg.NSetsPerThread = *c.NSetsPerThread
	}
	if c.Seed != nil {
		cfg.Seed = uint64(*c.Seed)
	}
	cfg.RecordNinfs = boolVal(c.Ninfhist)
	cfg.Trace = boolVal(c.Trace)

	relTime := boolVal(c.RelTime) || boolVal(c.PriInfectious)
	switch {
	case relTime && boolVal(c.Postest):
		cfg.Shape = FrameRelTimePostest
	case relTime:
		cfg.Shape = FrameRelTime
	case boolVal(c.Postest):
		cfg.Shape = FrameRegPostest
	default:
		cfg.Shape = FrameReg
	}
	return cfg
}

func setFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

func boolVal(b *bool) bool {
	return b != nil && *b
}
