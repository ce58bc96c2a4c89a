package outbreaksim

import "github.com/pkg/errors"

// Message templates for parameter validation errors, kept in the
// teacher's string-const-plus-fmt-verb style.
const (
	InvalidFloatParameterError  = "invalid %s %f, %s"
	InvalidIntParameterError    = "invalid %s %d, %s"
	InvalidStringParameterError = "invalid %s %s, %s"

	UnequalFloatParameterError  = "expected %s %f, instead got %f"
	UnequalIntParameterError    = "expected %s %d, instead got %d"
	UnequalStringParameterError = "expected %s %s, instead got %s"
)

// Configuration errors (§7): reported on stderr with context before any
// simulation begins.
var (
	// ErrUnderOrOverDetermined is returned when the number of known
	// parameters among {tbar, lambda, p-or-mu, R0} is not exactly three.
	ErrUnderOrOverDetermined = errors.New("an invalid combination of tbar, lambda, p, mu and R0 parameters was provided")

	// ErrNeitherKappaNorX95 is returned when a gamma-distributed period
	// has neither its shape nor its 95th percentile set.
	ErrNeitherKappaNorX95 = errors.New("either the kappa parameter or the x95 parameter must be provided")

	// ErrBothKappaAndX95 is returned when a gamma-distributed period has
	// both its shape and its 95th percentile set.
	ErrBothKappaAndX95 = errors.New("only one of the kappa parameter or the x95 parameter may be provided")

	// ErrNegativeP is returned when the logarithmic-distribution
	// parameter p is negative.
	ErrNegativeP = errors.New("p must be non-negative")

	// ErrNonPositiveTbar is returned when tbar is not strictly positive.
	ErrNonPositiveTbar = errors.New("tbar must be greater than 0")

	// ErrNonPositiveLambda is returned when lambda is not strictly
	// positive.
	ErrNonPositiveLambda = errors.New("lambda must be greater than 0")

	// ErrNonPositiveR0 is returned when R0 is not strictly positive.
	ErrNonPositiveR0 = errors.New("R0 must be greater than 0")

	// ErrX95BelowAverage is returned when a gamma period's 95th
	// percentile is set below its mean.
	ErrX95BelowAverage = errors.New("the 95th percentile of the distribution cannot be smaller than the average")

	// ErrGroupLogInviteesUnimplemented is returned at config validation
	// time. The g_ave formula for group_log_invitees is not present in
	// the original source; rather than guess at it, this option is
	// rejected until the formula is supplied.
	ErrGroupLogInviteesUnimplemented = errors.New("group_log_invitees has no known g_ave formula and is not implemented")

	// ErrUnknownGroupType is returned for a grouptype value outside the
	// recognised set.
	ErrUnknownGroupType = errors.New("unrecognized grouptype")

	// ErrUnknownOption is returned by the CLI parser for an
	// unrecognized --option.
	ErrUnknownOption = errors.New("unknown option")

	// ErrMissingValue is returned by the CLI parser when an option that
	// requires a value is the last token, or is followed immediately by
	// another option.
	ErrMissingValue = errors.New("missing value for option")
)

// Numerical errors (§7).
var (
	// ErrRootFinderNonConvergence is returned when a bracketed root
	// finder fails to converge within its iteration budget.
	ErrRootFinderNonConvergence = errors.New("root finder failed to converge")
)
