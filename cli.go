package outbreaksim

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ParseArgs parses a flat token slice using §6's CLI grammar:
// --name value, --name=value, --name:value, #-comments (meaningful
// once a --config file's lines are tokenized), and a --config token
// that recursively splices another file's tokens in at that point.
// No corpus library implements this three-delimiter, recursively
// including grammar, so it is hand-rolled on bufio.Scanner in the
// idiom of loader.go's LoadSequences/LoadFitnessMatrix line scanners
// (see DESIGN.md).
//
// help reports whether --help was seen; on true the caller should
// print usage and exit 0 without starting a simulation (§6).
func ParseArgs(args []string, cfg *Config) (help bool, err error) {
	return parseTokens(args, cfg, 0)
}

const maxConfigIncludeDepth = 16

func parseTokens(args []string, cfg *Config, depth int) (bool, error) {
	if depth > maxConfigIncludeDepth {
		return false, errors.New("--config include nesting too deep")
	}
	for i := 0; i < len(args); i++ {
		name, value, hasValue := splitOption(args[i])
		if name == "" {
			continue
		}
		if name == "help" {
			return true, nil
		}
		if name == "config" {
			if !hasValue {
				if i+1 >= len(args) || strings.HasPrefix(args[i+1], "--") {
					return false, errors.Wrap(ErrMissingValue, "config")
				}
				i++
				value = args[i]
			}
			included, err := readConfigFile(value)
			if err != nil {
				return false, errors.Wrapf(err, "reading --config %s", value)
			}
			if h, err := parseTokens(included, cfg, depth+1); h || err != nil {
				return h, err
			}
			continue
		}
		if !hasValue && !isBooleanOption(name) {
			if i+1 >= len(args) || strings.HasPrefix(args[i+1], "--") {
				return false, errors.Wrap(ErrMissingValue, name)
			}
			i++
			value = args[i]
		}
		if err := applyOption(cfg, name, value); err != nil {
			return false, errors.Wrapf(err, "option --%s", name)
		}
	}
	return false, nil
}

// splitOption strips a leading "--" and, if present, splits the
// remainder on the first "=" or ":" (§6: "--name value, --name=value,
// --name:value" are all accepted).
func splitOption(tok string) (name, value string, hasValue bool) {
	if !strings.HasPrefix(tok, "--") {
		return "", "", false
	}
	body := tok[2:]
	if idx := strings.IndexAny(body, "=:"); idx >= 0 {
		return body[:idx], body[idx+1:], true
	}
	return body, "", false
}

// readConfigFile tokenizes a config file: "#" starts a line comment,
// remaining text is split on whitespace into the same token stream
// ParseArgs consumes from os.Args (§6).
func readConfigFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var tokens []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		tokens = append(tokens, strings.Fields(line)...)
	}
	return tokens, scanner.Err()
}

var booleanOptions = map[string]bool{
	"group_log_attendees_plus_1": true,
	"group_log_attendees":        true,
	"group_log_invitees":         true,
	"pri_no_main_period":         true,
	"pri_no_alt_period":          true,
	"pri_no_main_period_int":     true,
	"pri_no_alt_period_int":      true,
	"ninfhist":                   true,
	"postest":                    true,
	"reltime":                    true,
	"pri_infectious":             true,
	"trace":                      true,
}

func isBooleanOption(name string) bool { return booleanOptions[name] }

// applyOption sets the Config field named name to the parsed value of
// raw, or returns ErrUnknownOption for an unrecognized name (§7).
func applyOption(cfg *Config, name, raw string) error {
	switch name {
	case "olog":
		cfg.OLog = &raw
	case "elog":
		cfg.ELog = &raw
	case "out":
		cfg.Out = &raw
	case "ctout":
		cfg.CTOut = &raw
	case "ctsqlite":
		cfg.CTSQLite = &raw
	case "csvout":
		cfg.CSVOut = &raw

	case "tbar":
		return setFloatField(&cfg.Tbar, name, raw)
	case "kappa":
		return setFloatField(&cfg.Kappa, name, raw)
	case "t95":
		return setFloatField(&cfg.T95, name, raw)
	case "lbar":
		return setFloatField(&cfg.Lbar, name, raw)
	case "kappal":
		return setFloatField(&cfg.Kappal, name, raw)
	case "l95":
		return setFloatField(&cfg.L95, name, raw)
	case "mbar":
		return setFloatField(&cfg.Mbar, name, raw)
	case "kappaq":
		return setFloatField(&cfg.Kappaq, name, raw)
	case "m95":
		return setFloatField(&cfg.M95, name, raw)
	case "itbar":
		return setFloatField(&cfg.Itbar, name, raw)
	case "kappait":
		return setFloatField(&cfg.Kappait, name, raw)
	case "it95":
		return setFloatField(&cfg.It95, name, raw)
	case "imbar":
		return setFloatField(&cfg.Imbar, name, raw)
	case "kappaim":
		return setFloatField(&cfg.Kappaim, name, raw)
	case "im95":
		return setFloatField(&cfg.Im95, name, raw)

	case "lambda":
		return setFloatField(&cfg.Lambda, name, raw)
	case "lambdap":
		return setFloatField(&cfg.Lambdap, name, raw)
	case "p":
		return setFloatField(&cfg.P, name, raw)
	case "mu":
		return setFloatField(&cfg.Mu, name, raw)
	case "pinf":
		return setFloatField(&cfg.Pinf, name, raw)
	case "R0":
		return setFloatField(&cfg.R0, name, raw)

	case "q":
		return setFloatField(&cfg.Q, name, raw)
	case "pit":
		return setFloatField(&cfg.Pit, name, raw)
	case "pim":
		return setFloatField(&cfg.Pim, name, raw)

	case "ttpr":
		return setFloatField(&cfg.Ttpr, name, raw)
	case "mtpr":
		return setFloatField(&cfg.Mtpr, name, raw)
	case "tdeltat":
		return setFloatField(&cfg.Tdeltat, name, raw)
	case "tmax":
		return setFloatField(&cfg.Tmax, name, raw)

	case "popsize":
		return setIntField(&cfg.PopSize, name, raw)
	case "nstart":
		return setIntField(&cfg.Nstart, name, raw)
	case "npaths":
		return setIntField(&cfg.NPaths, name, raw)
	case "nthreads":
		return setIntField(&cfg.NThreads, name, raw)
	case "nsetsperthread":
		return setIntField(&cfg.NSetsPerThread, name, raw)
	case "nimax":
		return setIntField(&cfg.Nimax, name, raw)
	case "lmax":
		return setIntField(&cfg.Lmax, name, raw)
	case "seed":
		return setInt64Field(&cfg.Seed, name, raw)

	case "group_log_attendees_plus_1":
		return setBoolField(&cfg.GroupLogAttendeesPlus1, name, raw)
	case "group_log_attendees":
		return setBoolField(&cfg.GroupLogAttendees, name, raw)
	case "group_log_invitees":
		return setBoolField(&cfg.GroupLogInvitees, name, raw)
	case "pri_no_main_period":
		return setBoolField(&cfg.PriNoMainPeriod, name, raw)
	case "pri_no_alt_period":
		return setBoolField(&cfg.PriNoAltPeriod, name, raw)
	case "pri_no_main_period_int":
		return setBoolField(&cfg.PriNoMainPeriodInt, name, raw)
	case "pri_no_alt_period_int":
		return setBoolField(&cfg.PriNoAltPeriodInt, name, raw)
	case "ninfhist":
		return setBoolField(&cfg.Ninfhist, name, raw)
	case "postest":
		return setBoolField(&cfg.Postest, name, raw)
	case "reltime":
		return setBoolField(&cfg.RelTime, name, raw)
	case "pri_infectious":
		return setBoolField(&cfg.PriInfectious, name, raw)
	case "trace":
		return setBoolField(&cfg.Trace, name, raw)

	default:
		return errors.Wrap(ErrUnknownOption, name)
	}
	return nil
}

func parseFail(name, raw string, cause error) error {
	return errors.Errorf(InvalidStringParameterError, name, raw, cause.Error())
}

func setFloatField(dst **float64, name, raw string) error {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return parseFail(name, raw, err)
	}
	*dst = &v
	return nil
}

func setIntField(dst **int, name, raw string) error {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return parseFail(name, raw, err)
	}
	*dst = &v
	return nil
}

func setInt64Field(dst **int64, name, raw string) error {
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return parseFail(name, raw, err)
	}
	*dst = &v
	return nil
}

func setBoolField(dst **bool, name, raw string) error {
	b := true
	if raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return parseFail(name, raw, err)
		}
		b = v
	}
	*dst = &b
	return nil
}
