package config

import (
	"slices"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ayoisaiah/cranio/internal/timeutil"
)

// FilterConfig narrows down the documents listed or exported by the CLI.
type FilterConfig struct {
	Since     time.Time
	Until     time.Time
	PatientID string
}

// Filter builds a FilterConfig from the --period, --since, --until and
// --patient flags. A period takes precedence over explicit dates.
func Filter(ctx *cli.Context, now time.Time) (*FilterConfig, error) {
	f := &FilterConfig{
		PatientID: strings.TrimSpace(ctx.String("patient")),
	}

	period := timeutil.Period(strings.TrimSpace(ctx.String("period")))

	if period != "" {
		if !slices.Contains(timeutil.PeriodCollection, period) {
			return nil, errInvalidPeriod.Fmt(period)
		}

		f.Since, f.Until = timeutil.PeriodRange(period, now)

		return f, nil
	}

	var err error

	if s := strings.TrimSpace(ctx.String("since")); s != "" {
		f.Since, err = timeutil.FromStr(s, now)
		if err != nil {
			return nil, err
		}
	}

	if s := strings.TrimSpace(ctx.String("until")); s != "" {
		f.Until, err = timeutil.FromStr(s, now)
		if err != nil {
			return nil, err
		}
	}

	if !f.Since.IsZero() && !f.Until.IsZero() && f.Until.Before(f.Since) {
		return nil, errInvalidDateRange
	}

	return f, nil
}
