package config

import (
	"flag"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/ayoisaiah/cranio/internal/timeutil"
)

var filterNow = time.Date(2026, 3, 14, 15, 30, 0, 0, time.UTC)

type FilterTest struct {
	Flags     map[string]string
	Name      string
	WantSince time.Time
	WantUntil time.Time
	WantErr   bool
}

var filterTestCases = []FilterTest{
	{
		Name: "no flags",
	},
	{
		Name:      "provide a valid period",
		Flags:     map[string]string{"period": "7days"},
		WantSince: timeutil.RoundToStart(filterNow.AddDate(0, 0, -6)),
		WantUntil: timeutil.RoundToEnd(filterNow),
	},
	{
		Name:    "provide an unknown period",
		Flags:   map[string]string{"period": "fortnight"},
		WantErr: true,
	},
	{
		Name:      "provide since and until",
		Flags:     map[string]string{"since": "2026-03-01", "until": "2026-03-10"},
		WantSince: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		WantUntil: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
	},
	{
		Name:    "until before since",
		Flags:   map[string]string{"since": "2026-03-10", "until": "2026-03-01"},
		WantErr: true,
	},
}

func filterContext(t *testing.T, flags map[string]string) *cli.Context {
	t.Helper()

	f := flag.NewFlagSet("documents", flag.ContinueOnError)

	for _, name := range []string{"period", "since", "until", "patient"} {
		_ = f.String(name, "", "")
	}

	for k, v := range flags {
		require.NoError(t, f.Set(k, v))
	}

	return cli.NewContext(&cli.App{}, f, nil)
}

func dateOf(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.Format(time.DateOnly)
}

func TestFilter(t *testing.T) {
	for _, tc := range filterTestCases {
		t.Run(tc.Name, func(t *testing.T) {
			cfg, err := Filter(filterContext(t, tc.Flags), filterNow)
			if tc.WantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)

			assert.Equal(t, dateOf(tc.WantSince), dateOf(cfg.Since))
			assert.Equal(t, dateOf(tc.WantUntil), dateOf(cfg.Until))
		})
	}
}

func TestFilterPatient(t *testing.T) {
	cfg, err := Filter(filterContext(t, map[string]string{"patient": " P-0042 "}), filterNow)
	require.NoError(t, err)

	assert.Equal(t, "P-0042", cfg.PatientID)
}

func TestApplyCLIOptions(t *testing.T) {
	c := &Config{}
	c.Notifications.Enabled = true
	c.Workflow.PlaceholderCount = 3

	applyCLIOptions(c, &CLIOptions{
		Operator:        " Dr. Ada ",
		SensorKind:      "dummy",
		DistractorCount: 2,
		PollInterval:    40 * time.Millisecond,
		DisableNotify:   true,
	})

	assert.Equal(t, "Dr. Ada", c.Operator.Name)
	assert.Equal(t, "dummy", c.Sensor.Kind)
	assert.Equal(t, 3, c.Workflow.PlaceholderCount)
	assert.Equal(t, 2, c.Workflow.DistractorCount)
	assert.Equal(t, 40*time.Millisecond, c.Sensor.PollInterval)
	assert.False(t, c.Notifications.Enabled)
}
