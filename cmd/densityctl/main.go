package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/okian/fixturedensity/internal/adapters/ics"
	app "github.com/okian/fixturedensity/internal/app"
	"github.com/okian/fixturedensity/internal/config"
	"github.com/okian/fixturedensity/internal/domain/model"
	"github.com/okian/fixturedensity/internal/domain/types"
	"github.com/okian/fixturedensity/internal/fixtures"
	"github.com/okian/fixturedensity/pkg/logger"
	"github.com/urfave/cli/v2"
)

const (
	defaultTimeout = 30 * time.Second
	outputPerm     = 0o600
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "densityctl:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "densityctl",
		Usage: "Score how crowded a date or venue is against a fixture feed.",
		Before: func(c *cli.Context) error {
			cfg, err := config.Load(c.Context)
			if err != nil {
				return err
			}
			c.App.Metadata = map[string]interface{}{"config": cfg}
			return logger.Init(
				logger.WithFormat(cfg.LogFormat),
				logger.WithLevel(cfg.LogLevel),
				logger.WithWriter(c.App.ErrWriter),
			)
		},
		Commands: []*cli.Command{
			scoreCommand(),
			alternativesCommand(),
			congestionCommand(),
			overlapCommand(),
			generateCommand(),
		},
	}
}

// requestFlags are shared by every scoring command.
func requestFlags(extra ...cli.Flag) []cli.Flag {
	return append([]cli.Flag{
		&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Value: "-", Usage: "JSON array, ScoreRequest object or .ics file; - reads stdin"},
		&cli.StringFlag{Name: "timezone", Usage: "reference zone, defaults to the configured timezone"},
		&cli.StringFlag{Name: "now", Usage: "reference instant (RFC3339), defaults to the current time"},
		&cli.IntFlag{Name: "window", Usage: "decision window in days"},
		&cli.StringFlag{Name: "anchor", Usage: "anchor location as lat,lng"},
		&cli.Float64Flag{Name: "radius", Usage: "anchor radius in km"},
		&cli.StringFlag{Name: "bounds", Usage: "bounding box as north,south,east,west"},
		&cli.StringFlag{Name: "server", EnvVars: []string{"DENSITY_SERVER"}, Usage: "send the request to a running density server instead of scoring locally"},
		&cli.DurationFlag{Name: "timeout", Value: defaultTimeout, Usage: "remote request timeout"},
	}, extra...)
}

func scoreCommand() *cli.Command {
	return &cli.Command{
		Name:  "score",
		Usage: "Score a target date (YYYY-MM-DD) or venue and rank it against alternatives.",
		Flags: requestFlags(&cli.StringFlag{Name: "target", Aliases: []string{"t"}, Required: true}),
		Action: func(c *cli.Context) error {
			var out types.ScoreResponse
			return run(c, "/v1/score", &out, func(svc *app.Service, req types.ScoreRequest) (any, error) {
				return svc.Score(c.Context, req)
			})
		},
	}
}

func alternativesCommand() *cli.Command {
	return &cli.Command{
		Name:  "alternatives",
		Usage: "List alternatives to a target, least congested first.",
		Flags: requestFlags(&cli.StringFlag{Name: "target", Aliases: []string{"t"}, Required: true}),
		Action: func(c *cli.Context) error {
			var out types.AlternativesResponse
			return run(c, "/v1/alternatives", &out, func(svc *app.Service, req types.ScoreRequest) (any, error) {
				return svc.Alternatives(c.Context, req)
			})
		},
	}
}

func congestionCommand() *cli.Command {
	return &cli.Command{
		Name:  "congestion",
		Usage: "Compute the Congestion Index, optionally per venue, region, city or sport.",
		Flags: requestFlags(&cli.StringFlag{Name: "group-by", Usage: "venue, region, city or sport"}),
		Action: func(c *cli.Context) error {
			var out types.CongestionResponse
			return run(c, "/v1/congestion", &out, func(svc *app.Service, req types.ScoreRequest) (any, error) {
				return svc.Congestion(c.Context, req)
			})
		},
	}
}

func overlapCommand() *cli.Command {
	return &cli.Command{
		Name:  "overlap",
		Usage: "Bucket events and compute the Overlap Index.",
		Flags: requestFlags(&cli.StringFlag{Name: "granularity", Value: "hour", Usage: "hour, day, month or weekday"}),
		Action: func(c *cli.Context) error {
			var out types.OverlapResponse
			return run(c, "/v1/overlap-index", &out, func(svc *app.Service, req types.ScoreRequest) (any, error) {
				return svc.OverlapIndex(c.Context, req)
			})
		},
	}
}

func generateCommand() *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "Write a synthetic raw fixture feed as a JSON array.",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "count", Value: 1000},
			&cli.IntFlag{Name: "days", Value: 30},
			&cli.StringFlag{Name: "start", Usage: "first day (YYYY-MM-DD), defaults to today"},
			&cli.Int64Flag{Name: "seed", Value: 1},
			&cli.Float64Flag{Name: "sessions", Value: 0.2, Usage: "share of records with explicit start and end"},
			&cli.Float64Flag{Name: "invalid", Value: 0.02, Usage: "share of records with an unparsable start"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Value: "-", Usage: "output file; - writes stdout"},
		},
		Action: func(c *cli.Context) error {
			cfg := c.App.Metadata["config"].(*config.Config)
			loc, err := cfg.Location()
			if err != nil {
				return err
			}
			start := time.Now().In(loc)
			if s := c.String("start"); s != "" {
				if start, err = time.ParseInLocation(model.DateLayout, s, loc); err != nil {
					return fmt.Errorf("invalid --start: %w", err)
				}
			}

			gen := fixtures.DefaultConfig(c.Int("count"), start)
			gen.Days = c.Int("days")
			gen.Location = loc
			gen.Seed = c.Int64("seed")
			gen.SessionShare = c.Float64("sessions")
			gen.InvalidShare = c.Float64("invalid")
			events, err := fixtures.Generate(c.Context, gen)
			if err != nil {
				return err
			}
			logger.Get().Info(c.Context, "generated fixtures", logger.Int("count", len(events)))

			if path := c.String("output"); path != "-" {
				data, err := json.MarshalIndent(events, "", "  ")
				if err != nil {
					return err
				}
				return os.WriteFile(path, data, outputPerm)
			}
			return writeJSON(c.App.Writer, events)
		},
	}
}

// run builds the request and evaluates it remotely when --server is set,
// otherwise on a local service.
func run(c *cli.Context, path string, remote any, local func(*app.Service, types.ScoreRequest) (any, error)) error {
	cfg := c.App.Metadata["config"].(*config.Config)
	req, err := buildRequest(c, cfg)
	if err != nil {
		return err
	}

	if server := c.String("server"); server != "" {
		client := fixtures.NewClient(server, c.Duration("timeout"))
		if err := client.Post(c.Context, path, req, remote); err != nil {
			return err
		}
		return writeJSON(c.App.Writer, remote)
	}

	opts, err := app.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}
	svc := app.New(append(opts, app.WithLogger(logger.Get()))...)
	out, err := local(svc, req)
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, out)
}

// buildRequest reads the input feed and applies the command-line flags.
func buildRequest(c *cli.Context, cfg *config.Config) (types.ScoreRequest, error) {
	var req types.ScoreRequest
	tz := c.String("timezone")
	if tz == "" {
		tz = cfg.Timezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return req, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}

	input, err := readInput(c.String("input"), c.App.Reader)
	if err != nil {
		return req, err
	}
	switch {
	case strings.EqualFold(filepath.Ext(c.String("input")), ".ics"):
		events, err := ics.Decode(bytes.NewReader(input), loc)
		if err != nil {
			return req, err
		}
		req.Events = events
	case strings.HasPrefix(strings.TrimSpace(string(input)), "{"):
		if err := json.Unmarshal(input, &req); err != nil {
			return req, fmt.Errorf("decoding request: %w", err)
		}
	default:
		if err := json.Unmarshal(input, &req.Events); err != nil {
			return req, fmt.Errorf("decoding events: %w", err)
		}
	}

	if c.IsSet("timezone") || req.Timezone == "" {
		req.Timezone = tz
	}
	if c.IsSet("target") {
		req.TargetKey = c.String("target")
	}
	if c.IsSet("now") {
		req.Now = c.String("now")
	}
	if c.IsSet("window") {
		req.DecisionWindowDays = c.Int("window")
	}
	if c.IsSet("radius") {
		req.RadiusKm = c.Float64("radius")
	}
	if c.IsSet("group-by") {
		req.GroupBy = c.String("group-by")
	}
	if c.IsSet("granularity") || req.Granularity == "" {
		req.Granularity = c.String("granularity")
	}
	if s := c.String("anchor"); s != "" {
		v, err := parseFloats(s, 2)
		if err != nil {
			return req, fmt.Errorf("invalid --anchor: %w", err)
		}
		req.AnchorLocation = &model.LatLng{Lat: v[0], Lng: v[1]}
	}
	if s := c.String("bounds"); s != "" {
		v, err := parseFloats(s, 4)
		if err != nil {
			return req, fmt.Errorf("invalid --bounds: %w", err)
		}
		req.Bounds = &model.Bounds{North: v[0], South: v[1], East: v[2], West: v[3]}
	}
	return req, nil
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

func parseFloats(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("want %d comma-separated numbers, got %d", n, len(parts))
	}
	out := make([]float64, n)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
