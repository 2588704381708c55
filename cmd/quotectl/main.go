// Quotectl prices trips against a tariff file from the command line.
//
// Usage:
//
//	quotectl quote --vehicle hiace=2 --vehicle coaster --distance 120 --event wedding
//	quotectl round 6188
//	quotectl tariff --tariff configs/pricing.yaml
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	"mova/internal/modules/pricing"
)

var version = "dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	tariffFlag := &cli.StringFlag{
		Name:    "tariff",
		Aliases: []string{"t"},
		Usage:   "Path to a tariff YAML file (built-in tariff when empty)",
		EnvVars: []string{"MOVA_TARIFF_FILE"},
	}
	formatFlag := &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Value:   "table",
		Usage:   "Output format (table, json)",
	}

	return &cli.App{
		Name:    "quotectl",
		Usage:   "Bus hire fare quotes from the command line",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "warn",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"MOVA_LOG_LEVEL"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "quote",
				Usage: "Price a trip",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:     "vehicle",
						Usage:    "Vehicle type, optionally with a count (hiace, coaster=2); repeatable",
						Required: true,
					},
					&cli.Float64Flag{
						Name:     "distance",
						Aliases:  []string{"d"},
						Usage:    "Trip distance in km",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "event",
						Aliases: []string{"e"},
						Value:   pricing.EventNone,
						Usage:   "Event code",
					},
					tariffFlag,
					formatFlag,
				},
				Action: runQuote,
			},
			{
				Name:      "round",
				Usage:     "Apply the step-25 rounding ladder to an amount",
				ArgsUsage: "<amount>",
				Action:    runRound,
			},
			{
				Name:   "tariff",
				Usage:  "Print the tariff in effect",
				Flags:  []cli.Flag{tariffFlag, formatFlag},
				Action: runTariff,
			},
		},
	}
}

func newLogger(c *cli.Context) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(c.String("log-level"))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.WarnLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: c.App.ErrWriter}).Level(lvl).With().Timestamp().Logger()
}

func loadTariff(c *cli.Context, log zerolog.Logger) (*pricing.Tariff, error) {
	path := c.String("tariff")
	src, _, err := pricing.LoadTariffSource(path)
	if err != nil {
		return nil, err
	}
	if path == "" {
		log.Debug().Msg("using built-in tariff")
	} else {
		log.Debug().Str("file", path).Msg("tariff loaded")
	}
	return src.Current(), nil
}

func runQuote(c *cli.Context) error {
	log := newLogger(c)
	tariff, err := loadTariff(c, log)
	if err != nil {
		return err
	}

	vehicles, err := parseVehicles(c.StringSlice("vehicle"))
	if err != nil {
		return err
	}
	distance := c.Float64("distance")
	if math.IsNaN(distance) || math.IsInf(distance, 0) {
		return fmt.Errorf("distance must be a finite number, got %v", distance)
	}
	if distance < 0 {
		return fmt.Errorf("distance must not be negative")
	}

	res, err := pricing.ComputeQuote(pricing.QuoteRequest{
		VehicleTypes: vehicles,
		DistanceKm:   decimal.NewFromFloat(distance),
		EventType:    c.String("event"),
	}, tariff)
	if err != nil {
		return err
	}
	log.Debug().Str("client", res.Breakdown.ClientRounded.String()).Str("bus", res.Breakdown.BusRounded.String()).Msg("quote computed")

	switch c.String("format") {
	case "json":
		return writeJSON(c.App.Writer, pricing.NewQuoteView(res))
	case "table":
		return writeQuoteTable(c.App.Writer, res)
	default:
		return fmt.Errorf("unknown format %q", c.String("format"))
	}
}

func runRound(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one amount")
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(c.Args().First()))
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", c.Args().First(), err)
	}
	fmt.Fprintln(c.App.Writer, pricing.RoundStepUp(amount).String())
	return nil
}

func runTariff(c *cli.Context) error {
	tariff, err := loadTariff(c, newLogger(c))
	if err != nil {
		return err
	}
	switch c.String("format") {
	case "json":
		return writeJSON(c.App.Writer, pricing.NewTariffView(tariff))
	case "table":
		return writeTariffTable(c.App.Writer, tariff)
	default:
		return fmt.Errorf("unknown format %q", c.String("format"))
	}
}

// parseVehicles expands "code" and "code=count" flags into one entry per unit.
func parseVehicles(values []string) ([]string, error) {
	var out []string
	for _, raw := range values {
		code, countRaw, hasCount := strings.Cut(raw, "=")
		code = strings.TrimSpace(code)
		if code == "" {
			return nil, fmt.Errorf("empty vehicle type in %q", raw)
		}
		count := 1
		if hasCount {
			n, err := strconv.Atoi(strings.TrimSpace(countRaw))
			if err != nil || n < 1 {
				return nil, fmt.Errorf("invalid vehicle count in %q", raw)
			}
			count = n
		}
		for i := 0; i < count; i++ {
			out = append(out, code)
		}
	}
	return out, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTariffTable(out io.Writer, t *pricing.Tariff) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "VEHICLE\tLABEL\tPER KM\tMOTIVATION\n")
	for _, code := range t.VehicleCodes() {
		v := t.Vehicles[code]
		fmt.Fprintf(w, "%s\t%s\t%s\t%s%%\n", code, v.Label, v.PerKm, pct(v.MotivationPercent))
	}
	fmt.Fprintf(w, "\nEVENT\tUPLIFT\t\t\n")
	for _, code := range t.EventCodes() {
		fmt.Fprintf(w, "%s\t%s%%\t\t\n", code, pct(t.Events[code]))
	}
	fmt.Fprintf(w, "\nclient money fee\t%s%%\t\t\n", pct(t.ClientMoneyFeePercent))
	fmt.Fprintf(w, "commission\t%s%%\t\t\n", pct(t.CommissionPercent))
	fmt.Fprintf(w, "bus money fee\t%s%% (%s)\t\t\n", pct(t.BusMoneyFeePercent), t.BusFeePolicy)
	fmt.Fprintf(w, "rounding\t%s\t\t\n", t.RoundingMode)
	return w.Flush()
}

func pct(d decimal.Decimal) string {
	return d.Mul(decimal.NewFromInt(100)).String()
}

func writeQuoteTable(out io.Writer, res *pricing.QuoteResult) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "TYPE\tCOUNT\tBASE\tMOTIVATION\tEVENT\tCLIENT\tBUS\t\n")
	for _, v := range res.Vehicles {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t\n",
			v.Type, v.Count,
			v.Base.StringFixed(2), v.Motivation.StringFixed(2), v.EventShare.StringFixed(2),
			v.ClientScaledShare.StringFixed(2), v.BusFinal.StringFixed(2))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	b := res.Breakdown
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Distance billed:  %s km (%s)\n", res.Meta.BilledDistanceKm.String(), res.Meta.EventType)
	fmt.Fprintf(out, "Client raw:       %s\n", b.ClientRaw.StringFixed(2))
	fmt.Fprintf(out, "Client payable:   %s\n", res.ClientPayable())
	fmt.Fprintf(out, "Commission:       %s\n", b.Commission.StringFixed(2))
	fmt.Fprintf(out, "Bus raw:          %s\n", b.BusRaw.StringFixed(2))
	fmt.Fprintf(out, "Bus payable:      %s\n", res.BusPayable())
	return nil
}
