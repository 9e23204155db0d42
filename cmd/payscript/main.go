// Command payscript evaluates payoff scripts and event streams.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"payscript/internal/config"
	"payscript/internal/primer"
	"payscript/pkg/payscript"
)

const scriptExtension = ".pays"

func main() {
	var (
		evalStr    = flag.String("e", "", "Evaluate a payoff script string")
		file       = flag.String("f", "", "Evaluate a payoff script file (*"+scriptExtension+")")
		streamFile = flag.String("stream", "", "Evaluate a JSON event stream file")
		configPath = flag.String("config", "", "YAML configuration file")
		dbPath     = flag.String("db", "", "SQLite database path (overrides config)")
		localCcy   = flag.String("local-currency", "", "Local currency for exchange rate requests (overrides config)")
		valueDate  = flag.String("date", "", "Value date for scripts, YYYY-MM-DD (default today)")
		saveName   = flag.String("save", "", "Persist the event stream under this name instead of evaluating")
		runName    = flag.String("run", "", "Evaluate a persisted event stream by name")
		list       = flag.Bool("list", false, "List persisted event streams")
		requests   = flag.Bool("requests", false, "Print market data requests instead of evaluating")
		paths      = flag.Int("paths", 0, "Monte Carlo paths (overrides config, 0 disables simulation)")
		vol        = flag.Float64("vol", 0, "Annual volatility for simulated rates (overrides config)")
		drift      = flag.Float64("drift", 0, "Annual drift for simulated rates (overrides config)")
		rate       = flag.Float64("rate", 0, "Flat short rate for the numeraire (overrides config)")
		seed       = flag.Int64("seed", 0, "Random seed for simulation (overrides config)")
		showPrimer = flag.Bool("primer", false, "Print the language primer and exit")
	)

	flag.Parse()

	if *showPrimer {
		fmt.Print(primer.Primer)
		return
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}
	if *localCcy != "" {
		cfg.Market.LocalCurrency = *localCcy
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "paths":
			cfg.Simulation.Paths = *paths
		case "vol":
			cfg.Simulation.Volatility = *vol
		case "drift":
			cfg.Simulation.Drift = *drift
		case "rate":
			cfg.Simulation.Rate = *rate
		case "seed":
			cfg.Simulation.Seed = *seed
		}
	})

	opts := []payscript.Option{
		payscript.WithSQLiteStore(cfg.Database.Path),
		payscript.WithLocalCurrency(payscript.Currency(cfg.Market.LocalCurrency)),
		payscript.WithWorkers(cfg.Workers),
	}
	if cfg.Simulation.Paths > 0 {
		opts = append(opts, payscript.WithGenerator(payscript.NewGBM(
			payscript.WithVolatility(cfg.Simulation.Volatility),
			payscript.WithDrift(cfg.Simulation.Drift),
			payscript.WithRate(cfg.Simulation.Rate),
			payscript.WithSeed(cfg.Simulation.Seed),
		), cfg.Simulation.Paths))
	}
	if *valueDate != "" {
		date, err := payscript.ParseDate(*valueDate)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		opts = append(opts, payscript.WithValueDate(date))
	}

	runtime := payscript.New(opts...)
	defer runtime.Close()

	app := &cli{runtime: runtime, requestsOnly: *requests}

	switch {
	case *list:
		app.exit(app.listStreams())

	case *runName != "":
		events, err := runtime.LoadStream(*runName)
		if err == nil && events == nil {
			err = fmt.Errorf("no event stream named %q", *runName)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		app.exit(app.runEvents(events))

	case *streamFile != "":
		events, err := readStreamFile(*streamFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if *saveName != "" {
			app.exit(runtime.SaveStream(*saveName, events))
		}
		app.exit(app.runEvents(events))

	case *evalStr != "":
		app.exit(app.runScript(*evalStr))

	case *file != "":
		if !strings.HasSuffix(*file, scriptExtension) {
			fmt.Fprintf(os.Stderr, "Error: script files must end in %s\n", scriptExtension)
			os.Exit(1)
		}
		source, err := os.ReadFile(*file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		app.exit(app.runScript(string(source)))

	case !isTerminal(os.Stdin):
		source, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading stdin: %v\n", err)
			os.Exit(1)
		}
		app.exit(app.runScript(string(source)))

	default:
		runREPL(runtime)
	}
}

type cli struct {
	runtime      *payscript.Runtime
	requestsOnly bool
}

func (c *cli) exit(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		c.runtime.Close()
		os.Exit(1)
	}
	c.runtime.Close()
	os.Exit(0)
}

func (c *cli) runScript(source string) error {
	return c.runEvents([]payscript.CodedEvent{{
		ReferenceDate: c.runtime.ValueDate(),
		Script:        source,
	}})
}

func (c *cli) runEvents(events []payscript.CodedEvent) error {
	if c.requestsOnly {
		reqs, err := c.runtime.MarketRequests(events)
		if err != nil {
			return err
		}
		for _, req := range reqs {
			fmt.Println(req)
		}
		return nil
	}

	names, err := c.runtime.VariableNames(events)
	if err != nil {
		return err
	}
	values, err := c.runtime.RunEvents(events)
	if err != nil {
		return err
	}
	for i, v := range values {
		fmt.Printf("%s: %s\n", names[i], v)
	}
	return nil
}

func (c *cli) listStreams() error {
	names, err := c.runtime.ListStreams()
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func readStreamFile(path string) ([]payscript.CodedEvent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var events []payscript.CodedEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("parse event stream %q: %w", path, err)
	}
	return events, nil
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
