package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/JohannaVonLuck/refdb"
	"github.com/JohannaVonLuck/refdb/catalog"
	"github.com/JohannaVonLuck/refdb/config"
	"github.com/JohannaVonLuck/refdb/datdir"
	"github.com/JohannaVonLuck/refdb/datfile"
	"github.com/JohannaVonLuck/refdb/watch"
	"github.com/npillmayer/schuko/tracing"
	"github.com/sugawarayuuta/sonnet"
	"github.com/urfave/cli/v2"
)

var traceKeys = []string{"refdb", "refdb.datfile", "refdb.datdir", "refdb.watch"}

// loadConfigWithOverrides loads configuration and applies CLI flag overrides
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if dir := c.String("dir"); dir != "" {
		cfg.DataDir = dir
	}
	if c.IsSet("log") {
		cfg.LogFile = c.String("log")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	setTraceLevel(cfg.TraceLevel)
	return cfg, nil
}

func setTraceLevel(level string) {
	l := tracing.LevelInfo
	switch level {
	case "Debug":
		l = tracing.LevelDebug
	case "Error":
		l = tracing.LevelError
	}
	for _, key := range traceKeys {
		tracing.Select(key).SetTraceLevel(l)
	}
}

// openStore creates a store and loads the data directory into it.
// Files failing to load are reported but do not stop the command.
func openStore(c *cli.Context) (*refdb.Store, *config.Config, error) {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return nil, nil, err
	}
	store, err := refdb.NewStore(cfg.StoreOptions()...)
	if err != nil {
		return nil, nil, err
	}
	if _, err := datdir.LoadDirectory(store, cfg.DataDir, cfg.Pattern); err != nil {
		fmt.Fprintf(c.App.ErrWriter, "warning: %v\n", err)
	}
	return store, cfg, nil
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "refdb",
		Usage: "load and query reference data tables",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   config.DefaultFile,
				Usage:   "configuration file",
			},
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"d"},
				Usage:   "directory of .dat files (overrides config)",
			},
			&cli.StringFlag{
				Name:  "log",
				Usage: "load log file, empty for none (overrides config)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "load",
				Usage:  "load the data directory and print statistics",
				Action: loadCommand,
			},
			{
				Name:      "query",
				Usage:     "print the value of an element",
				ArgsUsage: "TABLE ELEMENT",
				Action:    queryCommand,
			},
			{
				Name:      "list",
				Usage:     "list keys starting with a prefix",
				ArgsUsage: "[PREFIX]",
				Action:    listCommand,
			},
			{
				Name:  "dump",
				Usage: "print all records",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "print JSON instead of .dat lines"},
				},
				Action: dumpCommand,
			},
			{
				Name:   "watch",
				Usage:  "load the data directory, then reload files when they change",
				Action: watchCommand,
			},
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "refdb: %v\n", err)
		os.Exit(1)
	}
}

func loadCommand(c *cli.Context) error {
	store, _, err := openStore(c)
	if err != nil {
		return err
	}
	defer store.Close()
	_, err = store.Stats().WriteTo(c.App.Writer)
	return err
}

func queryCommand(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.Exit("query needs TABLE and ELEMENT", 2)
	}
	store, _, err := openStore(c)
	if err != nil {
		return err
	}
	defer store.Close()
	value, ok := store.Query(c.Args().Get(0), c.Args().Get(1))
	if !ok {
		return cli.Exit(fmt.Sprintf("%s/%s not found", c.Args().Get(0), c.Args().Get(1)), 1)
	}
	fmt.Fprintln(c.App.Writer, value)
	return nil
}

func listCommand(c *cli.Context) error {
	store, _, err := openStore(c)
	if err != nil {
		return err
	}
	defer store.Close()
	for _, key := range catalog.Build(store).Search(c.Args().First()) {
		fmt.Fprintln(c.App.Writer, key)
	}
	return nil
}

type dumpRecord struct {
	Table   string `json:"table"`
	Element string `json:"element"`
	Value   string `json:"value"`
}

func dumpCommand(c *cli.Context) error {
	store, _, err := openStore(c)
	if err != nil {
		return err
	}
	defer store.Close()
	var records []dumpRecord
	store.Each(func(table, element, value string) bool {
		records = append(records, dumpRecord{Table: table, Element: element, Value: value})
		return true
	})
	sort.Slice(records, func(i, j int) bool {
		if records[i].Table != records[j].Table {
			return records[i].Table < records[j].Table
		}
		return records[i].Element < records[j].Element
	})
	if c.Bool("json") {
		data, err := sonnet.Marshal(records)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(c.App.Writer, string(data))
		return err
	}
	table := ""
	for _, r := range records {
		if r.Table != table {
			fmt.Fprintf(c.App.Writer, "[%s]\n", r.Table)
			table = r.Table
		}
		fmt.Fprintf(c.App.Writer, "%s = %s\n", r.Element, r.Value)
	}
	return nil
}

func watchCommand(c *cli.Context) error {
	store, cfg, err := openStore(c)
	if err != nil {
		return err
	}
	defer store.Close()
	w, err := watch.New(cfg.DataDir, cfg.Pattern, func(path string) {
		if err := datfile.LoadFile(store, path); err != nil {
			fmt.Fprintf(c.App.ErrWriter, "reload %s: %v\n", path, err)
			return
		}
		fmt.Fprintf(c.App.Writer, "reloaded %s, %d records\n", path, store.Len())
	})
	if err != nil {
		return err
	}
	defer w.Close()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	fmt.Fprintf(c.App.Writer, "watching %s, %d records loaded\n", cfg.DataDir, store.Len())
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
