// Command litemap inspects SQLite databases managed by litemap and writes
// litemap configuration files.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"

	"github.com/syssam/litemap"
	sqlschema "github.com/syssam/litemap/dialect/sql/schema"
	"github.com/syssam/litemap/dialect/sqlite"
)

const version = "0.1.0"

// CLI defines the command-line interface.
type CLI struct {
	Globals

	Tables  TablesCmd  `cmd:"" help:"List the tables of the database"`
	DDL     DDLCmd     `cmd:"" name:"ddl" help:"Print the stored definition of a table"`
	Columns ColumnsCmd `cmd:"" help:"List the stored columns of a table"`
	Init    InitCmd    `cmd:"" help:"Write a configuration file"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// Globals are the flags shared by all commands.
type Globals struct {
	Config string `short:"c" help:"Configuration file" type:"path"`
	DB     string `name:"db" help:"Database DSN, overrides the configuration" env:"LITEMAP_DSN"`
	Debug  bool   `help:"Log every statement"`
}

func (g *Globals) open() (*litemap.DB, error) {
	cfg := &litemap.Config{}
	if g.Config != "" {
		var err error
		if cfg, err = litemap.LoadConfig(g.Config); err != nil {
			return nil, err
		}
	}
	if g.DB != "" {
		cfg.DSN = g.DB
	}
	level := slog.LevelWarn
	if g.Debug {
		cfg.Debug = true
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	return litemap.OpenConfig(cfg, logger)
}

// TablesCmd lists the tables of the database.
type TablesCmd struct{}

func (c *TablesCmd) Run(g *Globals, out io.Writer) error {
	db, err := g.open()
	if err != nil {
		return err
	}
	defer db.Close()
	tables, err := db.Tables(context.Background())
	if err != nil {
		return err
	}
	for _, m := range tables {
		fmt.Fprintln(out, m.Name)
	}
	return nil
}

// DDLCmd prints the stored CREATE statement of a table.
type DDLCmd struct {
	Table string `arg:"" help:"Table name"`
}

func (c *DDLCmd) Run(g *Globals, out io.Writer) error {
	db, err := g.open()
	if err != nil {
		return err
	}
	defer db.Close()
	tables, err := db.Tables(context.Background())
	if err != nil {
		return err
	}
	for _, m := range tables {
		if strings.EqualFold(m.Name, c.Table) && m.SQL != nil {
			fmt.Fprintln(out, *m.SQL+";")
			return nil
		}
	}
	return fmt.Errorf("table %q not found", c.Table)
}

// ColumnsCmd lists the stored columns of a table.
type ColumnsCmd struct {
	Table string `arg:"" help:"Table name"`
}

func (c *ColumnsCmd) Run(g *Globals, out io.Writer) error {
	db, err := g.open()
	if err != nil {
		return err
	}
	defer db.Close()
	infos, err := sqlschema.TableInfo(context.Background(), db.Driver(), c.Table)
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		return fmt.Errorf("table %q not found", c.Table)
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTYPE\tNOT NULL\tPK\tDEFAULT")
	for _, info := range infos {
		def := ""
		if info.Default.Valid {
			def = info.Default.String
		}
		fmt.Fprintf(w, "%s\t%s\t%t\t%d\t%s\n", info.Name, info.Type, info.NotNull, info.PK, def)
	}
	return w.Flush()
}

// InitCmd writes a configuration file.
type InitCmd struct {
	Path          string        `arg:"" optional:"" default:"litemap.yaml" help:"Configuration file to write" type:"path"`
	DSN           string        `required:"" name:"dsn" help:"Database DSN"`
	Naming        string        `help:"Table naming strategy (default, snake, snake_plural)"`
	Flags         []string      `help:"Mapping flags, e.g. implicit_pk,fts5"`
	SlowThreshold time.Duration `help:"Log statements slower than this"`
	Force         bool          `short:"f" help:"Overwrite an existing file"`
}

func (c *InitCmd) Run(out io.Writer) error {
	if _, err := os.Stat(c.Path); err == nil && !c.Force {
		return fmt.Errorf("%s already exists, use --force to overwrite", c.Path)
	}
	cfg := &litemap.Config{
		DSN:           c.DSN,
		Naming:        c.Naming,
		Flags:         c.Flags,
		SlowThreshold: c.SlowThreshold,
	}
	if _, err := cfg.Options(slog.New(slog.DiscardHandler)); err != nil {
		return err
	}
	if err := litemap.SaveConfig(c.Path, cfg); err != nil {
		return err
	}
	fmt.Fprintf(out, "wrote %s\n", c.Path)
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(out io.Writer) error {
	info := sqlite.GetInfo()
	fmt.Fprintf(out, "litemap %s (%s, %s)\n", version, info.Package, info.DriverType)
	return nil
}

func newParser(cli *CLI, out io.Writer, opts ...kong.Option) (*kong.Kong, error) {
	opts = append([]kong.Option{
		kong.Name("litemap"),
		kong.Description("Inspect litemap SQLite databases"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		kong.Bind(&cli.Globals),
		kong.BindTo(out, (*io.Writer)(nil)),
	}, opts...)
	return kong.New(cli, opts...)
}

func main() {
	var cli CLI
	parser, err := newParser(&cli, os.Stdout)
	if err != nil {
		panic(err)
	}
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)
	ctx.FatalIfErrorf(ctx.Run())
}
