// cmd/tools/view-admin/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"lead-workers/internal/common/config"
	"lead-workers/internal/common/database"
	"lead-workers/internal/common/logger"
	"lead-workers/internal/leads/views"
	"lead-workers/internal/workers/leads/leadjob"
)

func main() {
	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	cmd := os.Args[1]
	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		help()
		return
	}

	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	configPath := fs.String("config", "", "Path to a config file; supplies redis and namespace defaults")
	redisAddr := fs.String("redis", "localhost:6379", "Redis address")
	redisDB := fs.Int("db", 0, "Redis database")
	namespace := fs.String("namespace", "default", "View key namespace")
	user := fs.String("user", "", "User id whose views to manage")
	name := fs.String("name", "", "View name (show, save, delete, select)")
	file := fs.String("file", "", "Descriptor JSON file for save; - reads stdin")
	fs.Parse(os.Args[2:])

	redisCfg := config.RedisConfig{Address: *redisAddr, DB: *redisDB}
	if *configPath != "" {
		cfg, err := config.LoadFromFile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		redisCfg = cfg.Database.Redis
		if !isFlagSet(fs, "namespace") {
			*namespace = cfg.Leads.ViewNamespace
		}
	}

	rdb, err := database.NewRedis(redisCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer rdb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	registry := views.NewRegistry(
		views.NewRedisStore(rdb.Client, 0),
		logger.NewStructured("warn", "console", "stderr"),
		views.WithNamespace(leadjob.UserNamespace(*namespace, *user)),
	)

	var in io.Reader = os.Stdin
	if *file != "" && *file != "-" {
		f, err := os.Open(*file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	if err := run(ctx, registry, cmd, *name, in, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func isFlagSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// run executes one command against a registry and writes JSON to out.
func run(ctx context.Context, registry *views.Registry, cmd, name string, in io.Reader, out io.Writer) error {
	if err := registry.Load(ctx); err != nil {
		return err
	}

	switch cmd {
	case "list":
		current := registry.Current()
		type row struct {
			Name    string `json:"name"`
			Kind    string `json:"kind"`
			Label   string `json:"label"`
			Sort    string `json:"sort"`
			Current bool   `json:"current"`
		}
		var rows []row
		for _, v := range registry.Views() {
			rows = append(rows, row{
				Name:    v.Name,
				Kind:    string(v.Kind),
				Label:   v.Label,
				Sort:    string(v.Sort),
				Current: v.Name == current.Name,
			})
		}
		return writeJSON(out, rows)

	case "show":
		if name == "" {
			return writeJSON(out, registry.Current())
		}
		v, ok := registry.Lookup(name)
		if !ok {
			return fmt.Errorf("%w: %s", views.ErrViewNotFound, name)
		}
		return writeJSON(out, v)

	case "save":
		if name == "" {
			return fmt.Errorf("save requires -name")
		}
		var d views.Descriptor
		dec := json.NewDecoder(in)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&d); err != nil {
			return fmt.Errorf("decode descriptor: %w", err)
		}
		v, err := registry.SaveCustom(ctx, name, d)
		if err != nil {
			return err
		}
		return writeJSON(out, v)

	case "delete":
		if name == "" {
			return fmt.Errorf("delete requires -name")
		}
		if err := registry.DeleteCustom(ctx, name); err != nil {
			return err
		}
		return writeJSON(out, map[string]string{"deleted": name, "currentView": registry.Current().Name})

	case "select":
		if name == "" {
			return fmt.Errorf("select requires -name")
		}
		v, err := registry.Select(ctx, name)
		if err != nil {
			return err
		}
		return writeJSON(out, v)

	case "export":
		return writeJSON(out, registry.CustomViews())
	}

	return fmt.Errorf("unknown command %q", cmd)
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func help() {
	fmt.Println("Usage: view-admin <command> [flags]")
	fmt.Println("\nCommands:")
	fmt.Println("  list      List built-in and custom views for a user")
	fmt.Println("  show      Print one view (-name) or the current view")
	fmt.Println("  save      Create or replace a custom view from a descriptor (-name, -file)")
	fmt.Println("  delete    Delete a custom view (-name)")
	fmt.Println("  select    Make a view current (-name)")
	fmt.Println("  export    Print all custom view descriptors")
	fmt.Println("\nFlags:")
	fmt.Println("  -config, -redis, -db, -namespace, -user, -name, -file")
}
