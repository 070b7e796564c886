// Command dbcsvd serves the read-only SQL-over-CSV query service
// (spec.md §1). Flag parsing follows the teacher's go-flags idiom (see
// e.g. cmd/mysqldef/mysqldef.go's parseOptions).
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/maixuanbach/dbcsv/auth"
	"github.com/maixuanbach/dbcsv/catalog"
	"github.com/maixuanbach/dbcsv/config"
	"github.com/maixuanbach/dbcsv/engine"
	"github.com/maixuanbach/dbcsv/httpapi"
	"github.com/maixuanbach/dbcsv/util"
)

var version string

type options struct {
	Config  string `short:"c" long:"config" description:"YAML config file" value-name:"config_file" default:"dbcsvd.yaml"`
	Help    bool   `long:"help" description:"Show this help"`
	Version bool   `long:"version" description:"Show this version"`
}

func parseOptions(args []string) options {
	var opts options
	parser := flags.NewParser(&opts, flags.None)
	parser.Usage = "[options]"
	if _, err := parser.ParseArgs(args); err != nil {
		log.Fatal(err)
	}
	if opts.Help {
		parser.WriteHelp(os.Stdout)
		os.Exit(0)
	}
	if opts.Version {
		fmt.Println(version)
		os.Exit(0)
	}
	return opts
}

func main() {
	opts := parseOptions(os.Args[1:])
	util.InitSlog()

	cfg, err := config.Load(opts.Config)
	if err != nil {
		log.Fatal(err)
	}

	loader := catalog.NewFilesystemLoader(cfg.DataRoot)
	cat, err := loader.Load(context.Background())
	if err != nil {
		log.Fatal(err)
	}

	accounts, err := auth.NewJSONAccountStore(cfg.AccountsFile)
	if err != nil {
		log.Fatal(err)
	}

	a := auth.New(accounts, []byte(cfg.JWTSigningKey), cfg.AccessTokenTTL)
	eng := engine.New(cat, cfg.DataRoot, cfg.ScanBatchSize)
	handler := httpapi.New(eng, a, cfg.NDJSONBatchSize)

	slog.Info("dbcsvd listening", "addr", cfg.ListenAddr, "data_root", cfg.DataRoot, "databases", cat.ListDatabases())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler.Mux(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal(err)
	}
}
