// Command dbcsvctl is a thin CLI client: it runs one SQL statement
// against a dbcsvd server via the driver package and prints the result as
// a table, following the teacher's go-flags option-parsing idiom (see
// cmd/psqldef/psqldef.go's parseOptions).
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"
	"syscall"

	"github.com/jessevdk/go-flags"
	"golang.org/x/term"

	"github.com/maixuanbach/dbcsv/driver"
)

var version string

type options struct {
	Host     string `short:"H" long:"host" description:"dbcsvd server base URL, e.g. http://127.0.0.1:8080" value-name:"url" default:"http://127.0.0.1:8080"`
	User     string `short:"u" long:"user" description:"dbcsv account username" value-name:"username"`
	Password string `short:"p" long:"password" description:"dbcsv account password, overridden by $DBCSV_PWD" value-name:"password"`
	Prompt   bool   `long:"password-prompt" description:"Force password prompt"`
	Help     bool   `long:"help" description:"Show this help"`
	Version  bool   `long:"version" description:"Show this version"`
}

func parseOptions(args []string) (options, string, string) {
	var opts options
	parser := flags.NewParser(&opts, flags.None)
	parser.Usage = "[options] db_name 'SELECT ...'"

	rest, err := parser.ParseArgs(args)
	if err != nil {
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
	if len(rest) != 2 {
		fmt.Print("Expected exactly a database name and a SQL statement\n\n")
		parser.WriteHelp(os.Stdout)
		os.Exit(1)
	}

	if pwd, ok := os.LookupEnv("DBCSV_PWD"); ok {
		opts.Password = pwd
	}
	if opts.Prompt {
		fmt.Print("Enter Password: ")
		pass, err := term.ReadPassword(int(syscall.Stdin))
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println()
		opts.Password = string(pass)
	}

	return opts, rest[0], rest[1]
}

func main() {
	opts, db, query := parseOptions(os.Args[1:])

	connURL := strings.TrimRight(opts.Host, "/") + "/" + db

	connector, err := driver.NewConnector(connURL, opts.User, opts.Password)
	if err != nil {
		log.Fatal(err)
	}

	conn := sql.OpenDB(connector)
	defer conn.Close()

	rows, err := conn.QueryContext(context.Background(), query)
	if err != nil {
		log.Fatal(err)
	}
	defer rows.Close()

	printRows(rows)
}
