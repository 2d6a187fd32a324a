// Command createadmin creates the first admin account, which privileged
// registration requires. It reads the same configuration as the server.
//
//	createadmin -n admin -o A1 -d postgres://...
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/dmitrijs2005/studynest/internal/flagx"
	"github.com/dmitrijs2005/studynest/internal/keylock"
	"github.com/dmitrijs2005/studynest/internal/logging"
	"github.com/dmitrijs2005/studynest/internal/server/config"
	"github.com/dmitrijs2005/studynest/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/studynest/internal/server/services"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

type options struct {
	userName string
	rollNo   string
}

func parseOptions(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("createadmin", flag.ContinueOnError)
	fs.StringVar(&o.userName, "n", "", "admin user name")
	fs.StringVar(&o.rollNo, "o", "admin", "admin roll number")
	err := fs.Parse(flagx.FilterArgs(args, []string{"-n", "-o"}))
	return o, err
}

func main() {
	if err := execute(context.Background()); err != nil {
		log.Fatalf("%v", err)
	}
}

// execute opens the metadata store, migrates it and creates the admin. The
// store is closed before the error reaches main, which exits non-zero.
func execute(ctx context.Context) error {
	cfg := config.LoadConfig()

	opts, err := parseOptions(os.Args[1:])
	if err != nil {
		return err
	}

	rm, err := repomanager.New(cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	defer rm.Close()

	if err := rm.RunMigrations(ctx); err != nil {
		return err
	}

	logger := logging.NewJSONLogger(os.Stderr, cfg.LogLevel)
	return run(ctx, rm, cfg, logger, opts, bufio.NewReader(os.Stdin), os.Stdout)
}

func run(ctx context.Context, rm repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger, opts options, reader *bufio.Reader, w io.Writer) error {
	if opts.userName == "" {
		fmt.Fprint(w, "Enter admin user name\n> ")
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return err
		}
		opts.userName = strings.TrimSpace(line)
	}

	fmt.Fprint(w, "Enter password: ")
	password, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return err
	}

	us := services.NewUserService(rm, cfg, keylock.New(), logger)
	u, err := us.Bootstrap(ctx, opts.userName, string(password), opts.rollNo)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Admin %q created\n", u.UserName)
	return nil
}
