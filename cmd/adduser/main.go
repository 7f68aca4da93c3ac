/*
main.go - Create an account from the command line

PURPOSE:
  Accounts are normally created by the first PIN login. This tool creates
  one ahead of time, e.g. when provisioning a fresh database, and refuses
  to touch a handle that already exists.

USAGE:
  adduser -user <username> [-pin <pin>] [-db <db_path>]

  Without -pin the PIN is read from the terminal without echo, or from the
  first line of stdin when stdin is not a terminal. DB_PATH overrides the
  default database path when -db is not given.
*/
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/warp/pocket-ledger/auth"
	"github.com/warp/pocket-ledger/store/sqlite"
	"golang.org/x/term"
)

const defaultDBPath = "finance.db"

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stderr)

	username := fs.String("user", "", "Username")
	pinFlag := fs.String("pin", "", "PIN of up to 4 digits (prompted when omitted)")
	dbPath := fs.String("db", defaultDBPath, "Path to database file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if strings.TrimSpace(*username) == "" {
		fmt.Fprintln(stdout, "Usage: adduser -user <username> [-pin <pin>] [-db <db_path>]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: user")
	}

	pin := *pinFlag
	if pin == "" {
		fmt.Fprint(stdout, "PIN: ")
		var err error
		pin, err = readPIN(stdin)
		if err != nil {
			return fmt.Errorf("failed to read PIN: %w", err)
		}
		fmt.Fprintln(stdout)
	}

	if path := os.Getenv("DB_PATH"); path != "" && *dbPath == defaultDBPath {
		*dbPath = path
	}

	store, err := sqlite.New(*dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	user, err := auth.NewPINAuthenticator(store).Register(context.Background(), *username, strings.TrimSpace(pin))
	if err != nil {
		return fmt.Errorf("failed to create user %s: %w", *username, err)
	}

	fmt.Fprintf(stdout, "User %s created successfully with ID %s\n", user.Username, user.ID)
	return nil
}

func readPIN(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	// Pipes and tests
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
