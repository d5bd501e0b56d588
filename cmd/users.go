package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/iotify/gateway/internal/config"
	"github.com/iotify/gateway/internal/directory"
)

// openStoreFromFlags resolves the database path (flag, then config file,
// then default) and opens the directory store.
func openStoreFromFlags(configPath, dbPath string) (*directory.Store, error) {
	if dbPath == "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		dbPath = cfg.Database
	}
	return directory.Open(dbPath)
}

func runUsersAdd(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("users add", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Path to config file")
	dbPath := fs.String("db", "", "Path to the SQLite database (overrides config)")
	password := fs.String("password", "", "Password (read from stdin if omitted)")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: iotify users add [options] <username>\n\nAdd a user to the directory.\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 1
	}
	username := fs.Arg(0)

	pass := *password
	if pass == "" {
		fmt.Fprintf(stdout, "Password for %s: ", username)
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			fmt.Fprintf(stderr, "Error: failed to read password: %v\n", err)
			return 1
		}
		pass = strings.TrimRight(line, "\r\n")
	}
	if pass == "" {
		fmt.Fprintln(stderr, "Error: password cannot be empty")
		return 1
	}

	store, err := openStoreFromFlags(*configPath, *dbPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer store.Close()

	if err := store.CreateUser(username, pass); err != nil {
		if errors.Is(err, directory.ErrUserExists) {
			fmt.Fprintf(stderr, "Error: user %q already exists\n", username)
		} else {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return 1
	}

	fmt.Fprintf(stdout, "Added user %s\n", username)
	return 0
}

func runUsersList(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("users list", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Path to config file")
	dbPath := fs.String("db", "", "Path to the SQLite database (overrides config)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	store, err := openStoreFromFlags(*configPath, *dbPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer store.Close()

	users, err := store.ListUsers()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if len(users) == 0 {
		fmt.Fprintln(stdout, "No users. Add one with: iotify users add <username>")
		return 0
	}

	fmt.Fprintf(stdout, "%-20s %s\n", "USERNAME", "CREATED")
	for _, u := range users {
		fmt.Fprintf(stdout, "%-20s %s\n", u.Username, u.CreatedAt.Format("2006-01-02 15:04"))
	}
	return 0
}
