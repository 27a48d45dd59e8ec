// Command accountctl creates accounts out of band. Login never creates
// accounts, so this is how the first ones get into the store.
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
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/elskow/gatekeep/internal/account"
	"github.com/elskow/gatekeep/internal/auth"
	"github.com/elskow/gatekeep/internal/config"
	"github.com/elskow/gatekeep/internal/database"
	"github.com/elskow/gatekeep/internal/server"
)

// readPassword is swapped out in tests.
var readPassword = term.ReadPassword

func main() {
	email := flag.String("email", "", "email of the new account")
	name := flag.String("name", "", "display name of the new account (required)")
	flag.Parse()

	if os.Getenv("APP_ENV") == "" {
		os.Setenv("APP_ENV", "development")
	}

	logger, err := server.NewLogger(os.Getenv("APP_ENV"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(*email, *name, logger); err != nil {
		fmt.Fprintf(os.Stderr, "accountctl: %v\n", err)
		os.Exit(1)
	}
}

func run(email, name string, logger *zap.Logger) error {
	if err := validateInput(email, name); err != nil {
		return err
	}

	cfg, err := server.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Database.Driver == config.DriverMemory {
		return errors.New("the memory driver does not persist accounts; configure a real database")
	}

	manager, err := database.NewManager(&cfg.Database, logger)
	if err != nil {
		return err
	}
	defer manager.Close()

	store, err := account.NewStore(cfg.Database.Driver, manager, logger)
	if err != nil {
		return err
	}

	password, err := promptPassword(os.Stdin, os.Stderr)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	svc := auth.NewService(&cfg.Auth, logger, store, nil, nil)
	acc, err := createAccount(ctx, store, svc, email, name, password)
	if err != nil {
		return err
	}

	fmt.Printf("created account %s for %s\n", acc.ID, acc.Email)
	return nil
}

type hasher interface {
	HashPassword(password string) (string, error)
}

func createAccount(ctx context.Context, store account.Store, h hasher, email, name, password string) (*account.Account, error) {
	email = strings.TrimSpace(email)
	if err := validateInput(email, name); err != nil {
		return nil, err
	}
	if password == "" {
		return nil, errors.New("password must not be empty")
	}

	hash, err := h.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	acc := &account.Account{
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
	}
	if err := store.Create(ctx, acc); err != nil {
		if errors.Is(err, account.ErrDuplicateEmail) {
			return nil, fmt.Errorf("an account with email %s already exists", email)
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return acc, nil
}

func validateInput(email, name string) error {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("a valid -email is required, got %q", email)
	}
	if strings.TrimSpace(name) == "" {
		return errors.New("-name is required")
	}
	return nil
}

// promptPassword reads the password without echo from a terminal, or a
// single line when stdin is piped.
func promptPassword(in *os.File, w io.Writer) (string, error) {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return readLine(bufio.NewReader(in))
	}

	fmt.Fprint(w, "Password: ")
	first, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}

	fmt.Fprint(w, "Repeat password: ")
	second, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}

	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	return string(first), nil
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
