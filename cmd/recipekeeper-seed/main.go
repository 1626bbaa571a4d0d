// Command recipekeeper-seed creates user accounts and loads the sample
// recipe book into the configured store. Configuration comes from the
// RECIPEKEEPER_* environment variables, optionally read from a .env file.
package main

import (
	"context"
	_ "embed"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"recipekeeper/internal/backup"
	"recipekeeper/internal/blob"
	"recipekeeper/internal/config"
	"recipekeeper/internal/core"
	"recipekeeper/pkg/domain"
)

//go:embed seed.yaml
var seedYAML []byte

const defaultUsers = "admin:secret,developer:letmein"

var exitFunc = os.Exit

type options struct {
	envFile string
	users   string
	books   string
	export  bool
}

func main() {
	exitFunc(cli(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func cli(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("recipekeeper-seed", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var opts options
	fs.StringVar(&opts.envFile, "env", ".env", "optional dotenv file")
	fs.StringVar(&opts.users, "users", defaultUsers, "comma separated username:password pairs to create")
	fs.StringVar(&opts.books, "book", "", "comma separated usernames that receive the sample book (default: every created user)")
	fs.BoolVar(&opts.export, "export", false, "export each seeded book to the blob store")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if err := config.LoadDotEnv(opts.envFile); err != nil {
		_, _ = fmt.Fprintf(stderr, "seed failed: %v\n", err)
		return 1
	}
	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "seed failed: %v\n", err)
		return 1
	}
	level, _ := config.ParseLevel(cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	if err := run(ctx, cfg, opts, logger, stdout); err != nil {
		_, _ = fmt.Fprintf(stderr, "seed failed: %v\n", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, cfg config.Config, opts options, logger *slog.Logger, stdout io.Writer) (err error) {
	users, err := parseUsers(opts.users)
	if err != nil {
		return err
	}
	book, err := loadSeedBook()
	if err != nil {
		return err
	}

	store, err := core.OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); err == nil {
			err = cerr
		}
	}()
	metrics, err := core.NewMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	svc := core.NewService(core.Instrument(store, metrics, logger), core.WithLogger(logger))

	for _, u := range users {
		created, err := createUser(ctx, svc.Store(), u)
		if err != nil {
			return err
		}
		if created {
			_, _ = fmt.Fprintf(stdout, "user %s created\n", u.Username)
		} else {
			_, _ = fmt.Fprintf(stdout, "user %s exists, skipped\n", u.Username)
		}
	}

	owners := bookOwners(opts.books, users)
	var exporter *backup.Service
	if opts.export {
		blobs, err := blob.Open(ctx, cfg.Blob)
		if err != nil {
			return err
		}
		exporter = backup.New(svc, blobs, backup.WithLogger(logger))
	}
	for _, owner := range owners {
		report, err := backup.Apply(ctx, svc, owner, book)
		if err != nil {
			return fmt.Errorf("seed book for %s: %w", owner, err)
		}
		_, _ = fmt.Fprintf(stdout, "book for %s: %d collections created, %d recipes created, %d recipes skipped\n",
			owner, report.CollectionsCreated, report.RecipesCreated, report.RecipesSkipped)
		if exporter != nil {
			info, err := exporter.Export(ctx, owner)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(stdout, "book for %s exported to %s\n", owner, info.Key)
		}
	}
	return nil
}

type credentials struct {
	Username string
	Password string
}

func parseUsers(list string) ([]credentials, error) {
	var out []credentials
	for _, pair := range strings.Split(list, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, password, ok := strings.Cut(pair, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" || password == "" {
			return nil, fmt.Errorf("invalid user %q, want username:password", pair)
		}
		out = append(out, credentials{Username: name, Password: password})
	}
	return out, nil
}

func bookOwners(list string, users []credentials) []string {
	var owners []string
	if strings.TrimSpace(list) == "" {
		for _, u := range users {
			owners = append(owners, u.Username)
		}
		return owners
	}
	for _, name := range strings.Split(list, ",") {
		if name = strings.TrimSpace(name); name != "" {
			owners = append(owners, name)
		}
	}
	return owners
}

func loadSeedBook() (backup.Book, error) {
	var book backup.Book
	if err := yaml.Unmarshal(seedYAML, &book); err != nil {
		return backup.Book{}, fmt.Errorf("decode seed book: %w", err)
	}
	return book, book.Check()
}

// createUser stores u with a bcrypt hash. An existing account is left as is.
func createUser(ctx context.Context, store domain.UserStore, u credentials) (bool, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("hash password for %s: %w", u.Username, err)
	}
	err = store.CreateUser(ctx, domain.User{Username: u.Username, PasswordHash: string(hash)})
	if errors.Is(err, domain.ErrUserExists) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("create user %s: %w", u.Username, err)
	}
	return true, nil
}
