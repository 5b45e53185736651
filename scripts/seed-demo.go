// Command seed-demo creates demo users and reviews so the API has data to
// show. It goes through the services, so validation and the one review per
// game rule apply; running it twice leaves the data unchanged.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gamereviews/gamereviews/internal/auth"
	"github.com/gamereviews/gamereviews/internal/config"
	"github.com/gamereviews/gamereviews/internal/metrics"
	"github.com/gamereviews/gamereviews/internal/repository"
	"github.com/gamereviews/gamereviews/internal/repository/sqlite"
	"github.com/gamereviews/gamereviews/internal/service"
)

type demoUser struct {
	Username string
	Email    string
	Password string
	Reviews  []service.SubmitReviewInput
}

var demoUsers = []demoUser{
	{
		Username: "alice",
		Email:    "alice@demo.local",
		Password: "alice-demo",
		Reviews: []service.SubmitReviewInput{
			{GameTitle: "The Legend of Zelda: Breath of the Wild", Rating: 5, ReviewText: "Every hill hides something worth climbing for."},
			{GameTitle: "Celeste", Rating: 4, ReviewText: "Hard, fair and surprisingly kind about failure."},
		},
	},
	{
		Username: "bob",
		Email:    "bob@demo.local",
		Password: "bob-demo",
		Reviews: []service.SubmitReviewInput{
			{GameTitle: "The Legend of Zelda: Breath of the Wild", Rating: 4, ReviewText: "Weapon durability grated, the world did not."},
			{GameTitle: "Hades", Rating: 5, ReviewText: "The best run-based loop I have played in years."},
		},
	},
}

type seededUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Token    string `json:"token"`
	Reviews  int    `json:"reviews_created"`
}

type store interface {
	service.UserStore
	service.ReviewStore
	Close() error
}

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "postgres:// or sqlite: database URL")
		secret      = flag.String("jwt-secret", os.Getenv("JWT_SECRET"), "Secret used to sign the printed tokens")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}
	if *secret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := openStore(ctx, *databaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open database:", err)
		os.Exit(1)
	}
	defer db.Close()

	tokens, err := auth.NewTokenService(*secret, 0)
	if err != nil {
		fmt.Fprintln(os.Stderr, "token service:", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	accounts := service.NewAccountService(db, auth.NewPasswordHasher(auth.DefaultArgon2Params), tokens, logger, metrics.NewNoop())
	reviews := service.NewReviewService(db, nil, logger, metrics.NewNoop())

	out := make([]seededUser, 0, len(demoUsers))
	for _, u := range demoUsers {
		seeded, err := seed(ctx, accounts, reviews, u)
		if err != nil {
			fmt.Fprintf(os.Stderr, "seed %s: %v\n", u.Username, err)
			os.Exit(1)
		}
		out = append(out, seeded)
	}

	switch strings.ToLower(*format) {
	case "plain":
		for _, u := range out {
			fmt.Printf("%s\t%s\t%s\n", u.Username, u.Email, u.Token)
		}
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	default:
		fmt.Fprintln(os.Stderr, "invalid format; use plain or json")
		os.Exit(1)
	}
}

func seed(ctx context.Context, accounts *service.AccountService, reviews *service.ReviewService, u demoUser) (seededUser, error) {
	result, err := accounts.Register(ctx, service.RegisterInput{Username: u.Username, Email: u.Email, Password: u.Password})
	if errors.Is(err, service.ErrEmailExists) {
		result, err = accounts.Login(ctx, service.LoginInput{Email: u.Email, Password: u.Password})
	}
	if err != nil {
		return seededUser{}, err
	}

	created := 0
	for _, input := range u.Reviews {
		_, err := reviews.SubmitReview(ctx, result.User.ID, input)
		switch {
		case err == nil:
			created++
		case errors.Is(err, service.ErrDuplicateReview):
		default:
			return seededUser{}, fmt.Errorf("review %q: %w", input.GameTitle, err)
		}
	}

	return seededUser{
		ID:       string(result.User.ID),
		Username: result.User.Username,
		Email:    result.User.Email,
		Password: u.Password,
		Token:    result.Token,
		Reviews:  created,
	}, nil
}

func openStore(ctx context.Context, databaseURL string) (store, error) {
	cfg := &config.Config{DatabaseURL: databaseURL}
	driver, target, err := cfg.Database()
	if err != nil {
		return nil, err
	}

	if driver == config.DriverSQLite {
		s, err := sqlite.Open(target)
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	repo, err := repository.New(ctx, target)
	if err != nil {
		return nil, err
	}
	if err := repo.Migrate(ctx); err != nil {
		_ = repo.Close()
		return nil, err
	}
	return repo, nil
}
