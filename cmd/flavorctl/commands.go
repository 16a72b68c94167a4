package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/Clark-Hu/flavorhub/internal/client"
	"github.com/Clark-Hu/flavorhub/internal/domain"
	"github.com/Clark-Hu/flavorhub/internal/logging"
)

func newApp(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:   "flavorctl",
		Usage:  "Browse recipes and manage ratings on a flavorhub server",
		Writer: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api",
				Value:   "http://localhost:8080",
				Usage:   "Base URL of the flavorhub API",
				Sources: cli.EnvVars("FLAVORHUB_API_URL"),
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "Bearer token for catalog mutations",
				Sources: cli.EnvVars("FLAVORHUB_TOKEN", "AUTH_TOKEN"),
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Value: 10 * time.Second,
				Usage: "Per-request timeout",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"o"},
				Value:   "json",
				Usage:   "Output format (json, yaml)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Value: "warn",
				Usage: "Log level (debug, info, warn, error)",
			},
		},
		Commands: []*cli.Command{
			todayCmd(),
			listCmd(),
			rateCmd(),
			summaryCmd(),
			ratingsCmd(),
		},
	}
}

func todayCmd() *cli.Command {
	return &cli.Command{
		Name:  "today",
		Usage: "Show the recipe of the day",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			recipe, err := c.RecipeOfTheDay(ctx)
			if err != nil {
				return err
			}
			return render(cmd, recipe)
		},
	}
}

func listCmd() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List recipes, optionally filtered",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "difficulty", Usage: "Difficulty level (exact, case-insensitive)"},
			&cli.StringFlag{Name: "cuisine", Usage: "Cuisine type (exact, case-insensitive)"},
			&cli.StringFlag{Name: "search", Usage: "Substring of name or description"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			recipes, err := c.ListRecipes(ctx, domain.RecipeFilter{
				Difficulty: cmd.String("difficulty"),
				Cuisine:    cmd.String("cuisine"),
				Search:     cmd.String("search"),
			})
			if err != nil {
				return err
			}
			return render(cmd, recipes)
		},
	}
}

func rateCmd() *cli.Command {
	return &cli.Command{
		Name:  "rate",
		Usage: "Submit a rating for a recipe",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "recipe", Required: true, Usage: "Recipe id"},
			&cli.StringFlag{Name: "user", Required: true, Usage: "Rater id"},
			&cli.IntFlag{Name: "value", Required: true, Usage: "Rating from 1 to 5"},
			&cli.StringFlag{Name: "review", Usage: "Optional review text"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			value := cmd.Int("value")
			if !domain.ValidRatingValue(value) {
				return fmt.Errorf("--value: %w", domain.ErrInvalidRatingValue)
			}
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			var review *string
			if r := strings.TrimSpace(cmd.String("review")); r != "" {
				review = &r
			}
			rating, err := c.SubmitRating(ctx, cmd.Int64("recipe"), cmd.String("user"), value, review)
			if err != nil {
				return err
			}
			return render(cmd, rating)
		},
	}
}

func summaryCmd() *cli.Command {
	return &cli.Command{
		Name:  "summary",
		Usage: "Show the average rating and count of a recipe",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "recipe", Required: true, Usage: "Recipe id"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			summary, err := c.RatingSummary(ctx, cmd.Int64("recipe"))
			if err != nil {
				return err
			}
			return render(cmd, summary)
		},
	}
}

func ratingsCmd() *cli.Command {
	return &cli.Command{
		Name:  "ratings",
		Usage: "List the ratings of a recipe",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "recipe", Required: true, Usage: "Recipe id"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			ratings, err := c.ListRatings(ctx, cmd.Int64("recipe"))
			if err != nil {
				return err
			}
			return render(cmd, ratings)
		},
	}
}

func newClient(cmd *cli.Command) (*client.Client, error) {
	logger := logging.New(logging.Config{
		Level:  cmd.String("log-level"),
		Format: "console",
		Output: cmd.Root().ErrWriter,
	})
	return client.New(cmd.String("api"), cmd.Duration("timeout"),
		client.WithToken(cmd.String("token")),
		client.WithLogger(logger),
	)
}

func render(cmd *cli.Command, v any) error {
	out := cmd.Root().Writer
	switch strings.ToLower(cmd.String("format")) {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format %q (supported: json, yaml)", cmd.String("format"))
	}
}
