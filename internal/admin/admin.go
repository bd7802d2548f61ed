// Package admin implements quizctl, the operator CLI for the user store and
// the recipe catalog. It works on the same files the API server uses, so user
// commands fail with ErrStoreLocked while a server holds the store open.
package admin

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	authservice "github.com/AlibekovAA/dining-quiz/backend/internal/auth/service"
	"github.com/AlibekovAA/dining-quiz/backend/internal/common/bootstrap"
	"github.com/AlibekovAA/dining-quiz/backend/internal/common/config"
	"github.com/AlibekovAA/dining-quiz/backend/internal/common/constants"
	commoncrypto "github.com/AlibekovAA/dining-quiz/backend/internal/common/crypto"
	"github.com/AlibekovAA/dining-quiz/backend/internal/common/logger"
	reciperepo "github.com/AlibekovAA/dining-quiz/backend/internal/recipe/repository"
	recipeservice "github.com/AlibekovAA/dining-quiz/backend/internal/recipe/service"
	userrepo "github.com/AlibekovAA/dining-quiz/backend/internal/user/repository"
)

// Test seams for the terminal.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

var ErrPasswordMismatch = errors.New("passwords do not match")

type storeFlags struct {
	store    string
	file     string
	boltFile string
	recipes  string
	logLevel string
}

func (f *storeFlags) config() config.AppConfig {
	return config.AppConfig{
		UsersStore:    strings.ToLower(f.store),
		UsersFile:     f.file,
		UsersBoltFile: f.boltFile,
		RecipesFile:   f.recipes,
	}
}

// NewApp builds the quizctl command tree. Output goes to stdout, logs and
// prompts to stderr.
func NewApp(stdin io.Reader, stdout, stderr io.Writer) *cli.App {
	flags := &storeFlags{}

	return &cli.App{
		Name:      "quizctl",
		Usage:     "Inspect and maintain the dining quiz data files",
		Reader:    stdin,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "users-store",
				Usage:       "user store backend: json or bolt",
				Value:       config.UsersStoreJSON,
				EnvVars:     []string{"USERS_STORE"},
				Destination: &flags.store,
			},
			&cli.StringFlag{
				Name:        "users-file",
				Value:       constants.DefaultUsersFile,
				EnvVars:     []string{"USERS_FILE"},
				Destination: &flags.file,
			},
			&cli.StringFlag{
				Name:        "users-bolt-file",
				Value:       constants.DefaultUsersBoltFile,
				EnvVars:     []string{"USERS_BOLT_FILE"},
				Destination: &flags.boltFile,
			},
			&cli.StringFlag{
				Name:        "recipes-file",
				Value:       constants.DefaultRecipesFile,
				EnvVars:     []string{"RECIPES_FILE"},
				Destination: &flags.recipes,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Value:       "warning",
				EnvVars:     []string{"LOG_LEVEL"},
				Destination: &flags.logLevel,
			},
		},
		Commands: []*cli.Command{
			usersCmd(flags),
			catalogCmd(flags),
		},
	}
}

func usersCmd(flags *storeFlags) *cli.Command {
	return &cli.Command{
		Name:  "users",
		Usage: "Manage registered players",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "Print every player with their game stats",
				Action: func(c *cli.Context) error {
					return withUsers(flags, func(repo userrepo.Repository) error {
						return listUsers(c.Context, repo, c.App.Writer)
					})
				},
			},
			{
				Name:      "show",
				Usage:     "Print one player's public profile as JSON",
				ArgsUsage: "USERNAME",
				Action: func(c *cli.Context) error {
					username := c.Args().First()
					if username == "" {
						return errors.New("username is required")
					}
					return withUsers(flags, func(repo userrepo.Repository) error {
						return showUser(c.Context, repo, username, c.App.Writer)
					})
				},
			},
			createUserCmd(flags),
			migrateUsersCmd(flags),
		},
	}
}

func createUserCmd(flags *storeFlags) *cli.Command {
	var (
		username      string
		passwordStdin bool
	)

	return &cli.Command{
		Name:  "create",
		Usage: "Register a player without going through the API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "username",
				Aliases:     []string{"u"},
				Required:    true,
				Destination: &username,
			},
			&cli.BoolFlag{
				Name:        "password-stdin",
				Usage:       "read the password from the first line of stdin",
				Destination: &passwordStdin,
			},
		},
		Action: func(c *cli.Context) error {
			password, err := obtainPassword(c.App.Reader, c.App.ErrWriter, passwordStdin)
			if err != nil {
				return err
			}

			return withUsers(flags, func(repo userrepo.Repository) error {
				hasher := commoncrypto.NewPBKDF2Hasher(
					constants.PBKDF2Iterations,
					constants.PBKDF2KeyLength,
					constants.SaltSize,
					1,
				)
				log := logger.NewWithWriter(c.App.ErrWriter, "quizctl", flags.logLevel)
				accounts := authservice.NewAccountService(repo, hasher, log)

				profile, err := accounts.CreateAccount(c.Context, username, password)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(c.App.Writer, "created %s with id %d\n", profile.Username, profile.ID)
				return err
			})
		},
	}
}

func migrateUsersCmd(flags *storeFlags) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Copy the JSON user file into the bolt store, replacing its contents",
		Action: func(c *cli.Context) error {
			cfg := flags.config()

			cfg.UsersStore = config.UsersStoreJSON
			src, err := bootstrap.OpenUserRepository(cfg)
			if err != nil {
				return err
			}
			defer closeRepo(src)

			cfg.UsersStore = config.UsersStoreBolt
			dst, err := bootstrap.OpenUserRepository(cfg)
			if err != nil {
				return err
			}
			defer closeRepo(dst)

			n, err := migrateUsers(c.Context, src, dst)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(c.App.Writer, "copied %d users to %s\n", n, cfg.UsersBoltFile)
			return err
		},
	}
}

func catalogCmd(flags *storeFlags) *cli.Command {
	return &cli.Command{
		Name:  "catalog",
		Usage: "Inspect the recipe catalog",
		Subcommands: []*cli.Command{
			{
				Name:  "check",
				Usage: "Load the catalog and print recipe counts per dining hall",
				Action: func(c *cli.Context) error {
					repo, err := reciperepo.LoadJSONFile(flags.recipes)
					if err != nil {
						return err
					}
					log := logger.NewWithWriter(c.App.ErrWriter, "quizctl", flags.logLevel)
					return checkCatalog(c.Context, recipeservice.NewRecipeService(repo, log), c.App.Writer)
				},
			},
		},
	}
}

func withUsers(flags *storeFlags, fn func(repo userrepo.Repository) error) error {
	repo, err := bootstrap.OpenUserRepository(flags.config())
	if err != nil {
		return err
	}
	defer closeRepo(repo)
	return fn(repo)
}

func closeRepo(repo userrepo.Repository) {
	if c, ok := repo.(io.Closer); ok {
		_ = c.Close()
	}
}

func listUsers(ctx context.Context, repo userrepo.Repository, w io.Writer) error {
	users, err := repo.All(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSERNAME\tGAMES\tG1 WINS\tG1 GUESSES")
	for _, u := range users {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\n", u.ID, u.Username, u.GamesPlayed, u.Game1Wins, u.Game1Guesses)
	}
	return tw.Flush()
}

func showUser(ctx context.Context, repo userrepo.Repository, username string, w io.Writer) error {
	u, err := repo.FindByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("%s: %w", username, err)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(u.Profile())
}

func migrateUsers(ctx context.Context, src, dst userrepo.Repository) (int, error) {
	users, err := src.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read source users: %w", err)
	}
	if err := dst.Save(ctx, users); err != nil {
		return 0, fmt.Errorf("failed to write destination users: %w", err)
	}
	return len(users), nil
}

func checkCatalog(ctx context.Context, recipes *recipeservice.RecipeService, w io.Writer) error {
	all, err := recipes.All(ctx)
	if err != nil {
		return err
	}

	halls := map[string]int{}
	var order []string
	ingredients := 0
	for _, r := range all {
		if _, seen := halls[r.DiningHall]; !seen {
			order = append(order, r.DiningHall)
		}
		halls[r.DiningHall]++
		ingredients += len(r.Ingredients)
	}

	fmt.Fprintf(w, "%d recipes, %d ingredients\n", len(all), ingredients)
	for _, hall := range order {
		fmt.Fprintf(w, "  %s: %d\n", hall, halls[hall])
	}
	return nil
}

// obtainPassword prompts twice on a terminal. Without one, or with
// fromStdin, it takes the first line of r.
func obtainPassword(r io.Reader, prompt io.Writer, fromStdin bool) (string, error) {
	fd := int(os.Stdin.Fd())
	if fromStdin || !isTerminal(fd) {
		line, err := bufio.NewReader(r).ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(prompt, "Password: ")
	first, err := readPassword(fd)
	fmt.Fprintln(prompt)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	fmt.Fprint(prompt, "Repeat password: ")
	second, err := readPassword(fd)
	fmt.Fprintln(prompt)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	if string(first) != string(second) {
		return "", ErrPasswordMismatch
	}
	return string(first), nil
}
