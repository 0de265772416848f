// Command apl manages the installed-app credentials of the bundle service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/kitsbundles/backend/internal/domain/credential"
	"github.com/kitsbundles/backend/internal/infrastructure/config"
	infracredential "github.com/kitsbundles/backend/internal/infrastructure/credential"
	"github.com/kitsbundles/backend/internal/infrastructure/logger"
)

const commandTimeout = 30 * time.Second

func main() {
	var (
		logLevel string
		migrate  bool
	)
	flag.StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	flag.BoolVar(&migrate, "migrate", false, "Apply migrations before using the postgres backend")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stderr",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	factory := infracredential.NewStoreFactory(cfg,
		infracredential.WithLogger(log),
		infracredential.WithAutoMigrate(migrate),
	)
	store, closeStore, err := factory.Create(ctx)
	if err != nil {
		log.Fatal("Failed to open credential store",
			zap.String("backend", cfg.Credentials.Backend),
			zap.Error(err),
		)
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Error("Error closing credential store", zap.Error(err))
		}
	}()

	if err := run(ctx, store, args); err != nil {
		log.Error("Command failed", zap.String("command", args[0]), zap.Error(err))
		_ = closeStore()
		os.Exit(1)
	}
}

func run(ctx context.Context, store credential.Store, args []string) error {
	command, rest := args[0], args[1:]

	switch command {
	case "set":
		fs := flag.NewFlagSet("set", flag.ContinueOnError)
		data := credential.AuthData{}
		fs.StringVar(&data.SaleorAPIURL, "url", "", "Saleor API URL, e.g. https://shop.saleor.cloud/graphql/")
		fs.StringVar(&data.Token, "token", "", "App token")
		fs.StringVar(&data.AppID, "app-id", "", "App ID")
		fs.StringVar(&data.Domain, "domain", "", "Saleor domain")
		fs.StringVar(&data.JWKS, "jwks", "", "JWKS of the Saleor instance")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if err := data.Validate(); err != nil {
			return err
		}
		if err := store.Set(ctx, &data); err != nil {
			return err
		}
		fmt.Printf("Stored credentials for %s\n", data.SaleorAPIURL)

	case "get":
		url, err := urlArg(command, rest)
		if err != nil {
			return err
		}
		data, err := store.Get(ctx, url)
		if err != nil {
			return err
		}
		printAuthData(*data)

	case "delete":
		url, err := urlArg(command, rest)
		if err != nil {
			return err
		}
		if err := store.Delete(ctx, url); err != nil {
			return err
		}
		fmt.Printf("Deactivated %s\n", url)

	case "activate":
		url, err := urlArg(command, rest)
		if err != nil {
			return err
		}
		if err := store.Activate(ctx, url); err != nil {
			return err
		}
		fmt.Printf("Activated %s\n", url)

	case "list":
		all, err := store.GetAll(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%d active installation(s)\n", len(all))
		for _, data := range all {
			printAuthData(data)
		}

	case "ready":
		if err := store.IsReady(ctx); err != nil {
			return err
		}
		fmt.Println("Credential store is ready")

	default:
		printUsage()
		return fmt.Errorf("unknown command %q", command)
	}
	return nil
}

func urlArg(command string, args []string) (string, error) {
	if len(args) < 1 || args[0] == "" {
		return "", fmt.Errorf("saleor API URL required. Usage: apl %s <url>", command)
	}
	return args[0], nil
}

// printAuthData never prints the token itself.
func printAuthData(data credential.AuthData) {
	token := "missing"
	if data.Token != "" {
		token = "present"
	}
	fmt.Printf("  - %s (app %s, token %s)\n", data.SaleorAPIURL, data.AppID, token)
}

func printUsage() {
	fmt.Println(`Kits & Bundles credential tool

Usage:
  apl [flags] <command> [arguments]

Commands:
  set -url <url> -token <token> [-app-id <id>] [-domain <d>] [-jwks <jwks>]
                        Store and activate the credentials of an installation
  get <url>             Show the active credentials of an installation
  delete <url>          Deactivate an installation
  activate <url>        Re-activate a deactivated installation
  list                  List active installations
  ready                 Check that the credential store is reachable

Flags:
  -log-level string     Log level: debug, info, warn, error (default: warn)
  -migrate              Apply migrations before using the postgres backend

The store is selected by KB_CREDENTIALS_BACKEND (or APL): file, postgres, redis.`)
}
