// Command keygen issues API keys for the travel gateway.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"github.com/tjfontaine/travel-gateway/internal/auth"
	"github.com/tjfontaine/travel-gateway/internal/core/domain"
	"github.com/tjfontaine/travel-gateway/internal/storage/sqldb"
)

// keyPrefix starts every generated credential.
const keyPrefix = "tg_live_"

func main() {
	cmd := &cli.Command{
		Name:  "keygen",
		Usage: "issue and hash travel gateway API keys",
		Commands: []*cli.Command{
			{
				Name:  "new",
				Usage: "generate a key and optionally store it",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "tenant", Usage: "owning tenant ID", Required: true},
					&cli.StringFlag{Name: "name", Usage: "human readable key name"},
					&cli.StringFlag{Name: "market", Usage: "ISO country code of the key's market"},
					&cli.Int64Flag{Name: "quota-minute", Usage: "requests per minute, 0 = unlimited", Value: 60},
					&cli.Int64Flag{Name: "quota-hour", Usage: "requests per hour, 0 = unlimited", Value: 1000},
					&cli.Int64Flag{Name: "quota-day", Usage: "requests per day, 0 = unlimited", Value: 10000},
					&cli.StringFlag{Name: "db", Usage: "SQLite database to insert the key into"},
				},
				Action: newKey,
			},
			{
				Name:      "hash",
				Usage:     "print the stored hash of an existing key",
				ArgsUsage: "<api-key>",
				Action:    hashKey,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "keygen:", err)
		os.Exit(1)
	}
}

func newKey(ctx context.Context, cmd *cli.Command) error {
	raw, err := generate()
	if err != nil {
		return err
	}

	key := &domain.APIKey{
		ID:             uuid.New().String(),
		TenantID:       cmd.String("tenant"),
		Prefix:         raw[:domain.KeyPrefixLength],
		KeyHash:        auth.HashAPIKey(raw),
		Name:           cmd.String("name"),
		Market:         strings.ToUpper(cmd.String("market")),
		QuotaPerMinute: cmd.Int64("quota-minute"),
		QuotaPerHour:   cmd.Int64("quota-hour"),
		QuotaPerDay:    cmd.Int64("quota-day"),
		Status:         domain.KeyStatusActive,
		CreatedAt:      time.Now().UTC(),
	}

	fmt.Printf("API Key: %s\n", raw)
	fmt.Printf("Prefix: %s\n", key.Prefix)
	fmt.Printf("SHA-256 Hash: %s\n", key.KeyHash)

	path := cmd.String("db")
	if path == "" {
		return nil
	}

	store, err := sqldb.NewSQLite(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer store.Close()

	if err := store.CreateKey(ctx, key); err != nil {
		return fmt.Errorf("store key: %w", err)
	}
	fmt.Printf("\nStored key %s for tenant %s in %s\n", key.ID, key.TenantID, path)
	return nil
}

func hashKey(_ context.Context, cmd *cli.Command) error {
	raw := cmd.Args().First()
	if raw == "" {
		return errors.New("usage: keygen hash <api-key>")
	}
	prefix, ok := auth.Prefix(raw)
	if !ok {
		return fmt.Errorf("key must be at least %d characters", domain.KeyPrefixLength)
	}
	fmt.Printf("Prefix: %s\n", prefix)
	fmt.Printf("SHA-256 Hash: %s\n", auth.HashAPIKey(raw))
	return nil
}

// generate returns a new credential with 24 random bytes of entropy.
func generate() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return keyPrefix + hex.EncodeToString(buf), nil
}
