package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/frontier/internal/store"
	"github.com/wonny/frontier/pkg/config"
	"github.com/wonny/frontier/pkg/database"
)

// testDBCmd represents the test-db command
var testDBCmd = &cobra.Command{
	Use:   "test-db",
	Short: "Test the PostgreSQL connection",
	Long: `Connects with DATABASE_URL, pings, runs a health check, shows the
pool statistics and optionally creates the frontier schema.

Example:
  go run ./cmd/frontier test-db
  go run ./cmd/frontier test-db --migrate`,
	RunE: runTestDB,
}

var testDBMigrate bool

func init() {
	rootCmd.AddCommand(testDBCmd)

	testDBCmd.Flags().BoolVar(&testDBMigrate, "migrate", false, "create the frontier schema and tables")
}

func runTestDB(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Frontier Database Connection Test ===")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("❌ Failed to load config: %w", err)
	}
	fmt.Printf("✅ Config loaded (ENV: %s)\n", cfg.Env)
	fmt.Printf("   Database URL: %s\n\n", maskPassword(cfg.Database.URL))

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	db, err := database.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("❌ Failed to connect to database: %w", err)
	}
	defer db.Close()
	PrintSuccess("Database connection established")

	status, err := db.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("❌ Health check failed: %w", err)
	}
	PrintSuccess("Health Check Results:")
	PrintKeyValue("Healthy", fmt.Sprintf("%v", status.Healthy), 20)
	PrintKeyValue("Response Time", status.ResponseTime.String(), 20)
	fmt.Println()

	fmt.Println("📊 Connection Pool Statistics:")
	PrintKeyValue("Max Connections", FormatCount(int(status.Stats.MaxConns)), 20)
	PrintKeyValue("Total Connections", FormatCount(int(status.Stats.TotalConns)), 20)
	PrintKeyValue("Idle Connections", FormatCount(int(status.Stats.IdleConns)), 20)
	PrintKeyValue("Acquire Count", FormatCount(int(status.Stats.AcquireCount)), 20)

	if testDBMigrate {
		if err := store.EnsureSchema(ctx, db.Pool); err != nil {
			return fmt.Errorf("❌ Schema creation failed: %w", err)
		}
		PrintSuccess("Schema frontier is up to date")
	}

	fmt.Println()
	PrintSuccess("All tests passed!")
	return nil
}

// maskPassword hides the password of a postgres URL
func maskPassword(url string) string {
	scheme, rest, ok := strings.Cut(url, "://")
	if !ok {
		return url
	}
	userinfo, host, ok := strings.Cut(rest, "@")
	if !ok {
		return url
	}
	user, _, hasPass := strings.Cut(userinfo, ":")
	if !hasPass {
		return url
	}
	return scheme + "://" + user + ":***@" + host
}
