package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dans91364-create/NECROZMAv2/internal/labelstats"
	"github.com/dans91364-create/NECROZMAv2/pkg/config"
	"github.com/dans91364-create/NECROZMAv2/pkg/database"
)

// testDBCmd represents the test-db command
var testDBCmd = &cobra.Command{
	Use:   "test-db",
	Short: "PostgreSQL 연결 테스트",
	Long: `데이터베이스 연결을 테스트하고 labels 스키마를 생성합니다.

Example:
  go run ./cmd/necrozma test-db`,
	RunE: runTestDB,
}

func init() {
	rootCmd.AddCommand(testDBCmd)
}

func runTestDB(cmd *cobra.Command, args []string) error {
	fmt.Println("=== NECROZMA Database Connection Test ===")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("❌ Failed to load config: %w", err)
	}
	fmt.Printf("✅ Config loaded (ENV: %s)\n", cfg.Env)
	fmt.Printf("   Database URL: %s\n\n", maskPassword(cfg.Database.URL))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("❌ Failed to connect to database: %w", err)
	}
	defer db.Close()
	fmt.Println("✅ Database connection established")

	status, err := db.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("❌ Health check failed: %w", err)
	}
	fmt.Printf("   Response Time: %v\n", status.ResponseTime)
	fmt.Printf("   Connections: %d/%d (idle %d)\n", status.Stats.TotalConns, status.Stats.MaxConns, status.Stats.IdleConns)

	if err := labelstats.NewRepository(db.Pool).EnsureSchema(ctx); err != nil {
		return fmt.Errorf("❌ %w", err)
	}
	fmt.Println("✅ labels schema ready")

	fmt.Println("\n✅ All tests passed!")
	return nil
}
