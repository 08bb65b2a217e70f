package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dans91364-create/NECROZMAv2/internal/api"
	"github.com/dans91364-create/NECROZMAv2/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `캐시된 라벨을 조회하는 REST API 서버를 시작합니다.

Endpoints:
  GET  /health                              - Health check
  POST /api/labels?symbol=XAUUSD            - CSV 업로드 후 스윕 실행
  GET  /api/labels/latest                   - 가장 최근 결과
  GET  /api/labels/{fingerprint}            - fingerprint로 조회
  GET  /api/labels/{fingerprint}/stats      - DB에 저장된 통계
  GET  /api/labels/{fingerprint}/{config}   - 설정별 라벨 행 (offset, limit)

Example:
  go run ./cmd/necrozma api
  go run ./cmd/necrozma api --port 8080`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== NECROZMA API Server ===")

	a, err := bootstrap(context.Background(), bootstrapOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	labelHandler := handlers.NewLabelHandler(a.service, a.options(), a.log)
	checks := map[string]api.Pinger{}
	if a.stats != nil {
		labelHandler.WithStatsRepository(a.stats)
		checks["database"] = a.db
	}
	if a.redis != nil {
		checks["redis"] = a.redis
	}

	router := api.NewRouter(labelHandler, checks, a.log)
	server := api.New(a.cfg, a.log, router)

	go func() {
		if err := server.Start(); err != nil {
			a.log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}
