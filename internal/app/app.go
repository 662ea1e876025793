// Package app はアプリケーションの初期化と起動を提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/authgate/internal/auth"
	"github.com/hitoshi/authgate/internal/config"
	"github.com/hitoshi/authgate/internal/database"
	"github.com/hitoshi/authgate/internal/handler"
	"github.com/hitoshi/authgate/internal/logger"
	"github.com/hitoshi/authgate/internal/metrics"
	"github.com/hitoshi/authgate/internal/repository"
	"github.com/hitoshi/authgate/internal/security"
)

// Init はアプリケーションの初期化を行う。
// .envファイルがあれば読み込み、環境変数からConfigを構築し、
// JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. .envファイルの読み込み（存在しない場合は無視）
	_ = godotenv.Load()

	// 2. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo)

	// 3. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 4. 設定されたログレベルで再セットアップ
	logger.SetupDefault(w, logger.ParseLevel(cfg.LogLevel))

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	return runServe(cfg)
}

// runServe はAPIサーバーモードで起動する。
// DB接続とスキーマ適用はベストエフォートで行い、失敗してもサーバーは起動する
// （診断エンドポイントが接続状態を報告し、認証リクエストはエラーを返す）。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to open database", slog.String("error", err.Error()))
		db = nil
	} else {
		defer db.Close()

		ctx := context.Background()
		if err := database.Ping(ctx, db, 5*time.Second); err != nil {
			slog.Warn("database not reachable at startup",
				slog.String("error", err.Error()),
			)
		} else if err := database.EnsureSchema(ctx, db); err != nil {
			slog.Warn("failed to ensure schema", slog.String("error", err.Error()))
		} else {
			slog.Info("database connection established")
		}
	}

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)

	// 3. セキュリティサービスの初期化
	guard := security.NewProfileGuard()
	sanitizer := security.NewProfileSanitizer()

	// 4. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 5. credential検証器の初期化
	// Googleのディスカバリドキュメント取得に失敗した場合は起動エラーとする
	verifierCtx, cancelVerifier := context.WithTimeout(context.Background(), cfg.VerifyTimeout)
	defer cancelVerifier()
	verifier, err := auth.NewGoogleVerifier(verifierCtx, auth.GoogleVerifierConfig{
		ClientID:   cfg.GoogleClientID,
		HTTPClient: guard.NewSafeClient(cfg.VerifyTimeout),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize credential verifier: %w", err)
	}

	// 6. トークン発行とドメインサービスの初期化
	tokens := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		Secret:    cfg.JWTSecret,
		ExpiresIn: cfg.JWTExpiresIn(),
	})
	authService := auth.NewService(
		verifier, userRepo, tokens, sanitizer, guard, collector,
		auth.ServiceConfig{},
	)

	// 7. ルーターの構築
	router := handler.NewRouter(&handler.RouterDeps{
		AuthService:       authService,
		TokenParser:       tokens,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		Logger:            slog.Default(),
		Collector:         collector,
		Gatherer:          registry,
		DB:                db,
	})

	// 8. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// ルートエンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}
