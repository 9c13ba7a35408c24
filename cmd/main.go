package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"Place-App/internal/application"
	"Place-App/internal/database"
	"Place-App/internal/domain/model"
	domainrepo "Place-App/internal/domain/repository"
	"Place-App/internal/handler"
	infradb "Place-App/internal/infrastructure/database"
	"Place-App/internal/infrastructure/firestore"
	repoimpl "Place-App/internal/repository"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found, using system environment variables")
	}

	ctx := context.Background()

	// ストレージバックエンドは起動時に1回だけ選択する
	blocksRepo, cleanup, err := buildBlocksRepository(ctx)
	if err != nil {
		log.Fatalf("ストレージの初期化失敗: %v", err)
	}
	defer cleanup()

	maxBlocks := envInt("API_BLOCKS_IN_RANGE_MAXIMUM", model.BlocksInRangeMaximumDefault)
	allowedColors := envColors("API_ALLOWED_COLORS", model.DefaultAllowedColors)

	blocksService := application.NewBlocksService(blocksRepo, maxBlocks)
	blocksHandler := handler.NewBlocksHandler(blocksService, allowedColors)

	r := gin.Default()
	r.Use(requestID())

	r.GET("/", homeHandler)
	r.GET("/api/health", healthHandler)

	block := r.Group("/block")
	{
		block.GET("/get", blocksHandler.GetBlock)
		block.GET("/range", blocksHandler.GetBlocksInRange)
		block.POST("/place", blocksHandler.PlaceBlock)
		block.GET("/palette", blocksHandler.GetPalette)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	fmt.Printf("Place-App server starting on :%s...\n", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("サーバーの起動失敗: %v", err)
	}
}

// buildBlocksRepository PLACE_STORAGE_BACKEND に応じたリポジトリを構築する
// firestore（デフォルト）・postgres・supabase
func buildBlocksRepository(ctx context.Context) (domainrepo.BlocksRepository, func(), error) {
	backend := os.Getenv("PLACE_STORAGE_BACKEND")
	if backend == "" {
		backend = "firestore"
	}

	switch backend {
	case "firestore":
		projectID := os.Getenv("FIRESTORE_PROJECT_ID")
		if projectID == "" {
			return nil, nil, fmt.Errorf("FIRESTORE_PROJECT_ID環境変数が設定されていません")
		}

		fmt.Println("Initializing Firestore client...")
		fsClient, err := firestore.NewFirestoreClient(ctx, projectID)
		if err != nil {
			return nil, nil, fmt.Errorf("Firestoreクライアント初期化失敗: %w", err)
		}
		if err := fsClient.HealthCheck(ctx); err != nil {
			fsClient.Close()
			return nil, nil, err
		}
		fmt.Println("✅ Firestore connection successful!")

		return repoimpl.NewFirestoreBlocksRepository(fsClient.GetClient()), func() { fsClient.Close() }, nil

	case "postgres":
		fmt.Println("Initializing PostgreSQL client...")
		pgClient, err := infradb.NewPostgreSQLClient()
		if err != nil {
			return nil, nil, fmt.Errorf("PostgreSQLクライアント初期化失敗: %w", err)
		}

		blocksRepo := repoimpl.NewPostgresBlocksRepository(pgClient)
		if err := blocksRepo.EnsureSchema(ctx); err != nil {
			pgClient.Close()
			return nil, nil, err
		}
		fmt.Println("✅ PostgreSQL connection successful!")

		return blocksRepo, func() { pgClient.Close() }, nil

	case "supabase":
		fmt.Println("Initializing Supabase client...")
		sbClient, err := database.NewSupabaseClient()
		if err != nil {
			return nil, nil, fmt.Errorf("Supabaseクライアント初期化失敗: %w", err)
		}
		if err := sbClient.HealthCheck(); err != nil {
			return nil, nil, fmt.Errorf("Supabaseヘルスチェック失敗: %w", err)
		}
		fmt.Println("✅ Supabase connection successful!")

		return repoimpl.NewSupabaseBlocksRepository(sbClient), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("未対応のストレージバックエンド: %s", backend)
	}
}

// requestID 各リクエストにX-Request-IDを付与するミドルウェア
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if rid == "" {
			rid = uuid.New().String()
		}
		c.Writer.Header().Set("X-Request-ID", rid)
		c.Next()
	}
}

func homeHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Hello World"})
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "Place-App"})
}

// envInt 整数の環境変数を読む。未設定・不正時はデフォルト値
func envInt(name string, defaultValue int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("⚠️ %s の値が不正なためデフォルト値 %d を使用します: %v", name, defaultValue, err)
		return defaultValue
	}
	return value
}

// envColors カンマ区切りのカラーパレット環境変数を読む
func envColors(name string, defaultValue []string) []string {
	raw := os.Getenv(name)
	if raw == "" {
		return defaultValue
	}

	var colors []string
	for _, c := range strings.Split(strings.ReplaceAll(raw, " ", ""), ",") {
		if c != "" {
			colors = append(colors, c)
		}
	}
	if len(colors) == 0 {
		return defaultValue
	}
	return colors
}
