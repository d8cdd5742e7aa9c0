package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	_ "github.com/lib/pq"

	"kaching-analytics/internal/infrastructure/config"
	"kaching-analytics/internal/infrastructure/logging"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to config file")
	migrationsPath := flag.String("dir", "db/migrations", "path to migrations directory")
	flag.Parse()

	cfg, err := config.LoadFromFile(*cfgPath)
	logger := logging.Setup(cfg.Log)
	if err != nil {
		logger.Fatal().Err(err).Msg("讀取組態失敗")
	}
	if cfg.DB.DSN == "" {
		logger.Fatal().Msg("config.db.dsn 未設定，無法執行 migration")
	}

	files, err := migrationFiles(*migrationsPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("讀取 migrations 失敗")
	}

	db, err := sql.Open("postgres", cfg.DB.DSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("連線資料庫失敗")
	}
	defer db.Close()

	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			logger.Fatal().Err(err).Str("file", f).Msg("讀取 migration 檔案失敗")
		}
		logger.Info().Str("file", filepath.Base(f)).Msg("執行 migration")
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			logger.Fatal().Err(err).Str("file", filepath.Base(f)).Msg("執行 migration 失敗")
		}
	}

	fmt.Println("Migration 完成")
}

// migrationFiles 依檔名排序回傳目錄下的 .sql 檔。
func migrationFiles(dir string) ([]string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("解析 migrations 路徑: %w", err)
	}
	if _, err := os.Stat(absDir); err != nil {
		return nil, fmt.Errorf("migrations 目錄不存在: %w", err)
	}
	files, err := filepath.Glob(filepath.Join(absDir, "*.sql"))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("找不到任何 .sql migration 檔案")
	}
	sort.Strings(files)
	return files, nil
}
