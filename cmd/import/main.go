package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/xqian/apparel-crm-backend/config"
	"github.com/xqian/apparel-crm-backend/internal/app/repository"
	"github.com/xqian/apparel-crm-backend/internal/app/service"
	"github.com/xqian/apparel-crm-backend/internal/db"
	"github.com/xqian/apparel-crm-backend/pkg/logger"
)

func main() {
	// 命令行参数检查
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run cmd/import/main.go <xlsx_file_path>")
	}

	filePath := os.Args[1]

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.Initialize(logger.Config{
		Level:       "info",
		Format:      "console",
		EnableColor: true,
	})

	// 连接数据库
	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	memberRepo := repository.NewMemberRepository(db.GetDB())
	orderRepo := repository.NewOrderRepository(db.GetDB())
	statsService := service.NewStatsService(memberRepo, orderRepo)
	importService := service.NewImportService(memberRepo, orderRepo, statsService, nil)

	file, err := os.Open(filePath)
	if err != nil {
		log.Fatal("Failed to open file:", err)
	}
	defer file.Close()

	fmt.Printf("Importing bill file: %s\n", filePath)

	// 用户确认
	fmt.Print("Do you want to proceed with the import? (yes/no): ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" && confirm != "y" {
		fmt.Println("Import cancelled.")
		return
	}

	// 逐条进度打印到终端
	sink := func(event service.ImportEvent) {
		fmt.Printf("[%s] %s\n", event.Type, event.Message)
	}

	summary, err := importService.ImportWorkbook(file, filepath.Base(filePath), sink)
	if err != nil {
		log.Fatal("Import failed:", err)
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("Rows processed:    %d\n", summary.TotalProcessed)
	fmt.Printf("New members:       %d\n", summary.NewMembers)
	fmt.Printf("Existing members:  %d\n", summary.DuplicateMembers)
	fmt.Printf("New orders:        %d\n", summary.NewOrders)
	fmt.Printf("Duplicate orders:  %d\n", summary.DuplicateOrders)
	fmt.Printf("Skipped rows:      %d\n", summary.SkippedRows)
	fmt.Printf("Failed rows:       %d\n", summary.FailedRows)
}
