package main

import (
	"context"
	"log"

	"ai-thumbnail-be/internal/config"
	"ai-thumbnail-be/internal/model"
	"ai-thumbnail-be/internal/repository/unitofwork"
	"ai-thumbnail-be/internal/service"
	"ai-thumbnail-be/pkg/database"

	"github.com/fatih/color"
)

func main() {
	// 1. Load Environment Variables
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, false, database.DefaultPool())
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	color.Cyan("Starting GORM Migration...")

	// 3. Extensions GORM AutoMigrate does not create
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		color.Yellow("Warn: Failed to create uuid-ossp extension: %v. Continuing...", err)
	}

	// 4. AutoMigrate All Models
	models := model.All()
	color.Yellow("Step 1: Running AutoMigrate for %d tables...", len(models))
	if err := db.AutoMigrate(models...); err != nil {
		color.Red("AutoMigrate failed: %v", err)
		log.Fatal(err)
	}

	// Superseded by the unique idx_credit_tx_once
	if db.Migrator().HasIndex(&model.CreditTransaction{}, "idx_credit_tx_kind_ref") {
		if err := db.Migrator().DropIndex(&model.CreditTransaction{}, "idx_credit_tx_kind_ref"); err != nil {
			color.Red("Failed to drop idx_credit_tx_kind_ref: %v", err)
			log.Fatal(err)
		}
	}

	// 5. Seed catalog
	ctx := context.Background()
	uow := unitofwork.NewRepositoryFactory(db).NewUnitOfWork(ctx)

	color.Yellow("Step 2: Seeding algorithms...")
	for _, algorithm := range service.DefaultAlgorithms() {
		if err := uow.AlgorithmRepository().Upsert(ctx, algorithm); err != nil {
			color.Red("Failed to seed algorithm %s: %v", algorithm.Id, err)
			log.Fatal(err)
		}
		color.Green("  ✓ %s (%d credits)", algorithm.DisplayName, algorithm.CostCredits)
	}

	color.Yellow("Step 3: Seeding templates...")
	count, err := uow.TemplateRepository().Count(ctx)
	if err != nil {
		log.Fatal(err)
	}
	if count > 0 {
		color.Green("  %d templates already present, skipping", count)
	} else {
		for _, template := range service.DefaultTemplates() {
			if err := uow.TemplateRepository().Create(ctx, template); err != nil {
				color.Red("Failed to seed template %s: %v", template.Name, err)
				log.Fatal(err)
			}
			color.Green("  ✓ %s [%s/%s]", template.Name, template.Category, template.Style)
		}
	}

	color.Cyan("Migration completed")
}
