// cmd/seed/main.go
//
// 原典テキストをセグメント化してカリキュラムカタログを構築し、DBへ投入する
// コマンド。冪等で、すでに投入済みの著作はスキップする。
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"go_stoic_journal/internal/catalog"
	"go_stoic_journal/internal/config"
	"go_stoic_journal/internal/model"
	"go_stoic_journal/internal/repository"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if err := config.LoadConfig("configs"); err != nil {
		logger.Error("Error loading configuration", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := repository.NewDB(config.Cfg.Database.URL, config.Cfg.App.Env, logger)
	if err != nil {
		logger.Error("Error initializing database", slog.Any("error", err))
		os.Exit(1)
	}

	if err := db.AutoMigrate(
		&model.Phase{},
		&model.Text{},
		&model.Passage{},
		&model.StudyGuide{},
		&model.ProgressRecord{},
		&model.JournalRecord{},
		&model.DiscussionThread{},
		&model.CurriculumSettings{},
	); err != nil {
		logger.Error("Error migrating schema", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Schema migrated")

	cat, err := catalog.Build(
		catalog.DefaultPhases(),
		catalog.DefaultSources(
			config.Cfg.Curriculum.EnchiridionPath,
			config.Cfg.Curriculum.MeditationsPath,
			config.Cfg.Curriculum.SenecaDir,
		),
		logger,
	)
	if err != nil {
		logger.Error("Error building catalog", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Catalog built",
		slog.Int("phases", len(cat.Phases)),
		slog.Int("texts", len(cat.Texts)),
		slog.Int("passages", len(cat.Passages)),
	)

	ctx := context.Background()
	catalogRepo := repository.NewGormCatalogRepository()

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range cat.Phases {
			if _, err := catalogRepo.FindPhaseByID(ctx, tx, cat.Phases[i].ID); err == nil {
				continue
			}
			if err := catalogRepo.CreatePhase(ctx, tx, &cat.Phases[i]); err != nil {
				return err
			}
			logger.Info("Seeded phase", slog.String("phase_id", cat.Phases[i].ID))
		}

		for i := range cat.Texts {
			text := &cat.Texts[i]
			exists, err := catalogRepo.TextExists(ctx, tx, text.ID)
			if err != nil {
				return err
			}
			if exists {
				logger.Info("Text already seeded, skipping", slog.String("text_id", text.ID))
				continue
			}

			if err := catalogRepo.CreateText(ctx, tx, text); err != nil {
				return err
			}
			var passages []model.Passage
			for _, p := range cat.Passages {
				if p.TextID == text.ID {
					passages = append(passages, p)
				}
			}
			if err := catalogRepo.CreatePassages(ctx, tx, passages); err != nil {
				return err
			}
			logger.Info("Seeded text",
				slog.String("text_id", text.ID),
				slog.String("title", text.Title),
				slog.Int("passages", len(passages)),
			)
		}
		return nil
	})
	if err != nil {
		logger.Error("Error seeding catalog", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("Seed completed")
}
