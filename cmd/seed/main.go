package main

import (
	"context"
	"log"
	"os"
	"time"

	"ai-toolkit-be/internal/config"
	"ai-toolkit-be/internal/entity"
	"ai-toolkit-be/internal/pkg/logger"
	"ai-toolkit-be/internal/repository/specification"
	"ai-toolkit-be/internal/repository/unitofwork"
	"ai-toolkit-be/pkg/database"
	"ai-toolkit-be/pkg/energy/engine"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

// Seeds the credit packages and a protected owner account so a fresh
// environment is usable immediately after migration.
func main() {
	cfg := config.Load()

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx := context.Background()
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, false)
	ledgerEngine := engine.New(uowFactory, sysLogger)

	color.Cyan("Seeding energy ledger reference data\n")

	seedPackages(ctx, uowFactory)
	seedOwner(ctx, uowFactory, ledgerEngine, cfg)

	color.Cyan("\nDone.")
}

func seedPackages(ctx context.Context, uowFactory unitofwork.RepositoryFactory) {
	color.Yellow("\n[1] Credit Packages")

	packages := []*entity.CreditPackage{
		{Name: "Starter Pack", Slug: "starter", Credits: 50, BonusCredits: 0, Price: 15000},
		{Name: "Builder Pack", Slug: "builder", Credits: 200, BonusCredits: 20, Price: 50000},
		{Name: "Studio Pack", Slug: "studio", Credits: 500, BonusCredits: 75, Price: 100000},
	}

	uow := uowFactory.NewUnitOfWork(ctx)
	for _, pkg := range packages {
		existing, err := uow.CreditPackageRepository().FindOne(ctx, specification.Filter("slug", pkg.Slug))
		if err != nil {
			color.Red("Failed checking package %s: %v", pkg.Slug, err)
			continue
		}
		if existing != nil {
			color.Green("Package %s already present, skipping", pkg.Slug)
			continue
		}

		now := time.Now()
		pkg.Id = uuid.New()
		pkg.Active = true
		pkg.CreatedAt = now
		pkg.UpdatedAt = now
		if err := uow.CreditPackageRepository().Create(ctx, pkg); err != nil {
			color.Red("Failed seeding package %s: %v", pkg.Slug, err)
			continue
		}
		color.Green("Seeded package %s (%d+%d credits)", pkg.Slug, pkg.Credits, pkg.BonusCredits)
	}
}

func seedOwner(ctx context.Context, uowFactory unitofwork.RepositoryFactory, ledgerEngine *engine.Engine, cfg *config.Config) {
	color.Yellow("\n[2] Owner Account")

	if len(cfg.Energy.ProtectedAdminEmails) == 0 {
		color.Red("No protected admin email configured, skipping owner seed")
		return
	}
	email := cfg.Energy.ProtectedAdminEmails[0]

	uow := uowFactory.NewUnitOfWork(ctx)
	existing, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: email})
	if err != nil {
		color.Red("Failed checking owner account: %v", err)
		os.Exit(1)
	}
	if existing != nil {
		color.Green("Owner %s already present, skipping", email)
		return
	}

	now := time.Now()
	owner := &entity.User{
		Id:        uuid.New(),
		Email:     email,
		FullName:  "Workspace Owner",
		Role:      entity.UserRoleAdmin,
		Status:    entity.UserStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uow.UserRepository().Create(ctx, owner); err != nil {
		color.Red("Failed seeding owner: %v", err)
		os.Exit(1)
	}

	if _, err := ledgerEngine.Provision(ctx, owner.Id, cfg.Energy.StartingAllotment); err != nil {
		color.Red("Failed provisioning owner energy: %v", err)
		os.Exit(1)
	}

	color.Green("Seeded owner %s with %d energy", email, cfg.Energy.StartingAllotment)
}
