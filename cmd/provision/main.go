// Command provision creates a tenant schema, registers the tenant and binds
// its owner account.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pos-service/internal/model"
	"pos-service/internal/repository"
	"pos-service/internal/service"
	"pos-service/pkg/cache"
	"pos-service/pkg/config"
	"pos-service/pkg/database"
	"pos-service/pkg/logger"
	"pos-service/pkg/tenancy"
)

func main() {
	if err := newCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	var in service.ProvisionInput

	cmd := &cobra.Command{
		Use:   "provision --schema <name> --owner <email>",
		Short: "Create a tenant schema and bind its owner",
		Long: `Creates the postgres schema, migrates every tenant table into it,
registers the tenant in the shared directory and binds the owner account
with the owner role. Running it again for the same schema is safe.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), in)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&in.Schema, "schema", "", "postgres schema holding the tenant's data")
	flags.StringVar(&in.Name, "name", "", "display name of the tenant")
	flags.StringVar(&in.Subdomain, "subdomain", "", "subdomain the tenant is served under (defaults to the schema)")
	flags.StringVar(&in.OwnerEmail, "owner", "", "owner email")
	flags.StringVar(&in.OwnerPassword, "password", "", "owner password, required when the account does not exist yet")
	flags.StringVar(&in.OwnerName, "owner-name", "", "owner display name")
	_ = cmd.MarkFlagRequired("schema")
	_ = cmd.MarkFlagRequired("owner")

	return cmd
}

func run(ctx context.Context, in service.ProvisionInput) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := logger.InitLogger(cfg); err != nil {
		return err
	}
	log := logger.GetLogger()
	defer log.Sync()

	db, err := database.InitDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := database.MigrateShared(db, model.SharedModels()...); err != nil {
		return err
	}

	reg := tenancy.NewRegistry(db)
	model.RegisterTenantModels(reg)

	repos := repository.NewGormSet(db, reg)
	p := service.NewProvisioner(repos, func(ctx context.Context, schema string) error {
		return database.ProvisionSchema(ctx, db, reg, schema)
	}, log)

	// a running server may have cached the key as unknown
	if cfg.Redis.URL != "" {
		store, err := cache.NewRedisStore(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer store.Close()
		p.UseDirectory(service.NewTenantDirectory(repos.Tenants, store, cfg.Redis.TenantCacheTTL, cfg.Redis.TenantNegativeTTL, log))
	}

	tenant, owner, err := p.Provision(ctx, in)
	if err != nil {
		return err
	}

	log.Info("Tenant provisioned",
		zap.Uint("tenant_id", tenant.ID),
		zap.String("schema", tenant.Schema),
		zap.String("subdomain", tenant.Subdomain),
		zap.String("owner", owner.Email))
	return nil
}
