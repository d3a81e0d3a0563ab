package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"pos-service/internal/apperror"
	"pos-service/internal/model"
	"pos-service/internal/policy"
	"pos-service/internal/repository"
	"pos-service/pkg/tenancy"
)

// SchemaProvisioner creates a tenant schema and its tables
type SchemaProvisioner func(ctx context.Context, schema string) error

// ProvisionInput describes a new tenant and its owner
type ProvisionInput struct {
	Schema        string
	Name          string
	Subdomain     string
	OwnerEmail    string
	OwnerPassword string
	OwnerName     string
}

// Provisioner registers tenants in the shared directory
type Provisioner struct {
	tenants   repository.TenantRepository
	users     repository.UserRepository
	schemas   SchemaProvisioner
	directory *TenantDirectory
	logger    *zap.Logger
}

func NewProvisioner(repos *repository.Set, schemas SchemaProvisioner, logger *zap.Logger) *Provisioner {
	return &Provisioner{
		tenants: repos.Tenants,
		users:   repos.Users,
		schemas: schemas,
		logger:  logger,
	}
}

// UseDirectory makes Provision evict the tenant's cached lookups, so a key
// that was cached as unknown resolves once the tenant exists.
func (p *Provisioner) UseDirectory(d *TenantDirectory) {
	p.directory = d
}

// Provision creates the schema, the tenant row and binds the owner. An
// existing owner account is reused; its password is left untouched.
func (p *Provisioner) Provision(ctx context.Context, in ProvisionInput) (*model.Tenant, *model.User, error) {
	schema := strings.ToLower(strings.TrimSpace(in.Schema))
	if !tenancy.ValidSchemaName(schema) {
		return nil, nil, apperror.InvalidRequest("invalid schema name "+in.Schema, "schema")
	}
	subdomain := strings.ToLower(strings.TrimSpace(in.Subdomain))
	if subdomain == "" {
		subdomain = schema
	}
	email := strings.ToLower(strings.TrimSpace(in.OwnerEmail))
	if email == "" {
		return nil, nil, apperror.MissingFields("owner")
	}

	if err := p.schemas(ctx, schema); err != nil {
		return nil, nil, err
	}
	p.logger.Info("Schema ready", zap.String("schema", schema))

	tenant, err := p.tenants.FindByKey(ctx, schema)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		tenant = &model.Tenant{
			Name:      strings.TrimSpace(in.Name),
			Schema:    schema,
			Subdomain: subdomain,
			Active:    true,
		}
		if tenant.Name == "" {
			tenant.Name = schema
		}
		err = p.tenants.Create(ctx, tenant)
	}
	if err != nil {
		return nil, nil, err
	}

	owner, err := p.users.FindByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if in.OwnerPassword == "" {
			return nil, nil, apperror.MissingFields("password")
		}
		hash, herr := bcrypt.GenerateFromPassword([]byte(in.OwnerPassword), bcrypt.DefaultCost)
		if herr != nil {
			return nil, nil, herr
		}
		owner = &model.User{Email: email, Password: string(hash), Name: strings.TrimSpace(in.OwnerName)}
		err = p.users.Create(ctx, owner)
	}
	if err != nil {
		return nil, nil, err
	}

	memberships, err := p.users.Memberships(ctx, owner.ID)
	if err != nil {
		return nil, nil, err
	}
	isDefault := len(memberships) == 0
	for _, m := range memberships {
		if m.Tenant.ID == tenant.ID {
			isDefault = m.IsDefault
		}
	}
	if err := p.users.Bind(ctx, owner.ID, tenant.ID, policy.RoleOwner, isDefault); err != nil {
		return nil, nil, err
	}
	if p.directory != nil {
		p.directory.Forget(ctx, tenant)
	}

	p.logger.Info("Tenant provisioned",
		zap.String("schema", tenant.Schema),
		zap.String("subdomain", tenant.Subdomain),
		zap.String("owner", owner.Email))
	return tenant, owner, nil
}
