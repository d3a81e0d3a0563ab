package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pos-service/internal/model"
	"pos-service/prometheus"
)

type tenantRepository struct {
	db *gorm.DB
}

// NewTenantRepository returns the tenant directory stored in the public schema
func NewTenantRepository(db *gorm.DB) TenantRepository {
	return &tenantRepository{db: db}
}

// FindByKey resolves an active tenant by subdomain or schema name
func (r *tenantRepository) FindByKey(ctx context.Context, key string) (*model.Tenant, error) {
	defer prometheus.TrackDBOperation("tenants.find_by_key")()

	var t model.Tenant
	err := r.db.WithContext(ctx).
		Where("(subdomain = ? OR schema = ?) AND active = ?", key, key, true).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tenantRepository) FindByID(ctx context.Context, id uint) (*model.Tenant, error) {
	var t model.Tenant
	if err := r.db.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tenantRepository) Create(ctx context.Context, t *model.Tenant) error {
	return r.db.WithContext(ctx).Create(t).Error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	defer prometheus.TrackDBOperation("users.find_by_email")()

	var u model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

// Memberships returns the active tenants the user may access, default first
func (r *userRepository) Memberships(ctx context.Context, userID uint) ([]model.Membership, error) {
	defer prometheus.TrackDBOperation("users.memberships")()

	var links []model.UserTenant
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND active = ?", userID, true).
		Order("is_default DESC, tenant_id").
		Find(&links).Error
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return []model.Membership{}, nil
	}

	ids := make([]uint, len(links))
	for i, l := range links {
		ids[i] = l.TenantID
	}
	var tenants []model.Tenant
	if err := r.db.WithContext(ctx).Where("id IN ? AND active = ?", ids, true).Find(&tenants).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]model.Tenant, len(tenants))
	for _, t := range tenants {
		byID[t.ID] = t
	}

	out := make([]model.Membership, 0, len(links))
	for _, l := range links {
		t, ok := byID[l.TenantID]
		if !ok {
			continue
		}
		out = append(out, model.Membership{Tenant: t, Role: l.Role, IsDefault: l.IsDefault})
	}
	return out, nil
}

// Bind grants the user role in the tenant, replacing any previous grant
func (r *userRepository) Bind(ctx context.Context, userID, tenantID uint, role string, isDefault bool) error {
	link := model.UserTenant{
		UserID:    userID,
		TenantID:  tenantID,
		Role:      role,
		IsDefault: isDefault,
		Active:    true,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "tenant_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"role":       role,
			"is_default": isDefault,
			"active":     true,
			"updated_at": time.Now(),
		}),
	}).Create(&link).Error
}
