package memrepo

import (
	"context"

	"gorm.io/gorm"

	"pos-service/internal/model"
	"pos-service/internal/repository"
)

type tenantRepository struct {
	s *Store
}

func NewTenantRepository(s *Store) repository.TenantRepository {
	return &tenantRepository{s: s}
}

func (r *tenantRepository) FindByKey(_ context.Context, key string) (*model.Tenant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, t := range r.s.tenantRows {
		if t.Active && (t.Subdomain == key || t.Schema == key) {
			c := *t
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *tenantRepository) FindByID(_ context.Context, id uint) (*model.Tenant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, t := range r.s.tenantRows {
		if t.ID == id {
			c := *t
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *tenantRepository) Create(_ context.Context, t *model.Tenant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.tenantRows {
		if existing.Schema == t.Schema || existing.Subdomain == t.Subdomain {
			return gorm.ErrDuplicatedKey
		}
	}
	r.s.publicSeq++
	t.ID = r.s.publicSeq
	t.CreatedAt = r.s.now()
	t.UpdatedAt = t.CreatedAt
	c := *t
	r.s.tenantRows = append(r.s.tenantRows, &c)
	return nil
}

type userRepository struct {
	s *Store
}

func NewUserRepository(s *Store) repository.UserRepository {
	return &userRepository{s: s}
}

func (r *userRepository) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *userRepository) FindByID(_ context.Context, id uint) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.ID == id {
			c := *u
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *userRepository) Create(_ context.Context, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	r.s.publicSeq++
	u.ID = r.s.publicSeq
	u.CreatedAt = r.s.now()
	u.UpdatedAt = u.CreatedAt
	c := *u
	r.s.users = append(r.s.users, &c)
	return nil
}

func (r *userRepository) Memberships(_ context.Context, userID uint) ([]model.Membership, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []model.Membership{}
	for _, def := range []bool{true, false} {
		for _, l := range r.s.links {
			if l.UserID != userID || !l.Active || l.IsDefault != def {
				continue
			}
			for _, t := range r.s.tenantRows {
				if t.ID == l.TenantID && t.Active {
					out = append(out, model.Membership{Tenant: *t, Role: l.Role, IsDefault: l.IsDefault})
				}
			}
		}
	}
	return out, nil
}

func (r *userRepository) Bind(_ context.Context, userID, tenantID uint, role string, isDefault bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	for _, l := range r.s.links {
		if l.UserID == userID && l.TenantID == tenantID {
			l.Role = role
			l.IsDefault = isDefault
			l.Active = true
			l.UpdatedAt = now
			return nil
		}
	}
	r.s.publicSeq++
	r.s.links = append(r.s.links, &model.UserTenant{
		ID:        r.s.publicSeq,
		UserID:    userID,
		TenantID:  tenantID,
		Role:      role,
		IsDefault: isDefault,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	return nil
}
