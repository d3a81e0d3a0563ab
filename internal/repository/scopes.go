package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pos-service/internal/apperror"
	"pos-service/internal/model"
	"pos-service/pkg/tenancy"
)

func withScope(db *gorm.DB, scope model.Scope) *gorm.DB {
	if scope == model.ScopeActive {
		return db.Where("is_active = ?", true)
	}
	return db
}

func withFilters(db *gorm.DB, h *tenancy.Handle, filters map[string]string) (*gorm.DB, error) {
	for col, value := range filters {
		if !h.HasColumn(col) {
			return nil, apperror.InvalidRequest("unknown filter "+col, col)
		}
		db = db.Where(clause.Eq{Column: clause.Column{Name: col}, Value: value})
	}
	return db, nil
}

func withDates(db *gorm.DB, column string, q ListQuery) *gorm.DB {
	col := clause.Column{Name: column}
	if q.DateFrom != nil {
		db = db.Where(clause.Gte{Column: col, Value: *q.DateFrom})
	}
	if q.DateTo != nil {
		db = db.Where(clause.Lte{Column: col, Value: *q.DateTo})
	}
	return db
}

// paginate counts every matching row, then loads the requested page into out
func paginate(db *gorm.DB, q ListQuery, order string, out interface{}) (int64, error) {
	var total int64
	if err := db.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, nil
	}
	err := db.Session(&gorm.Session{}).
		Order(order).
		Offset(q.Offset()).
		Limit(q.Limit).
		Find(out).Error
	return total, err
}

var lockForUpdate = clause.Locking{Strength: "UPDATE"}
