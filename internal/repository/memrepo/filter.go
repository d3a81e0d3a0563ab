package memrepo

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"gorm.io/gorm/schema"

	"pos-service/internal/apperror"
)

// columns maps database column names to struct fields the same way gorm does
type columns struct {
	parsed *schema.Schema
}

func parseColumns(model interface{}) columns {
	s, err := schema.Parse(model, &sync.Map{}, schema.NamingStrategy{})
	if err != nil {
		panic(fmt.Sprintf("memrepo: parse %T: %v", model, err))
	}
	return columns{parsed: s}
}

// match reports whether row (a struct pointer) has every filter value
func (c columns) match(ctx context.Context, row interface{}, filters map[string]string) (bool, error) {
	rv := reflect.ValueOf(row).Elem()
	for col, want := range filters {
		f, ok := c.parsed.FieldsByDBName[col]
		if !ok {
			return false, apperror.InvalidRequest("unknown filter "+col, col)
		}
		v, _ := f.ValueOf(ctx, rv)
		if format(v) != want {
			return false, nil
		}
	}
	return true, nil
}

func format(v interface{}) string {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return ""
		}
		rv = rv.Elem()
	}
	return fmt.Sprint(rv.Interface())
}
