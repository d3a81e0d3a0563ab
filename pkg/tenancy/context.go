package tenancy

import (
	"context"
	"regexp"
	"strings"
)

type schemaKey struct{}

var schemaPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

// WithSchema returns a copy of ctx carrying the tenant schema
func WithSchema(ctx context.Context, schema string) context.Context {
	return context.WithValue(ctx, schemaKey{}, schema)
}

// SchemaFrom returns the tenant schema carried by ctx
func SchemaFrom(ctx context.Context) (string, bool) {
	schema, ok := ctx.Value(schemaKey{}).(string)
	return schema, ok && schema != ""
}

// ValidSchemaName reports whether s can be used as a tenant schema.
// Shared and system schemas are never valid tenant schemas.
func ValidSchemaName(s string) bool {
	if !schemaPattern.MatchString(s) {
		return false
	}
	switch {
	case s == "public", s == "information_schema", strings.HasPrefix(s, "pg_"):
		return false
	}
	return true
}
