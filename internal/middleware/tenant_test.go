package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTenantKey(t *testing.T) {
	tests := []struct {
		name, header, host, base, want string
	}{
		{"header wins", "Tenant_A", "b.pos.example.com", "pos.example.com", "tenant_a"},
		{"subdomain", "", "acme.pos.example.com", "pos.example.com", "acme"},
		{"subdomain with port", "", "acme.pos.example.com:8080", "pos.example.com", "acme"},
		{"left-most label", "", "www.acme.pos.example.com", "pos.example.com", "www"},
		{"base domain itself", "", "pos.example.com", "pos.example.com", ""},
		{"other domain", "", "acme.other.com", "pos.example.com", ""},
		{"no base domain", "", "acme.pos.example.com", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TenantKey(tt.header, tt.host, tt.base))
		})
	}
}
