package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSubdomain(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Subdomain
		wantErr error
	}{
		{name: "simple", raw: "abc", want: "abc"},
		{name: "hyphen and digits", raw: "my-site-2", want: "my-site-2"},
		{name: "trims and lowercases", raw: "  MySite  ", want: "mysite"},
		{name: "empty", raw: "", wantErr: ErrInvalidInput},
		{name: "whitespace only", raw: "   ", wantErr: ErrInvalidInput},
		{name: "underscore", raw: "My_Site", wantErr: ErrInvalidFormat},
		{name: "dot", raw: "my.site", wantErr: ErrInvalidFormat},
		{name: "unicode", raw: "café", wantErr: ErrInvalidFormat},
		{name: "too short", raw: "ab", wantErr: ErrInvalidLength},
		{name: "max length", raw: strings.Repeat("a", 63), want: Subdomain(strings.Repeat("a", 63))},
		{name: "too long", raw: strings.Repeat("a", 64), wantErr: ErrInvalidLength},
		{name: "reserved", raw: "admin", wantErr: ErrReservedName},
		{name: "reserved uppercase", raw: "ADMIN", wantErr: ErrReservedName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateSubdomain(tt.raw)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateSubdomain_AllReservedNames(t *testing.T) {
	for _, name := range DefaultReservedNames {
		for _, variant := range []string{name, strings.ToUpper(name), " " + name + " "} {
			_, err := ValidateSubdomain(variant)
			assert.ErrorIs(t, err, ErrReservedName, variant)
		}
	}
}

func TestValidateSubdomain_Idempotent(t *testing.T) {
	inputs := []string{"abc", " Hello-World ", "MY-SITE-2", "x1y2z3", "  ABC\t"}
	for _, raw := range inputs {
		first, err := ValidateSubdomain(raw)
		require.NoError(t, err, raw)

		second, err := ValidateSubdomain(first.String())
		require.NoError(t, err, raw)
		assert.Equal(t, first, second)
	}
}

func TestValidator_CustomReservedSet(t *testing.T) {
	v := NewValidator([]string{"Blog", "shop"})

	_, err := v.Validate("blog")
	assert.ErrorIs(t, err, ErrReservedName)

	got, err := v.Validate("admin")
	require.NoError(t, err)
	assert.Equal(t, Subdomain("admin"), got)

	assert.True(t, v.IsReserved("SHOP"))
	assert.False(t, v.IsReserved("mail"))
}

func TestSubdomain_HostAndURL(t *testing.T) {
	s := Subdomain("demo")
	assert.Equal(t, "demo.digitel.site", s.Host("digitel.site"))
	assert.Equal(t, "https://demo.digitel.site", s.URL("digitel.site"))
}
