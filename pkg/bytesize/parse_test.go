package bytesize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "bytes", input: "512B", want: 512},
		{name: "short kilobytes", input: "4K", want: 4 * 1024},
		{name: "kilobytes", input: "100KB", want: 100 * 1024},
		{name: "short megabytes", input: "100M", want: 100 * 1024 * 1024},
		{name: "megabytes", input: "512MB", want: 512 * 1024 * 1024},
		{name: "gigabytes", input: "1G", want: 1024 * 1024 * 1024},
		{name: "terabytes", input: "1TB", want: int64(1024) * 1024 * 1024 * 1024},
		{name: "decimal", input: "1.5GB", want: int64(1.5 * 1024 * 1024 * 1024)},
		{name: "lowercase", input: "100m", want: 100 * 1024 * 1024},
		{name: "surrounding spaces", input: " 512MB ", want: 512 * 1024 * 1024},
		{name: "empty string", input: "", wantErr: true},
		{name: "missing unit", input: "512", wantErr: true},
		{name: "missing value", input: "MB", wantErr: true},
		{name: "inner space", input: "512 MB", wantErr: true},
		{name: "invalid value", input: "abcMB", wantErr: true},
		{name: "negative value", input: "-1GB", wantErr: true},
		{name: "zero", input: "0M", wantErr: true},
		{name: "unknown unit", input: "512XB", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
