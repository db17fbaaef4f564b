package cnpj

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"bare digits", "11222333000181", "11222333000181", false},
		{"formatted", "11.222.333/0001-81", "11222333000181", false},
		{"another valid", "19.131.243/0001-97", "19131243000197", false},
		{"too short", "1122233300018", "", true},
		{"too long", "112223330001811", "", true},
		{"bad check digit", "11222333000182", "", true},
		{"letters only", "abc", "", true},
		{"empty", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
