package autofill

import (
	"testing"

	"github.com/opengovsg/FormSG-sub011/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name      string
		fieldType models.FieldType
		in        string
		want      string
		wantErr   bool
	}{
		{"canonical date", models.FieldTypeDate, "1990-05-17", "1990-05-17", false},
		{"display date", models.FieldTypeDate, "17 May 1990", "1990-05-17", false},
		{"short day", models.FieldTypeDate, "7 May 1990", "1990-05-07", false},
		{"slashes", models.FieldTypeDate, "17/05/1990", "1990-05-17", false},
		{"timestamp", models.FieldTypeDate, "1990-05-17T00:00:00Z", "1990-05-17", false},
		{"padded", models.FieldTypeDate, " 1990-05-17 ", "1990-05-17", false},
		{"garbage date", models.FieldTypeDate, "soon", "", true},
		{"text untouched", models.FieldTypeShortText, " MALE ", " MALE ", false},
		{"unknown type untouched", models.FieldType("rating"), "5", "5", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.fieldType, tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrepare(t *testing.T) {
	assert.Equal(t, []byte("short"), prepare("short"))
	long := prepare(string(make([]byte, 100)))
	assert.Len(t, long, 64)
}
