package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "ruccli/internal/errors"
)

func TestParseCRS(t *testing.T) {
	tests := []struct {
		name string
		want CRS
	}{
		{"EPSG:4326", WGS84},
		{"urn:ogc:def:crs:OGC:1.3:CRS84", WGS84},
		{"urn:ogc:def:crs:EPSG::4326", WGS84},
		{"", WGS84},
		{"EPSG:32717", UTM(17, true)},
		{"urn:ogc:def:crs:EPSG::32717", UTM(17, true)},
		{"epsg:32718", UTM(18, true)},
		{"EPSG:32618", UTM(18, false)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCRS(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCRS_Unsupported(t *testing.T) {
	for _, name := range []string{"EPSG:24877", "EPSG:32661", "ESRI:102033", "not a crs"} {
		_, err := ParseCRS(name)
		require.Error(t, err, name)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig), name)
	}
}

func TestUTM(t *testing.T) {
	assert.Equal(t, "EPSG:32717", UTM(17, true).Name)
	assert.Equal(t, "EPSG:32617", UTM(17, false).Name)
	assert.False(t, UTM(17, true).IsGeographic())
	assert.True(t, WGS84.IsGeographic())
}
