package geo

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "ruccli/internal/errors"
)

// CRS identifies a coordinate reference system on the WGS84 datum: either
// geographic longitude/latitude or one UTM zone.
type CRS struct {
	Name  string
	Zone  int
	South bool
}

// WGS84 is geographic longitude/latitude (EPSG:4326, axis order lon/lat as in GeoJSON).
var WGS84 = CRS{Name: "EPSG:4326"}

// UTM returns the WGS84 UTM CRS for zone and hemisphere.
func UTM(zone int, south bool) CRS {
	code := 32600 + zone
	if south {
		code = 32700 + zone
	}
	return CRS{Name: "EPSG:" + strconv.Itoa(code), Zone: zone, South: south}
}

// IsGeographic reports whether coordinates are longitude/latitude degrees.
func (c CRS) IsGeographic() bool {
	return c.Zone == 0
}

// ParseCRS accepts EPSG codes in their short (EPSG:32717) and URN
// (urn:ogc:def:crs:EPSG::32717) spellings, and OGC CRS84.
func ParseCRS(name string) (CRS, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	if n == "" || n == "CRS84" || strings.HasSuffix(n, ":CRS84") {
		return WGS84, nil
	}

	parts := strings.Split(n, ":")
	codeText := parts[len(parts)-1]
	authority := ""
	for _, p := range parts {
		if p == "EPSG" {
			authority = p
		}
	}
	code, err := strconv.Atoi(codeText)
	if authority == "" || err != nil {
		return CRS{}, unsupportedCRS(name)
	}

	switch {
	case code == 4326:
		return WGS84, nil
	case code >= 32601 && code <= 32660:
		return UTM(code-32600, false), nil
	case code >= 32701 && code <= 32760:
		return UTM(code-32700, true), nil
	}
	return CRS{}, unsupportedCRS(name)
}

func unsupportedCRS(name string) error {
	return apperrors.NewConfigError(fmt.Sprintf("unsupported coordinate reference system %q", name), nil).
		WithContext("crs", name)
}
