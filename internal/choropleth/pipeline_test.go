package choropleth

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ruccli/internal/config"
	apperrors "ruccli/internal/errors"
	"ruccli/internal/infrastructure"
	"ruccli/internal/shared/testutil"
)

const registryCSV = "NUMERO_RUC;DESCRIPCION_CANTON_EST;DESCRIPCION_PARROQUIA_EST\n" +
	"2100000001001;LAGO AGRIO;NUEVA LOJA\n" +
	"2100000002001;Lago Agrio;Nueva Loja \n" +
	"2100000003001;SHUSHUFINDI;SHUSHUFINDI\n" +
	"2100000004001;CASCALES;EL DORADO DE CASCALES\n"

// UTM 18S squares around Nueva Loja plus a parish of another province.
const boundariesGeoJSON = `{
  "type": "FeatureCollection",
  "crs": {"type": "name", "properties": {"name": "urn:ogc:def:crs:EPSG::32718"}},
  "features": [
    {"type": "Feature", "id": "210150",
     "properties": {"DPA_DESPRO": "SUCUMBIOS", "DPA_DESCAN": "LAGO AGRIO", "DPA_DESPAR": "NUEVA LOJA"},
     "geometry": {"type": "Polygon", "coordinates": [[[290000,10000000],[300000,10000000],[300000,10010000],[290000,10010000],[290000,10000000]]]}},
    {"type": "Feature", "id": "210151",
     "properties": {"DPA_DESPRO": "SUCUMBIOS", "DPA_DESCAN": "LAGO AGRIO", "DPA_DESPAR": "DURENO"},
     "geometry": {"type": "Polygon", "coordinates": [[[300000,10000000],[310000,10000000],[310000,10010000],[300000,10010000],[300000,10000000]]]}},
    {"type": "Feature", "id": "210450",
     "properties": {"DPA_DESPRO": "SUCUMBIOS", "DPA_DESCAN": "SHUSHUFINDI", "DPA_DESPAR": "SHUSHUFINDI"},
     "geometry": {"type": "Polygon", "coordinates": [[[310000,9990000],[310000,9990000],[310000,9990000],[310000,9990000]]]}},
    {"type": "Feature", "id": "150150",
     "properties": {"DPA_DESPRO": "NAPO", "DPA_DESCAN": "TENA", "DPA_DESPAR": "TENA"},
     "geometry": {"type": "Polygon", "coordinates": [[[190000,9890000],[200000,9890000],[200000,9900000],[190000,9890000]]]}}
  ]
}`

func setupWorkdir(t *testing.T) (string, config.RendererConfig) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vendedores.csv"), []byte(registryCSV), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "parroquias.geojson"), []byte(boundariesGeoJSON), 0644))

	cfg := config.Default().Renderer
	cfg.RegistryPath = "vendedores.csv"
	cfg.BoundaryPath = "parroquias.geojson"
	return dir, cfg
}

func TestPipeline_Run(t *testing.T) {
	dir, cfg := setupWorkdir(t)
	logger, logs := testutil.NewTestLogger(t)
	var stdout bytes.Buffer

	p := NewPipeline(cfg, logger, WithPaths(config.NewPaths(dir)), WithOutput(&stdout))
	sum, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, sum.Records)
	assert.Equal(t, 4, sum.Counted)
	assert.Equal(t, 3, sum.Regions)
	assert.Equal(t, 1, sum.Dropped, "the zero-area Shushufindi polygon is dropped")
	assert.Equal(t, []Key{{Canton: "CASCALES", Parish: "EL DORADO DE CASCALES"}}, sum.Unmatched)

	chart, err := os.ReadFile(filepath.Join(dir, config.DefaultChartOutput))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(chart, []byte("\x89PNG\r\n\x1a\n")))

	page, err := os.ReadFile(filepath.Join(dir, config.DefaultMapOutput))
	require.NoError(t, err)
	assert.Contains(t, string(page), `"parroquia":"NUEVA LOJA"`)
	assert.Contains(t, string(page), `"parroquia":"DURENO"`)
	assert.NotContains(t, string(page), `"parroquia":"SHUSHUFINDI"`)
	assert.NotContains(t, string(page), `"parroquia":"TENA"`)

	assert.Equal(t,
		"Total de registros (vendedores) considerados: 4\n"+
			"Mapa interactivo guardado como 'mapa_interactivo_sucumbios.html'\n",
		stdout.String())

	testutil.AssertLogContains(t, logs, slog.LevelWarn, "Registry parish matched no boundary")
	testutil.AssertLogContains(t, logs, slog.LevelInfo, "Boundaries reprojected")
}

func TestPipeline_RecordsTelemetry(t *testing.T) {
	dir, cfg := setupWorkdir(t)
	logger, _ := testutil.NewTestLogger(t)

	providers, err := infrastructure.InitializeOTel(nil, logger)
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	p := NewPipeline(cfg, logger,
		WithPaths(config.NewPaths(dir)),
		WithOutput(&bytes.Buffer{}),
		WithTelemetry(providers))
	_, err = p.Run(context.Background())
	require.NoError(t, err)

	path := filepath.Join(dir, "ruccli.prom")
	require.NoError(t, providers.WriteMetricsFile(path))
	content, err := os.ReadFile(path)
	require.NoError(t, err)

	metrics := string(content)
	assert.Contains(t, metrics, "ruccli_records_read")
	assert.Contains(t, metrics, "ruccli_regions_rendered")
	assert.Contains(t, metrics, "ruccli_geometries_dropped")
	assert.True(t, strings.Contains(metrics, `stage="render_webmap"`))
}

func TestPipeline_Errors(t *testing.T) {
	t.Run("missing registry", func(t *testing.T) {
		dir, cfg := setupWorkdir(t)
		cfg.RegistryPath = "nope.xlsx"

		_, err := NewPipeline(cfg, nil, WithPaths(config.NewPaths(dir)), WithOutput(&bytes.Buffer{})).
			Run(context.Background())
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
	})

	t.Run("province not in boundaries", func(t *testing.T) {
		dir, cfg := setupWorkdir(t)
		cfg.Province = "GALAPAGOS"

		_, err := NewPipeline(cfg, nil, WithPaths(config.NewPaths(dir)), WithOutput(&bytes.Buffer{})).
			Run(context.Background())
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
		assert.NoFileExists(t, filepath.Join(dir, config.DefaultChartOutput))
	})

	t.Run("registry without parish column", func(t *testing.T) {
		dir, cfg := setupWorkdir(t)
		cfg.ParishColumn = "PARROQUIA"

		_, err := NewPipeline(cfg, nil, WithPaths(config.NewPaths(dir)), WithOutput(&bytes.Buffer{})).
			Run(context.Background())
		assert.Error(t, err)
	})
}
