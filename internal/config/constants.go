package config

// Application constants
const (
	AppName    = "ruccli"
	AppVersion = "1.0.0"

	DefaultConfigFile = "ruccli.yaml"
	DefaultLogsDir    = "logs"
)

// Classifier defaults
const (
	DefaultRegistryInput    = "SRI_RUC_Sucumbios.csv"
	DefaultClassifierOutput = "vendedores_libros_filtrados.xlsx"
	DefaultTempOutput       = "_temp_output.xlsx"
	DefaultOutputSheet      = "Sheet1"
)

// Renderer defaults
const (
	DefaultBoundaryInput = "ecuador_parroquias.geojson"
	DefaultProvince      = "SUCUMBIOS"
	DefaultChartOutput   = "mapa_calor_sucumbios.png"
	DefaultMapOutput     = "mapa_interactivo_sucumbios.html"
	DefaultChartTitle    = "Mapa de Calor: Vendedores de Libros por Parroquia - Sucumbios"
	DefaultCenterLat     = -0.9
	DefaultCenterLon     = -77.8
	DefaultZoom          = 8
)

// Registry (SRI RUC export) column names
const (
	ColumnActivity = "ACTIVIDAD_ECONOMICA"
	ColumnCIIU     = "CODIGO_CIIU"
	ColumnCanton   = "DESCRIPCION_CANTON_EST"
	ColumnParish   = "DESCRIPCION_PARROQUIA_EST"
)

// Boundary dataset (INEC DPA) property names
const (
	FieldProvince = "DPA_DESPRO"
	FieldCanton   = "DPA_DESCAN"
	FieldParish   = "DPA_DESPAR"
)

// BuildTime is set by the build script through -ldflags.
var BuildTime = "dev"
