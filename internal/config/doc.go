// Package config provides configuration for the classifier and choropleth tools.
//
// # Configuration Sources
//
// Configuration is assembled in three layers, later layers winning:
//
//  1. Built-in defaults (Default), which are the fixed file names the tools
//     have always used: SRI_RUC_Sucumbios.csv, vendedores_libros_filtrados.xlsx,
//     ecuador_parroquias.geojson, mapa_interactivo_sucumbios.html, ...
//  2. A YAML file: $RUC_CONFIG_FILE, or ruccli.yaml / configs/ruccli.yaml
//  3. Environment variables with the RUC_ prefix
//
// # Environment Variables
//
//	RUC_CLASSIFIER_INPUT_PATH=SRI_RUC_Napo.csv
//	RUC_CLASSIFIER_RULES_FILE=rules.yaml
//	RUC_RENDERER_PROVINCE=NAPO
//	RUC_RENDERER_ZOOM=9
//	RUC_LOGGING_LEVEL=debug
//	RUC_TELEMETRY_METRICS_FILE=ruccli.prom
//
// Relative paths are resolved against the working directory through Paths.
package config
