package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	ErrConflict     = errors.New("conflicto con el estado actual")
)

// Errores del ciclo de importación/reemplazo del ledger.
var (
	// ErrNoFeedData el origen externo no respondió; distinto de un dataset vacío.
	ErrNoFeedData = errors.New("el origen externo no devolvió datos")
	// ErrEmptyFeed el origen respondió pero sin filas.
	ErrEmptyFeed = errors.New("el origen externo devolvió un dataset vacío")
	// ErrMalformedFeed la respuesta no es un rowset XML válido.
	ErrMalformedFeed      = errors.New("respuesta del origen externo mal formada")
	ErrImportInProgress   = errors.New("ya hay una importación en curso")
	ErrNoActiveFeedConfig = errors.New("no hay configuración de origen activa")
)
