package model

import "errors"

// Error kinds shared by the loaders, the forecast runner and the views.
// Callers match them with errors.Is; causes are wrapped with %w.
var (
	ErrFileNotFound = errors.New("file not found")
	ErrDataLoad     = errors.New("data load failed")
	ErrDataFormat   = errors.New("invalid data format")
	ErrModelLoad    = errors.New("model load failed")
	ErrForecast     = errors.New("forecast failed")
)
