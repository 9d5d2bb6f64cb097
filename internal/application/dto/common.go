package dto

// ErrorResponse cuerpo de error HTTP. Details lleva el contexto numérico del error
// (disponible, solicitado, diferencia, exposición...) y retryable en contención de bloqueo.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// DateLayout formato de fechas en los cuerpos JSON.
const DateLayout = "2006-01-02"
