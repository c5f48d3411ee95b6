package config

const (
	HCType        = "Content-Type"
	HCacheControl = "Cache-Control"
	HLocation     = "Location"

	CTypeJSON = "application/json"
	CTypeForm = "application/x-www-form-urlencoded"
	CTypeText = "text/plain; charset=utf-8"
)

const (
	HTTPErrMethodNotAllowed = "Method not allowed"
	HTTPErrInvalidToken     = "Invalid anti-forgery token"
	HTTPErrInternal         = "Internal server error"
)
