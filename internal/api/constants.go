package api

import "time"

// Status codes the user service responds with.
const (
	StatusOK                   = 200
	StatusCreated              = 201
	StatusBadRequest           = 400
	StatusUnauthorized         = 401
	StatusForbidden            = 403
	StatusNotFound             = 404
	StatusConflict             = 409
	StatusUnsupportedMediaType = 415
	StatusInternalServerError  = 500
)

// Content types.
const (
	ContentTypeJSON      = "application/json"
	ContentTypeForm      = "application/x-www-form-urlencoded"
	ContentTypeMultipart = "multipart/form-data"
	ContentTypeText      = "text/plain"
)

const (
	// DefaultTimeout bounds a single request.
	DefaultTimeout = 30 * time.Second

	// DefaultRetryCount is the per-request retry budget used by the
	// business operations layer.
	DefaultRetryCount = 3

	// DefaultUserAgent identifies the framework to the target service.
	DefaultUserAgent = "Universal-Test-Framework/1.0"

	// HeaderLogID carries the correlation identifier on every request.
	HeaderLogID = "logId"

	// HeaderEnvironment names the environment a request targets.
	HeaderEnvironment = "X-Environment"

	// maxLoggedBody caps how much of a response body goes into the log.
	maxLoggedBody = 1000
)
