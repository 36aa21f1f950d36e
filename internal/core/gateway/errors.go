package gateway

import "errors"

var (
	errMissingScheme = errors.New("missing scheme")
	errMissingHost   = errors.New("missing host")
)
