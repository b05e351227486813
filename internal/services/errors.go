package services

import "errors"

// Errors returned by the access, stream and upload services. Handlers map them to HTTP statuses.
var (
	ErrMalformedToken       = errors.New("malformed access token")
	ErrInvalidSignature     = errors.New("invalid signature")
	ErrAccessExpired        = errors.New("access expired")
	ErrUnknownSubject       = errors.New("unknown subject")
	ErrNotEnrolled          = errors.New("not enrolled in course")
	ErrContentNotFound      = errors.New("content not found")
	ErrMediaNotFound        = errors.New("media not found")
	ErrUpstreamUnavailable  = errors.New("media storage unavailable")
	ErrInvalidRange         = errors.New("invalid range")
	ErrPathAlreadySet       = errors.New("content already has a file")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrSigningUnavailable   = errors.New("url signing is not configured")
)
