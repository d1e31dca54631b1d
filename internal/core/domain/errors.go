package domain

import "errors"

var ErrRelationshipNotFound = errors.New("relationship not found")
var ErrInvalidSubject = errors.New("invalid subject")
var ErrBootstrapUnavailable = errors.New("bootstrap unavailable")
var ErrForbidden = errors.New("access forbidden")
