package service

import "errors"

var ErrTitleOrDescriptionRequired = errors.New("title or description is required")
