package handler

import "github.com/go-playground/validator/v10"

// validate checks request DTOs against their struct tags.
var validate = validator.New()
