package embedpage

import "errors"

// ErrInvalidOptions is returned by NewAssembler when Options fail validation.
var ErrInvalidOptions = errors.New("embedpage: invalid options")
