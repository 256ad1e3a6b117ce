package inference

import (
	"errors"
	"fmt"
)

// ErrSchemaMismatch matches every SchemaError.
var ErrSchemaMismatch = errors.New("preprocessing mismatch")

// SchemaError reports a record the transformer was not fitted for.
type SchemaError struct {
	Column string
	Detail string
}

func (e *SchemaError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("preprocessing mismatch: %s", e.Detail)
	}
	return fmt.Sprintf("preprocessing mismatch: column %q: %s", e.Column, e.Detail)
}

func (e *SchemaError) Is(target error) bool { return target == ErrSchemaMismatch }

func mismatch(column, format string, args ...interface{}) error {
	return &SchemaError{Column: column, Detail: fmt.Sprintf(format, args...)}
}

// ArtifactError is returned when an artifact cannot be read or decoded.
type ArtifactError struct {
	Artifact string
	Path     string
	Err      error
}

func (e *ArtifactError) Error() string {
	return fmt.Sprintf("load %s artifact %s: %v", e.Artifact, e.Path, e.Err)
}

func (e *ArtifactError) Unwrap() error { return e.Err }
