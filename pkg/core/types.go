package core

import (
	"fmt"
	"strings"
)

// ExperimentRef identifies one experiment of a project on the service.
// Experiment-run streams are addressed by this triple.
type ExperimentRef struct {
	// Owner is the user or organization that owns the project
	Owner string

	// Project is the project name
	Project string

	// Number is the experiment number within the project, starting at 1
	Number int
}

// Validate checks that every field is usable in a request path.
func (r ExperimentRef) Validate() error {
	if err := validateSegment("owner", r.Owner); err != nil {
		return err
	}
	if err := validateSegment("project", r.Project); err != nil {
		return err
	}
	if r.Number < 1 {
		return &ConfigError{
			Field: "number",
			Value: r.Number,
			Err:   fmt.Errorf("%w: experiment number must be positive", ErrInvalidRef),
		}
	}
	return nil
}

// String formats the reference as owner/project#number.
func (r ExperimentRef) String() string {
	return fmt.Sprintf("%s/%s#%d", r.Owner, r.Project, r.Number)
}

func validateSegment(field, value string) error {
	if value == "" {
		return &ConfigError{
			Field: field,
			Value: value,
			Err:   fmt.Errorf("%w: %s cannot be empty", ErrInvalidRef, field),
		}
	}
	if value == "." || value == ".." {
		return &ConfigError{
			Field: field,
			Value: value,
			Err:   fmt.Errorf("%w: %s cannot be a dot segment", ErrInvalidRef, field),
		}
	}
	if strings.Contains(value, "/") {
		return &ConfigError{
			Field: field,
			Value: value,
			Err:   fmt.Errorf("%w: %s cannot contain '/'", ErrInvalidRef, field),
		}
	}
	return nil
}
