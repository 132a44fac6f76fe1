package config

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	var err error
	if e := c.Tessellation.Validate(); e != nil {
		err = multierr.Append(err, fmt.Errorf("%w: tessellation: %w", ErrInvalidConfig, e))
	}
	if e := c.Offset.Validate(); e != nil {
		err = multierr.Append(err, fmt.Errorf("%w: offset: %w", ErrInvalidConfig, e))
	}
	if c.Simplify.Tolerance < 0 || c.Simplify.MergeAngle < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: simplify tolerances must not be negative", ErrInvalidConfig))
	}
	if c.Pipeline.Workers < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: pipeline.workers must not be negative", ErrInvalidConfig))
	}
	switch c.Output.Format {
	case FormatSTL, FormatOBJ, FormatJSON, FormatSVG:
	default:
		err = multierr.Append(err, fmt.Errorf("%w: unknown output format %q", ErrInvalidConfig, c.Output.Format))
	}
	return err
}
