// Package scheduler matches pending tasks to workers and keeps active tasks staffed.
package scheduler

import (
	"fmt"
	"time"

	"github.com/fentz26/burrow/internal/models"
)

// Config defines the scheduler configuration.
type Config struct {
	// AbsolutePriority is the level at or above which a task may draw on
	// non-idle workers instead of only the idle pool.
	AbsolutePriority models.Priority `yaml:"absolute_priority"`
	// AssignInterval is the pause between assignment passes.
	AssignInterval time.Duration `yaml:"assign_interval"`
	// ReplaceInterval is the pause between replacement passes.
	ReplaceInterval time.Duration `yaml:"replace_interval"`
	// MaxIdleInterval caps the backoff applied while a loop makes no progress.
	MaxIdleInterval time.Duration `yaml:"max_idle_interval"`
}

// DefaultConfig returns the default scheduler configuration.
func DefaultConfig() *Config {
	return &Config{
		AbsolutePriority: models.PriorityMedium,
		AssignInterval:   100 * time.Millisecond,
		ReplaceInterval:  250 * time.Millisecond,
		MaxIdleInterval:  2 * time.Second,
	}
}

// Validate checks the intervals.
func (c *Config) Validate() error {
	if c.AssignInterval <= 0 {
		return fmt.Errorf("assign_interval must be positive, got %s", c.AssignInterval)
	}
	if c.ReplaceInterval <= 0 {
		return fmt.Errorf("replace_interval must be positive, got %s", c.ReplaceInterval)
	}
	if c.MaxIdleInterval < c.AssignInterval || c.MaxIdleInterval < c.ReplaceInterval {
		return fmt.Errorf("max_idle_interval (%s) must not be shorter than the pass intervals", c.MaxIdleInterval)
	}
	return nil
}
