package dataset

import "time"

// Defaults for the fetch pipeline.
const (
	DefaultWindow  = 8
	DefaultRetries = 3
	DefaultBackoff = 100 * time.Millisecond

	// maxBackoff caps the exponential growth of retry delays.
	maxBackoff = 10 * time.Second
)

// Config holds tuning for the streaming fetch pipeline.
type Config struct {
	// Window is the maximum number of concurrently in-flight fetches.
	Window int `mapstructure:"window" default:"8"`
	// Retries is the number of retry attempts for transient fetch errors.
	Retries int `mapstructure:"retries" default:"3"`
	// BackoffMS is the initial retry backoff in milliseconds.
	BackoffMS int `mapstructure:"backoff_ms" default:"100"`
}

// Options converts the config into functional options for dataset constructors.
func (c Config) Options() []Option {
	var opts []Option
	if c.Window > 0 {
		opts = append(opts, WithWindow(c.Window))
	}
	if c.Retries >= 0 {
		opts = append(opts, WithRetries(c.Retries))
	}
	if c.BackoffMS > 0 {
		opts = append(opts, WithBackoff(time.Duration(c.BackoffMS)*time.Millisecond))
	}
	return opts
}
