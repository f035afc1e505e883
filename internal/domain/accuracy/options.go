package accuracy

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithThresholds replaces the category bounds. Invalid tables are ignored.
func WithThresholds(t Thresholds) Option {
	return func(c *Calculator) {
		if t.Validate() == nil {
			c.thresholds = t
		}
	}
}
