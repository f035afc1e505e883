package analyzer

import (
	"github.com/okian/shotline/internal/domain/accuracy"
	"github.com/okian/shotline/internal/domain/inference"
	"github.com/okian/shotline/pkg/logger"
)

// Option applies a configuration option to the Analyzer.
type Option func(*Analyzer)

// WithInferer replaces the target inference engine.
func WithInferer(e inference.Inferer) Option {
	return func(a *Analyzer) {
		if e != nil {
			a.engine = e
		}
	}
}

// WithCalculator replaces the accuracy calculator.
func WithCalculator(c *accuracy.Calculator) Option {
	return func(a *Analyzer) {
		if c != nil {
			a.calculator = c
		}
	}
}

// WithThresholds scores with the given category bounds. Invalid tables
// are ignored.
func WithThresholds(t accuracy.Thresholds) Option {
	return func(a *Analyzer) {
		a.calculator = accuracy.NewCalculator(accuracy.WithThresholds(t))
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.log = l
		}
	}
}
