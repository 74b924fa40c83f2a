package utils

import (
	"context"
	"runtime"
	"strings"

	"montecarlo-dashboard/pkg/logger"

	"github.com/shopspring/decimal"
)

// GoSafe runs the given function in a new goroutine and recovers from any panic.
func GoSafe(log *logger.Logger, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("Panic recovered", logger.Field("panic", r))
			}
		}()
		fn()
	}()
}

// ShouldContinue reports whether ctx is still live, logging the caller when it is not.
func ShouldContinue(ctx context.Context, log *logger.Logger) bool {
	select {
	case <-ctx.Done():
		pc, _, _, ok := runtime.Caller(1)
		funcName := "unknown"
		if ok {
			fn := runtime.FuncForPC(pc)
			if fn != nil {
				parts := strings.Split(fn.Name(), "/")
				funcName = parts[len(parts)-1]
			}
		}

		log.Warn("Context cancelled",
			logger.StringField("caller", funcName),
		)
		return false
	default:
		return true
	}
}

// Round rounds v half away from zero to the given number of decimal places.
func Round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
