package fusion

import (
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"hybrid-trader/internal/models"
)

// snapshotGen generates snapshots with every field inside its declared range.
func snapshotGen() gopter.Gen {
	return gopter.CombineGens(
		gen.Float64Range(0.01, 100000),
		gen.Float64Range(-1, 1),
		gen.Float64Range(-1, 1),
		gen.Float64Range(0, 100),
		gen.Float64Range(0, 500),
	).Map(func(values []interface{}) models.Snapshot {
		return models.Snapshot{
			Instrument:     "BTCUSDT",
			Timestamp:      time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			Price:          values[0].(float64),
			AIScore:        values[1].(float64),
			SentimentScore: values[2].(float64),
			RSI:            values[3].(float64),
			ATR:            values[4].(float64),
		}
	})
}

func TestProperty_FuseIsDeterministic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("Identical snapshots fuse to identical signals", prop.ForAll(
		func(snap models.Snapshot) bool {
			engine, err := NewEngine(DefaultConfig())
			if err != nil {
				return false
			}

			first, err1 := engine.Fuse(snap)
			second, err2 := engine.Fuse(snap)
			if err1 != nil || err2 != nil {
				return false
			}
			return first == second
		},
		snapshotGen(),
	))

	properties.TestingRun(t)
}

func TestProperty_StrengthWithinBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("Strength is within [0, 1]", prop.ForAll(
		func(snap models.Snapshot) bool {
			engine, err := NewEngine(DefaultConfig())
			if err != nil {
				return false
			}
			signal, err := engine.Fuse(snap)
			if err != nil {
				return false
			}
			return signal.Strength >= 0 && signal.Strength <= 1
		},
		snapshotGen(),
	))

	properties.TestingRun(t)
}

func TestProperty_FlatIffBelowThreshold(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("Direction is FLAT exactly when strength is below threshold or raw is zero", prop.ForAll(
		func(snap models.Snapshot, threshold float64) bool {
			cfg := DefaultConfig()
			cfg.Threshold = threshold
			engine, err := NewEngine(cfg)
			if err != nil {
				return false
			}

			signal, err := engine.Fuse(snap)
			if err != nil {
				return false
			}

			if signal.Direction == models.DirectionFlat {
				return signal.Strength < threshold || signal.Strength == 0
			}
			return signal.Strength >= threshold && signal.Strength > 0
		},
		snapshotGen(),
		gen.Float64Range(0, 1),
	))

	properties.TestingRun(t)
}

func TestProperty_DirectionMatchesRawSign(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("A non-flat direction matches the sign of the weighted sum", prop.ForAll(
		func(snap models.Snapshot) bool {
			cfg := DefaultConfig()
			engine, err := NewEngine(cfg)
			if err != nil {
				return false
			}

			signal, err := engine.Fuse(snap)
			if err != nil {
				return false
			}
			if signal.Direction == models.DirectionFlat {
				return true
			}

			raw := cfg.WeightAI*snap.AIScore +
				cfg.WeightNews*snap.SentimentScore +
				cfg.WeightRSI*engine.rsiContribution(snap.RSI)
			if signal.Direction == models.DirectionLong {
				return raw > 0
			}
			return raw < 0
		},
		snapshotGen(),
	))

	properties.TestingRun(t)
}

func TestProperty_RSIContributionBoundsAndMonotonicity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("RSI contribution is in [-1, 1] and non-increasing in RSI", prop.ForAll(
		func(rsi1, rsi2 float64) bool {
			engine, err := NewEngine(DefaultConfig())
			if err != nil {
				return false
			}

			c1 := engine.rsiContribution(rsi1)
			c2 := engine.rsiContribution(rsi2)
			if math.Abs(c1) > 1 || math.Abs(c2) > 1 {
				return false
			}
			if rsi1 < rsi2 {
				return c1 >= c2
			}
			if rsi1 > rsi2 {
				return c1 <= c2
			}
			return c1 == c2
		},
		gen.Float64Range(0, 100),
		gen.Float64Range(0, 100),
	))

	properties.TestingRun(t)
}
