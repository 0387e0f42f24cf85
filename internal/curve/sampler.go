package curve

import (
	"curve-engine/internal/model"

	"github.com/shopspring/decimal"
)

// DefaultSamplePoints is the chart resolution used when callers do not ask
// for a specific point count.
const DefaultSamplePoints = 100

// Sample walks the curve from genesis to the price cap and returns at most
// maxPoints points. The first point is always {initialPrice, 0, 0}; price,
// supply and raised are non-decreasing between consecutive points; the
// sequence stops as soon as price hits the cap.
func Sample(cfg model.CurveConfig, maxPoints int) []model.CurvePoint {
	if maxPoints < 1 {
		maxPoints = DefaultSamplePoints
	}

	points := make([]model.CurvePoint, 0, maxPoints)
	price := cfg.InitialPrice
	supply := decimal.Zero
	raised := decimal.Zero
	points = append(points, model.CurvePoint{Price: price, Supply: supply, Raised: raised})

	if price.GreaterThanOrEqual(cfg.MaxPrice) || maxPoints == 1 {
		return points
	}

	step := supplyStep(cfg, maxPoints)
	for len(points) < maxPoints {
		raised = raised.Add(step.Mul(price))
		supply = supply.Add(step)
		price = NextPrice(price, supply, cfg)
		points = append(points, model.CurvePoint{Price: price, Supply: supply, Raised: raised})
		if price.GreaterThanOrEqual(cfg.MaxPrice) {
			break
		}
	}
	return points
}

// supplyStep sizes the supply advance so that a purely linear walk would
// reach the cap in maxPoints-1 steps. The cumulative-supply price response
// compounds faster than that, so the sequence usually caps out early, which
// the loop above handles.
func supplyStep(cfg model.CurveConfig, maxPoints int) decimal.Decimal {
	if cfg.PriceIncrement.IsZero() {
		// Flat curve below the cap: no closed-form supply reaches it.
		return decimal.NewFromInt(1)
	}
	span := cfg.MaxPrice.Sub(cfg.InitialPrice)
	supplyAtCap := span.Div(cfg.PriceIncrement)
	return supplyAtCap.Div(decimal.NewFromInt(int64(maxPoints - 1)))
}
