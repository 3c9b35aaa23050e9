package metrics

import (
	"sort"
	"time"

	"github.com/linqiu/folio/internal/models"
)

const dateLayout = "2006-01-02"

// FillDates expands a sparse set of calendar-date strings into a continuous
// day-by-day sequence from the earliest to the latest date inclusive, so
// chart rendering gets uniform x-axis spacing. Unparseable dates are
// ignored; an empty input yields nil.
func FillDates(dates []string) []string {
	var min, max time.Time
	for _, d := range dates {
		t, err := time.Parse(dateLayout, d)
		if err != nil {
			continue
		}
		if min.IsZero() || t.Before(min) {
			min = t
		}
		if max.IsZero() || t.After(max) {
			max = t
		}
	}
	if min.IsZero() {
		return nil
	}

	var out []string
	for d := min; !d.After(max); d = d.AddDate(0, 0, 1) {
		out = append(out, d.Format(dateLayout))
	}
	return out
}

// BuildChartSeries merges a price series with trade markers into one
// gap-filled chart point per calendar day. Days with a bar carry the close,
// moving average and bands; days with trades carry buy/sell markers (open
// and completed trades kept distinct); interior days with neither are empty
// placeholders keeping the axis continuous.
func BuildChartSeries(series *models.PriceSeries, open, completed []models.Trade, window int, bandPct float64) []models.ChartPoint {
	byDate := make(map[string]*models.ChartPoint)
	point := func(date string) *models.ChartPoint {
		if p, ok := byDate[date]; ok {
			return p
		}
		p := &models.ChartPoint{Date: date}
		byDate[date] = p
		return p
	}

	var dates []string
	collect := func(date string) {
		if date != "" {
			dates = append(dates, date)
		}
	}

	if series != nil && len(series.Points) > 0 {
		ma := MovingAverage(series.Points, window)
		upper, lower := Bands(ma, bandPct)
		for i := range series.Points {
			bar := &series.Points[i]
			p := point(bar.Date)
			c, m, u, l := bar.Close, ma[i], upper[i], lower[i]
			p.Close, p.MA, p.UpperBand, p.LowerBand = &c, &m, &u, &l
			collect(bar.Date)
		}
	}

	for i := range open {
		t := &open[i]
		if t.HasBuy() {
			price := t.BuyPrice
			point(t.BuyDate).BuyPrice = &price
			collect(t.BuyDate)
		}
		if t.HasSell() {
			price := t.SellPrice
			point(t.SellDate).SellPrice = &price
			collect(t.SellDate)
		}
	}
	for i := range completed {
		t := &completed[i]
		if t.HasBuy() {
			price := t.BuyPrice
			point(t.BuyDate).ClosedBuy = &price
			collect(t.BuyDate)
		}
		if t.HasSell() {
			price := t.SellPrice
			point(t.SellDate).ClosedSell = &price
			collect(t.SellDate)
		}
	}

	filled := FillDates(dates)
	if filled == nil {
		// No parseable dates at all: fall back to whatever keys exist,
		// sorted, so odd date formats still chart in order.
		for d := range byDate {
			filled = append(filled, d)
		}
		sort.Strings(filled)
	}

	out := make([]models.ChartPoint, 0, len(filled))
	for _, d := range filled {
		if p, ok := byDate[d]; ok {
			out = append(out, *p)
		} else {
			out = append(out, models.ChartPoint{Date: d})
		}
	}
	return out
}
