package services

import (
	"fmt"
	"hash/fnv"
	"time"

	"garagedesk/internal/repos"
)

// DayPoint is one bar of the revenue chart. Percent is relative to the
// month's best day, 0 when the whole month is zero.
type DayPoint struct {
	Day     int
	Amount  float64
	Percent float64
}

// PieSector is one slice of the vehicle-type chart. Sectors cover
// contiguous angular ranges [From, To) that sum to 360 degrees.
type PieSector struct {
	Label string
	Count int
	From  float64
	To    float64
	Color string
}

// CategoryStat is one bar of the repair-category chart.
type CategoryStat struct {
	Label string
	Count int
	Color string
}

type DashboardReport struct {
	Year  int
	Month int
	Day   int // echo of the optional day filter, 0 when absent

	DailyRevenue  []DayPoint
	TotalRevenue  float64
	DayRevenue    float64 // revenue of the filtered day, 0 when no day filter
	Sectors       []PieSector
	TotalVehicles int
	Categories    []CategoryStat
	TotalItems    int
}

type DashboardService struct {
	Invoices  *repos.InvoiceRepo
	Reception *repos.ReceptionRepo
	Repairs   *repos.RepairRepo
}

func NewDashboardService(invoices *repos.InvoiceRepo, reception *repos.ReceptionRepo, repairs *repos.RepairRepo) *DashboardService {
	return &DashboardService{Invoices: invoices, Reception: reception, Repairs: repairs}
}

// Stats builds the month's chart data: the zero-filled daily revenue series,
// the vehicle-type pie and the repair-category bars.
func (s *DashboardService) Stats(year, month, day int) (DashboardReport, error) {
	rep := DashboardReport{Year: year, Month: month, Day: day}

	revenue, err := s.Invoices.RevenueByDay(month, year)
	if err != nil {
		return rep, err
	}
	rep.DailyRevenue, rep.TotalRevenue = dailySeries(revenue, year, month)
	if day >= 1 && day <= len(rep.DailyRevenue) {
		rep.DayRevenue = rep.DailyRevenue[day-1].Amount
	}

	vehicles, err := s.Reception.VehicleTypeCounts(month, year)
	if err != nil {
		return rep, err
	}
	rep.Sectors, rep.TotalVehicles = pieSectors(vehicles)

	categories, err := s.Repairs.CategoryCounts(month, year)
	if err != nil {
		return rep, err
	}
	rep.Categories, rep.TotalItems = categoryStats(categories)

	return rep, nil
}

// daysIn handles 28-31 day months including leap Februaries.
func daysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func dailySeries(rows []repos.DayRevenue, year, month int) ([]DayPoint, float64) {
	amounts := make(map[int]float64, len(rows))
	var total, max float64
	for _, r := range rows {
		amounts[r.Day] = r.Total
		total += r.Total
		if r.Total > max {
			max = r.Total
		}
	}

	n := daysIn(year, month)
	series := make([]DayPoint, 0, n)
	for day := 1; day <= n; day++ {
		amount := amounts[day]
		pct := 0.0
		if max > 0 {
			pct = amount / max * 100
		}
		series = append(series, DayPoint{Day: day, Amount: amount, Percent: pct})
	}
	return series, total
}

func pieSectors(rows []repos.VehicleTypeCount) ([]PieSector, int) {
	total := 0
	for _, r := range rows {
		total += r.Count
	}

	sectors := make([]PieSector, 0, len(rows))
	from := 0.0
	for _, r := range rows {
		share := 0.0
		if total > 0 {
			share = float64(r.Count) / float64(total) * 360
		}
		sectors = append(sectors, PieSector{
			Label: r.VehicleType,
			Count: r.Count,
			From:  from,
			To:    from + share,
			Color: colorFor(r.VehicleType),
		})
		from += share
	}
	return sectors, total
}

func categoryStats(rows []repos.CategoryCount) ([]CategoryStat, int) {
	// Empty and missing categories collapse into one display bucket.
	merged := make(map[string]int, len(rows))
	order := make([]string, 0, len(rows))
	total := 0
	for _, r := range rows {
		label := r.Category
		if label == "" {
			label = "Uncategorized"
		}
		if _, seen := merged[label]; !seen {
			order = append(order, label)
		}
		merged[label] += r.Count
		total += r.Count
	}

	out := make([]CategoryStat, 0, len(order))
	for _, label := range order {
		out = append(out, CategoryStat{Label: label, Count: merged[label], Color: colorFor(label)})
	}
	return out, total
}

// colorFor derives a stable display color from the label, so charts keep
// their colors between page loads.
func colorFor(label string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(label))
	v := h.Sum32()
	r := uint8(v >> 16)
	g := uint8(v >> 8)
	b := uint8(v)
	return fmt.Sprintf("rgb(%d,%d,%d)", r, g, b)
}
