package services

import (
	"context"
	"sort"
	"time"

	"github.com/joshua-takyi/busline/internal/models"
)

const reportDateLayout = "2006-01-02"

type DailyRevenue struct {
	Date         string  `json:"date"`
	Revenue      float64 `json:"revenue"`
	Reservations int     `json:"reservations"`
}

type Report struct {
	From              *time.Time                       `json:"from,omitempty"`
	To                *time.Time                       `json:"to,omitempty"`
	TotalReservations int                              `json:"total_reservations"`
	TotalRevenue      float64                          `json:"total_revenue"`
	UniqueUsers       int                              `json:"unique_users"`
	ByStatus          map[models.ReservationStatus]int `json:"by_status"`
	Daily             []DailyRevenue                   `json:"daily"`
	Reservations      []*models.Reservation            `json:"reservations"`
}

type ReportService struct {
	reservations models.ReservationRepo
}

func NewReportService(reservations models.ReservationRepo) *ReportService {
	return &ReportService{reservations: reservations}
}

// ParseReportRange reads optional YYYY-MM-DD bounds. The end date is inclusive.
func ParseReportRange(start, end string) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if start != "" {
		t, err := time.Parse(reportDateLayout, start)
		if err != nil {
			return nil, nil, invalid("start_date must be YYYY-MM-DD")
		}
		from = &t
	}
	if end != "" {
		t, err := time.Parse(reportDateLayout, end)
		if err != nil {
			return nil, nil, invalid("end_date must be YYYY-MM-DD")
		}
		t = t.Add(24*time.Hour - time.Nanosecond)
		to = &t
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, nil, invalid("end_date is before start_date")
	}
	return from, to, nil
}

func (rs *ReportService) Summary(ctx context.Context, from, to *time.Time) (*Report, error) {
	list, err := rs.reservations.ListReservations(ctx, models.ReservationFilter{From: from, To: to})
	if err != nil {
		return nil, err
	}
	report := BuildReport(list)
	report.From, report.To = from, to
	return report, nil
}

// BuildReport aggregates reservations. Cancelled reservations count toward the
// totals but not toward revenue.
func BuildReport(list []*models.Reservation) *Report {
	report := &Report{
		TotalReservations: len(list),
		ByStatus: map[models.ReservationStatus]int{
			models.StatusConfirmed: 0,
			models.StatusValidated: 0,
			models.StatusCancelled: 0,
		},
		Daily:        make([]DailyRevenue, 0),
		Reservations: list,
	}
	if report.Reservations == nil {
		report.Reservations = make([]*models.Reservation, 0)
	}

	users := make(map[string]struct{})
	days := make(map[string]*DailyRevenue)
	for _, r := range list {
		report.ByStatus[r.Status]++
		users[r.UserID.Hex()] = struct{}{}

		key := r.CreatedAt.UTC().Format(reportDateLayout)
		day, ok := days[key]
		if !ok {
			day = &DailyRevenue{Date: key}
			days[key] = day
		}
		day.Reservations++

		if r.Status == models.StatusCancelled {
			continue
		}
		report.TotalRevenue += r.Trip.Price
		day.Revenue += r.Trip.Price
	}
	report.UniqueUsers = len(users)

	for _, d := range days {
		report.Daily = append(report.Daily, *d)
	}
	sort.Slice(report.Daily, func(i, j int) bool { return report.Daily[i].Date < report.Daily[j].Date })
	return report
}
