// Package dashboard assembles the home dashboard: record counts plus the
// static chart, notification and pagination widgets.
package dashboard

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Counter counts the records of one entity type
type Counter interface {
	Count(ctx context.Context) (int64, error)
}

// ChartSeries is one line of the activity chart
type ChartSeries struct {
	Name string `json:"name"`
	Data []int  `json:"data"`
}

// Chart is the activity chart widget
type Chart struct {
	Categories []string      `json:"categories"`
	Series     []ChartSeries `json:"series"`
}

// Notification is an entry of the notifications widget
type Notification struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Overview is everything the dashboard page shows
type Overview struct {
	Users         int64          `json:"users"`
	Companies     int64          `json:"companies"`
	Chart         Chart          `json:"chart"`
	Notifications []Notification `json:"notifications"`
	Pages         []int          `json:"pages"`
}

// Service builds the dashboard overview
type Service struct {
	users     Counter
	companies Counter
}

// NewService creates a dashboard service
func NewService(users, companies Counter) *Service {
	return &Service{users: users, companies: companies}
}

// Overview fetches both counts concurrently. The first failure cancels the
// other fetch and is returned.
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	out := staticOverview()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.users.Count(gctx)
		out.Users = n
		return err
	})
	g.Go(func() error {
		n, err := s.companies.Count(gctx)
		out.Companies = n
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func staticOverview() *Overview {
	return &Overview{
		Chart: Chart{
			Categories: []string{
				"2022-07-31", "2022-08-01", "2022-08-02", "2022-08-03",
				"2022-08-04", "2022-08-05", "2022-08-06",
			},
			Series: []ChartSeries{{
				Name: "series1",
				Data: []int{30, 40, 20, 30, 10, 25, 30, 30},
			}},
		},
		Notifications: []Notification{
			{ID: "01", Title: "Notificação 01"},
			{ID: "02", Title: "Notificação 02"},
			{ID: "03", Title: "Notificação 03"},
			{ID: "04", Title: "Notificação 04"},
			{ID: "05", Title: "Notificação 05"},
			{ID: "06", Title: "Notificação 06"},
		},
		Pages: []int{1, 2, 3, 4, 5},
	}
}
