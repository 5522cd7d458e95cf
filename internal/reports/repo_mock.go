package reports

import (
	"context"
	"sort"
)

type repoMock struct {
	nextID  int
	reports map[int]*Report
}

func NewMockReportsRepo() *repoMock {
	return &repoMock{
		nextID:  1,
		reports: make(map[int]*Report),
	}
}

func (r *repoMock) Add(_ context.Context, report *Report) (*Report, error) {
	report.ID = r.nextID
	r.nextID++
	r.reports[report.ID] = report
	return report, nil
}

func (r *repoMock) Get(_ context.Context, id int) (*Report, error) {
	report, ok := r.reports[id]
	if !ok {
		return nil, ErrReportNotFound
	}
	return report, nil
}

func (r *repoMock) Update(ctx context.Context, report *Report) error {
	if _, err := r.Get(ctx, report.ID); err != nil {
		return err
	}
	r.reports[report.ID] = report
	return nil
}

func (r *repoMock) Delete(_ context.Context, id int) error {
	if _, ok := r.reports[id]; !ok {
		return ErrReportNotFound
	}
	delete(r.reports, id)
	return nil
}

func (r *repoMock) List(_ context.Context, athleteID string) ([]Report, error) {
	var reportsList []Report
	for _, report := range r.reports {
		if athleteID != "" && report.AthleteID != athleteID {
			continue
		}
		reportsList = append(reportsList, *report)
	}
	sort.Slice(reportsList, func(i, j int) bool {
		return reportsList[i].CreatedAt.After(reportsList[j].CreatedAt)
	})
	return reportsList, nil
}
