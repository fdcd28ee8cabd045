package in

import (
	"context"
	"io"

	"adsdash/internal/modules/metrics/dto"
	metricsin "adsdash/internal/modules/metrics/port/in"
)

type CLIHandler struct {
	usecase metricsin.Usecase
}

func NewCLIHandler(usecase metricsin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Query(ctx context.Context, startDate, endDate, sortBy, sortDir string, page, pageSize int) (dto.ViewOutput, error) {
	return h.usecase.Query(ctx, dto.QueryInput{
		StartDate: startDate,
		EndDate:   endDate,
		SortBy:    sortBy,
		SortDir:   sortDir,
		Page:      page,
		PageSize:  pageSize,
	})
}

func (h CLIHandler) WriteCSV(w io.Writer, view dto.ViewOutput) error {
	return h.usecase.WriteCSV(w, view)
}
