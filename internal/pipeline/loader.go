package pipeline

import (
	"errors"
	"fmt"

	"github.com/theirongolddev/salescast/internal/model"
	"github.com/theirongolddev/salescast/internal/source"
)

// LoadResult holds the output of the full data loading pipeline.
type LoadResult struct {
	Records []model.Transaction // nil when the series came from the cache
	Summary model.DataSummary
	Daily   []model.DailyQty
	Monthly []model.MonthlyQty
}

// Load parses the transaction file at path and derives the daily and monthly
// series. On failure the result is nil and the error matches one of
// model.ErrFileNotFound, model.ErrDataFormat or model.ErrDataLoad.
func Load(path string) (*LoadResult, error) {
	pr := source.ParseFile(path)
	if pr.Err != nil {
		return nil, classify(pr.Err)
	}

	daily := AggregateDays(pr.Records)
	return &LoadResult{
		Records: pr.Records,
		Summary: Summarize(pr.Records),
		Daily:   daily,
		Monthly: AggregateMonths(daily),
	}, nil
}

// classify ensures err carries one of the loader sentinels.
func classify(err error) error {
	switch {
	case errors.Is(err, model.ErrFileNotFound),
		errors.Is(err, model.ErrDataFormat),
		errors.Is(err, model.ErrDataLoad):
		return err
	default:
		return fmt.Errorf("%w: %w", model.ErrDataLoad, err)
	}
}
