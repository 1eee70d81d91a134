package storage

import (
	"context"
	"errors"

	"stableswapDeployer/internal/model"
)

// Storage defines a sink for step records.
type Storage interface {
	Record(ctx context.Context, record model.StepRecord) error
}

// Multi fans a record out to every sink. All sinks are tried; their errors are joined.
type Multi []Storage

func (m Multi) Record(ctx context.Context, record model.StepRecord) error {
	var errs []error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.Record(ctx, record); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
