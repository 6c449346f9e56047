package services

import (
	"errors"

	apierrors "opsdash/internal/errors"
)

// Data service errors
var (
	// ErrNotLoaded is returned before the first snapshot has been published.
	ErrNotLoaded = errors.New("datasets not loaded")

	// ErrDatasetNotFound is returned for dataset names outside the built-in set.
	ErrDatasetNotFound = apierrors.NewNotFoundError("dataset")

	// ErrSchedulerRunning is returned by Start on a running scheduler.
	ErrSchedulerRunning = errors.New("refresh scheduler already running")
)
