package service

import "errors"

var (
	// ErrInvalidOrderID is returned when order ID is empty.
	ErrInvalidOrderID = errors.New("invalid order id")

	// ErrInvalidTripID is returned when trip ID is empty.
	ErrInvalidTripID = errors.New("invalid trip id")

	// ErrInvalidDriverID is returned when driver ID is empty.
	ErrInvalidDriverID = errors.New("invalid driver id")

	// ErrInvalidRouteID is returned when route ID is empty.
	ErrInvalidRouteID = errors.New("invalid route id")

	// ErrInvalidWeight is returned when trip weight is zero or negative.
	ErrInvalidWeight = errors.New("trip weight must be positive")

	// ErrInvalidDateRange is returned when a date range is inverted.
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrVehicleRequired is returned when the organization requires a
	// vehicle at dispatch and none was supplied.
	ErrVehicleRequired = errors.New("vehicle is required")

	// ErrDriverRequired is returned when the organization requires a
	// driver at dispatch and none was supplied.
	ErrDriverRequired = errors.New("driver is required")

	// ErrInvalidStageType is returned when the stage type is empty.
	ErrInvalidStageType = errors.New("invalid stage type")

	// ErrUnknownStage is returned when the stage type is not part of the
	// organization's report stage pipeline.
	ErrUnknownStage = errors.New("stage not in organization pipeline")

	// ErrPipelineIncomplete is returned when the organization's pipeline
	// lacks the structural WAITING_FOR_PICKUP or DELIVERED stages.
	ErrPipelineIncomplete = errors.New("report stage pipeline missing required stages")

	// ErrTripCanceled is returned when writing to a canceled trip.
	// CANCELED is terminal and rejects all further transitions.
	ErrTripCanceled = errors.New("trip is canceled")

	// ErrTripLocked is returned when another writer holds the trip lock.
	ErrTripLocked = errors.New("trip is being updated by another request")

	// ErrDuplicateTripCode is returned after exhausting the retry budget
	// for trip code allocation. Should not occur under correct sequencing.
	ErrDuplicateTripCode = errors.New("could not allocate a unique trip code")

	// ErrNoTripIDs is returned when a bulk operation receives no trips.
	ErrNoTripIDs = errors.New("no trip ids supplied")
)
