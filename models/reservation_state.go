package models

import "loyaltystay/errors"

// ReservationState says which transitions a reservation allows. Each method
// returns nil when the transition is allowed.
type ReservationState interface {
	Modify() error
	Cancel() error
	Complete() error
}

// BookedState is a reservation held at the vendor.
type BookedState struct{}

func (BookedState) Modify() error   { return nil }
func (BookedState) Cancel() error   { return nil }
func (BookedState) Complete() error { return nil }

// CanceledState is terminal.
type CanceledState struct{}

func (CanceledState) Modify() error {
	return errors.NewAppError(errors.ErrCodeBadRequest, "Reservation is canceled", errors.ErrAlreadyCanceled)
}

func (CanceledState) Cancel() error {
	return errors.NewAppError(errors.ErrCodeBadRequest, "Reservation is already canceled", errors.ErrAlreadyCanceled)
}

func (CanceledState) Complete() error {
	return errors.NewAppError(errors.ErrCodeBadRequest, "Canceled reservation cannot be completed", errors.ErrAlreadyCanceled)
}

// CompletedState is terminal; completing twice is a duplicate.
type CompletedState struct{}

func (CompletedState) Modify() error {
	return errors.NewAppError(errors.ErrCodeBadRequest, "Reservation is completed", errors.ErrAlreadyCompleted)
}

func (CompletedState) Cancel() error {
	return errors.NewAppError(errors.ErrCodeBadRequest, "Completed reservation cannot be canceled", errors.ErrAlreadyCompleted)
}

func (CompletedState) Complete() error {
	return errors.NewAppError(errors.ErrCodeDuplicate, "Reservation is already completed", errors.ErrAlreadyCompleted)
}

// GetReservationState returns the state of r.
func GetReservationState(r *Reservation) ReservationState {
	switch {
	case r.IsCanceled():
		return CanceledState{}
	case r.IsCompleted():
		return CompletedState{}
	default:
		return BookedState{}
	}
}
