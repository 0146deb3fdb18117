package storage

import "errors"

// Recorder receives game history as it happens. Implementations must not
// block the caller on I/O.
type Recorder interface {
	RecordNewGame(record GameRecord) error
	RecordMove(record MoveRecord) error
	RecordOpponent(gameID, model string) error
	DeleteUndoneMoves(gameID string, afterMoveNumber int) error
	IsHealthy() bool
	Close() error
}

// Tee fans every record out to several recorders
type Tee []Recorder

func (t Tee) RecordNewGame(record GameRecord) error {
	var errs []error
	for _, r := range t {
		errs = append(errs, r.RecordNewGame(record))
	}
	return errors.Join(errs...)
}

func (t Tee) RecordMove(record MoveRecord) error {
	var errs []error
	for _, r := range t {
		errs = append(errs, r.RecordMove(record))
	}
	return errors.Join(errs...)
}

func (t Tee) RecordOpponent(gameID, model string) error {
	var errs []error
	for _, r := range t {
		errs = append(errs, r.RecordOpponent(gameID, model))
	}
	return errors.Join(errs...)
}

func (t Tee) DeleteUndoneMoves(gameID string, afterMoveNumber int) error {
	var errs []error
	for _, r := range t {
		errs = append(errs, r.DeleteUndoneMoves(gameID, afterMoveNumber))
	}
	return errors.Join(errs...)
}

// IsHealthy is true only when every recorder is healthy
func (t Tee) IsHealthy() bool {
	for _, r := range t {
		if !r.IsHealthy() {
			return false
		}
	}
	return true
}

func (t Tee) Close() error {
	var errs []error
	for _, r := range t {
		errs = append(errs, r.Close())
	}
	return errors.Join(errs...)
}
