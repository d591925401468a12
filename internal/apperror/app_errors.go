package apperror

import "errors"

var (
	ErrParse           = errors.New("stored game state is corrupted")
	ErrInvalidArgument = errors.New("invalid state has been passed")
	ErrInvalidCell     = errors.New("invalid square id")
	ErrCellOccupied    = errors.New("square is already occupied")
	ErrGameFinished    = errors.New("game is already finished")
)
