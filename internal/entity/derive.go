package entity

// WinCombos - rows, diagonals and columns of the 1-indexed board.
var WinCombos = [][3]int{
	{1, 2, 3},
	{1, 5, 9},
	{1, 4, 7},
	{2, 5, 8},
	{3, 5, 7},
	{3, 6, 9},
	{4, 5, 6},
	{7, 8, 9},
}

// DerivedGame - the view of the current game computed from its moves. It is never stored.
type DerivedGame struct {
	CurrentPlayer Player `json:"currentPlayer"`
	Moves         []Move `json:"moves"`
	Status        Status `json:"status"`
}

// Derive - computes current player, winner and completion from a move log.
// It has no side effects; the returned moves do not alias the input.
func Derive(moves []Move, players Players) DerivedGame {
	var winner *Player

	// the scan does not stop on the first match, the last matching player wins
	for i := range players {
		owned := make(map[int]bool, len(moves))
		for _, move := range moves {
			if move.Player.ID == players[i].ID {
				owned[move.SquareID] = true
			}
		}

		for _, combo := range WinCombos {
			if owned[combo[0]] && owned[combo[1]] && owned[combo[2]] {
				player := players[i]
				winner = &player
			}
		}
	}

	return DerivedGame{
		CurrentPlayer: players[len(moves)%2],
		Moves:         cloneMoves(moves),
		Status: Status{
			IsComplete: winner != nil || len(moves) == BoardSize,
			Winner:     winner,
		},
	}
}

func (that DerivedGame) IsComplete() bool {
	return that.Status.IsComplete
}

// Result - snapshot of the game suitable for the round history.
func (that DerivedGame) Result() RoundResult {
	return RoundResult{
		Moves:  cloneMoves(that.Moves),
		Status: that.Status.clone(),
	}
}
