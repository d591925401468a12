package entity

type PlayerWithStats struct {
	Player

	Wins int `json:"wins"`
}

type Stats struct {
	PlayerWithStats []PlayerWithStats `json:"playerWithStats"`
	Ties            int               `json:"ties"`
}

// ComputeStats - scores the games of the current round-group. allRounds is not counted.
func ComputeStats(players Players, history History) Stats {
	stats := Stats{
		PlayerWithStats: make([]PlayerWithStats, 0, len(players)),
	}

	for _, player := range players {
		wins := 0
		for _, game := range history.CurrentRoundGames {
			if player.Is(game.Status.Winner) {
				wins++
			}
		}

		stats.PlayerWithStats = append(stats.PlayerWithStats, PlayerWithStats{
			Player: player,
			Wins:   wins,
		})
	}

	for _, game := range history.CurrentRoundGames {
		if game.Status.Winner == nil {
			stats.Ties++
		}
	}

	return stats
}

// Wins - number of wins for the player with the given id.
func (that Stats) Wins(playerID int) int {
	for _, player := range that.PlayerWithStats {
		if player.ID == playerID {
			return player.Wins
		}
	}

	return 0
}
