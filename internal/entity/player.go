package entity

type Player struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	IconClass  string `json:"iconClass"`
	ColorClass string `json:"colorClass"`
}

// Players - the two participants; index 0 moves first.
type Players [2]Player

// DefaultPlayers - the registry every context is started with.
func DefaultPlayers() Players {
	return Players{
		{
			ID:         1,
			Name:       "Player 1",
			IconClass:  "fa-o",
			ColorClass: "yellow",
		},
		{
			ID:         2,
			Name:       "Player 2",
			IconClass:  "fa-x",
			ColorClass: "turquoise",
		},
	}
}

func (that Player) Is(other *Player) bool {
	return other != nil && other.ID == that.ID
}
