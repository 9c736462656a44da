package entity

// Players binds the two public keys of one session together, exchanged once
// during matchmaking. The names are optional display names.
type Players struct {
	P1Name string `json:"p1_name,omitempty"`
	P2Name string `json:"p2_name,omitempty"`
	P1Key  string `json:"p1_key"`
	P2Key  string `json:"p2_key"`
}

func NewPlayers(p1Name, p2Name, p1Key, p2Key string) *Players {
	return &Players{
		P1Name: p1Name,
		P2Name: p2Name,
		P1Key:  p1Key,
		P2Key:  p2Key,
	}
}

// Has - reports whether the key belongs to either side of the pairing.
func (that *Players) Has(key string) bool {
	return that.P1Key == key || that.P2Key == key
}
