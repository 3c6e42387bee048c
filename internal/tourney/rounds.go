package tourney

// Round names persisted on matches.
const (
	RoundOf18     = "Round of 18"
	RoundOf16     = "Round of 16"
	Quarterfinals = "Quarterfinals"
	Semifinals    = "Semifinals"
	Finals        = "Finals"
	Champion      = "Champion"
)

// Round is one entry of the advancement table.
type Round struct {
	Number int
	Name   string
}

var successors = map[int]Round{
	1: {Number: 2, Name: Quarterfinals},
	2: {Number: 3, Name: Semifinals},
	3: {Number: 4, Name: Finals},
	4: {Number: 5, Name: Champion},
}

// NextRound returns the round that winners of round number n advance into.
// The table is closed: anything past the finals has no successor.
func NextRound(n int) (Round, bool) {
	r, ok := successors[n]
	return r, ok
}
