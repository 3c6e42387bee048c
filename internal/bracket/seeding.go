package bracket

import "github.com/asterisk/tourney/internal/tourney"

// Pairing is one qualifier match in a seeding list.
type Pairing struct {
	Team1     string       `json:"team1"`
	Team1Seed tourney.Seed `json:"team1_seed"`
	Team2     string       `json:"team2"`
	Team2Seed tourney.Seed `json:"team2_seed"`
	Court     string       `json:"court,omitempty"`
	TimeSlot  string       `json:"time_slot,omitempty"`
}

// DefaultSeeding is the qualifier lineup used when initialization is called
// without one.
func DefaultSeeding() []Pairing {
	return []Pairing{
		{Team1: "Go Lose Fast", Team1Seed: 1, Team2: "Gods Own Country", Team2Seed: 16},
		{Team1: "EXODUS", Team1Seed: 8, Team2: "Domain 5", Team2Seed: 9},
		{Team1: "Targaryens", Team1Seed: 4, Team2: "Hestia", Team2Seed: 13},
		{Team1: "Renegades", Team1Seed: 5, Team2: "Spike Rushers", Team2Seed: 12},
		{Team1: "BLACKLISTED", Team1Seed: 2, Team2: "Log Bait", Team2Seed: 15},
		{Team1: "BINARY LEGION", Team1Seed: 7, Team2: "Vitality", Team2Seed: 10},
		{Team1: "Hardstuck", Team1Seed: 3, Team2: "XLr8", Team2Seed: 14},
		{Team1: "LavaLoon", Team1Seed: 6, Team2: "ULTF4", Team2Seed: 11},
		{Team1: "LABWUBWU", Team1Seed: tourney.SeedTBD, Team2: "Esports Division NITC Alpha", Team2Seed: tourney.SeedTBD},
	}
}
