package content

import (
	"strings"
	"time"
)

type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

var Difficulties = []Difficulty{Easy, Medium, Hard}

// ParseDifficulty accepts exactly easy, medium or hard in any case.
func ParseDifficulty(s string) (Difficulty, bool) {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(s))); d {
	case Easy, Medium, Hard:
		return d, true
	}
	return "", false
}

type Question struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type Song struct {
	Title  string `json:"title"`
	Lyrics string `json:"lyrics"`
}

type ScoreEntry struct {
	Name  string
	Score int
}

type TeamSize struct {
	Team  string
	Count int
}

type Prayer struct {
	Name    string    `json:"name"`
	Request string    `json:"request"`
	Chat    string    `json:"chat"`
	At      time.Time `json:"at"`
}
