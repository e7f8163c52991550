package models

import "time"

// GameKind identifies one of the educational mini-games.
type GameKind string

const (
	GameWordHunt GameKind = "word-hunt"
	GameMath     GameKind = "math"
	GameProblem  GameKind = "problem"
)

// Badge titles awarded when a mini-game session reaches the score threshold.
const (
	BadgeWordHunter = "Chasseur de mots"
	BadgeMathMaster = "Math Master"
	BadgeProblem    = "Problème illustré"
)

// GameSession is the explicit per-session state of a mini-game. It is passed
// into and returned from every turn operation, never kept as ambient state.
type GameSession struct {
	SessionID string    `json:"session_id"`
	Game      GameKind  `json:"game"`
	Score     int       `json:"score"`
	Word      string    `json:"-"`
	Hint      string    `json:"hint,omitempty"`
	OperandA  int       `json:"operand_a,omitempty"`
	OperandB  int       `json:"operand_b,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Problem is an illustrated exercise from the problem bank, tagged by level.
type Problem struct {
	ID        string    `db:"id" json:"id"`
	Question  string    `db:"question" json:"question"`
	ImagePath *string   `db:"image_path" json:"image_path,omitempty"`
	// Answer is never serialized towards students.
	Answer    string    `db:"answer" json:"-"`
	Level     string    `db:"level" json:"level"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// WordEntry is one entry of the word-hunt bank: a word to guess and its hint.
type WordEntry struct {
	Word string `json:"-"`
	Hint string `json:"hint"`
}
