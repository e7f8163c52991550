package dto

import "github.com/smounat/ecole-plus-api/internal/models"

// GameTurnResponse is returned by every answer-check operation of a mini-game.
type GameTurnResponse struct {
	Correct     bool               `json:"correct"`
	Message     string             `json:"message"`
	Session     models.GameSession `json:"session"`
	BadgeEarned bool               `json:"badge_earned"`
}

// WordRoundResponse describes the current word-hunt round.
type WordRoundResponse struct {
	Hint    string             `json:"hint"`
	Session models.GameSession `json:"session"`
}

// MathRoundResponse describes the current addition round.
type MathRoundResponse struct {
	OperandA int                `json:"a"`
	OperandB int                `json:"b"`
	Session  models.GameSession `json:"session"`
}

// GameOverviewResponse summarises a student's mini-game completion.
type GameOverviewResponse struct {
	Badges      []models.Badge `json:"badges"`
	DoneGames   int            `json:"done_games"`
	TotalGames  int            `json:"total_games"`
	ProgressPct int            `json:"progress_pct"`
	Message     string         `json:"message"`
}

// ProblemRoundResponse carries a problem-bank exercise without its answer.
type ProblemRoundResponse struct {
	Problem models.Problem `json:"problem"`
	Level   string         `json:"level"`
}
