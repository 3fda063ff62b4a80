package main

// Wire protocol shared with the browser client. All messages are JSON.

// Action is the closed set of moves a player may submit.
type Action string

const (
	ActionStartGame    Action = "START_GAME"
	ActionStartRound   Action = "START_ROUND"
	ActionRollForStart Action = "ROLL_FOR_START"
	ActionRoll         Action = "ROLL"
	ActionClaim        Action = "CLAIM"
	ActionChallenge    Action = "CHALLENGE"
)

// Stage is the lifecycle state of a single game room.
type Stage string

const (
	StagePreGame        Stage = "PRE_GAME"
	StageStartSelection Stage = "START_SELECTION"
	StageDiceRolling    Stage = "DICE_ROLLING"
	StageRoundRobin     Stage = "ROUND_ROBIN"
	StagePostRound      Stage = "POST_ROUND"
	StagePostGame       Stage = "POST_GAME"
)

// Change tags every server-initiated state notification.
type Change string

const (
	ChangePlayerJoined       Change = "PLAYER_JOINED"
	ChangePlayerLeft         Change = "PLAYER_LEFT"
	ChangeGameStarted        Change = "GAME_STARTED"
	ChangeRoundStarted       Change = "ROUND_STARTED"
	ChangeRoundEnded         Change = "ROUND_ENDED"
	ChangeDiceRollingStarted Change = "DICE_ROLLING_STARTED"
	ChangeDiceRolled         Change = "DICE_ROLLED"
	ChangeClaimMade          Change = "CLAIM_MADE"
	ChangeChallengeMade      Change = "CHALLENGE_MADE"
	ChangeGameEnded          Change = "GAME_ENDED"
)

type ErrorCode string

const (
	ErrCodeInvalidClaim     ErrorCode = "INVALID_CLAIM"
	ErrCodeInvalidChallenge ErrorCode = "INVALID_CHALLENGE"
	ErrCodeGameNotFound     ErrorCode = "GAME_NOT_FOUND"
	ErrCodeRoundNotActive   ErrorCode = "ROUND_NOT_ACTIVE"
	ErrCodeOutOfTurn        ErrorCode = "OUT_OF_TURN"
	ErrCodeUnauthorized     ErrorCode = "UNAUTHORIZED"
	ErrCodeGameInProgress   ErrorCode = "GAME_IN_PROGRESS"
	ErrCodeNotEnoughPlayers ErrorCode = "NOT_ENOUGH_PLAYERS"
	ErrCodeDuplicatePlayer  ErrorCode = "DUPLICATE_PLAYER"
	ErrCodeGameFull         ErrorCode = "GAME_FULL"
)

var errorDescription = map[ErrorCode]string{
	ErrCodeInvalidClaim:     "Claim must be higher than the previous claim",
	ErrCodeInvalidChallenge: "Cannot challenge nonexistent claim",
	ErrCodeGameNotFound:     "Game not found",
	ErrCodeRoundNotActive:   "Round not active",
	ErrCodeOutOfTurn:        "Attempting to make a move out of turn",
	ErrCodeUnauthorized:     "Player not authorized for this action",
	ErrCodeGameInProgress:   "Game already in progress",
	ErrCodeNotEnoughPlayers: "Not enough players to start the game",
	ErrCodeDuplicatePlayer:  "Player already in the game",
	ErrCodeGameFull:         "Game is full",
}

// Claim asserts that at least Quantity dice across all active players show
// FaceValue.
type Claim struct {
	Quantity  int `json:"quantity"`
	FaceValue int `json:"faceValue"`
}

// beats reports whether c outranks prev in (quantity, faceValue) order.
func (c Claim) beats(prev Claim) bool {
	if c.Quantity != prev.Quantity {
		return c.Quantity > prev.Quantity
	}
	return c.FaceValue > prev.FaceValue
}

// PlayerMessage is the inbound envelope read off a player's socket.
type PlayerMessage struct {
	Action Action `json:"action"`
	Claim  *Claim `json:"claim,omitempty"`
}

// PlayerRef identifies a seat in outbound notifications.
type PlayerRef struct {
	Name  string `json:"name"`
	Index int    `json:"index"`
}

// ChallengeResult reveals the aggregate outcome of a resolved challenge.
// DicePerPlayer holds, per seat, how many of that player's dice showed the
// claimed face; individual die faces are never revealed.
type ChallengeResult struct {
	Winner        int   `json:"winner"`
	Loser         int   `json:"loser"`
	TotalDice     int   `json:"totalDice"`
	DicePerPlayer []int `json:"dicePerPlayer"`
	GameEnded     bool  `json:"gameEnded"`
}

// ServerMessage is the outbound change notification envelope.
type ServerMessage struct {
	Change    Change           `json:"change"`
	Player    *PlayerRef       `json:"player,omitempty"`
	Claim     *Claim           `json:"claim,omitempty"`
	Challenge *ChallengeResult `json:"challenge,omitempty"`
	Roll      int              `json:"roll,omitempty"`
	Rolls     []int            `json:"rolls,omitempty"`
}

type ErrorDetail struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// ErrorMessage is delivered privately to the offending player.
type ErrorMessage struct {
	Error ErrorDetail `json:"error"`
}

func errorMessage(code ErrorCode) ErrorMessage {
	return ErrorMessage{Error: ErrorDetail{
		Code:    code,
		Message: errorDescription[code],
	}}
}

// SnapshotPlayer is one seat as seen by another player: dice counts only,
// never faces.
type SnapshotPlayer struct {
	Name          string `json:"name"`
	Index         int    `json:"index"`
	RemainingDice int    `json:"remainingDice"`
	Active        bool   `json:"active"`
	Connected     bool   `json:"connected"`
	HasRolled     bool   `json:"hasRolled"`
}

// GameSnapshot is the private state dump sent to a player on (re)connect.
// Dice holds only the receiving player's own current roll.
type GameSnapshot struct {
	Code         string           `json:"code"`
	Stage        Stage            `json:"stage"`
	HostIndex    int              `json:"hostIndex"`
	TurnIndex    int              `json:"turnIndex"`
	CurrentClaim *Claim           `json:"currentClaim,omitempty"`
	Players      []SnapshotPlayer `json:"players"`
	Dice         []int            `json:"dice,omitempty"`
}

type SnapshotMessage struct {
	Snapshot GameSnapshot `json:"snapshot"`
}
