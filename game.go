package main

// Liar's Dice coordinator
//
// Each room is one Game with its own goroutine. Connections register and
// unregister through channels, and every inbound player action is validated
// and applied within a single loop iteration, so a second message for the
// same room can never observe a half-applied state.
//
// Rules enforced here:
// - The host starts the game once at least two players are seated.
// - Every seated player rolls one die; the highest roll (ties to the lowest
//   seat) opens the first round.
// - Each round, active players roll their remaining dice in private, then
//   claims escalate in (quantity, face value) order around the table.
// - The player on turn may challenge the standing claim instead of raising;
//   the actual dice are tallied and the loser forfeits one die.
// - A player with no dice left keeps their seat but is skipped by rotation.
// - The last player holding dice wins.

import (
	"math/rand/v2"
	"sync"
	"time"
)

const (
	maxPlayers   = 6
	startingDice = 6
	dieSides     = 6
)

// Player is one seat in a room. Seats are assigned at join time and never
// reused or reordered, even after elimination.
type Player struct {
	id            string
	name          string
	seat          int
	client        *Client // nil while no socket is attached
	joined        bool    // a socket has been attached at least once
	dice          []int   // current roll, only during the active phase
	remainingDice int
	hasRolled     bool
	startRoll     int // 0 until rolled during start selection
}

func (p *Player) active() bool {
	return p.remainingDice > 0
}

func (p *Player) ref() *PlayerRef {
	return &PlayerRef{Name: p.name, Index: p.seat}
}

type actionRequest struct {
	client *Client
	msg    PlayerMessage
}

type Game struct {
	code   string
	hostID string

	register chan *Client
	unreg    chan *Client
	actions  chan actionRequest
	done     chan struct{}

	mu      sync.RWMutex
	clients map[*Client]bool
	players []*Player // seat order
	stage   Stage

	currentClaim     *Claim
	turnIndex        int
	numPlayersRolled int

	createdAt  time.Time
	lastActive time.Time

	// rollDie produces one uniform die face; replaced in tests.
	rollDie func() int
}

func newGame(code, hostID, hostName string) *Game {
	now := time.Now()
	host := &Player{
		id:            hostID,
		name:          hostName,
		seat:          0,
		remainingDice: startingDice,
	}

	return &Game{
		code:       code,
		hostID:     hostID,
		register:   make(chan *Client),
		unreg:      make(chan *Client),
		actions:    make(chan actionRequest),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		players:    []*Player{host},
		stage:      StagePreGame,
		createdAt:  now,
		lastActive: now,
		rollDie:    func() int { return rand.IntN(dieSides) + 1 },
	}
}

func (g *Game) run(cfg *Config) {
	for {
		select {
		case c := <-g.register:
			g.handleRegister(cfg, c)

		case c := <-g.unreg:
			g.handleUnregister(cfg, c)

		case ar := <-g.actions:
			g.handleAction(cfg, ar)

		case <-g.done:
			return
		}
	}
}

// addPlayer seats a new player. Called by the registry on join, before any
// socket exists for that player.
func (g *Game) addPlayer(id, name string) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.playerByIDLocked(id) != nil {
		return 0, errDuplicatePlayer
	}
	if len(g.players) >= maxPlayers {
		return 0, errGameFull
	}
	if g.stage != StagePreGame {
		return 0, errGameInProgress
	}

	p := &Player{
		id:            id,
		name:          name,
		seat:          len(g.players),
		remainingDice: startingDice,
	}
	g.players = append(g.players, p)
	g.lastActive = time.Now()

	return p.seat, nil
}

func (g *Game) hasPlayer(id string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.playerByIDLocked(id) != nil
}

func (g *Game) playerByIDLocked(id string) *Player {
	for _, p := range g.players {
		if p.id == id {
			return p
		}
	}
	return nil
}

// handleRegister binds a socket to its seat. Rebinding on reconnect is
// last-writer-wins; the stale socket is shut down.
func (g *Game) handleRegister(cfg *Config, c *Client) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.lastActive = time.Now()

	p := g.playerByIDLocked(c.playerID)
	if p == nil {
		close(c.send)
		return
	}

	if old := p.client; old != nil && old != c {
		if g.clients[old] {
			delete(g.clients, old)
			close(old.send)
		}
	}

	g.clients[c] = true
	p.client = c

	if !p.joined {
		p.joined = true
		g.broadcastLocked(ServerMessage{
			Change: ChangePlayerJoined,
			Player: p.ref(),
		})
		logf(cfg, "GAMES: Player %q connected to %s (seat %d)", p.name, g.code, p.seat)
	} else {
		logf(cfg, "GAMES: Player %q reconnected to %s", p.name, g.code)
	}

	// Reconnecting clients rebuild their view from this snapshot; missed
	// broadcasts are not replayed.
	g.sendLocked(c, g.snapshotLocked(p))
}

// handleUnregister clears the seat's binding only if the closing socket is
// still the bound one, so a close racing a reconnect cannot knock the new
// socket offline.
func (g *Game) handleUnregister(cfg *Config, c *Client) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.lastActive = time.Now()

	if g.clients[c] {
		delete(g.clients, c)
		close(c.send)
	}

	p := g.playerByIDLocked(c.playerID)
	if p == nil || p.client != c {
		return
	}
	p.client = nil

	g.broadcastLocked(ServerMessage{
		Change: ChangePlayerLeft,
		Player: p.ref(),
	})
	logf(cfg, "GAMES: Player %q disconnected from %s", p.name, g.code)
}

func (g *Game) handleAction(cfg *Config, ar actionRequest) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.lastActive = time.Now()

	p := g.playerByIDLocked(ar.client.playerID)
	if p == nil {
		return
	}

	switch ar.msg.Action {
	case ActionStartGame:
		g.startGameLocked(cfg, p)
	case ActionRollForStart:
		g.rollForStartLocked(p)
	case ActionStartRound:
		g.startRoundLocked(p)
	case ActionRoll:
		g.rollLocked(p)
	case ActionClaim:
		g.claimLocked(p, ar.msg.Claim)
	case ActionChallenge:
		g.challengeLocked(cfg, p)
	default:
		// unknown actions are dropped
	}
}

func (g *Game) startGameLocked(cfg *Config, p *Player) {
	if g.stage != StagePreGame {
		g.errorToLocked(p, ErrCodeGameInProgress)
		return
	}
	if p.id != g.hostID {
		g.errorToLocked(p, ErrCodeUnauthorized)
		return
	}
	if len(g.players) < 2 {
		g.errorToLocked(p, ErrCodeNotEnoughPlayers)
		return
	}

	g.stage = StageStartSelection
	g.broadcastLocked(ServerMessage{Change: ChangeGameStarted})
	logf(cfg, "GAMES: Game %s started with %d players", g.code, len(g.players))
}

func (g *Game) rollForStartLocked(p *Player) {
	if g.stage != StageStartSelection {
		g.errorToLocked(p, ErrCodeRoundNotActive)
		return
	}
	if p.startRoll != 0 {
		g.errorToLocked(p, ErrCodeOutOfTurn)
		return
	}

	p.startRoll = g.rollDie()
	g.numPlayersRolled++

	g.sendToPlayerLocked(p, ServerMessage{
		Change: ChangeDiceRolled,
		Roll:   p.startRoll,
	})

	if g.numPlayersRolled < len(g.players) {
		return
	}

	// Highest roll opens; ties go to the lowest seat.
	opener := g.players[0]
	rolls := make([]int, len(g.players))
	for _, q := range g.players {
		rolls[q.seat] = q.startRoll
		if q.startRoll > opener.startRoll {
			opener = q
		}
	}
	g.turnIndex = opener.seat

	g.broadcastLocked(ServerMessage{
		Change: ChangeRoundStarted,
		Player: opener.ref(),
		Rolls:  rolls,
	})

	g.enterRollingPhaseLocked()
}

func (g *Game) startRoundLocked(p *Player) {
	if g.stage != StageStartSelection && g.stage != StagePostRound {
		g.errorToLocked(p, ErrCodeRoundNotActive)
		return
	}
	if p.id != g.hostID {
		g.errorToLocked(p, ErrCodeUnauthorized)
		return
	}

	g.enterRollingPhaseLocked()
}

// enterRollingPhaseLocked begins a DICE_ROLLING phase: the standing claim is
// cleared and every active player must roll again.
func (g *Game) enterRollingPhaseLocked() {
	g.currentClaim = nil
	g.numPlayersRolled = 0
	for _, p := range g.players {
		p.hasRolled = false
		p.dice = nil
	}

	g.stage = StageDiceRolling
	g.broadcastLocked(ServerMessage{Change: ChangeDiceRollingStarted})
}

func (g *Game) rollLocked(p *Player) {
	if g.stage != StageDiceRolling {
		g.errorToLocked(p, ErrCodeRoundNotActive)
		return
	}
	if !p.active() || p.hasRolled {
		g.errorToLocked(p, ErrCodeOutOfTurn)
		return
	}

	p.dice = make([]int, p.remainingDice)
	for i := range p.dice {
		p.dice[i] = g.rollDie()
	}
	p.hasRolled = true
	g.numPlayersRolled++

	// The roll itself is private; opponents only ever learn aggregates.
	g.sendToPlayerLocked(p, ServerMessage{
		Change: ChangeDiceRolled,
		Rolls:  p.dice,
	})

	if g.numPlayersRolled < g.activeCountLocked() {
		return
	}

	g.stage = StageRoundRobin
	g.broadcastLocked(ServerMessage{
		Change: ChangeRoundStarted,
		Player: g.players[g.turnIndex].ref(),
	})
}

func (g *Game) claimLocked(p *Player, claim *Claim) {
	if g.stage != StageRoundRobin {
		g.errorToLocked(p, ErrCodeRoundNotActive)
		return
	}
	if p.seat != g.turnIndex {
		g.errorToLocked(p, ErrCodeOutOfTurn)
		return
	}
	if claim == nil || claim.Quantity < 1 || claim.FaceValue < 1 || claim.FaceValue > dieSides {
		g.errorToLocked(p, ErrCodeInvalidClaim)
		return
	}
	if g.currentClaim != nil && !claim.beats(*g.currentClaim) {
		g.errorToLocked(p, ErrCodeInvalidClaim)
		return
	}

	accepted := *claim
	g.currentClaim = &accepted
	g.turnIndex = g.nextActiveSeatLocked(g.turnIndex)

	g.broadcastLocked(ServerMessage{
		Change: ChangeClaimMade,
		Claim:  &accepted,
		Player: g.players[g.turnIndex].ref(),
	})
}

func (g *Game) challengeLocked(cfg *Config, p *Player) {
	if g.stage != StageRoundRobin {
		g.errorToLocked(p, ErrCodeRoundNotActive)
		return
	}
	if p.seat != g.turnIndex {
		g.errorToLocked(p, ErrCodeOutOfTurn)
		return
	}
	if g.currentClaim == nil {
		g.errorToLocked(p, ErrCodeInvalidChallenge)
		return
	}

	claim := *g.currentClaim

	// Tally the claimed face across every active player's dice.
	total := 0
	perSeat := make([]int, len(g.players))
	for _, q := range g.players {
		if !q.active() {
			continue
		}
		for _, face := range q.dice {
			if face == claim.FaceValue {
				total++
				perSeat[q.seat]++
			}
		}
	}

	// The claim's maker is the previous active seat before the challenger.
	claimant := g.players[g.prevActiveSeatLocked(p.seat)]

	var winner, loser *Player
	if total < claim.Quantity {
		winner, loser = p, claimant
	} else {
		winner, loser = claimant, p
	}

	loser.remainingDice--
	if loser.remainingDice == 0 {
		logf(cfg, "GAMES: Player %q eliminated from %s", loser.name, g.code)
	}

	gameEnded := g.activeCountLocked() == 1

	g.broadcastLocked(ServerMessage{
		Change: ChangeChallengeMade,
		Claim:  &claim,
		Challenge: &ChallengeResult{
			Winner:        winner.seat,
			Loser:         loser.seat,
			TotalDice:     total,
			DicePerPlayer: perSeat,
			GameEnded:     gameEnded,
		},
	})

	g.currentClaim = nil
	g.numPlayersRolled = 0
	for _, q := range g.players {
		q.hasRolled = false
		q.startRoll = 0
		q.dice = nil
	}

	if gameEnded {
		// The challenge winner is necessarily the last player holding dice.
		g.turnIndex = winner.seat
		g.stage = StagePostGame
		g.broadcastLocked(ServerMessage{
			Change: ChangeGameEnded,
			Player: winner.ref(),
		})
		logf(cfg, "GAMES: Game %s won by %q", g.code, winner.name)
		return
	}

	// The next round opens with the surviving player seated before the
	// challenger, wrapping past eliminated seats.
	g.turnIndex = g.prevActiveSeatLocked(p.seat)
	g.stage = StagePostRound
	g.broadcastLocked(ServerMessage{
		Change: ChangeRoundEnded,
		Player: g.players[g.turnIndex].ref(),
	})
}

func (g *Game) activeCountLocked() int {
	count := 0
	for _, p := range g.players {
		if p.active() {
			count++
		}
	}
	return count
}

// nextActiveSeatLocked returns the first seat after the given one, in
// rotation order, holding dice. Returns seat itself only if no other seat is
// active.
func (g *Game) nextActiveSeatLocked(seat int) int {
	n := len(g.players)
	for i := 1; i <= n; i++ {
		s := (seat + i) % n
		if g.players[s].active() {
			return s
		}
	}
	return seat
}

// prevActiveSeatLocked is the counterpart walking backwards, using true
// modulo so the index never goes negative.
func (g *Game) prevActiveSeatLocked(seat int) int {
	n := len(g.players)
	for i := 1; i <= n; i++ {
		s := ((seat-i)%n + n) % n
		if g.players[s].active() {
			return s
		}
	}
	return seat
}

// snapshotLocked builds the private state view for one player: every seat's
// counts, but dice faces only for the receiving player.
func (g *Game) snapshotLocked(p *Player) SnapshotMessage {
	players := make([]SnapshotPlayer, len(g.players))
	for i, q := range g.players {
		players[i] = SnapshotPlayer{
			Name:          q.name,
			Index:         q.seat,
			RemainingDice: q.remainingDice,
			Active:        q.active(),
			Connected:     q.client != nil,
			HasRolled:     q.hasRolled,
		}
	}

	var dice []int
	if len(p.dice) > 0 {
		dice = append(dice, p.dice...)
	}

	return SnapshotMessage{Snapshot: GameSnapshot{
		Code:         g.code,
		Stage:        g.stage,
		HostIndex:    0,
		TurnIndex:    g.turnIndex,
		CurrentClaim: g.currentClaim,
		Players:      players,
		Dice:         dice,
	}}
}

func (g *Game) errorToLocked(p *Player, code ErrorCode) {
	g.sendToPlayerLocked(p, errorMessage(code))
}

func (g *Game) sendToPlayerLocked(p *Player, msg any) {
	if p.client == nil {
		return
	}
	g.sendLocked(p.client, msg)
}

// sendLocked delivers without blocking; a client that cannot keep up is
// dropped so a stalled socket never delays the room.
func (g *Game) sendLocked(c *Client, msg any) {
	select {
	case c.send <- msg:
	default:
		if g.clients[c] {
			delete(g.clients, c)
			close(c.send)
		}
		for _, p := range g.players {
			if p.client == c {
				p.client = nil
			}
		}
	}
}

// broadcastLocked fans out to every seat with a live connection; absent
// seats are skipped silently.
func (g *Game) broadcastLocked(msg any) {
	for _, p := range g.players {
		g.sendToPlayerLocked(p, msg)
	}
}

// closeAll disconnects every client of this room (used by the reaper).
func (g *Game) closeAll() {
	g.mu.Lock()
	defer g.mu.Unlock()

	for c := range g.clients {
		close(c.send)
		if c.conn != nil {
			_ = c.conn.Close()
		}
		delete(g.clients, c)
	}
	for _, p := range g.players {
		p.client = nil
	}
}
