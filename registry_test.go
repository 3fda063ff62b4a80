package main

import (
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"
)

func TestCreateGameSeatsHost(t *testing.T) {
	cfg := &Config{}
	reg := newRegistry(0)

	code := reg.createGame(cfg, "host-id", "H")

	game := reg.lookup(code)
	if game == nil {
		t.Fatal("created game not found in registry")
	}
	if game.hostID != "host-id" {
		t.Fatalf("unexpected host id %q", game.hostID)
	}
	if len(game.players) != 1 || game.players[0].seat != 0 {
		t.Fatalf("host not seated at seat 0: %+v", game.players)
	}
	if game.players[0].remainingDice != startingDice {
		t.Fatalf("host seated with %d dice", game.players[0].remainingDice)
	}
	if game.stage != StagePreGame {
		t.Fatalf("new game in stage %s", game.stage)
	}
}

func TestJoinGameErrors(t *testing.T) {
	cfg := &Config{}
	reg := newRegistry(0)

	if _, err := reg.joinGame("no-such-code", "p", "P"); !errors.Is(err, errGameNotFound) {
		t.Fatalf("expected errGameNotFound, got %v", err)
	}

	code := reg.createGame(cfg, "host-id", "H")

	seat, err := reg.joinGame(code, "p1", "P1")
	if err != nil {
		t.Fatalf("join returned error: %v", err)
	}
	if seat != 1 {
		t.Fatalf("expected seat 1, got %d", seat)
	}

	if _, err := reg.joinGame(code, "p1", "P1"); !errors.Is(err, errDuplicatePlayer) {
		t.Fatalf("expected errDuplicatePlayer, got %v", err)
	}

	for i := 2; i < maxPlayers; i++ {
		if _, err := reg.joinGame(code, fmt.Sprintf("p%d", i), fmt.Sprintf("P%d", i)); err != nil {
			t.Fatalf("join %d returned error: %v", i, err)
		}
	}
	if _, err := reg.joinGame(code, "p7", "P7"); !errors.Is(err, errGameFull) {
		t.Fatalf("expected errGameFull, got %v", err)
	}

	started := reg.createGame(cfg, "host2", "H2")
	game := reg.lookup(started)
	game.mu.Lock()
	game.stage = StageStartSelection
	game.mu.Unlock()

	if _, err := reg.joinGame(started, "late", "Late"); !errors.Is(err, errGameInProgress) {
		t.Fatalf("expected errGameInProgress, got %v", err)
	}
}

func TestJoinAssignsStableSeatOrder(t *testing.T) {
	cfg := &Config{}
	reg := newRegistry(0)

	code := reg.createGame(cfg, "host-id", "H")
	for i := 1; i < maxPlayers; i++ {
		seat, err := reg.joinGame(code, fmt.Sprintf("p%d", i), fmt.Sprintf("P%d", i))
		if err != nil {
			t.Fatalf("join %d returned error: %v", i, err)
		}
		if seat != i {
			t.Fatalf("expected seat %d, got %d", i, seat)
		}
	}
}

func TestGameCodeFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^[a-z]{4,5}-[a-z]{4,5}-[a-z]{4,5}$`)

	for i := 0; i < 100; i++ {
		code := newGameCode()
		if !pattern.MatchString(code) {
			t.Fatalf("malformed game code %q", code)
		}
	}

	for _, word := range codeWords {
		if len(word) < 4 || len(word) > 5 {
			t.Fatalf("code word %q outside 4-5 letters", word)
		}
	}
}

func TestReaperDestroysIdleRooms(t *testing.T) {
	cfg := &Config{}
	reg := newRegistry(0)

	idle := reg.createGame(cfg, "idle-host", "H")
	fresh := reg.createGame(cfg, "fresh-host", "H2")

	game := reg.lookup(idle)
	game.mu.Lock()
	game.lastActive = time.Now().Add(-2 * time.Hour)
	game.mu.Unlock()

	reg.reap(time.Now().Add(-time.Hour))

	if reg.lookup(idle) != nil {
		t.Fatal("idle room survived the reaper")
	}
	if reg.lookup(fresh) == nil {
		t.Fatal("fresh room was reaped")
	}

	select {
	case <-game.done:
	case <-time.After(time.Second):
		t.Fatal("reaped room's goroutine was not stopped")
	}
}
