package main

import "testing"

func TestClaimOrdering(t *testing.T) {
	tcs := []struct {
		name string
		prev Claim
		next Claim
		want bool
	}{
		{"higher quantity", Claim{3, 4}, Claim{4, 2}, true},
		{"equal quantity higher face", Claim{3, 4}, Claim{3, 5}, true},
		{"equal claim", Claim{3, 4}, Claim{3, 4}, false},
		{"equal quantity lower face", Claim{3, 4}, Claim{3, 3}, false},
		{"lower quantity higher face", Claim{3, 4}, Claim{2, 6}, false},
	}

	for _, tc := range tcs {
		if got := tc.next.beats(tc.prev); got != tc.want {
			t.Fatalf("%s: beats(%+v, %+v) = %v, want %v", tc.name, tc.next, tc.prev, got, tc.want)
		}
	}
}

func TestEveryErrorCodeHasDescription(t *testing.T) {
	codes := []ErrorCode{
		ErrCodeInvalidClaim,
		ErrCodeInvalidChallenge,
		ErrCodeGameNotFound,
		ErrCodeRoundNotActive,
		ErrCodeOutOfTurn,
		ErrCodeUnauthorized,
		ErrCodeGameInProgress,
		ErrCodeNotEnoughPlayers,
		ErrCodeDuplicatePlayer,
		ErrCodeGameFull,
	}

	for _, code := range codes {
		msg := errorMessage(code)
		if msg.Error.Code != code {
			t.Fatalf("errorMessage(%s) carries code %s", code, msg.Error.Code)
		}
		if msg.Error.Message == "" {
			t.Fatalf("no description for %s", code)
		}
	}
}
