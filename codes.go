package main

import (
	"crypto/rand"
	"strings"
)

// Room codes are three hyphen-joined words of four or five letters, short
// enough to read out loud and long enough that guessing a live room is
// impractical. The registry regenerates on collision.

var codeWords = []string{
	"acorn", "alley", "amber", "anvil", "apple", "aspen",
	"badge", "bagel", "basil", "beach", "bison", "blaze",
	"bloom", "brick", "brook", "cabin", "candy", "canoe",
	"cedar", "chalk", "cider", "clam", "cliff", "cloud",
	"coral", "crane", "creek", "crow", "daisy", "dune",
	"eagle", "ember", "fern", "flint", "frost", "gecko",
	"goose", "grove", "gull", "haze", "heron", "holly",
	"ivory", "jade", "kelp", "kite", "koala", "larch",
	"lemon", "lily", "lotus", "lynx", "maple", "marsh",
	"melon", "mint", "moss", "moth", "newt", "ocean",
	"olive", "onyx", "opal", "otter", "palm", "pearl",
	"pecan", "pine", "plum", "pond", "poppy", "quail",
	"raven", "reef", "ridge", "river", "robin", "sage",
	"shell", "slate", "snail", "spark", "stone", "storm",
	"swan", "thyme", "tiger", "topaz", "trout", "tulip",
	"vine", "wheat", "wren", "zinc",
}

func randomWord() string {
	var b [1]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic("crypto/rand failure: " + err.Error())
	}
	return codeWords[int(b[0])%len(codeWords)]
}

// newGameCode returns a candidate room code; uniqueness against the live
// registry is the caller's problem.
func newGameCode() string {
	return strings.Join([]string{randomWord(), randomWord(), randomWord()}, "-")
}
