// Package parser converts command strings into Intent structs.
// Intentionally dumb: no NLP, just pattern matching onto the verb ids
// used by game scripts (lookat, pickup, talkto, use, ...).
package parser

import (
	"strings"

	"github.com/nathoo/scenecore/types"
)

var verbAliases = map[string]string{
	// Look at
	"x":        "lookat",
	"examine":  "lookat",
	"inspect":  "lookat",
	"check":    "lookat",
	"study":    "lookat",
	"observe":  "lookat",
	"describe": "lookat",
	"read":     "lookat",

	// Pick up
	"take":  "pickup",
	"get":   "pickup",
	"grab":  "pickup",
	"carry": "pickup",

	// Talk to
	"talk":     "talkto",
	"ask":      "talkto",
	"speak":    "talkto",
	"chat":     "talkto",
	"converse": "talkto",

	// Use
	"apply":   "use",
	"combine": "use",

	// Walk to
	"walk":    "goto",
	"go":      "goto",
	"move":    "goto",
	"head":    "goto",
	"enter":   "goto",
	"walkto":  "goto",
	"travel":  "goto",
	"exit":    "leave",
	"depart":  "leave",

	// Default interaction
	"do":       "action",
	"interact": "action",
	"activate": "action",

	// Open / Close
	"shut": "close",

	// Push / Pull
	"press": "push",
	"shove": "push",
	"drag":  "pull",
	"tug":   "pull",
	"yank":  "pull",

	// Give
	"offer": "give",
	"hand":  "give",

	// Built-ins
	"l":   "look",
	"inv": "inventory",
	"i":   "inventory",
	"z":   "wait",
}

var prepositions = map[string]bool{
	"on": true, "at": true, "to": true,
	"with": true, "in": true, "from": true,
	"about": true, "into": true,
}

var articles = map[string]bool{
	"the": true, "a": true, "an": true,
}

// Parse converts a raw command string into an Intent.
func Parse(input string) types.Intent {
	input = strings.TrimSpace(input)
	if input == "" {
		return types.Intent{}
	}

	words := strings.Fields(strings.ToLower(input))

	// Handle multi-word verb phrases before general parsing.
	words = expandMultiWordVerbs(words)

	// Apply verb aliases.
	if alias, ok := verbAliases[words[0]]; ok {
		words[0] = alias
	}

	verb := words[0]
	rest := stripArticles(words[1:])

	// Use the first preposition as a delimiter between object and target.
	object, target := splitOnPreposition(rest)

	return types.Intent{
		Verb:   verb,
		Object: object,
		Target: target,
	}
}

// expandMultiWordVerbs handles "look at", "pick up", "talk to" etc.
func expandMultiWordVerbs(words []string) []string {
	if len(words) < 2 {
		return words
	}

	switch words[0] {
	case "look":
		if words[1] == "at" || words[1] == "in" || words[1] == "under" {
			return append([]string{"lookat"}, words[2:]...)
		}
		// "look door" reads as "look at door".
		return append([]string{"lookat"}, words[1:]...)
	case "pick":
		if words[1] == "up" {
			return append([]string{"pickup"}, words[2:]...)
		}
	case "talk", "speak", "chat":
		if words[1] == "to" || words[1] == "with" {
			return append([]string{"talkto"}, words[2:]...)
		}
	case "walk", "go", "move", "head":
		if words[1] == "to" || words[1] == "into" {
			return append([]string{"goto"}, words[2:]...)
		}
	case "put":
		if words[1] == "down" {
			return append([]string{"drop"}, words[2:]...)
		}
	case "turn", "switch":
		if words[1] == "on" || words[1] == "off" {
			return append([]string{"use"}, words[2:]...)
		}
	}

	return words
}

// stripArticles removes articles ("the", "a", "an") from the word list.
func stripArticles(words []string) []string {
	result := make([]string, 0, len(words))
	for _, w := range words {
		if !articles[w] {
			result = append(result, w)
		}
	}
	return result
}

// splitOnPreposition splits words on the first preposition.
// Words before the preposition become the object, words after become the target.
// If no preposition is found, all words become the object.
func splitOnPreposition(words []string) (object, target string) {
	for i, w := range words {
		if prepositions[w] {
			object = strings.Join(words[:i], " ")
			target = strings.Join(words[i+1:], " ")
			return object, target
		}
	}
	return strings.Join(words, " "), ""
}
