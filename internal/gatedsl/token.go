// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

// Package gatedsl compiles a gate condition string to an AST and evaluates
// it against a context of predicate adapters (spec.md §4.2).
package gatedsl

import "strings"

// tokenKind enumerates the lexical categories the grammar recognizes.
type tokenKind int

const (
	tokEOF tokenKind = iota
	tokAnd
	tokOr
	tokNot
	tokExists
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokColon
	tokOp
	tokPercent
	tokNumber
	tokIdent
	tokPattern
)

// token is one lexeme with its source position, used for error reporting.
type token struct {
	kind   tokenKind
	lexeme string
	pos    int
}

var keywords = map[string]tokenKind{
	"AND":    tokAnd,
	"OR":     tokOr,
	"NOT":    tokNot,
	"EXISTS": tokExists,
}

func keywordKind(upper string) (tokenKind, bool) {
	k, ok := keywords[strings.ToUpper(upper)]
	return k, ok
}
