package evaluator

import (
	"github.com/viant/parsly"
	"github.com/viant/parsly/matcher"
)

// Token codes
const (
	whitespaceCode = iota
	identifierCode
	numberCode
	stringCode
	compareCode
	andCode
	notCode
)

// Token definitions
var (
	whitespaceToken = parsly.NewToken(whitespaceCode, "Whitespace", matcher.NewWhiteSpace())
	identifierToken = parsly.NewToken(identifierCode, "Identifier", &identifierMatcher{})
	numberToken     = parsly.NewToken(numberCode, "Number", &numberMatcher{})
	stringToken     = parsly.NewToken(stringCode, "String", &stringMatcher{})
	compareToken    = parsly.NewToken(compareCode, "Comparison", &compareMatcher{})
	andToken        = parsly.NewToken(andCode, "&&", &andMatcher{})
	notToken        = parsly.NewToken(notCode, "!", &notMatcher{})
)

// identifierMatcher matches variable names
type identifierMatcher struct{}

func (m *identifierMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := cursor.InputSize
	if pos >= size {
		return 0
	}
	if !isLetter(input[pos]) && input[pos] != '_' {
		return 0
	}
	matched := 1
	for i := pos + 1; i < size; i++ {
		if isLetter(input[i]) || isDigit(input[i]) || input[i] == '_' {
			matched++
			continue
		}
		break
	}
	return matched
}

// numberMatcher matches integers and decimals, with an optional leading minus
type numberMatcher struct{}

func (m *numberMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := cursor.InputSize
	if pos >= size {
		return 0
	}
	matched := 0
	i := pos
	if input[i] == '-' {
		matched++
		i++
	}
	digits := 0
	for ; i < size && isDigit(input[i]); i++ {
		matched++
		digits++
	}
	if digits == 0 {
		return 0
	}
	if i < size && input[i] == '.' {
		fraction := 0
		for j := i + 1; j < size && isDigit(input[j]); j++ {
			fraction++
		}
		if fraction > 0 {
			matched += 1 + fraction
		}
	}
	return matched
}

// stringMatcher matches single or double quoted literals
type stringMatcher struct{}

func (m *stringMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := cursor.InputSize
	if pos >= size {
		return 0
	}
	quote := input[pos]
	if quote != '\'' && quote != '"' {
		return 0
	}
	for i := pos + 1; i < size; i++ {
		if input[i] == quote {
			return i - pos + 1
		}
	}
	return 0
}

// compareMatcher matches ==, !=, >=, <=, > and <
type compareMatcher struct{}

func (m *compareMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := cursor.InputSize
	if pos >= size {
		return 0
	}
	if pos+1 < size {
		switch string(input[pos : pos+2]) {
		case "==", "!=", ">=", "<=":
			return 2
		}
	}
	switch input[pos] {
	case '>', '<':
		return 1
	}
	return 0
}

// andMatcher matches the && conjunction
type andMatcher struct{}

func (m *andMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	if pos+1 >= cursor.InputSize {
		return 0
	}
	if input[pos] == '&' && input[pos+1] == '&' {
		return 2
	}
	return 0
}

// notMatcher matches a lone ! (never the != operator)
type notMatcher struct{}

func (m *notMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	if pos >= cursor.InputSize || input[pos] != '!' {
		return 0
	}
	if pos+1 < cursor.InputSize && input[pos+1] == '=' {
		return 0
	}
	return 1
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
