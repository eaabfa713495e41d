package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Strategy recognizes one line format. CanParse is a cheap shape check;
// Parse performs the fine-grained validation. The matching loop stops at the
// first strategy whose CanParse returns true: a Parse failure there fails the
// line outright, with no fallback to lower-priority strategies.
type Strategy interface {
	Name() string
	CanParse(line string) bool
	Parse(line string) (*ParsedIdentifier, error)
}

var (
	clubURLPattern       = regexp.MustCompile(`^(?:https?://)?(?:www\.|m\.)?vk\.com/(?:club|public)(\d+)$`)
	screenNameURLPattern = regexp.MustCompile(`^(?:https?://)?(?:www\.|m\.)?vk\.com/([A-Za-z0-9_.]+)$`)
	negativeIDPattern    = regexp.MustCompile(`^-\d+$`)
	positiveIDPattern    = regexp.MustCompile(`^\d+$`)
	screenNamePattern    = regexp.MustCompile(`^[A-Za-z0-9_.]+$`)
	clubTokenPattern     = regexp.MustCompile(`^club(\d+)$`)
)

// DefaultStrategies returns the built-in formats in priority order
func DefaultStrategies() []Strategy {
	return []Strategy{
		&clubURLStrategy{},
		&screenNameURLStrategy{},
		&negativeIDStrategy{},
		&positiveIDStrategy{},
		&screenNameStrategy{},
	}
}

func parseGroupID(digits string) (int64, error) {
	id, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("group id out of range: %s", digits)
	}
	if id <= 0 {
		return 0, fmt.Errorf("group id must be positive, got %d", id)
	}
	return id, nil
}

// clubURLStrategy matches a community URL with a numeric club/public suffix,
// e.g. https://vk.com/club123
type clubURLStrategy struct{}

func (s *clubURLStrategy) Name() string { return "club_url" }

func (s *clubURLStrategy) CanParse(line string) bool {
	return clubURLPattern.MatchString(line)
}

func (s *clubURLStrategy) Parse(line string) (*ParsedIdentifier, error) {
	m := clubURLPattern.FindStringSubmatch(line)
	id, err := parseGroupID(m[1])
	if err != nil {
		return nil, err
	}
	return &ParsedIdentifier{Raw: line, ID: id, Strategy: s.Name()}, nil
}

// screenNameURLStrategy matches a community URL with a bare screen name,
// e.g. https://vk.com/durov_club
type screenNameURLStrategy struct{}

func (s *screenNameURLStrategy) Name() string { return "screen_name_url" }

func (s *screenNameURLStrategy) CanParse(line string) bool {
	if clubURLPattern.MatchString(line) {
		return false
	}
	return screenNameURLPattern.MatchString(line)
}

func (s *screenNameURLStrategy) Parse(line string) (*ParsedIdentifier, error) {
	m := screenNameURLPattern.FindStringSubmatch(line)
	name := m[1]
	if positiveIDPattern.MatchString(name) {
		return nil, fmt.Errorf("numeric path %q is not a screen name", name)
	}
	return &ParsedIdentifier{Raw: line, ScreenName: name, Strategy: s.Name()}, nil
}

// negativeIDStrategy matches a bare negative integer, treated as the
// absolute value of a group id
type negativeIDStrategy struct{}

func (s *negativeIDStrategy) Name() string { return "negative_id" }

func (s *negativeIDStrategy) CanParse(line string) bool {
	return negativeIDPattern.MatchString(line)
}

func (s *negativeIDStrategy) Parse(line string) (*ParsedIdentifier, error) {
	id, err := parseGroupID(strings.TrimPrefix(line, "-"))
	if err != nil {
		return nil, err
	}
	return &ParsedIdentifier{Raw: line, ID: id, Strategy: s.Name()}, nil
}

// positiveIDStrategy matches a bare positive integer group id
type positiveIDStrategy struct{}

func (s *positiveIDStrategy) Name() string { return "positive_id" }

func (s *positiveIDStrategy) CanParse(line string) bool {
	return positiveIDPattern.MatchString(line)
}

func (s *positiveIDStrategy) Parse(line string) (*ParsedIdentifier, error) {
	id, err := parseGroupID(line)
	if err != nil {
		return nil, err
	}
	return &ParsedIdentifier{Raw: line, ID: id, Strategy: s.Name()}, nil
}

// screenNameStrategy matches a bare alphanumeric token. A token of the exact
// shape club<digits> is the canonical screen name of that numeric id, so it
// yields both the id and the original token.
type screenNameStrategy struct{}

func (s *screenNameStrategy) Name() string { return "screen_name" }

func (s *screenNameStrategy) CanParse(line string) bool {
	return screenNamePattern.MatchString(line)
}

func (s *screenNameStrategy) Parse(line string) (*ParsedIdentifier, error) {
	if m := clubTokenPattern.FindStringSubmatch(line); m != nil {
		id, err := parseGroupID(m[1])
		if err != nil {
			return nil, err
		}
		return &ParsedIdentifier{Raw: line, ID: id, ScreenName: line, Strategy: s.Name()}, nil
	}
	return &ParsedIdentifier{Raw: line, ScreenName: line, Strategy: s.Name()}, nil
}
