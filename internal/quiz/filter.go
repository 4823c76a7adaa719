package quiz

import (
	"fmt"
	"strings"
)

type Filter string

const (
	FilterActive Filter = "active"
	FilterMine   Filter = "my"
	FilterAll    Filter = "all"
)

func ParseFilter(value string) (Filter, error) {
	switch Filter(strings.ToLower(strings.TrimSpace(value))) {
	case FilterActive:
		return FilterActive, nil
	case FilterMine, "mine":
		return FilterMine, nil
	case FilterAll, "":
		return FilterAll, nil
	default:
		return "", fmt.Errorf("unknown quiz filter %q", value)
	}
}

// FilterQuizzes applies the visibility filter and the search term together.
// FilterMine without a user keeps every quiz, matching an anonymous visitor
// who has no quizzes of their own to narrow down to.
func FilterQuizzes(quizzes []Quiz, filter Filter, search string, user *User) []Quiz {
	search = strings.ToLower(search)

	filtered := make([]Quiz, 0, len(quizzes))
	for _, item := range quizzes {
		switch filter {
		case FilterActive:
			if !item.IsActive {
				continue
			}
		case FilterMine:
			if user != nil && item.CreatorID != user.ID {
				continue
			}
		}

		if search != "" && !matchesSearch(item, search) {
			continue
		}
		filtered = append(filtered, item)
	}
	return filtered
}

func matchesSearch(item Quiz, search string) bool {
	if strings.Contains(strings.ToLower(item.Title), search) {
		return true
	}
	return item.Description != "" && strings.Contains(strings.ToLower(item.Description), search)
}
