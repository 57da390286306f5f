package utils

// MatchAction checks if an action name matches the given pattern. Patterns
// may include the wildcard '*', which matches any sequence of characters
// (including none). Matching is case-sensitive: action names are canonical
// lowercase identifiers.
func MatchAction(action, pattern string) bool {
	if pattern == "*" {
		return true
	}
	star, mark := -1, 0
	i, j := 0, 0
	for i < len(action) {
		switch {
		case j < len(pattern) && pattern[j] == '*':
			star, mark = j, i
			j++
		case j < len(pattern) && pattern[j] == action[i]:
			i++
			j++
		case star != -1:
			// backtrack: let the last '*' swallow one more character
			mark++
			i = mark
			j = star + 1
		default:
			return false
		}
	}
	for j < len(pattern) && pattern[j] == '*' {
		j++
	}
	return j == len(pattern)
}

// HasWildcard reports whether the pattern contains a '*' wildcard.
func HasWildcard(pattern string) bool {
	for i := 0; i < len(pattern); i++ {
		if pattern[i] == '*' {
			return true
		}
	}
	return false
}
