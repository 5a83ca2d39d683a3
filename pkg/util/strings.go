package util

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// FuzzyMatch performs fuzzy string matching using Levenshtein distance
// Returns the minimum edit distance between str1 and the best matching substring of str2
func FuzzyMatch(str1, str2 string) int {
	str1 = NormalizeName(str1)
	str2 = NormalizeName(str2)

	shorter, longer := str1, str2
	if len(str1) > len(str2) {
		shorter, longer = str2, str1
	}

	// slide the shorter string across the longer one
	minDistance := math.MaxInt32
	for i := 0; i <= len(longer)-len(shorter); i++ {
		distance := LevenshteinDistance(shorter, longer[i:i+len(shorter)])
		if distance < minDistance {
			minDistance = distance
		}
		if minDistance == 0 {
			break
		}
	}
	return minDistance
}

// LevenshteinDistance calculates the Levenshtein distance between two strings
func LevenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	matrix := make([][]int, len(s1)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(s2)+1)
		matrix[i][0] = i
	}
	for j := 0; j <= len(s2); j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len(s1); i++ {
		for j := 1; j <= len(s2); j++ {
			cost := 0
			if s1[i-1] != s2[j-1] {
				cost = 1
			}
			matrix[i][j] = min(
				matrix[i-1][j]+1,      // deletion
				matrix[i][j-1]+1,      // insertion
				matrix[i-1][j-1]+cost, // substitution
			)
		}
	}

	return matrix[len(s1)][len(s2)]
}

// FuzzyMatchScore returns a similarity score between 0.0 and 1.0
// where 1.0 is a perfect match and 0.0 is completely different.
// Unlike FuzzyMatch the whole of both strings is compared, so a short
// name is not a perfect match for every longer name containing it.
func FuzzyMatchScore(str1, str2 string) float64 {
	str1 = NormalizeName(str1)
	str2 = NormalizeName(str2)
	maxLen := max(len(str1), len(str2))
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(LevenshteinDistance(str1, str2))/float64(maxLen)
}

// NormalizeName lower cases s, drops punctuation and collapses whitespace.
// Only whitespace, '-' and '_' separate words so "F.C." reads as "fc".
func NormalizeName(s string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '_':
			space = true
		}
	}
	return b.String()
}

// Slugify turns a display name into a lower case, hyphen separated identifier
// ie. "Melbourne City FC" becomes "melbourne-city-fc"
func Slugify(s string) string {
	return strings.ReplaceAll(NormalizeName(s), " ", "-")
}

// GetAsString converts various types to string
// If s is a string, return it
// If s is any form of number, parse it into a string and return it
// If s is any other type, convert it to string representation
func GetAsString(s any) (string, error) {
	if s == nil {
		return "", fmt.Errorf("cannot convert nil to string")
	}

	switch v := s.(type) {
	case string:
		return v, nil
	case int:
		return strconv.Itoa(v), nil
	case int8:
		return strconv.FormatInt(int64(v), 10), nil
	case int16:
		return strconv.FormatInt(int64(v), 10), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return fmt.Sprintf("%v", v), nil
	}
}

// GetAsFloat converts numbers and numeric strings to float64
func GetAsFloat(s any) (float64, error) {
	switch v := s.(type) {
	case nil:
		return 0, fmt.Errorf("cannot convert nil to float")
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("cannot convert string '%s' to float: %w", v, err)
		}
		return f, nil
	case fmt.Stringer:
		return GetAsFloat(v.String())
	default:
		return 0, fmt.Errorf("cannot convert type %T to float", s)
	}
}
