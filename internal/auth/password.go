package auth

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const (
	// bcryptCost is the default cost for bcrypt hashing.
	bcryptCost = 10

	// MinPasswordLength is the shortest accepted password.
	MinPasswordLength = 8

	// maxSimilarity is the username/password similarity ratio at which a password is rejected.
	maxSimilarity = 0.7
)

// Password policy messages.
const (
	MsgPasswordTooShort = "This password is too short. It must contain at least 8 characters."
	MsgPasswordCommon   = "This password is too common."
	MsgPasswordNumeric  = "This password is entirely numeric."
	MsgPasswordSimilar  = "The password is too similar to the username."
)

var commonPasswords = map[string]struct{}{
	"password": {}, "password1": {}, "password12": {}, "password123": {}, "passw0rd": {},
	"12345678": {}, "123456789": {}, "1234567890": {}, "87654321": {}, "11111111": {},
	"qwertyuiop": {}, "qwerty123": {}, "qwertyui": {}, "1q2w3e4r": {}, "1qaz2wsx": {},
	"iloveyou": {}, "sunshine": {}, "princess": {}, "football": {}, "baseball": {},
	"welcome1": {}, "superman": {}, "trustno1": {}, "letmein1": {}, "starwars": {},
	"whatever": {}, "dragon12": {}, "computer": {}, "zaq12wsx": {}, "abcd1234": {},
	"admin123": {}, "administrator": {}, "changeme": {}, "michael1": {}, "charlie1": {},
}

var nonWord = regexp.MustCompile(`\W+`)

// HashPassword generates a bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// ComparePassword compares a bcrypt hashed password with its plaintext version.
func ComparePassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// CheckPasswordPolicy returns the policy violations of password for username.
// An empty result means the password is acceptable.
func CheckPasswordPolicy(password, username string) []string {
	var problems []string

	if tooSimilar(password, username) {
		problems = append(problems, MsgPasswordSimilar)
	}
	if len([]rune(password)) < MinPasswordLength {
		problems = append(problems, MsgPasswordTooShort)
	}
	if _, ok := commonPasswords[strings.ToLower(strings.TrimSpace(password))]; ok {
		problems = append(problems, MsgPasswordCommon)
	}
	if isNumeric(password) {
		problems = append(problems, MsgPasswordNumeric)
	}

	return problems
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// tooSimilar compares the password against the username and each of its word parts.
func tooSimilar(password, username string) bool {
	if username == "" {
		return false
	}
	pw := strings.ToLower(password)
	name := strings.ToLower(username)

	candidates := append([]string{name}, nonWord.Split(name, -1)...)
	for _, part := range candidates {
		if part == "" {
			continue
		}
		if similarity(pw, part) >= maxSimilarity {
			return true
		}
	}
	return false
}

// similarity is 2*LCS/(len(a)+len(b)), where LCS is the longest common subsequence.
func similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra)+len(rb) == 0 {
		return 1
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			switch {
			case ra[i-1] == rb[j-1]:
				curr[j] = prev[j-1] + 1
			case prev[j] >= curr[j-1]:
				curr[j] = prev[j]
			default:
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}

	return 2 * float64(prev[len(rb)]) / float64(len(ra)+len(rb))
}
