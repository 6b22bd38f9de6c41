package model

import "strings"

type User struct {
	Username string
	Password string
}

// UsernameKey is the case-insensitive identity of a username.
func UsernameKey(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func (u User) Matches(username string) bool {
	return UsernameKey(u.Username) == UsernameKey(username)
}
