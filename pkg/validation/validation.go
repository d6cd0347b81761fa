package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// UsernameRegex validates login account format
	UsernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.@\-]+$`)
)

// ValidateUsername validates a login account name.
func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("username is required")
	}
	if len(username) > 64 {
		return fmt.Errorf("username is too long (max 64 characters)")
	}
	if !UsernameRegex.MatchString(username) {
		return fmt.Errorf("username contains invalid characters")
	}
	return nil
}

// ValidatePassword validates a password before it is hashed for the wire.
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password is required")
	}
	if len(password) < 6 {
		return fmt.Errorf("password must be at least 6 characters")
	}
	if len(password) > 128 {
		return fmt.Errorf("password is too long (max 128 characters)")
	}
	return nil
}

// ValidateStreamTitle validates a stream or session record title.
func ValidateStreamTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("title is required")
	}
	if utf8.RuneCountInString(title) > 60 {
		return fmt.Errorf("title is too long (max 60 characters)")
	}
	return nil
}

// ValidateTags validates the tag list attached to a session record.
func ValidateTags(tags []string) error {
	if len(tags) > 10 {
		return fmt.Errorf("too many tags (max 10)")
	}
	for _, tag := range tags {
		if strings.TrimSpace(tag) == "" {
			return fmt.Errorf("tags must not be empty")
		}
		if utf8.RuneCountInString(tag) > 20 {
			return fmt.Errorf("tag %q is too long (max 20 characters)", tag)
		}
	}
	return nil
}
