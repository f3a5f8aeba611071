// Package session identifies the client (browser profile, app install) whose
// wishlist and recently viewed list a request works on.
//
// REST requests carry the identity in the Storefront-Client header, an
// RFC 8941 dictionary: Storefront-Client: id="3f0c…". MCP tool calls pass
// it explicitly as an argument.
package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dunglas/httpsfv"
)

// ClientHeader is the request and response header carrying the client id.
const ClientHeader = "Storefront-Client"

// MaxClientIDLength bounds client ids; they become storage key prefixes.
const MaxClientIDLength = 64

// ParseClientHeader extracts the client id from a Storefront-Client header.
//
// Examples:
//   - id="abc-123"          → abc-123
//   - id="abc";v=1, other=1 → abc (params and other members ignored)
//
// Returns an error if the header is empty, malformed, lacks the id key or the
// id fails ValidateClientID.
func ParseClientHeader(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("empty Storefront-Client header")
	}

	dict, err := httpsfv.UnmarshalDictionary([]string{header})
	if err != nil {
		return "", fmt.Errorf("invalid Storefront-Client header: %w", err)
	}

	member, ok := dict.Get("id")
	if !ok {
		return "", errors.New("id key not found in Storefront-Client header")
	}

	item, ok := member.(httpsfv.Item)
	if !ok {
		return "", errors.New("id value must be an item")
	}

	id, ok := item.Value.(string)
	if !ok {
		return "", errors.New("id value must be a string")
	}

	if err := ValidateClientID(id); err != nil {
		return "", err
	}
	return id, nil
}

// FormatClientHeader serializes id as a Storefront-Client dictionary.
func FormatClientHeader(id string) (string, error) {
	dict := httpsfv.NewDictionary()
	dict.Add("id", httpsfv.NewItem(id))
	return httpsfv.Marshal(dict)
}

// ValidateClientID accepts 1..MaxClientIDLength characters from
// [A-Za-z0-9_-], which keeps ids safe inside storage keys.
func ValidateClientID(id string) error {
	if id == "" {
		return errors.New("client id is empty")
	}
	if len(id) > MaxClientIDLength {
		return fmt.Errorf("client id longer than %d characters", MaxClientIDLength)
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return fmt.Errorf("client id contains invalid character %q", r)
		}
	}
	return nil
}
