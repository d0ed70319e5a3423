package credential

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf16"
	"unicode/utf8"
)

const (
	// Version is the token format generation written by Encode
	Version = "1"

	// salt is part of the published page logic; it obscures, it does not protect
	salt = "THARUN_CERT_2024_v1"

	separator = "-"
)

// now is swapped in tests
var now = time.Now

// Record is the data a credential token carries
type Record struct {
	Name      string `json:"n"`
	Series    string `json:"s"`
	Date      string `json:"d"`
	Timestamp int64  `json:"t"`
}

// Digest returns the 8 hex digit rolling checksum of text wrapped in the salt.
// It is not a cryptographic hash.
func Digest(text string) string {
	var h int32
	for _, unit := range utf16.Encode([]rune(salt + text + salt)) {
		h = h*31 + int32(unit)
	}
	return fmt.Sprintf("%08X", uint32(h))
}

// serialize produces the canonical compact JSON form of a record
func serialize(r Record) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r); err != nil {
		return "", fmt.Errorf("failed to serialize record: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// Encode builds the token for a record. Every field must be valid UTF-8 so
// that Decode returns exactly the record that was encoded.
func Encode(r Record) (string, error) {
	fields := []struct{ name, value string }{
		{"name", r.Name},
		{"series", r.Series},
		{"date", r.Date},
	}
	for _, f := range fields {
		if !utf8.ValidString(f.value) {
			return "", fmt.Errorf("%w: %s is not valid UTF-8", ErrInvalidRecord, f.name)
		}
	}

	text, err := serialize(r)
	if err != nil {
		return "", err
	}

	payload := base64.StdEncoding.EncodeToString([]byte(text))
	return Version + separator + payload + separator + Digest(text), nil
}

// Decode parses a token and checks its checksum.
// Errors wrap ErrMalformedToken or ErrChecksumMismatch.
func Decode(token string) (*Record, error) {
	parts := strings.Split(token, separator)
	if len(parts) < 3 {
		return nil, fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformedToken, len(parts))
	}

	version := parts[0]
	if version == "" {
		return nil, fmt.Errorf("%w: missing version", ErrMalformedToken)
	}
	checksum := parts[len(parts)-1]
	payload := strings.Join(parts[1:len(parts)-1], separator)

	raw, err := decodePayload(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if !utf8.Valid(raw) {
		return nil, fmt.Errorf("%w: payload is not valid UTF-8", ErrMalformedToken)
	}
	text := string(raw)
	if !strings.HasPrefix(strings.TrimSpace(text), "{") {
		return nil, fmt.Errorf("%w: payload is not a JSON object", ErrMalformedToken)
	}

	r, err := parseRecord(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	if Digest(text) != checksum {
		return nil, ErrChecksumMismatch
	}

	return r, nil
}

// parseRecord reads the exact keys n, s, d and t. encoding/json would also
// accept "N" for "n"; a key in any other case is treated as absent.
func parseRecord(raw []byte) (*Record, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}

	r := &Record{}
	for key, dst := range map[string]any{"n": &r.Name, "s": &r.Series, "d": &r.Date, "t": &r.Timestamp} {
		v, ok := fields[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(v, dst); err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}
	}

	return r, nil
}

// decodePayload reads base64 the way browsers' atob does: ASCII whitespace
// is ignored and trailing padding is optional
func decodePayload(payload string) ([]byte, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\f', '\r':
			return -1
		}
		return r
	}, payload)
	if cleaned == "" {
		return nil, fmt.Errorf("empty payload")
	}

	trimmed := strings.TrimRight(cleaned, "=")
	if len(cleaned)-len(trimmed) > 2 {
		return nil, fmt.Errorf("invalid padding")
	}
	return base64.RawStdEncoding.DecodeString(trimmed)
}

// GenerateCredentialID issues a token for a completed series, stamping the
// current time in milliseconds
func GenerateCredentialID(name, series, date string) (string, error) {
	return Encode(Record{
		Name:      strings.TrimSpace(name),
		Series:    series,
		Date:      date,
		Timestamp: now().UnixMilli(),
	})
}
