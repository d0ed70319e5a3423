package credential

import "errors"

var (
	// ErrMalformedToken means the token could not be parsed
	ErrMalformedToken = errors.New("malformed credential token")
	// ErrChecksumMismatch means the token parsed but its checksum disagrees
	ErrChecksumMismatch = errors.New("credential checksum mismatch")
	// ErrInvalidRecord means a record cannot be encoded without changing it
	ErrInvalidRecord = errors.New("invalid credential record")
)

// Messages shown to whoever pasted the token
const (
	MessageInvalidFormat = "Invalid credential format"
	MessageInvalidHash   = "Invalid credential hash"
)

// Verification is the display form of a verified or rejected token
type Verification struct {
	Valid     bool   `json:"valid"`
	Name      string `json:"name,omitempty"`
	Series    string `json:"series,omitempty"`
	Date      string `json:"date,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Verify decodes a token and keeps only the fields a verification page shows
func Verify(token string) Verification {
	r, err := Decode(token)
	if err != nil {
		return Verification{Valid: false, Error: ErrorMessage(err)}
	}

	return Verification{
		Valid:     true,
		Name:      r.Name,
		Series:    r.Series,
		Date:      r.Date,
		Timestamp: r.Timestamp,
	}
}

// VerifyCredential is the entry point for verification pages and forms
func VerifyCredential(token string) Verification {
	return Verify(token)
}

// IsInvalid reports whether err is a Decode rejection of the token itself
func IsInvalid(err error) bool {
	return errors.Is(err, ErrMalformedToken) || errors.Is(err, ErrChecksumMismatch)
}

// ErrorMessage maps a Decode error to its user-visible message
func ErrorMessage(err error) string {
	if errors.Is(err, ErrChecksumMismatch) {
		return MessageInvalidHash
	}
	return MessageInvalidFormat
}
