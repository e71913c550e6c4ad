package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	dErrors "filetrack/pkg/domain-errors"
)

// maxOpaqueIDLength bounds identifiers minted by external systems (administrations,
// file types) so they stay safe to use as map keys and cache keys.
const maxOpaqueIDLength = 128

// FileID identifies a file record internally. It is distinct from the citizen-facing
// tracking number.
type FileID uuid.UUID

// ComplaintID identifies a citizen complaint.
type ComplaintID ulid.ULID

// AdministrationID identifies an administration (department) a file can visit.
type AdministrationID string

// FileTypeID identifies a file type; it selects the route a file follows.
type FileTypeID string

func NewFileID() FileID {
	return FileID(uuid.New())
}

func (id FileID) String() string {
	return uuid.UUID(id).String()
}

func (id FileID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}

// ParseFileID validates a file identifier at a trust boundary.
func ParseFileID(s string) (FileID, error) {
	if s == "" {
		return FileID{}, dErrors.New(dErrors.CodeInvalidInput, "file id is required")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return FileID{}, dErrors.New(dErrors.CodeInvalidInput, "invalid file id")
	}
	if parsed == uuid.Nil {
		return FileID{}, dErrors.New(dErrors.CodeInvalidInput, "file id must not be nil")
	}
	return FileID(parsed), nil
}

func (id FileID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *FileID) UnmarshalText(b []byte) error {
	parsed, err := ParseFileID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func NewComplaintID() ComplaintID {
	return ComplaintID(ulid.Make())
}

func (id ComplaintID) String() string {
	return ulid.ULID(id).String()
}

func (id ComplaintID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func ParseComplaintID(s string) (ComplaintID, error) {
	parsed, err := ulid.ParseStrict(s)
	if err != nil {
		return ComplaintID{}, dErrors.New(dErrors.CodeInvalidInput, "invalid complaint id")
	}
	return ComplaintID(parsed), nil
}

func (id AdministrationID) String() string {
	return string(id)
}

func (id AdministrationID) IsNil() bool {
	return id == ""
}

// ParseAdministrationID trims and validates an administration identifier.
func ParseAdministrationID(s string) (AdministrationID, error) {
	v, err := parseOpaque(s, "administration id")
	return AdministrationID(v), err
}

func (id FileTypeID) String() string {
	return string(id)
}

func (id FileTypeID) IsNil() bool {
	return id == ""
}

// ParseFileTypeID trims and validates a file type identifier.
func ParseFileTypeID(s string) (FileTypeID, error) {
	v, err := parseOpaque(s, "file type id")
	return FileTypeID(v), err
}

func parseOpaque(s, what string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, what+" is required")
	}
	if len(s) > maxOpaqueIDLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, what+" is too long")
	}
	if !utf8.ValidString(s) {
		return "", dErrors.New(dErrors.CodeInvalidInput, what+" must be valid UTF-8")
	}
	for _, r := range s {
		if unicode.IsControl(r) || unicode.IsSpace(r) || r == '/' {
			return "", dErrors.New(dErrors.CodeInvalidInput, what+" contains invalid characters")
		}
	}
	return s, nil
}
