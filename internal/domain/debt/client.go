package debt

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dividas/backend/internal/domain/shared"
)

const maxClientNameLength = 200

// Client is a person who may owe debts to several companies. It is
// identified by its document id and is not owned by any company.
type Client struct {
	shared.BaseEntity
	FullName   string
	DocumentID string
	BirthDate  *time.Time
	Email      string
	Phone      string
	Address    string
}

// ClientData carries the fields used to register a client.
type ClientData struct {
	FullName   string
	DocumentID string
	BirthDate  *time.Time
	Email      string
	Phone      string
	Address    string
}

// NewClient validates data and creates a client with a normalized document id.
func NewClient(data ClientData) (*Client, error) {
	name := strings.TrimSpace(data.FullName)
	if name == "" {
		return nil, shared.NewValidationError("INVALID_CLIENT_NAME", "Client name is required")
	}
	if utf8.RuneCountInString(name) > maxClientNameLength {
		return nil, shared.NewValidationError("INVALID_CLIENT_NAME", "Client name cannot exceed 200 characters")
	}
	doc, err := ParseDocumentID(data.DocumentID)
	if err != nil {
		return nil, err
	}
	phone := strings.TrimSpace(data.Phone)
	if len(phone) > maxPhoneLength {
		return nil, shared.NewValidationError("INVALID_PHONE", "Phone cannot exceed 15 characters")
	}

	var birth *time.Time
	if data.BirthDate != nil && !data.BirthDate.IsZero() {
		d := DateOf(*data.BirthDate)
		birth = &d
	}

	return &Client{
		BaseEntity: shared.NewBaseEntity(),
		FullName:   name,
		DocumentID: doc,
		BirthDate:  birth,
		Email:      strings.TrimSpace(data.Email),
		Phone:      phone,
		Address:    strings.TrimSpace(data.Address),
	}, nil
}

// FormattedDocumentID returns the id as DDD.DDD.DDD-DD.
func (c *Client) FormattedDocumentID() string {
	return FormatDocumentID(c.DocumentID)
}
