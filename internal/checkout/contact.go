package checkout

import (
	"fmt"
	"net/mail"
	"strings"
)

type DeliveryMethod string

const (
	DeliveryPickup DeliveryMethod = "pickup"
	DeliveryPost   DeliveryMethod = "post"
)

func ParseDelivery(s string) (DeliveryMethod, error) {
	switch m := DeliveryMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case DeliveryPickup, DeliveryPost:
		return m, nil
	}
	return "", fmt.Errorf("unknown delivery method %q", s)
}

// Contact is the recipient form.
type Contact struct {
	Surname   string `json:"surname"`
	FirstName string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
}

// ValidationError names the first invalid form field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type formField struct {
	name  string
	value string
}

// Validate checks fields in form order and reports the first failure.
// The address is required only for postal delivery.
func (c Contact) Validate(method DeliveryMethod) error {
	fields := []formField{
		{"surname", c.Surname},
		{"name", c.FirstName},
		{"email", c.Email},
		{"phone", c.Phone},
	}
	if method == DeliveryPost {
		fields = append(fields, formField{"address", c.Address})
	}

	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return &ValidationError{Field: f.name, Message: "this field is required"}
		}
		if f.name == "email" && !validEmail(f.value) {
			return &ValidationError{Field: f.name, Message: "enter a valid email address"}
		}
	}
	return nil
}

func validEmail(s string) bool {
	s = strings.TrimSpace(s)
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}
