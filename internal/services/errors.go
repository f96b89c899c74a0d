package services

import (
	"errors"
	"fmt"
)

// Sentinel errors translated to HTTP status codes at the handler layer.
var (
	ErrGrantNotFound        = errors.New("grant not found")
	ErrProjectNotFound      = errors.New("project not found")
	ErrCarbonNotFound       = errors.New("carbon project not found")
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrLedgerNotFound       = errors.New("ledger not found")
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrProfileNotFound      = errors.New("user profile not found")
	ErrSectionNotFound      = errors.New("project section not found")

	ErrDuplicateCode    = errors.New("code already in use")
	ErrLedgerClosed     = errors.New("ledger is closed")
	ErrValidationFailed = errors.New("validation failed")
)

// PermissionError is returned when a user lacks the role or permission for an
// operation. Handlers translate it to 403.
type PermissionError struct {
	UserID     string
	ResourceID string
	Resource   string
	Action     string
	Reason     string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s %s: %s",
		e.UserID, e.Action, e.Resource, e.ResourceID, e.Reason)
}

func NewPermissionError(userID, resourceID, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// IsPermissionError reports whether err is a PermissionError.
func IsPermissionError(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe)
}

// BusinessRuleError is returned when an operation violates a domain rule that
// is not a plain field validation. Handlers translate it to 422.
type BusinessRuleError struct {
	Rule    string
	Message string
}

func (e *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule %s violated: %s", e.Rule, e.Message)
}

func NewBusinessRuleError(rule, message string) *BusinessRuleError {
	return &BusinessRuleError{Rule: rule, Message: message}
}
