package validator

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/lestari-hub/forestry-service/internal/models"
)

// BusinessValidator handles business rule validation
type BusinessValidator struct {
	validate *validator.Validate
}

// ValidationError represents a business validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

// FieldMap returns the errors keyed by field, the shape API clients expect.
func (ve ValidationErrors) FieldMap() map[string]string {
	m := make(map[string]string, len(ve))
	for _, e := range ve {
		if _, ok := m[e.Field]; !ok {
			m[e.Field] = e.Message
		}
	}
	return m
}

// NewBusinessValidator creates a new business validator
func NewBusinessValidator() *BusinessValidator {
	validate := validator.New()

	bv := &BusinessValidator{validate: validate}
	bv.registerBusinessRules()

	return bv
}

// Validate validates a struct against its validate tags
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	var errors ValidationErrors

	err := bv.validate.Struct(s)
	if err != nil {
		for _, err := range err.(validator.ValidationErrors) {
			errors = append(errors, ValidationError{
				Field:   err.Field(),
				Message: bv.getErrorMessage(err),
				Value:   err.Value(),
				Rule:    err.Tag(),
			})
		}
	}

	return errors
}

// ValidateGrantCreate validates grant creation business rules
func (bv *BusinessValidator) ValidateGrantCreate(req *GrantCreateRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)
	errors = append(errors, bv.validatePermitDates(req.PermitDate, req.ValidUntil)...)

	return errors
}

// ValidateGrantUpdate validates grant update business rules
func (bv *BusinessValidator) ValidateGrantUpdate(req *GrantUpdateRequest, existing *models.Grant) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)
	errors = append(errors, bv.validatePermitDates(req.PermitDate, req.ValidUntil)...)

	// Closed grants are read-only
	if existing.Status == models.GrantStatusClosed {
		errors = append(errors, ValidationError{
			Field:   "status",
			Message: "closed grants cannot be modified",
			Value:   existing.Status,
			Rule:    "business_logic",
		})
	}

	return errors
}

// ValidateGrantStatusTransition validates grant lifecycle transitions
func (bv *BusinessValidator) ValidateGrantStatusTransition(currentStatus, newStatus models.GrantStatus) ValidationErrors {
	var errors ValidationErrors

	allowedTransitions := map[models.GrantStatus][]models.GrantStatus{
		models.GrantStatusDraft:     {models.GrantStatusProposed},
		models.GrantStatusProposed:  {models.GrantStatusActive, models.GrantStatusDraft},
		models.GrantStatusActive:    {models.GrantStatusSuspended, models.GrantStatusClosed},
		models.GrantStatusSuspended: {models.GrantStatusActive, models.GrantStatusClosed},
		models.GrantStatusClosed:    {}, // No transitions from closed
	}

	allowed := false
	for _, allowedStatus := range allowedTransitions[currentStatus] {
		if newStatus == allowedStatus {
			allowed = true
			break
		}
	}

	if !allowed {
		errors = append(errors, ValidationError{
			Field:   "status",
			Message: fmt.Sprintf("cannot transition from %s to %s", currentStatus, newStatus),
			Value:   newStatus,
			Rule:    "status_transition",
		})
	}

	return errors
}

// ValidateCarbonStatusTransition validates carbon project lifecycle transitions
func (bv *BusinessValidator) ValidateCarbonStatusTransition(currentStatus, newStatus models.CarbonProjectStatus) ValidationErrors {
	var errors ValidationErrors

	allowedTransitions := map[models.CarbonProjectStatus][]models.CarbonProjectStatus{
		models.CarbonStatusDesign:       {models.CarbonStatusValidation},
		models.CarbonStatusValidation:   {models.CarbonStatusRegistered, models.CarbonStatusDesign},
		models.CarbonStatusRegistered:   {models.CarbonStatusVerification},
		models.CarbonStatusVerification: {models.CarbonStatusIssuance, models.CarbonStatusRegistered},
		models.CarbonStatusIssuance:     {models.CarbonStatusVerification, models.CarbonStatusRetired},
		models.CarbonStatusRetired:      {}, // No transitions from retired
	}

	allowed := false
	for _, allowedStatus := range allowedTransitions[currentStatus] {
		if newStatus == allowedStatus {
			allowed = true
			break
		}
	}

	if !allowed {
		errors = append(errors, ValidationError{
			Field:   "status",
			Message: fmt.Sprintf("cannot transition from %s to %s", currentStatus, newStatus),
			Value:   newStatus,
			Rule:    "status_transition",
		})
	}

	return errors
}

// ValidateGrantDelete validates if a grant can be deleted
func (bv *BusinessValidator) ValidateGrantDelete(status models.GrantStatus, linkedCarbonProjects int64) ValidationErrors {
	var errors ValidationErrors

	if status == models.GrantStatusActive {
		errors = append(errors, ValidationError{
			Field:   "status",
			Message: "cannot delete an active grant",
			Value:   status,
			Rule:    "business_logic",
		})
	}

	if linkedCarbonProjects > 0 {
		errors = append(errors, ValidationError{
			Field:   "carbon_projects",
			Message: "cannot delete a grant with linked carbon projects",
			Value:   linkedCarbonProjects,
			Rule:    "business_logic",
		})
	}

	return errors
}

// ValidateTransactionCreate validates transaction recording conditions
func (bv *BusinessValidator) ValidateTransactionCreate(req *TransactionCreateRequest, ledgerStatus models.LedgerStatus) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	if ledgerStatus != models.LedgerStatusOpen {
		errors = append(errors, ValidationError{
			Field:   "ledger_status",
			Message: "ledger is closed",
			Value:   ledgerStatus,
			Rule:    "business_logic",
		})
	}

	if req.TxDate.After(time.Now().Add(24 * time.Hour)) {
		errors = append(errors, ValidationError{
			Field:   "tx_date",
			Message: "cannot be in the future",
			Value:   req.TxDate,
			Rule:    "business_logic",
		})
	}

	return errors
}

// validatePermitDates checks permit date ordering
func (bv *BusinessValidator) validatePermitDates(permitDate, validUntil *time.Time) ValidationErrors {
	var errors ValidationErrors

	if permitDate != nil && validUntil != nil && !validUntil.After(*permitDate) {
		errors = append(errors, ValidationError{
			Field:   "valid_until",
			Message: "must be after the permit date",
			Value:   validUntil,
			Rule:    "business_logic",
		})
	}

	return errors
}

// registerBusinessRules registers custom business rule validators
func (bv *BusinessValidator) registerBusinessRules() {
	// Project and ledger codes (3-50 characters, no surrounding whitespace)
	bv.validate.RegisterValidation("project_code", func(fl validator.FieldLevel) bool {
		code := fl.Field().String()
		return len(code) >= 3 && len(code) <= 50 && code == strings.TrimSpace(code)
	})

	// Names (2-200 characters)
	bv.validate.RegisterValidation("project_name", func(fl validator.FieldLevel) bool {
		name := strings.TrimSpace(fl.Field().String())
		return len(name) >= 2 && len(name) <= 200
	})

	bv.validate.RegisterValidation("grant_scheme", func(fl validator.FieldLevel) bool {
		scheme := models.GrantScheme(fl.Field().String())
		validSchemes := []models.GrantScheme{
			models.SchemeHutanDesa,
			models.SchemeHutanKemasyarakatan,
			models.SchemeHutanTanamanRakyat,
			models.SchemeHutanAdat,
			models.SchemeKemitraanKehutanan,
		}
		for _, vs := range validSchemes {
			if scheme == vs {
				return true
			}
		}
		return false
	})

	bv.validate.RegisterValidation("grant_status", func(fl validator.FieldLevel) bool {
		status := models.GrantStatus(fl.Field().String())
		validStatuses := []models.GrantStatus{
			models.GrantStatusDraft,
			models.GrantStatusProposed,
			models.GrantStatusActive,
			models.GrantStatusSuspended,
			models.GrantStatusClosed,
		}
		for _, vs := range validStatuses {
			if status == vs {
				return true
			}
		}
		return false
	})

	bv.validate.RegisterValidation("carbon_status", func(fl validator.FieldLevel) bool {
		status := models.CarbonProjectStatus(fl.Field().String())
		validStatuses := []models.CarbonProjectStatus{
			models.CarbonStatusDesign,
			models.CarbonStatusValidation,
			models.CarbonStatusRegistered,
			models.CarbonStatusVerification,
			models.CarbonStatusIssuance,
			models.CarbonStatusRetired,
		}
		for _, vs := range validStatuses {
			if status == vs {
				return true
			}
		}
		return false
	})

	bv.validate.RegisterValidation("organization_type", func(fl validator.FieldLevel) bool {
		orgType := models.OrganizationType(fl.Field().String())
		validTypes := []models.OrganizationType{
			models.OrgTypeCommunity,
			models.OrgTypeCooperative,
			models.OrgTypeNGO,
			models.OrgTypeVillage,
		}
		for _, vt := range validTypes {
			if orgType == vt {
				return true
			}
		}
		return false
	})

	bv.validate.RegisterValidation("budget_category", func(fl validator.FieldLevel) bool {
		category := models.BudgetCategory(fl.Field().String())
		validCategories := []models.BudgetCategory{
			models.BudgetCategoryOperational,
			models.BudgetCategoryImplementation,
			models.BudgetCategoryCarbon,
			models.BudgetCategorySocial,
			models.BudgetCategoryMonitoring,
		}
		for _, vc := range validCategories {
			if category == vc {
				return true
			}
		}
		return false
	})

	bv.validate.RegisterValidation("tx_direction", func(fl validator.FieldLevel) bool {
		direction := models.TransactionDirection(fl.Field().String())
		return direction == models.TransactionDebit || direction == models.TransactionCredit
	})

	bv.validate.RegisterValidation("user_role", func(fl validator.FieldLevel) bool {
		return models.IsValidRole(models.UserRole(fl.Field().String()))
	})

	// Fiscal years (2000 through next year)
	bv.validate.RegisterValidation("fiscal_year", func(fl validator.FieldLevel) bool {
		year := int(fl.Field().Int())
		return year >= 2000 && year <= time.Now().Year()+1
	})
}

// getErrorMessage returns user-friendly error messages
func (bv *BusinessValidator) getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", err.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", err.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", err.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", err.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", err.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", err.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", err.Param())
	case "uuid":
		return "must be a valid UUID"
	case "endswith":
		return fmt.Sprintf("must end with %s", err.Param())
	case "project_code":
		return "must be between 3 and 50 characters with no surrounding whitespace"
	case "project_name":
		return "must be between 2 and 200 characters"
	case "grant_scheme":
		return "must be a recognised social forestry scheme"
	case "grant_status":
		return "must be a valid grant status"
	case "carbon_status":
		return "must be a valid carbon project status"
	case "organization_type":
		return "must be a valid organization type"
	case "budget_category":
		return "must be a valid budget category"
	case "tx_direction":
		return "must be debit or credit"
	case "user_role":
		return "must be a valid user role"
	case "fiscal_year":
		return "must be a valid fiscal year"
	default:
		return fmt.Sprintf("validation failed for rule '%s'", err.Tag())
	}
}
