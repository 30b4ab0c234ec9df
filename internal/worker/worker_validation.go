package worker

import (
	"fmt"
	"strings"
	"time"

	"go-idcard/internal/shared/apperror"
	workererrors "go-idcard/internal/worker/errors"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const dateLayout = "2006-01-02"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	apperror.RegisterValidators(v)
	return v
}

func titleCase(s string) string {
	return cases.Title(language.English).String(strings.Join(strings.Fields(s), " "))
}

func normalizeIFSC(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// parseDate maps "" to nil.
func parseDate(field, s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, apperror.InvalidField(apperror.FieldLabel(field)).WithDetails(field)
	}
	return &t, nil
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

// toEntity validates and normalizes a registration. The workerID and
// artifact references are filled in by the caller.
func toEntity(req RegisterRequest) (*Worker, error) {
	req.IFSC = normalizeIFSC(req.IFSC)
	req.MobileNumber = strings.TrimSpace(req.MobileNumber)
	req.AadharNumber = strings.TrimSpace(req.AadharNumber)

	if err := validate.Struct(req); err != nil {
		return nil, apperror.MapValidationError(err)
	}

	dob, err := parseDate("dateOfBirth", req.DateOfBirth)
	if err != nil {
		return nil, err
	}
	doj, err := parseDate("dateOfJoining", req.DateOfJoining)
	if err != nil {
		return nil, err
	}

	return &Worker{
		Name:          titleCase(req.Name),
		FatherName:    titleCase(req.FatherName),
		HolderName:    titleCase(req.HolderName),
		MaritalStatus: req.MaritalStatus,
		Gender:        req.Gender,
		DateOfBirth:   dob,
		DateOfJoining: doj,
		Department:    strings.TrimSpace(req.Department),
		Designation:   strings.TrimSpace(req.Designation),
		Site:          strings.TrimSpace(req.Site),
		MobileNumber:  req.MobileNumber,
		AadharNumber:  req.AadharNumber,
		AccountNumber: strings.TrimSpace(req.AccountNumber),
		IFSC:          req.IFSC,
		BankName:      strings.TrimSpace(req.BankName),
		Remarks:       req.Remarks,
	}, nil
}

type fieldKind int

const (
	kindText fieldKind = iota
	kindName
	kindIFSC
	kindDate
)

type updatableField struct {
	column string
	kind   fieldKind
	rule   string
}

// updatableFields is the allowlist for partial updates, keyed by JSON name.
// Identifier, artifact references and timestamps are not updatable.
var updatableFields = map[string]updatableField{
	"name":          {column: "name", kind: kindName, rule: "required,max=255"},
	"fatherName":    {column: "father_name", kind: kindName, rule: "required,max=255"},
	"holderName":    {column: "holder_name", kind: kindName, rule: "omitempty,max=255"},
	"maritalStatus": {column: "marital_status", rule: "required,oneof=Married Unmarried"},
	"gender":        {column: "gender", rule: "required,oneof=Male Female Other"},
	"dateOfBirth":   {column: "date_of_birth", kind: kindDate},
	"dateOfJoining": {column: "date_of_joining", kind: kindDate},
	"department":    {column: "department", rule: "omitempty,max=128"},
	"designation":   {column: "designation", rule: "omitempty,max=128"},
	"site":          {column: "site", rule: "omitempty,max=128"},
	"mobileNumber":  {column: "mobile_number", rule: "required,len=10,digits"},
	"aadharNumber":  {column: "aadhar_number", rule: "required,len=12,digits"},
	"accountNumber": {column: "account_number", rule: "omitempty,max=32,digits"},
	"ifsc":          {column: "ifsc", kind: kindIFSC, rule: "omitempty,ifsc"},
	"bankName":      {column: "bank_name", rule: "omitempty,max=128"},
	"remarks":       {column: "remarks"},
}

// toColumns checks a partial update against the allowlist and converts it to
// normalized column values.
func toColumns(fields map[string]any) (map[string]any, error) {
	if len(fields) == 0 {
		return nil, workererrors.ErrEmptyUpdate
	}

	columns := make(map[string]any, len(fields))
	for key, raw := range fields {
		field, ok := updatableFields[key]
		if !ok {
			return nil, workererrors.ErrUnknownField.WithDetails(key)
		}

		var value string
		switch v := raw.(type) {
		case nil:
		case string:
			value = v
		default:
			return nil, apperror.InvalidField(apperror.FieldLabel(key)).WithDetails(fmt.Sprintf("%s must be a string", key))
		}

		switch field.kind {
		case kindName:
			value = titleCase(value)
		case kindIFSC:
			value = normalizeIFSC(value)
		case kindDate:
			d, err := parseDate(key, value)
			if err != nil {
				return nil, err
			}
			columns[field.column] = d
			continue
		default:
			if key != "remarks" {
				value = strings.TrimSpace(value)
			}
		}

		if field.rule != "" {
			if err := validate.Var(value, field.rule); err != nil {
				return nil, apperror.InvalidField(apperror.FieldLabel(key)).WithDetails(key)
			}
		}
		columns[field.column] = value
	}
	return columns, nil
}
