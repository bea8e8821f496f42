package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/apperr"
)

const (
	MaxNameLength     = 50
	MinFileTypeLength = 2
	MaxFileTypeLength = 20
	MaxFilePathLength = 500
)

var validate = validator.New()

// Tags per field. Each field is checked on its own so the errors come back
// keyed by the input name rather than a struct path.
var (
	nameRules     = fmt.Sprintf(`required,max=%d,excludesall=/\`, MaxNameLength)
	fileTypeRules = fmt.Sprintf("required,min=%d,max=%d,startswith=.", MinFileTypeLength, MaxFileTypeLength)
	filePathRules = fmt.Sprintf("required,max=%d", MaxFilePathLength)
)

// RegisterInput describes a file to register. Either FilePath alone or Name
// and FileType (optionally with FilePath) must be supplied.
type RegisterInput struct {
	Name     string
	FileType string
	FilePath string
}

// UpdateInput is a partial update. Nil or empty fields are left unchanged.
type UpdateInput struct {
	Name     *string
	FileType *string
	FilePath *string
}

func checkField(field, value, rules string) []apperr.FieldError {
	err := validate.Var(value, rules)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []apperr.FieldError{{Field: field, Message: err.Error()}}
	}
	out := make([]apperr.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, apperr.FieldError{Field: field, Message: messageFor(fe)})
	}
	return out
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "excludesall":
		return "must not contain path separators"
	case "startswith":
		return fmt.Sprintf("must start with %q", fe.Param())
	default:
		return "is invalid"
	}
}

func validateName(name string) []apperr.FieldError {
	return checkField("name", name, nameRules)
}

func validateFileType(fileType string) []apperr.FieldError {
	return checkField("fileType", fileType, fileTypeRules)
}

func validateFilePath(filePath string) []apperr.FieldError {
	return checkField("filePath", filePath, filePathRules)
}

// ValidateRegister checks a register request after name and type have been
// derived and normalized. An empty filePath is allowed.
func ValidateRegister(in RegisterInput) []apperr.FieldError {
	var errs []apperr.FieldError
	errs = append(errs, validateName(in.Name)...)
	errs = append(errs, validateFileType(in.FileType)...)
	if in.FilePath != "" {
		errs = append(errs, validateFilePath(in.FilePath)...)
	}
	return errs
}

// ValidateUpdate checks only the fields that are present.
func ValidateUpdate(in UpdateInput) []apperr.FieldError {
	var errs []apperr.FieldError
	if present(in.Name) {
		errs = append(errs, validateName(*in.Name)...)
	}
	if present(in.FileType) {
		errs = append(errs, validateFileType(*in.FileType)...)
	}
	if present(in.FilePath) {
		errs = append(errs, validateFilePath(*in.FilePath)...)
	}
	return errs
}

func present(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}

// NormalizeFileType trims fileType and prepends the dot if it is missing.
// Case is preserved.
func NormalizeFileType(fileType string) string {
	fileType = strings.TrimSpace(fileType)
	if fileType != "" && !strings.HasPrefix(fileType, ".") {
		fileType = "." + fileType
	}
	return fileType
}
