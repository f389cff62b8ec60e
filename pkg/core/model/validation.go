package model

// ValidationResult is the outcome of checking a proposed placement.
// IsValid is true iff no blocking violations are present; a false result
// with an empty Violations list means the check itself could not be
// completed and must not be read as a named rule breach.
type ValidationResult struct {
	IsValid    bool            `json:"isValid"`
	Violations []RuleViolation `json:"violations"`
	Warnings   []RuleViolation `json:"warnings"`
}

// ResultFromViolations partitions raw engine output into a ValidationResult
func ResultFromViolations(violations []RuleViolation) ValidationResult {
	errors, warnings := SplitBySeverity(violations)
	return ValidationResult{
		IsValid:    len(errors) == 0,
		Violations: errors,
		Warnings:   warnings,
	}
}
