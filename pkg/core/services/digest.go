package services

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/TokiACD/caretrack/pkg/core/model"
)

// EmailSender delivers digest emails. Implemented by gmailclient.Client.
type EmailSender interface {
	SendEmail(to, subject, body string) error
}

// digestRuleOrder fixes the grouping order for presentation: violations are
// grouped by rule, then listed in the order they occur in the schedule.
var digestRuleOrder = []model.RuleCode{
	model.RuleMinCompetentStaff,
	model.RuleCompetencyPairing,
	model.RuleWeeklyHourLimit,
	model.RuleRestPeriod,
	model.RuleConsecutiveWeekends,
	model.RuleRotationPattern,
}

// SendViolationsDigest emails the standing violations for one package+week
// to each recipient. Returns how many emails were sent.
func SendViolationsDigest(
	sender EmailSender,
	logger *zap.Logger,
	packageID string,
	weekStart model.Date,
	standing []model.RuleViolation,
	recipients []string,
) (int, error) {
	if len(recipients) == 0 {
		return 0, fmt.Errorf("no digest recipients configured")
	}

	subject := fmt.Sprintf("Rota violations for package %s, week of %s", packageID, weekStart)
	body := FormatViolationDigest(weekStart, standing)

	sent := 0
	var failed []string
	for _, to := range recipients {
		if err := sender.SendEmail(to, subject, body); err != nil {
			logger.Warn("Failed to send violations digest",
				zap.String("recipient", to),
				zap.Error(err))
			failed = append(failed, to)
			continue
		}
		sent++
	}

	if sent == 0 {
		return 0, fmt.Errorf("digest delivery failed for all %d recipient(s)", len(failed))
	}
	return sent, nil
}

// FormatViolationDigest renders violations grouped by rule
func FormatViolationDigest(weekStart model.Date, violations []model.RuleViolation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Week starting %s\n\n", weekStart)

	if len(violations) == 0 {
		b.WriteString("No standing rule violations. The rota is fully compliant.\n")
		return b.String()
	}

	byRule := make(map[model.RuleCode][]model.RuleViolation)
	for _, v := range violations {
		byRule[v.Rule] = append(byRule[v.Rule], v)
	}

	for _, rule := range digestRuleOrder {
		group := byRule[rule]
		if len(group) == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s (%d):\n", rule, len(group))
		for _, v := range group {
			fmt.Fprintf(&b, "  [%s] %s\n", v.Severity, v.Message)
		}
		b.WriteString("\n")
	}
	return b.String()
}
