package cli

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/AlecAivazis/survey/v2"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// PromptForEmail prompts the user for the address a report should be sent to
func PromptForEmail() (string, error) {
	var email string
	prompt := &survey.Input{
		Message: "Enter the email address to send the report to:",
		Help:    "The generated PDF report will be emailed to this address",
	}

	err := survey.AskOne(prompt, &email, survey.WithValidator(func(val interface{}) error {
		str := strings.TrimSpace(val.(string))
		if str == "" {
			return fmt.Errorf("email address cannot be empty")
		}
		if !emailPattern.MatchString(str) {
			return fmt.Errorf("invalid email address")
		}
		return nil
	}))

	if err != nil {
		return "", err
	}

	return strings.TrimSpace(email), nil
}

// PromptForFilePath prompts for a file to stage as an attachment
func PromptForFilePath() (string, error) {
	var path string
	prompt := &survey.Input{
		Message: "Enter the path of the file to attach:",
		Help:    "Images, PDF, Word, Excel, audio, text and CSV files up to 50MB",
	}

	err := survey.AskOne(prompt, &path, survey.WithValidator(survey.Required))
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(path), nil
}

// ConfirmUpgrade asks whether to leave the limited state via the upgrade path
func ConfirmUpgrade(plansURL string) (bool, error) {
	confirmed := false
	prompt := &survey.Confirm{
		Message: fmt.Sprintf("Open the upgrade flow at %s and re-enable chat?", plansURL),
		Default: true,
	}

	err := survey.AskOne(prompt, &confirmed)
	if err != nil {
		return false, err
	}

	return confirmed, nil
}
