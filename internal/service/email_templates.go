package service

import "fmt"

func welcomeEmailTemplate(email, dashboardURL, appName string) (string, string) {
	subject := fmt.Sprintf("Welcome to %s!", appName)
	body := fmt.Sprintf(`Hi %s,

Your account is ready. Create your first savings goal and start tracking contributions.

Get started: %s

Best,
The %s Team`, email, dashboardURL, appName)

	return subject, body
}

func goalReachedEmailTemplate(title, current, target, goalURL, appName string) (string, string) {
	subject := fmt.Sprintf("You reached your goal: %s", title)
	body := fmt.Sprintf(`Congratulations!

Your goal "%s" has reached its target.

Saved: %s
Target: %s

See the details: %s

Best,
The %s Team`, title, current, target, goalURL, appName)

	return subject, body
}
