package notify

import "fmt"

// Welcome builds the new-hire welcome message.
func Welcome(name, email, company string) *Notification {
	return &Notification{
		Kind:      KindWelcome,
		Recipient: email,
		Subject:   fmt.Sprintf("Welcome to %s!", company),
		Body: fmt.Sprintf("Hi %s,\n\nWelcome aboard! Your onboarding checklist is ready; "+
			"your manager will walk you through it on day one.\n", name),
	}
}

// Rejection builds the candidate rejection message.
func Rejection(name, email, position string) *Notification {
	return &Notification{
		Kind:      KindRejection,
		Recipient: email,
		Subject:   fmt.Sprintf("Your application for %s", position),
		Body: fmt.Sprintf("Hi %s,\n\nThank you for applying for the %s position. "+
			"After careful review we will not be moving forward at this time.\n", name, position),
	}
}

// InterviewInvite builds the interview scheduling message.
func InterviewInvite(name, email, position, when string) *Notification {
	return &Notification{
		Kind:      KindInterviewInvite,
		Recipient: email,
		Subject:   fmt.Sprintf("Interview invitation: %s", position),
		Body: fmt.Sprintf("Hi %s,\n\nWe would like to invite you to interview for the %s "+
			"position on %s. Please confirm your availability.\n", name, position, when),
	}
}

// ReviewNotice builds the performance review notice for an employee.
func ReviewNotice(name, email, period string) *Notification {
	return &Notification{
		Kind:      KindReviewNotice,
		Recipient: email,
		Subject:   fmt.Sprintf("Performance review scheduled (%s)", period),
		Body: fmt.Sprintf("Hi %s,\n\nYour %s performance review has been scheduled. "+
			"Your reviewer will share the agenda shortly.\n", name, period),
	}
}

// ManualReview builds the message asking a recruiter to review a
// borderline screening result.
func ManualReview(recruiter, candidate string) *Notification {
	return &Notification{
		Kind:      KindManualReview,
		Recipient: recruiter,
		Subject:   fmt.Sprintf("Manual review needed: %s", candidate),
		Body: fmt.Sprintf("The automated screen for %s was inconclusive. "+
			"Please review the application and decide next steps.\n", candidate),
	}
}
