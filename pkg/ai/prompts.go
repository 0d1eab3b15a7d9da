package ai

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	emaildomain "mailpilot-backend/internal/email/domain"
)

// Per-extractor body budgets, in characters. Each extraction sees only as
// much of the body as its job needs, to bound prompt cost.
const (
	classifyBodyBudget = 500
	eventBodyBudget    = 1000
	tasksBodyBudget    = 1500
	replyBodyBudget    = 3000
	chatBodyBudget     = 2000
	parseTextBudget    = 4000
)

const classifySystemPrompt = `You are an email classifier. Given an email, return JSON with:
- "category": one of "booking_request", "newsletter", "receipt", "personal", "work", "spam", "other"
- "important": true if this email requires human action or response (not newsletters, receipts, or spam)
- "confidence": 0-1 confidence score
- "reasoning": brief explanation

Only mark as important if it genuinely needs a human reply or action.`

const eventSystemPrompt = `You are a calendar-event detector. Given an email, determine if it contains an appointment, meeting, event, reservation, flight, deadline, or any time-sensitive item that should be logged in a calendar.

Return JSON with:
- "hasEvent": true if the email contains a calendar-worthy event, false otherwise
- "title": short event title (e.g. "Team standup", "Flight to NYC", "Dentist appointment")
- "date": event date in YYYY-MM-DD format
- "startTime": start time in HH:MM 24-hour format, or null if all-day
- "endTime": end time in HH:MM 24-hour format, or null if unknown
- "location": event location/venue, or null if not mentioned
- "description": one-sentence summary of the event
- "isAllDay": true if this is an all-day event with no specific time

If hasEvent is false, you can omit the other fields.

Examples of calendar-worthy events:
- Meeting invitations, interview schedules
- Flight/hotel/restaurant reservations
- Doctor/dentist appointments
- Deadlines and due dates
- Webinars, conferences, classes
- Delivery/pickup time windows

NOT calendar events:
- Newsletter publication dates
- Sale/promo end dates
- General news or updates
- Password expiration warnings`

func tasksSystemPrompt(today string) string {
	return fmt.Sprintf(`You are a task detection assistant. Given an email, identify any actionable tasks or requests directed at the recipient.

Today's date is %s.

Return JSON with:
- "hasTasks": true if the email contains actionable tasks for the recipient
- "tasks": array of detected tasks, each with:
  - "name": short task title (under 60 chars, action-oriented verb phrase)
  - "description": brief description of what needs to be done
  - "dueDate": deadline in YYYY-MM-DD format, or null if none mentioned
  - "priority": "high" (urgent/explicit deadline soon), "medium" (requested but flexible), "low" (nice-to-have)
  - "confidence": 0-1 how confident you are this is a real task

Examples of actionable tasks:
- "Please review the attached document by Friday"
- "Can you submit your expense report?"
- "I need your feedback on the proposal"
- "Please confirm your attendance"

NOT tasks (do not extract):
- Information or updates with no action needed
- Tasks the SENDER is doing ("I will send you...", "I've attached...")
- Calendar invites or meeting confirmations (handled separately as events)
- Subscriptions, newsletters, receipts
- Marketing emails or promotions
- Automated notifications

Resolve relative dates to actual dates ("by Friday" means the upcoming Friday from today).

If no actionable tasks, return hasTasks: false and omit tasks array.`, today)
}

const replySystemPrompt = `You are a professional email assistant. Draft a concise, polite reply to the following email.
- Keep it brief and professional
- Address the sender by name if available
- Be helpful but don't over-commit to specifics the user hasn't confirmed
- Return ONLY the reply body text, no subject line, no greeting formatting markers`

func refineSystemPrompt(email *emaildomain.NormalizedEmail, currentReply string) string {
	return fmt.Sprintf(`You are an email assistant helping the user manage their inbox. You are discussing an email and its suggested reply.

Original email:
From: %s <%s>
Subject: %s
Body: %s

Current suggested reply:
%s

Help the user refine the reply based on their instructions. If they ask you to change the reply, provide the FULL updated reply text prefixed with "UPDATED_REPLY:" on its own line, followed by the new reply text. Otherwise, just respond conversationally.`,
		email.From.Name, email.From.Email, email.Subject,
		truncate(email.BodyText, chatBodyBudget), currentReply)
}

func parseTasksSystemPrompt(today string) string {
	return fmt.Sprintf(`You are a task extraction assistant. Given a user message, extract one or more tasks.
Today's date is %s.

Return JSON with:
- "tasks": array of objects, each with:
  - "name": short task title (under 60 chars)
  - "description": brief description of what needs to be done
  - "dueDate": deadline in YYYY-MM-DD format, or null if none mentioned

Resolve relative dates (e.g., "by Friday" means the upcoming Friday's date).
If the message describes multiple tasks, extract each one separately.
If the message is vague, do your best to create a reasonable task.`, today)
}

func parseImageSystemPrompt(today string) string {
	return fmt.Sprintf(`You are a task extraction assistant. The user will provide an image of a syllabus, assignment, schedule, or similar document.
Today's date is %s.

Extract ALL tasks, assignments, homework, deadlines, and due dates visible in the image.

Return JSON with:
- "tasks": array of objects, each with:
  - "name": short task title
  - "description": what needs to be done
  - "dueDate": deadline in YYYY-MM-DD format, or null if not visible

If you cannot read the image clearly, return an empty tasks array.`, today)
}

// emailContext renders the shared "From/Subject/Date + body" user prompt,
// with the body cut to the extractor's budget
func emailContext(email *emaildomain.NormalizedEmail, bodyBudget int) string {
	return fmt.Sprintf("From: %s <%s>\nSubject: %s\nDate: %s\n\n%s",
		email.From.Name, email.From.Email, email.Subject,
		email.Date.Format(time.RFC3339),
		truncate(email.BodyText, bodyBudget))
}

// truncate cuts s to at most n bytes without splitting a UTF-8 rune
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func today() string {
	return time.Now().Format("2006-01-02")
}

func historyTurns(history []ChatTurn, userMessage string) []ChatTurn {
	turns := make([]ChatTurn, 0, len(history)+1)
	turns = append(turns, history...)
	turns = append(turns, ChatTurn{Role: "user", Content: strings.TrimSpace(userMessage)})
	return turns
}
