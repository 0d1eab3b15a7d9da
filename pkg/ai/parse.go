package ai

import (
	"encoding/json"
	"strings"

	emaildomain "mailpilot-backend/internal/email/domain"
)

// minTaskConfidence drops task detections the model itself is unsure about
const minTaskConfidence = 0.6

// extractJSON trims markdown fences and any chatter around the first JSON
// object/array in an LLM response
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimSuffix(text, "```")
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
	}
	text = strings.TrimSpace(text)

	objStart := strings.Index(text, "{")
	arrStart := strings.Index(text, "[")
	if arrStart != -1 && (objStart == -1 || arrStart < objStart) {
		if end := strings.LastIndex(text, "]"); end > arrStart {
			return text[arrStart : end+1]
		}
	}
	if objStart != -1 {
		if end := strings.LastIndex(text, "}"); end > objStart {
			return text[objStart : end+1]
		}
	}
	return text
}

// parseClassification validates the classifier output, degrading to a
// neutral classification on any failure
func parseClassification(text string) emaildomain.EmailClassification {
	fallback := emaildomain.EmailClassification{
		Category:   emaildomain.CategoryOther,
		Important:  false,
		Confidence: 0,
		Reasoning:  "Failed to parse classification",
	}

	var raw struct {
		Category   string  `json:"category"`
		Important  bool    `json:"important"`
		Confidence float64 `json:"confidence"`
		Reasoning  string  `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(extractJSON(text)), &raw); err != nil {
		return fallback
	}

	category := emaildomain.EmailCategory(raw.Category)
	if !emaildomain.ValidCategory(category) {
		return fallback
	}
	if raw.Confidence < 0 || raw.Confidence > 1 {
		return fallback
	}

	return emaildomain.EmailClassification{
		Category:   category,
		Important:  raw.Important,
		Confidence: raw.Confidence,
		Reasoning:  raw.Reasoning,
	}
}

// parseCalendarEvent validates the detector output. Returns nil unless
// hasEvent is set and title/date/description are all present.
func parseCalendarEvent(text string) *emaildomain.CalendarEvent {
	var raw struct {
		HasEvent    bool    `json:"hasEvent"`
		Title       string  `json:"title"`
		Date        string  `json:"date"`
		StartTime   *string `json:"startTime"`
		EndTime     *string `json:"endTime"`
		Location    *string `json:"location"`
		Description string  `json:"description"`
		IsAllDay    bool    `json:"isAllDay"`
	}
	if err := json.Unmarshal([]byte(extractJSON(text)), &raw); err != nil {
		return nil
	}
	if !raw.HasEvent || raw.Title == "" || raw.Date == "" || raw.Description == "" {
		return nil
	}

	return &emaildomain.CalendarEvent{
		Title:       raw.Title,
		Date:        raw.Date,
		StartTime:   raw.StartTime,
		EndTime:     raw.EndTime,
		Location:    raw.Location,
		Description: raw.Description,
		IsAllDay:    raw.IsAllDay,
	}
}

// parseDetectedTasks validates the task-detector output and applies the
// confidence threshold. Any failure degrades to an empty list.
func parseDetectedTasks(text string) []emaildomain.DetectedTask {
	var raw struct {
		HasTasks bool `json:"hasTasks"`
		Tasks    []struct {
			Name        string  `json:"name"`
			Description string  `json:"description"`
			DueDate     *string `json:"dueDate"`
			Priority    string  `json:"priority"`
			Confidence  float64 `json:"confidence"`
		} `json:"tasks"`
	}
	if err := json.Unmarshal([]byte(extractJSON(text)), &raw); err != nil {
		return nil
	}
	if !raw.HasTasks || len(raw.Tasks) == 0 {
		return nil
	}

	var tasks []emaildomain.DetectedTask
	for _, t := range raw.Tasks {
		if t.Name == "" || t.Confidence < minTaskConfidence {
			continue
		}
		priority := emaildomain.TaskPriority(t.Priority)
		switch priority {
		case emaildomain.PriorityHigh, emaildomain.PriorityMedium, emaildomain.PriorityLow:
		default:
			priority = emaildomain.PriorityMedium
		}
		tasks = append(tasks, emaildomain.DetectedTask{
			Name:        t.Name,
			Description: t.Description,
			DueDate:     t.DueDate,
			Priority:    priority,
		})
	}
	return tasks
}

// parseParsedTasks validates the free-text/image task-parse output
func parseParsedTasks(text string) []emaildomain.ParsedTask {
	var raw struct {
		Tasks []struct {
			Name        string  `json:"name"`
			Description string  `json:"description"`
			DueDate     *string `json:"dueDate"`
		} `json:"tasks"`
	}
	if err := json.Unmarshal([]byte(extractJSON(text)), &raw); err != nil {
		return nil
	}

	tasks := make([]emaildomain.ParsedTask, 0, len(raw.Tasks))
	for _, t := range raw.Tasks {
		if t.Name == "" {
			continue
		}
		tasks = append(tasks, emaildomain.ParsedTask{
			Name:        t.Name,
			Description: t.Description,
			DueDate:     t.DueDate,
		})
	}
	return tasks
}
