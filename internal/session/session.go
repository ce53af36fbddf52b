// Package session tracks per-sender conversational progress.
package session

import "fmt"

// Step marks where a sender is in the intake flow. The zero value is
// StepWelcome so a freshly created Session starts the flow.
type Step int

const (
	StepWelcome Step = iota
	StepCourseSelect
	StepCourseReply
	StepCollectName
	StepCollectEmail
	StepCollectPhone
)

var stepNames = map[Step]string{
	StepWelcome:      "welcome",
	StepCourseSelect: "course_select",
	StepCourseReply:  "course_reply",
	StepCollectName:  "collect_name",
	StepCollectEmail: "collect_email",
	StepCollectPhone: "collect_phone",
}

// String returns the wire/log name for the step.
func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// Valid reports whether the step is one of the defined flow states.
func (s Step) Valid() bool {
	_, ok := stepNames[s]
	return ok
}

// Session is the mutable state for one sender. Fields fill in progressively
// as the conversation advances; Reset returns it to a fresh welcome state.
type Session struct {
	Step       Step   `json:"step"`
	CourseCode string `json:"course_code,omitempty"`
	Name       string `json:"name,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// Reset clears the session back to the initial welcome state.
func (s *Session) Reset() {
	*s = Session{}
}
