// Package conversation implements the intake state machine. Each inbound
// message advances the sender's session by exactly one step and produces
// exactly one reply; the engine itself performs no I/O.
package conversation

import (
	"fmt"
	"strings"

	"github.com/academykit/intake-bot/internal/catalog"
	"github.com/academykit/intake-bot/internal/session"
)

// Reply codes the sender types while confirming interest in a course.
const (
	optionInterested = "1"
	optionBackToMenu = "3"
)

const (
	namePrompt  = "Great decision! Please send your full name:"
	emailPrompt = "Please send your email ID:\n(example: student@gmail.com)"
	phonePrompt = "Please send your phone number:\n(example: 9876543210)"
)

// Intake is the snapshot of a completed conversation, taken just before the
// session resets. It is a value; nothing mutates it afterwards.
type Intake struct {
	Name   string
	Email  string
	Phone  string
	Course catalog.Course
}

// Result is the outcome of one conversational turn. Completed is non-nil
// only on the turn that finishes the flow.
type Result struct {
	Reply     string
	Completed *Intake
}

// Engine drives sessions through the fixed questionnaire.
type Engine struct {
	catalog *catalog.Catalog
	academy string
}

// NewEngine builds an engine over the given catalog. academyName appears in
// the welcome and confirmation texts.
func NewEngine(cat *catalog.Catalog, academyName string) *Engine {
	if cat == nil || cat.Len() == 0 {
		panic("conversation: catalog required")
	}
	return &Engine{catalog: cat, academy: academyName}
}

// Step advances the session with one inbound message and returns the reply.
// The caller must hold the sender's session exclusively for the duration of
// the call and must not retain the *Session afterwards.
func (e *Engine) Step(sess *session.Session, input string) Result {
	input = strings.TrimSpace(input)

	switch sess.Step {
	case session.StepWelcome:
		// First contact: the message content is irrelevant, always open
		// with the menu.
		sess.Step = session.StepCourseSelect
		return Result{Reply: e.welcome()}

	case session.StepCourseSelect:
		course, ok := e.catalog.Get(input)
		if !ok {
			return Result{Reply: e.invalidCoursePrompt()}
		}
		sess.CourseCode = course.Code
		sess.Step = session.StepCourseReply
		return Result{Reply: e.courseDetails(course)}

	case session.StepCourseReply:
		switch input {
		case optionInterested:
			sess.Step = session.StepCollectName
			return Result{Reply: namePrompt}
		case optionBackToMenu:
			// Back to the list, not back to first contact. The text must
			// match the original welcome exactly.
			sess.Step = session.StepCourseSelect
			return Result{Reply: e.welcome()}
		default:
			return Result{Reply: fmt.Sprintf("Please reply %s (yes) or %s (back to courses).", optionInterested, optionBackToMenu)}
		}

	case session.StepCollectName:
		if input == "" {
			return Result{Reply: namePrompt}
		}
		sess.Name = input
		sess.Step = session.StepCollectEmail
		return Result{Reply: emailPrompt}

	case session.StepCollectEmail:
		if input == "" {
			return Result{Reply: emailPrompt}
		}
		sess.Email = input
		sess.Step = session.StepCollectPhone
		return Result{Reply: phonePrompt}

	case session.StepCollectPhone:
		if input == "" {
			return Result{Reply: phonePrompt}
		}
		sess.Phone = input
		course, ok := e.catalog.Get(sess.CourseCode)
		if !ok {
			panic(fmt.Sprintf("conversation: session references unknown course %q", sess.CourseCode))
		}
		intake := &Intake{
			Name:   sess.Name,
			Email:  sess.Email,
			Phone:  sess.Phone,
			Course: course,
		}
		reply := e.confirmation(intake)
		sess.Reset()
		return Result{Reply: reply, Completed: intake}

	default:
		panic(fmt.Sprintf("conversation: unknown step %v", sess.Step))
	}
}

func (e *Engine) welcome() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Namaste! Welcome to %s.\n\nOur top courses:\n\n", e.academy)
	for _, code := range e.catalog.Codes() {
		course, _ := e.catalog.Get(code)
		fmt.Fprintf(&b, "%s. %s\n", code, course.Name)
	}
	b.WriteString("\nReply with a course number to see details.")
	return b.String()
}

func (e *Engine) invalidCoursePrompt() string {
	codes := e.catalog.Codes()
	return fmt.Sprintf("Please choose a course number between %s and %s.", codes[0], codes[len(codes)-1])
}

func (e *Engine) courseDetails(course catalog.Course) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\nFull course fee: %s\n", course.Name, course.Fee)
	if course.Timing != "" {
		fmt.Fprintf(&b, "Batch timing: %s\n", course.Timing)
	}
	fmt.Fprintf(&b, "\nInterested?\n%s. Yes, share my details\n%s. Back to course list", optionInterested, optionBackToMenu)
	return b.String()
}

func (e *Engine) confirmation(intake *Intake) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Thank you, %s!\n\nYour details are saved:\n\n", intake.Name)
	fmt.Fprintf(&b, "Name: %s\nEmail: %s\nPhone: %s\n", intake.Name, intake.Email, intake.Phone)
	fmt.Fprintf(&b, "Course: %s\nFee: %s\n", intake.Course.Name, intake.Course.Fee)
	if intake.Course.Timing != "" {
		fmt.Fprintf(&b, "Timing: %s\n", intake.Course.Timing)
	}
	fmt.Fprintf(&b, "\nOur counselor will contact you within 2 hours.\n\n%s", e.academy)
	return b.String()
}
