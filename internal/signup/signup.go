// Package signup handles beta-access signups: input validation,
// persistence through a Repo, best-effort notification, and the admin
// reporting views (filtering, stats, exports).
package signup

import (
	"slices"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Role is the signup's self-described role.
type Role string

const (
	RoleStudent      Role = "student"
	RoleResearcher   Role = "researcher"
	RoleEngineer     Role = "engineer"
	RoleEducator     Role = "educator"
	RoleProfessional Role = "professional"
	RoleOther        Role = "other"
)

// Plan is a pricing plan a signup is interested in.
type Plan string

const (
	PlanFree         Plan = "free"
	PlanLearner      Plan = "learner"
	PlanProfessional Plan = "professional"
	PlanStudentPro   Plan = "student-pro"
	PlanCreator      Plan = "creator"
	PlanEnterprise   Plan = "enterprise"
)

// Interest is the topic area a signup wants to learn.
type Interest string

const (
	InterestAI                Interest = "ai"
	InterestAutonomousDriving Interest = "autonomous-driving"
	InterestRobotics          Interest = "robotics"
	InterestControls          Interest = "controls"
	InterestOther             Interest = "other"
)

// Roles lists every role in display order.
func Roles() []Role {
	return []Role{RoleStudent, RoleResearcher, RoleEngineer, RoleEducator, RoleProfessional, RoleOther}
}

// Plans lists every plan in display order.
func Plans() []Plan {
	return []Plan{PlanFree, PlanLearner, PlanProfessional, PlanStudentPro, PlanCreator, PlanEnterprise}
}

// Interests lists every interest in display order.
func Interests() []Interest {
	return []Interest{InterestAI, InterestAutonomousDriving, InterestRobotics, InterestControls, InterestOther}
}

var titleCaser = cases.Title(language.English)

func titleize(s string) string {
	return titleCaser.String(strings.ReplaceAll(s, "-", " "))
}

// Label returns the display name of the role.
func (r Role) Label() string { return titleize(string(r)) }

var planLabels = map[Plan]string{
	PlanFree:       "Free Explorer",
	PlanCreator:    "Creator (notify me)",
	PlanEnterprise: "Enterprise (talk to us)",
}

// Label returns the display name of the plan.
func (p Plan) Label() string {
	if l, ok := planLabels[p]; ok {
		return l
	}
	return titleize(string(p))
}

// Label returns the display name of the interest.
func (i Interest) Label() string {
	if i == InterestAI {
		return "AI"
	}
	return titleize(string(i))
}

// Signup is a persisted beta-access request.
type Signup struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Role            Role      `json:"role"`
	Interest        Interest  `json:"interest,omitempty"`
	InterestedPlans []Plan    `json:"interested_plans"`
	Message         string    `json:"message,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// HasPlan reports whether p is among the signup's interested plans.
func (s Signup) HasPlan(p Plan) bool {
	return slices.Contains(s.InterestedPlans, p)
}

// Input is an unvalidated signup submission.
type Input struct {
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Role            Role     `json:"role"`
	Interest        Interest `json:"interest,omitempty"`
	InterestedPlans []Plan   `json:"interested_plans"`
	Message         string   `json:"message,omitempty"`
}

// MaxMessageLength bounds the free-text message.
const MaxMessageLength = 2000

// Normalize trims whitespace, lowercases the email and drops duplicate
// plans while keeping their order.
func (in Input) Normalize() Input {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Message = strings.TrimSpace(in.Message)
	in.Role = Role(strings.ToLower(strings.TrimSpace(string(in.Role))))
	in.Interest = Interest(strings.ToLower(strings.TrimSpace(string(in.Interest))))

	seen := make(map[Plan]bool, len(in.InterestedPlans))
	plans := make([]Plan, 0, len(in.InterestedPlans))
	for _, p := range in.InterestedPlans {
		p = Plan(strings.ToLower(strings.TrimSpace(string(p))))
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		plans = append(plans, p)
	}
	in.InterestedPlans = plans
	return in
}

// Validate checks the input's fields.
func (in Input) Validate() error {
	roles := make([]any, 0, len(Roles()))
	for _, r := range Roles() {
		roles = append(roles, r)
	}
	plans := make([]any, 0, len(Plans()))
	for _, p := range Plans() {
		plans = append(plans, p)
	}
	interests := make([]any, 0, len(Interests()))
	for _, i := range Interests() {
		interests = append(interests, i)
	}

	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&in.Email, validation.Required, validation.Length(3, 255), is.EmailFormat),
		validation.Field(&in.Role, validation.Required, validation.In(roles...)),
		validation.Field(&in.Interest, validation.In(interests...)),
		validation.Field(&in.InterestedPlans, validation.Each(validation.In(plans...))),
		validation.Field(&in.Message, validation.Length(0, MaxMessageLength)),
	)
}
