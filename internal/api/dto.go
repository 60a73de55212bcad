package api

import (
	"github.com/knowgraph/knowgraph/internal/catalog"
	"github.com/knowgraph/knowgraph/internal/mastery"
	"github.com/knowgraph/knowgraph/internal/progression"
	"github.com/knowgraph/knowgraph/internal/session"
)

// CatalogResponse is the learner-facing catalog: correct options are
// withheld.
type CatalogResponse struct {
	Version  string         `json:"version"`
	Title    string         `json:"title"`
	Capsules []CapsuleDTO   `json:"capsules"`
	Edges    []catalog.Edge `json:"edges"`
}

type CapsuleDTO struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Media       string           `json:"media,omitempty"`
	Label       string           `json:"label"`
	Position    catalog.Position `json:"position"`
	Questions   []QuestionDTO    `json:"questions"`
}

type QuestionDTO struct {
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
}

func newCatalogResponse(c *catalog.Catalog) CatalogResponse {
	resp := CatalogResponse{
		Version:  c.Version,
		Title:    c.Title,
		Capsules: make([]CapsuleDTO, len(c.Capsules)),
		Edges:    c.Edges,
	}
	for i := range c.Capsules {
		cp := &c.Capsules[i]
		qs := make([]QuestionDTO, len(cp.Questions))
		for j, q := range cp.Questions {
			qs[j] = QuestionDTO{Prompt: q.Prompt, Options: q.Options}
		}
		resp.Capsules[i] = CapsuleDTO{
			ID:          cp.ID,
			Title:       cp.Title,
			Description: cp.Description,
			Media:       cp.Media,
			Label:       cp.DisplayLabel(),
			Position:    cp.Position,
			Questions:   qs,
		}
	}
	return resp
}

type selectRequest struct {
	CapsuleID     string `json:"capsule_id"`
	QuestionIndex int    `json:"question_index"`
	Option        string `json:"option"`
}

type submitRequest struct {
	CapsuleID     string `json:"capsule_id"`
	QuestionIndex int    `json:"question_index"`
}

type capsuleRequest struct {
	CapsuleID string `json:"capsule_id"`
}

// OutcomeDTO is the wire form of a submission result.
type OutcomeDTO struct {
	CapsuleID     string               `json:"capsule_id"`
	QuestionIndex int                  `json:"question_index"`
	Correct       bool                 `json:"correct"`
	State         mastery.MasteryState `json:"state"`
	Changed       bool                 `json:"changed"`
	Unlocked      string               `json:"unlocked,omitempty"`
	AdvanceTo     string               `json:"advance_to,omitempty"`
	Completed     bool                 `json:"completed"`
	FeedbackTitle string               `json:"feedback_title"`
	FeedbackText  string               `json:"feedback_text"`
}

func newOutcomeDTO(c *catalog.Catalog, out *progression.Outcome, state mastery.MasteryState) OutcomeDTO {
	dto := OutcomeDTO{
		CapsuleID:     out.CapsuleID,
		QuestionIndex: out.QuestionIndex,
		Correct:       out.Correct,
		State:         state,
		Changed:       out.Transition != nil && out.Transition.Changed(),
		Completed:     out.Completed,
		FeedbackTitle: out.Feedback.Title,
		FeedbackText:  out.Feedback.Description,
	}
	if out.Unlocked != nil {
		dto.Unlocked = out.Unlocked.CapsuleID
	}
	if next, ok := c.At(out.AdvanceTo); ok {
		dto.AdvanceTo = next.ID
	}
	return dto
}

type submitResponse struct {
	Outcome OutcomeDTO       `json:"outcome"`
	Session session.Snapshot `json:"session"`
}

// sessionEventDTO is the payload of SSE session events.
type sessionEventDTO struct {
	Kind      session.EventKind `json:"kind"`
	CapsuleID string            `json:"capsule_id,omitempty"`
	Session   session.Snapshot  `json:"session"`
}
