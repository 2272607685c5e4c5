package domain

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// FormInput is the set of values a user submits. Presence is checked on the raw
// strings; whitespace counts as a value.
type FormInput struct {
	Role       string `json:"role" validate:"required"`
	Experience string `json:"experience" validate:"required"`
	Goal       string `json:"goal" validate:"required"`
}

func (f FormInput) Validate() error {
	return validate.Struct(f)
}

// GuidanceResult is either absent or carries all three fields. A payload that omits
// one of them does not decode; an empty feedback string is still a value.
type GuidanceResult struct {
	ResumeFeedback     string   `json:"resume_feedback"`
	InterviewQuestions []string `json:"interview_questions" validate:"required"`
	LearningRoadmap    []string `json:"learning_roadmap" validate:"required"`
}

func (g GuidanceResult) Validate() error {
	return validate.Struct(g)
}

// guidancePayload mirrors GuidanceResult with the feedback as a pointer so that a
// missing key can be told apart from "".
type guidancePayload struct {
	ResumeFeedback     *string  `json:"resume_feedback" validate:"required"`
	InterviewQuestions []string `json:"interview_questions" validate:"required"`
	LearningRoadmap    []string `json:"learning_roadmap" validate:"required"`
}

func (g *GuidanceResult) UnmarshalJSON(data []byte) error {
	var p guidancePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("incomplete guidance: %w", err)
	}

	*g = GuidanceResult{
		ResumeFeedback:     *p.ResumeFeedback,
		InterviewQuestions: p.InterviewQuestions,
		LearningRoadmap:    p.LearningRoadmap,
	}
	return nil
}
