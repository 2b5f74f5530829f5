package services

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/maxaizer/jobalert/internal/entities"
)

// limits match entities.MaxTitleLength, MaxCompanyLength and MaxLocationLength
type jobFields struct {
	Title    string `validate:"required,max=200"`
	Company  string `validate:"required,max=100"`
	Location string `validate:"required,max=100"`
}

type JobValidator struct {
	validate *validator.Validate
}

func NewJobValidator() *JobValidator {
	return &JobValidator{validate: validator.New()}
}

func (v *JobValidator) IsValid(job entities.Job) bool {
	return v.Validate(job) == nil
}

// Validate reports which field of the job is missing or too long.
func (v *JobValidator) Validate(job entities.Job) error {
	return v.validate.Struct(jobFields{
		Title:    strings.TrimSpace(job.Title),
		Company:  strings.TrimSpace(job.Company),
		Location: strings.TrimSpace(job.Location),
	})
}
