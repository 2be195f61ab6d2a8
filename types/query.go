package types

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

const DefaultTopK = 5

type Validater interface {
	Validate() map[string]string
}

type QueryParams struct {
	Question string `json:"question" validate:"required"`
	TopK     int    `json:"top_k" validate:"min=1,max=50"`
}

type QueryResponse struct {
	Answer string `json:"answer"`
	Hits   []Hit  `json:"hits"`
}

type UploadResponse struct {
	Status        string `json:"status"`
	File          string `json:"file"`
	ChunksIndexed int    `json:"chunks_indexed"`
}

type StatsResponse struct {
	Collection string `json:"collection"`
	Count      int    `json:"count"`
}

var validate = validator.New()

func Validate(v Validater) map[string]string {
	return v.Validate()
}

// Validate fills a missing top_k with the default before checking tags.
func (params *QueryParams) Validate() map[string]string {
	if params.TopK == 0 {
		params.TopK = DefaultTopK
	}
	if err := validate.Struct(params); err != nil {
		errs := err.(validator.ValidationErrors)
		errors := make(map[string]string)
		for _, e := range errs {
			errors[e.Field()] = fmt.Sprintf("failed on '%s' tag", e.Tag())
		}
		return errors
	}
	return nil
}
