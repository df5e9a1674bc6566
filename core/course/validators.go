package course

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/edulane/lms/core"
)

var (
	correctOptionTag  = "correctoption"
	correctOptionText = "the correct answer must be one of the options"
)

// InitValidators registers the course validators and their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(questionStructValidation, QuestionDraft{})
	core.RegisterCustomTranslation(validate, translator, correctOptionTag, correctOptionText)
}

// questionStructValidation checks that the correct option of a question exists.
func questionStructValidation(sl validator.StructLevel) {
	q, ok := sl.Current().Interface().(QuestionDraft)
	if !ok {
		return
	}
	if c := q.Correct.Int(); len(q.Options) > 0 && (c < 0 || c >= len(q.Options)) {
		sl.ReportError(q.Correct, "correct", "Correct", correctOptionTag, "")
	}
}
