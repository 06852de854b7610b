package tutor

import (
	"fmt"
	"regexp"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/tirgul/core"
)

const (
	MinRating        = 1
	MaxRating        = 5
	MaxCommentLength = 200
)

var (
	ratingTag  = "rating"
	ratingText = fmt.Sprintf("הדירוג חייב להיות בין %d ל-%d", MinRating, MaxRating)

	commentLenTag  = "commentlen"
	commentLenText = fmt.Sprintf("התגובה ארוכה מדי (עד %d תווים)", MaxCommentLength)

	noURLTag  = "nourl"
	noURLText = "אין להוסיף קישורים לתגובה"
	// a scheme or www in any case, or a lowercase bare domain such as tirgul.co.il
	urlRegex = regexp.MustCompile(`(?i:https?://|www\.)|\b[a-z0-9][a-z0-9-]+\.(com|net|org|io|co|il|me|info|biz|app|dev|ly|gov|edu|xyz)\b`)

	phoneTag   = "ilphone"
	phoneText  = "מספר הטלפון אינו תקין"
	phoneRegex = regexp.MustCompile(`^05\d{8}$`)
)

// InitValidators registers the tutor validators and their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(ratingTag, ratingValidation)
	core.RegisterCustomTranslation(validate, translator, ratingTag, ratingText)

	_ = validate.RegisterValidation(commentLenTag, commentLenValidation)
	core.RegisterCustomTranslation(validate, translator, commentLenTag, commentLenText)

	_ = validate.RegisterValidation(noURLTag, noURLValidation)
	core.RegisterCustomTranslation(validate, translator, noURLTag, noURLText)

	_ = validate.RegisterValidation(phoneTag, phoneValidation)
	core.RegisterCustomTranslation(validate, translator, phoneTag, phoneText)
}

// ContainsURL reports whether s holds something that looks like a link.
func ContainsURL(s string) bool {
	return urlRegex.MatchString(s)
}

// Custom Validators

func ratingValidation(fl validator.FieldLevel) bool {
	r := fl.Field().Int()
	return r >= MinRating && r <= MaxRating
}

// commentLenValidation counts characters, not bytes.
func commentLenValidation(fl validator.FieldLevel) bool {
	return core.RuneLen(fl.Field().String()) <= MaxCommentLength
}

func noURLValidation(fl validator.FieldLevel) bool {
	return !ContainsURL(fl.Field().String())
}

// phoneValidation accepts israeli mobile numbers: 05 followed by 8 digits.
func phoneValidation(fl validator.FieldLevel) bool {
	return phoneRegex.MatchString(NormalizePhone(fl.Field().String()))
}
