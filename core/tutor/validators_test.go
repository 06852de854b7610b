package tutor

import (
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/tirgul/core"
)

func newValidator() (*validator.Validate, func(error) map[string]string) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)

	fieldErrors := func(err error) map[string]string {
		vErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return nil
		}
		return core.FieldErrors(vErrs, translator)
	}
	return validate, fieldErrors
}

func TestNewFeedback_Validate(t *testing.T) {
	validate, fieldErrors := newValidator()

	tests := []struct {
		name       string
		nf         NewFeedback
		wantFields map[string]string
	}{
		{name: "valid", nf: NewFeedback{Rating: 4, Comment: "מסביר מעולה"}},
		{name: "no comment", nf: NewFeedback{Rating: 1}},
		{name: "200 characters", nf: NewFeedback{Rating: 5, Comment: strings.Repeat("א", 200)}},
		{name: "201 characters", nf: NewFeedback{Rating: 5, Comment: strings.Repeat("א", 201)}, wantFields: map[string]string{"comment": commentLenText}},
		{name: "trimmed to 200", nf: NewFeedback{Rating: 5, Comment: "  " + strings.Repeat("a", 200) + " "}},
		{name: "url", nf: NewFeedback{Rating: 3, Comment: "http://x.com"}, wantFields: map[string]string{"comment": noURLText}},
		{name: "bare domain", nf: NewFeedback{Rating: 3, Comment: "ראו example.com"}, wantFields: map[string]string{"comment": noURLText}},
		{name: "missing space after period", nf: NewFeedback{Rating: 5, Comment: "great tutor.Me too"}},
		{name: "www", nf: NewFeedback{Rating: 3, Comment: "www.tutors"}, wantFields: map[string]string{"comment": noURLText}},
		{name: "rating 0", nf: NewFeedback{Rating: 0}, wantFields: map[string]string{"rating": ratingText}},
		{name: "rating 6", nf: NewFeedback{Rating: 6}, wantFields: map[string]string{"rating": ratingText}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.nf.Validate(validate)
			if tt.wantFields == nil {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.wantFields, fieldErrors(err))
		})
	}
}

func TestNewTutorRequest_Validate(t *testing.T) {
	validate, fieldErrors := newValidator()

	valid := func() NewTutorRequest {
		return NewTutorRequest{
			Name:     " Noa ",
			Phone:    "052-123 4567",
			Degree:   "CS",
			Subjects: []string{" מבני נתונים ", ""},
			Email:    "Noa@Tirgul.Test",
		}
	}

	nr := valid()
	if assert.NoError(t, nr.Validate(validate)) {
		assert.Equal(t, "Noa", nr.Name)
		assert.Equal(t, "0521234567", nr.Phone)
		assert.Equal(t, "cs", nr.Degree)
		assert.Equal(t, []string{"מבני נתונים"}, nr.Subjects)
		assert.Equal(t, "noa@tirgul.test", nr.Email)
	}

	tests := []struct {
		name       string
		modify     func(nr *NewTutorRequest)
		wantFields map[string]string
	}{
		{name: "bad phone", modify: func(nr *NewTutorRequest) { nr.Phone = "031234567" }, wantFields: map[string]string{"phone": phoneText}},
		{name: "bad degree", modify: func(nr *NewTutorRequest) { nr.Degree = "bio" }, wantFields: map[string]string{"degree": "ערך לא חוקי"}},
		{name: "no subject", modify: func(nr *NewTutorRequest) { nr.Subjects = []string{" "} }, wantFields: map[string]string{"subjects": "שדה חובה"}},
		{name: "bad email", modify: func(nr *NewTutorRequest) { nr.Email = "noa" }, wantFields: map[string]string{"email": "כתובת האימייל אינה תקינה"}},
		{name: "no name", modify: func(nr *NewTutorRequest) { nr.Name = "" }, wantFields: map[string]string{"name": "שדה חובה"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nr := valid()
			tt.modify(&nr)
			assert.Equal(t, tt.wantFields, fieldErrors(nr.Validate(validate)))
		})
	}
}

func TestContainsURL(t *testing.T) {
	assert.True(t, ContainsURL("https://tirgul.co.il/x"))
	assert.True(t, ContainsURL("HTTP://X.COM"))
	assert.False(t, ContainsURL("מתרגל מעולה, ממליצה בחום!"))
	assert.False(t, ContainsURL("3.5 out of 5"))
	assert.True(t, ContainsURL("tirgul.co.il"))
	assert.True(t, ContainsURL("ראו notes.io/algo"))

	// sentences missing a space after the period
	assert.False(t, ContainsURL("great tutor.Me too"))
	assert.False(t, ContainsURL("Great Tutor.Com"))
	assert.False(t, ContainsURL("סיכום a.co"))
}
