package playback

import "strings"

// user facing messages
const (
	DeviceLimitMessage = "הגעת למספר המכשירים המרבי לצפייה בקורס. יש לפנות לתמיכה."
	GenericMessage     = "אירעה שגיאה בטעינת הסרטון. נסו לרענן את העמוד."

	deviceLimitPhrase = "device limit"
)

// TokenErrorMessage maps a playback token failure to the message shown to the user.
// Both messages are final: the token is not requested again.
func TokenErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	if strings.Contains(strings.ToLower(err.Error()), deviceLimitPhrase) {
		return DeviceLimitMessage
	}
	return GenericMessage
}
