package echoapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_telegramWebhook(t *testing.T) {
	f := setup(t)
	update := []byte(`{"update_id": 42, "message": {"message_id": 1, "chat": {"id": 7, "type": "private"}, "from": {"id": 9, "username": "noa"}, "text": "שלום"}}`)

	runHTTPTests(t, f, []httpTest{
		{name: "Update", method: http.MethodPost, path: "/webhooks/telegram", body: update, wantData: []byte(`{"ok": true}`)},
		{
			name: "Wrong method", path: "/webhooks/telegram",
			wantCode: http.StatusMethodNotAllowed, wantData: marchallObj(t, httpErr{Error: "method not allowed"}),
		},
		{
			name: "Unparsable", method: http.MethodPost, path: "/webhooks/telegram", body: []byte(`{"update_id":`),
			wantCode: http.StatusInternalServerError, wantData: marchallObj(t, httpErr{Error: "Internal Server Error"}),
		},
	})

	infos := f.logger.Entries("info")
	require.NotEmpty(t, infos)
	last := infos[len(infos)-1]
	assert.Equal(t, "telegram update", last.Msg)
	assert.Equal(t, map[string]interface{}{"update_id": 42, "chat_id": int64(7), "text": "שלום", "from": "noa"}, last.Args[0])
	assert.Len(t, f.logger.Entries("error"), 1)
}
