package echoapi

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tirgul/core"
)

// TelegramUpdate is the part of a Telegram bot update we log.
type TelegramUpdate struct {
	UpdateID int `json:"update_id"`
	Message  *struct {
		MessageID int `json:"message_id"`
		Chat      struct {
			ID   int64  `json:"id"`
			Type string `json:"type"`
		} `json:"chat"`
		From *struct {
			ID       int64  `json:"id"`
			Username string `json:"username"`
		} `json:"from"`
		Text string `json:"text"`
	} `json:"message"`
}

func (u TelegramUpdate) fields() map[string]interface{} {
	f := map[string]interface{}{"update_id": u.UpdateID}
	if m := u.Message; m != nil {
		f["chat_id"] = m.Chat.ID
		f["text"] = m.Text
		if m.From != nil {
			f["from"] = m.From.Username
		}
	}
	return f
}

func registerWebhooks(app *echo.Echo, logger core.Logger) {
	app.Any("/webhooks/telegram", func(ctx echo.Context) error {
		if ctx.Request().Method != http.MethodPost {
			return errMethodNotAllowed
		}

		var update TelegramUpdate
		if err := json.NewDecoder(ctx.Request().Body).Decode(&update); err != nil {
			return errors.Wrap(err, "decoding telegram update")
		}
		logger.Info("telegram update", update.fields())
		return ctx.JSON(http.StatusOK, echo.Map{"ok": true})
	})
}
