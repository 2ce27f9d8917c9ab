// Copyright (C) 2021  Lukas Dietrich <lukas@lukasdietrich.com>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package httpapi

import (
	"database/sql"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/lukasdietrich/sharpmail/internal/delivery"
	"github.com/lukasdietrich/sharpmail/internal/models"
)

type sendAttachment struct {
	Key string `json:"key"`
}

type sendRequest struct {
	From        string           `json:"from"`
	To          string           `json:"to"`
	Subject     string           `json:"subject"`
	Body        string           `json:"body"`
	ContentType string           `json:"content_type"`
	HTMLBody    string           `json:"html_body"`
	Hashcash    string           `json:"hashcash"`
	Attachments []sendAttachment `json:"attachments"`

	ScheduledAt  *int64 `json:"scheduled_at"`
	ExpiresAt    *int64 `json:"expires_at"`
	ReplyToID    *int64 `json:"reply_to_id"`
	ThreadID     *int64 `json:"thread_id"`
	SelfDestruct bool   `json:"self_destruct"`
}

// handleSend accepts a local submission and reports the outcome of the
// delivery attempt.
func handleSend(postmaster *delivery.Postmaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body sendRequest

		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(400, gin.H{"success": false, "message": "Invalid request body"})
			return
		}

		req := delivery.SubmitRequest{
			Identity:     *identityFrom(c),
			From:         body.From,
			To:           body.To,
			Subject:      body.Subject,
			Body:         body.Body,
			ContentType:  body.ContentType,
			HTMLBody:     body.HTMLBody,
			Hashcash:     body.Hashcash,
			Attachments:  attachmentKeys(body.Attachments),
			ScheduledAt:  nullInt64(body.ScheduledAt),
			ExpiresAt:    nullInt64(body.ExpiresAt),
			ReplyToID:    nullInt64(body.ReplyToID),
			ThreadID:     nullInt64(body.ThreadID),
			SelfDestruct: body.SelfDestruct,
		}

		mail, err := postmaster.Submit(c.Request.Context(), &req)
		if err != nil {
			status, message := translateSubmitError(err)
			c.JSON(status, gin.H{"success": false, "message": message})
			return
		}

		reply := gin.H{"success": true, "id": mail.ID}

		switch mail.Status {
		case models.StatusScheduled:
			reply["scheduled"] = true
		case models.StatusSpam:
			reply["message"] = "Mail marked as spam due to low proof of work."
		}

		c.JSON(200, reply)
	}
}

func translateSubmitError(err error) (int, string) {
	var submitErr delivery.SubmitError
	if errors.As(err, &submitErr) {
		return submitErr.Code, submitErr.Message
	}

	return 400, err.Error()
}

func attachmentKeys(attachments []sendAttachment) []string {
	keys := make([]string, 0, len(attachments))

	for _, attachment := range attachments {
		if attachment.Key != "" {
			keys = append(keys, attachment.Key)
		}
	}

	return keys
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}

	return sql.NullInt64{Int64: *v, Valid: true}
}
