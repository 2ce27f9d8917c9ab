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

// Package httpapi is the local submission surface. Users authenticate with a
// bearer token and hand finished mails to the delivery orchestration.
package httpapi

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lukasdietrich/sharpmail/internal/database"
	"github.com/lukasdietrich/sharpmail/internal/delivery"
	"github.com/lukasdietrich/sharpmail/internal/storage"
)

const identityKey = "identity"

// NewRouter wires all http endpoints.
func NewRouter(
	conn database.Conn,
	attachmentDao database.AttachmentDao,
	blobs *storage.Blobs,
	postmaster *delivery.Postmaster,
	authenticator Authenticator,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/server/health", handleHealth())

	authorized := r.Group("/")
	authorized.Use(requireAuth(authenticator))
	{
		authorized.POST("/send", handleSend(postmaster))
		authorized.POST("/attachments", handleAttachmentUpload(conn, attachmentDao, blobs))
		authorized.GET("/attachments/:key", handleAttachmentDownload(conn, attachmentDao, blobs))
	}

	return r
}

// requireAuth resolves the bearer token to an identity and aborts the
// request, if the token is missing or invalid.
func requireAuth(authenticator Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")

		token := strings.TrimPrefix(header, "Bearer ")
		if header == "" || token == header {
			c.AbortWithStatusJSON(401, gin.H{
				"success": false,
				"message": "Authorization header required",
			})

			return
		}

		identity, err := authenticator.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(401, gin.H{
				"success": false,
				"message": "Invalid or expired token",
			})

			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

func identityFrom(c *gin.Context) *delivery.Identity {
	return c.MustGet(identityKey).(*delivery.Identity)
}
