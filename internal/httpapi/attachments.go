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
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lukasdietrich/sharpmail/internal/database"
	"github.com/lukasdietrich/sharpmail/internal/log"
	"github.com/lukasdietrich/sharpmail/internal/models"
	"github.com/lukasdietrich/sharpmail/internal/storage"
)

// handleAttachmentUpload stores a payload ahead of submission. The returned
// key is referenced in a later send request.
func handleAttachmentUpload(
	conn database.Conn,
	attachmentDao database.AttachmentDao,
	blobs *storage.Blobs,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		header, err := c.FormFile("file")
		if err != nil {
			c.JSON(400, gin.H{"success": false, "message": "Missing file"})
			return
		}

		f, err := header.Open()
		if err != nil {
			c.JSON(400, gin.H{"success": false, "message": "Could not read file"})
			return
		}

		defer f.Close()

		key, size, err := blobs.Write(f)
		if err != nil {
			c.JSON(500, gin.H{"success": false, "message": "Could not store file"})
			return
		}

		attachment := models.AttachmentEntity{
			Key:       key,
			Status:    models.StatusPending,
			Filename:  header.Filename,
			Size:      size,
			CreatedAt: time.Now().Unix(),
		}

		if err := attachmentDao.Insert(c.Request.Context(), conn, &attachment); err != nil {
			if err := blobs.Delete(key); err != nil {
				log.Warn().Str("blob", key).Err(err).Msg("could not delete orphaned blob")
			}

			c.JSON(500, gin.H{"success": false, "message": "Could not store file"})
			return
		}

		c.JSON(200, gin.H{
			"success":  true,
			"key":      key,
			"filename": attachment.Filename,
			"size":     size,
		})
	}
}

// handleAttachmentDownload streams a stored payload.
func handleAttachmentDownload(
	conn database.Conn,
	attachmentDao database.AttachmentDao,
	blobs *storage.Blobs,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.Param("key")

		attachment, err := attachmentDao.FindByKey(c.Request.Context(), conn, key)
		if err != nil {
			if database.IsErrNoRows(err) {
				c.JSON(404, gin.H{"success": false, "message": "Attachment not found"})
				return
			}

			c.JSON(500, gin.H{"success": false, "message": "Could not load attachment"})
			return
		}

		r, err := blobs.Reader(attachment.Key)
		if err != nil {
			c.JSON(404, gin.H{"success": false, "message": "Attachment not found"})
			return
		}

		defer r.Close()

		c.Header("Content-Disposition", `attachment; filename="`+attachment.Filename+`"`)
		c.Header("Content-Type", "application/octet-stream")
		c.Status(200)

		if _, err := io.Copy(c.Writer, r); err != nil {
			log.Warn().Str("blob", attachment.Key).Err(err).Msg("could not stream blob")
		}
	}
}
