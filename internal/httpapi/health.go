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
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"

	"github.com/lukasdietrich/sharpmail/internal/hashcash"
	"github.com/lukasdietrich/sharpmail/internal/sharp"
)

// handleHealth reports the protocol identity of this server together with
// the proof of work expectations for senders.
func handleHealth() gin.HandlerFunc {
	domain := viper.GetString("general.domain")

	return func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":   "ok",
			"protocol": sharp.ProtocolVersion,
			"domain":   domain,
			"hashcash": gin.H{
				"minBits":         hashcash.MinimumBits,
				"recommendedBits": hashcash.RecommendedBits,
			},
		})
	}
}
