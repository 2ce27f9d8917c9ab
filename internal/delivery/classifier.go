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

package delivery

import (
	"strings"

	"github.com/lukasdietrich/sharpmail/internal/models"
)

// keywordCategory pairs a classification with its keyword set. The slice
// order is the tie breaking order, earlier categories win.
type keywordCategory struct {
	classification models.Classification
	keywords       []string
}

var keywordCategories = []keywordCategory{
	{
		classification: models.ClassificationPromotions,
		keywords: []string{
			"sale", "discount", "buy now", "limited time", "offer",
			"free shipping", "coupon", "deal", "save", "special",
		},
	},
	{
		classification: models.ClassificationSocial,
		keywords: []string{
			"friend request", "mentioned you", "liked your post",
			"new follower", "connection", "following",
		},
	},
	{
		classification: models.ClassificationForums,
		keywords: []string{
			"digest", "thread", "post reply", "new topic",
			"unsubscribe from this group", "mailing list",
		},
	},
	{
		classification: models.ClassificationUpdates,
		keywords: []string{
			"receipt", "order confirmation", "invoice",
			"payment received", "shipping update", "account update",
		},
	},
}

// htmlMarkers hint at structured marketing layouts. Their count adds to the
// promotions score, capped at maxHTMLScore.
var htmlMarkers = []string{"<img", "<table", "<style"}

const maxHTMLScore = 5

// Classify assigns a coarse content category based on keyword presence in
// subject and body. The category with the strictly highest nonzero score
// wins, ties go to the earlier category. All-zero scores default to primary.
func Classify(subject, body, htmlBody string) models.Classification {
	fullText := strings.ToLower(subject + " " + body)

	var (
		best      = models.ClassificationPrimary
		bestScore = 0
	)

	for _, category := range keywordCategories {
		score := 0

		for _, keyword := range category.keywords {
			if strings.Contains(fullText, keyword) {
				score++
			}
		}

		if category.classification == models.ClassificationPromotions {
			score += htmlScore(htmlBody)
		}

		if score > bestScore {
			best = category.classification
			bestScore = score
		}
	}

	return best
}

func htmlScore(htmlBody string) int {
	if htmlBody == "" {
		return 0
	}

	score := 0

	for _, marker := range htmlMarkers {
		score += strings.Count(htmlBody, marker)
	}

	if score > maxHTMLScore {
		score = maxHTMLScore
	}

	return score
}
