// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package workload

import (
	"math/rand/v2"
	"slices"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
)

type QuerySize struct {
	Users    int
	Posts    int
	Comments int
}

// DefaultQuerySize is the size of the tables of the complex query.
var DefaultQuerySize = QuerySize{Users: 1000, Posts: 5000, Comments: 20000}

type queryUser struct {
	ID   int
	Name string
	Role string
}

type queryPost struct {
	ID     int
	UserID int
	Title  string
	Views  int
}

type queryComment struct {
	ID        int
	PostID    int
	UserID    int
	CreatedAt time.Time
}

type Engagement struct {
	CommentCount      int       `json:"commentCount"`
	UniqueCommenters  int       `json:"uniqueCommenters"`
	LatestCommentDate time.Time `json:"latestCommentDate"`
	EngagementScore   float64   `json:"engagementScore"`
}

type PostEngagement struct {
	ID         int        `json:"id"`
	Title      string     `json:"title"`
	Views      int        `json:"views"`
	AuthorID   int        `json:"authorId"`
	AuthorName string     `json:"authorName"`
	Engagement Engagement `json:"engagement"`
}

// ComplexQuery generates random tables and joins them the slow way: posts
// with their authors and comments, comments with their authors. It returns
// the posts with at least one comment, by decreasing engagement score.
// Comments are dated within the 2000000s before now, so the result only
// depends on the arguments.
func ComplexQuery(size QuerySize, rng *rand.Rand, now time.Time) []PostEngagement {
	users := make([]queryUser, size.Users)
	for i := range users {
		role := "user"
		if i%10 == 0 {
			role = "admin"
		}
		users[i] = queryUser{ID: i + 1, Name: "User " + itoa(i+1), Role: role}
	}
	posts := make([]queryPost, size.Posts)
	for i := range posts {
		posts[i] = queryPost{
			ID:     i + 1,
			UserID: rng.IntN(max(size.Users, 1)) + 1,
			Title:  "Post " + itoa(i+1),
			Views:  rng.IntN(10000),
		}
	}
	comments := make([]queryComment, size.Comments)
	for i := range comments {
		comments[i] = queryComment{
			ID:        i + 1,
			PostID:    rng.IntN(max(size.Posts, 1)) + 1,
			UserID:    rng.IntN(max(size.Users, 1)) + 1,
			CreatedAt: now.Add(-time.Duration(rng.Int64N(int64(2000000 * time.Second)))),
		}
	}

	findUser := func(id int) *queryUser {
		for i := range users {
			if users[i].ID == id {
				return &users[i]
			}
		}
		return nil
	}

	var ret []PostEngagement
	for _, post := range posts {
		author := findUser(post.UserID)
		commenters := mapset.NewThreadUnsafeSet[int]()
		var e Engagement
		for _, c := range comments {
			if c.PostID != post.ID {
				continue
			}
			if findUser(c.UserID) == nil {
				continue
			}
			e.CommentCount++
			commenters.Add(c.UserID)
			if c.CreatedAt.After(e.LatestCommentDate) {
				e.LatestCommentDate = c.CreatedAt
			}
		}
		if e.CommentCount == 0 {
			continue
		}
		e.UniqueCommenters = commenters.Cardinality()
		e.EngagementScore = float64(e.CommentCount*2+e.UniqueCommenters*5) + float64(post.Views)/100

		pe := PostEngagement{
			ID:         post.ID,
			Title:      post.Title,
			Views:      post.Views,
			Engagement: e,
		}
		if author != nil {
			pe.AuthorID = author.ID
			pe.AuthorName = author.Name
		}
		ret = append(ret, pe)
	}

	slices.SortStableFunc(ret, func(a, b PostEngagement) int {
		switch {
		case a.Engagement.EngagementScore > b.Engagement.EngagementScore:
			return -1
		case a.Engagement.EngagementScore < b.Engagement.EngagementScore:
			return 1
		}
		return 0
	})
	return ret
}
