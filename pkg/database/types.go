// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package database

import "time"

type User struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type Post struct {
	ID        int       `json:"id"`
	UserID    int       `json:"userId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type Comment struct {
	ID        int       `json:"id"`
	PostID    int       `json:"postId"`
	UserID    int       `json:"userId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Author is the short form of a user embedded in other results.
type Author struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type CommentWithAuthor struct {
	Comment
	Author *Author `json:"author"`
}

type UserDetails struct {
	User  User   `json:"user"`
	Posts []Post `json:"posts"`
}

type PostDetails struct {
	Post     Post                `json:"post"`
	Author   *User               `json:"author"`
	Comments []CommentWithAuthor `json:"comments"`
}

type PostStats struct {
	PostID       int    `json:"postId"`
	Title        string `json:"title"`
	CommentCount int    `json:"commentCount"`
	Commenters   []int  `json:"commenters"`
}

type UserStats struct {
	UserID       int         `json:"userId"`
	Name         string      `json:"name"`
	PostCount    int         `json:"postCount"`
	CommentCount int         `json:"commentCount"`
	Posts        []PostStats `json:"posts"`
}
