// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

// Package database implements an in-memory database with simulated latencies
// and failures.
package database

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"slices"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/cilium/monitoring-poc/pkg/apierror"
	"github.com/cilium/monitoring-poc/pkg/logger"
	"github.com/cilium/monitoring-poc/pkg/logger/logfields"
	"github.com/cilium/monitoring-poc/pkg/metrics/dbmetrics"
	"github.com/cilium/monitoring-poc/pkg/metrics/errormetrics"
	"github.com/cilium/monitoring-poc/pkg/workload"
)

var log = logger.GetLogger().WithField(logfields.LogSubsys, "database")

const (
	numUsers        = 10
	postsPerUser    = 5
	commentsPerPost = 3

	usersDelay     = 100 * time.Millisecond
	userDelay      = 150 * time.Millisecond
	postsDelay     = 200 * time.Millisecond
	postDelay      = 250 * time.Millisecond
	slowQueryDelay = 3 * time.Second
)

type Config struct {
	// Seed of the commenter ids
	Seed uint64
	// CacheSize is the number of user lookups kept in cache
	CacheSize int
	Delay     workload.Delayer
	Metrics   *dbmetrics.Metrics
	Errors    *errormetrics.Metrics
}

type DB struct {
	users    []User
	posts    []Post
	comments []Comment

	cache   *lru.Cache[int, UserDetails]
	delay   workload.Delayer
	metrics *dbmetrics.Metrics
	errors  *errormetrics.Metrics
}

func New(config Config) (*DB, error) {
	cache, err := lru.New[int, UserDetails](config.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create user cache: %w", err)
	}
	db := &DB{
		cache:   cache,
		delay:   config.Delay,
		metrics: config.Metrics,
		errors:  config.Errors,
	}
	db.seed(config.Seed)
	return db, nil
}

func (db *DB) seed(seed uint64) {
	rng := rand.New(rand.NewPCG(seed, seed))
	now := time.Now().UTC()
	for i := 1; i <= numUsers; i++ {
		db.users = append(db.users, User{
			ID:        i,
			Name:      fmt.Sprintf("User %d", i),
			Email:     fmt.Sprintf("user%d@example.com", i),
			CreatedAt: now,
		})
		for j := 1; j <= postsPerUser; j++ {
			postID := (i-1)*postsPerUser + j
			db.posts = append(db.posts, Post{
				ID:        postID,
				UserID:    i,
				Title:     fmt.Sprintf("Post %d by User %d", j, i),
				Content:   fmt.Sprintf("This is the content of post %d", j),
				CreatedAt: now,
			})
			for k := 1; k <= commentsPerPost; k++ {
				db.comments = append(db.comments, Comment{
					ID:        (postID-1)*commentsPerPost + k,
					PostID:    postID,
					UserID:    rng.IntN(numUsers) + 1,
					Content:   fmt.Sprintf("Comment %d on post %d", k, postID),
					CreatedAt: now,
				})
			}
		}
	}
}

// query waits for the simulated latency and records the query.
func (db *DB) query(ctx context.Context, op dbmetrics.Operation, entity dbmetrics.Entity, delay time.Duration) error {
	start := time.Now()
	err := db.delay.Sleep(ctx, delay)
	if db.metrics != nil {
		db.metrics.TrackQuery(op, entity, time.Since(start))
	}
	return err
}

func notFound(what string) *apierror.Error {
	return apierror.New(http.StatusNotFound, apierror.CodeNotFound, what+" not found")
}

func (db *DB) findUser(id int) *User {
	i := slices.IndexFunc(db.users, func(u User) bool { return u.ID == id })
	if i < 0 {
		return nil
	}
	return &db.users[i]
}

func (db *DB) postsOf(userID int) []Post {
	var ret []Post
	for _, p := range db.posts {
		if p.UserID == userID {
			ret = append(ret, p)
		}
	}
	return ret
}

func (db *DB) commentsOf(postID int) []Comment {
	var ret []Comment
	for _, c := range db.comments {
		if c.PostID == postID {
			ret = append(ret, c)
		}
	}
	return ret
}

// Users returns all the users.
func (db *DB) Users(ctx context.Context) ([]User, error) {
	if err := db.query(ctx, dbmetrics.OpSelect, dbmetrics.EntityUsers, usersDelay); err != nil {
		return nil, err
	}
	return slices.Clone(db.users), nil
}

// User returns a user and their posts. Results are cached, a cached lookup
// doesn't wait for the query latency.
func (db *DB) User(ctx context.Context, id int) (UserDetails, error) {
	if details, ok := db.cache.Get(id); ok {
		if db.metrics != nil {
			db.metrics.TrackQuery(dbmetrics.OpSelect, dbmetrics.EntityUsers, 0)
		}
		return details, nil
	}
	if err := db.query(ctx, dbmetrics.OpSelect, dbmetrics.EntityUsers, userDelay); err != nil {
		return UserDetails{}, err
	}
	user := db.findUser(id)
	if user == nil {
		return UserDetails{}, notFound("User")
	}
	details := UserDetails{User: *user, Posts: db.postsOf(id)}
	db.cache.Add(id, details)
	return details, nil
}

// Posts returns all the posts.
func (db *DB) Posts(ctx context.Context) ([]Post, error) {
	if err := db.query(ctx, dbmetrics.OpSelect, dbmetrics.EntityPosts, postsDelay); err != nil {
		return nil, err
	}
	return slices.Clone(db.posts), nil
}

// Post returns a post joined with its author and its comments.
func (db *DB) Post(ctx context.Context, id int) (PostDetails, error) {
	if err := db.query(ctx, dbmetrics.OpJoin, dbmetrics.EntityPosts, postDelay); err != nil {
		return PostDetails{}, err
	}
	i := slices.IndexFunc(db.posts, func(p Post) bool { return p.ID == id })
	if i < 0 {
		return PostDetails{}, notFound("Post")
	}
	post := db.posts[i]
	details := PostDetails{Post: post, Author: db.findUser(post.UserID)}
	for _, c := range db.commentsOf(id) {
		cwa := CommentWithAuthor{Comment: c}
		if u := db.findUser(c.UserID); u != nil {
			cwa.Author = &Author{ID: u.ID, Name: u.Name}
		}
		details.Comments = append(details.Comments, cwa)
	}
	return details, nil
}

// SlowQuery aggregates posts and comments for every user.
func (db *DB) SlowQuery(ctx context.Context) ([]UserStats, error) {
	if err := db.query(ctx, dbmetrics.OpAggregate, dbmetrics.EntityComments, slowQueryDelay); err != nil {
		return nil, err
	}
	stats := make([]UserStats, 0, len(db.users))
	for _, u := range db.users {
		us := UserStats{UserID: u.ID, Name: u.Name}
		for _, p := range db.postsOf(u.ID) {
			comments := db.commentsOf(p.ID)
			commenters := mapset.NewThreadUnsafeSet[int]()
			for _, c := range comments {
				commenters.Add(c.UserID)
			}
			ids := commenters.ToSlice()
			slices.Sort(ids)
			us.Posts = append(us.Posts, PostStats{
				PostID:       p.ID,
				Title:        p.Title,
				CommentCount: len(comments),
				Commenters:   ids,
			})
			us.CommentCount += len(comments)
		}
		us.PostCount = len(us.Posts)
		stats = append(stats, us)
	}
	return stats, nil
}

// SimulateError waits for the latency of the failing query, and returns the
// failure. The failure is counted as a database error.
func (db *DB) SimulateError(ctx context.Context, kind ErrorKind) error {
	prof, ok := errorProfiles[kind]
	if !ok {
		return &UnknownErrorKindError{Kind: kind}
	}
	if err := db.query(ctx, dbmetrics.OpSelect, dbmetrics.EntityUsers, prof.delay); err != nil {
		return err
	}
	trackError(db.errors, prof)
	err := newError(kind, prof)
	log.WithFields(logrus.Fields{
		logfields.Code:  prof.code,
		logfields.Query: prof.query,
	}).Debug("Simulated database error")
	return err
}
