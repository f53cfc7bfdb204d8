// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package database

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cilium/monitoring-poc/pkg/apierror"
	"github.com/cilium/monitoring-poc/pkg/metrics"
	"github.com/cilium/monitoring-poc/pkg/metrics/dbmetrics"
	"github.com/cilium/monitoring-poc/pkg/metrics/errormetrics"
)

func newTestDB(t *testing.T) (*DB, *dbmetrics.Metrics, *errormetrics.Metrics) {
	group := metrics.NewGroup(metrics.NewRegistry())
	dm, err := dbmetrics.NewMetrics(group)
	require.NoError(t, err)
	em, err := errormetrics.NewMetrics(group)
	require.NoError(t, err)
	group.Init()

	db, err := New(Config{Seed: 1, CacheSize: 4, Metrics: dm, Errors: em})
	require.NoError(t, err)
	return db, dm, em
}

func TestSeed(t *testing.T) {
	db, _, _ := newTestDB(t)
	ctx := context.Background()

	users, err := db.Users(ctx)
	require.NoError(t, err)
	require.Len(t, users, 10)
	assert.Equal(t, "User 3", users[2].Name)
	assert.Equal(t, "user3@example.com", users[2].Email)

	posts, err := db.Posts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 50)
	assert.Equal(t, 7, posts[6].ID)
	assert.Equal(t, 2, posts[6].UserID)
	assert.Equal(t, "Post 2 by User 2", posts[6].Title)
	assert.Equal(t, "This is the content of post 2", posts[6].Content)

	assert.Len(t, db.comments, 150)
	for _, c := range db.comments {
		assert.GreaterOrEqual(t, c.UserID, 1)
		assert.LessOrEqual(t, c.UserID, 10)
	}

	// the seed fixes the commenters
	other, err := New(Config{Seed: 1, CacheSize: 1})
	require.NoError(t, err)
	for i := range db.comments {
		assert.Equal(t, db.comments[i].UserID, other.comments[i].UserID)
	}
}

func TestInvalidCacheSize(t *testing.T) {
	_, err := New(Config{CacheSize: 0})
	assert.Error(t, err)
}

func TestUser(t *testing.T) {
	db, dm, _ := newTestDB(t)
	ctx := context.Background()

	details, err := db.User(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, details.User.ID)
	require.Len(t, details.Posts, 5)
	for _, p := range details.Posts {
		assert.Equal(t, 2, p.UserID)
	}

	// cached
	cached, err := db.User(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, details, cached)
	assert.Equal(t, float64(2), dm.QueriesTotal.Value("select", "users"))

	_, err = db.User(ctx, 42)
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status())
	assert.Equal(t, "User not found", apiErr.Message)
}

func TestPost(t *testing.T) {
	db, dm, _ := newTestDB(t)
	ctx := context.Background()

	details, err := db.Post(ctx, 12)
	require.NoError(t, err)
	assert.Equal(t, 12, details.Post.ID)
	require.NotNil(t, details.Author)
	assert.Equal(t, 3, details.Author.ID)
	require.Len(t, details.Comments, 3)
	for i, c := range details.Comments {
		assert.Equal(t, 12, c.PostID)
		assert.Equal(t, 33+i+1, c.ID)
		require.NotNil(t, c.Author)
		assert.Equal(t, c.UserID, c.Author.ID)
	}
	assert.Equal(t, float64(1), dm.QueriesTotal.Value("join", "posts"))
	sample, ok := dm.QueryDuration.Sample("join", "posts")
	require.True(t, ok)
	assert.Equal(t, uint64(1), sample.Count)

	_, err = db.Post(ctx, 0)
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Post not found", apiErr.Message)
}

func TestSlowQuery(t *testing.T) {
	db, dm, _ := newTestDB(t)

	stats, err := db.SlowQuery(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 10)
	for _, us := range stats {
		assert.Equal(t, 5, us.PostCount)
		assert.Equal(t, 15, us.CommentCount)
		for _, ps := range us.Posts {
			assert.Equal(t, 3, ps.CommentCount)
			assert.NotEmpty(t, ps.Commenters)
			assert.LessOrEqual(t, len(ps.Commenters), 3)
			assert.IsNonDecreasing(t, ps.Commenters)
		}
	}
	assert.Equal(t, float64(1), dm.QueriesTotal.Value("aggregate", "comments"))
}

func TestSimulateError(t *testing.T) {
	db, _, em := newTestDB(t)
	ctx := context.Background()

	for _, kind := range ErrorKinds {
		prof := errorProfiles[kind]
		err := db.SimulateError(ctx, kind)
		var apiErr *apierror.Error
		require.ErrorAs(t, err, &apiErr, kind)
		assert.Equal(t, prof.code, apiErr.Code, kind)
		assert.Equal(t, prof.status, apiErr.Status(), kind)
		assert.Equal(t, "DatabaseError", apiErr.Type, kind)
		assert.Equal(t, prof.query, apiErr.Query, kind)
		assert.Equal(t, string(kind), apiErr.Fields()["error_kind"], kind)
		assert.NotEmpty(t, apiErr.Stack(), kind)
		assert.Equal(t, float64(1), em.ErrorDetails.Value("database", prof.subcategory, prof.code), kind)
	}
	assert.Equal(t, float64(len(ErrorKinds)), em.ErrorTotal.Value("database"))

	var unknown *UnknownErrorKindError
	assert.ErrorAs(t, db.SimulateError(ctx, "nope"), &unknown)
}

func TestCancelledQuery(t *testing.T) {
	group := metrics.NewGroup(metrics.NewRegistry())
	dm, err := dbmetrics.NewMetrics(group)
	require.NoError(t, err)
	db, err := New(Config{CacheSize: 1, Delay: 1, Metrics: dm})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = db.SlowQuery(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	// the cancelled query is still recorded
	assert.Equal(t, float64(1), dm.QueriesTotal.Value("aggregate", "comments"))
}
