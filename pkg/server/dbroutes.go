// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package server

import (
	"net/http"
	"path"
	"strconv"

	"github.com/cilium/monitoring-poc/pkg/apierror"
	"github.com/cilium/monitoring-poc/pkg/database"
)

func pathID(r *http.Request) (int, error) {
	v := r.PathValue("id")
	id, err := strconv.Atoi(v)
	if err != nil {
		return 0, apierror.New(http.StatusBadRequest, "INVALID_ID", "Invalid id").WithField("id", v)
	}
	return id, nil
}

func (s *Server) users(w http.ResponseWriter, r *http.Request) error {
	users, err := s.db.Users(r.Context())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"users":     users,
		"count":     len(users),
		"timestamp": timestamp(),
	})
	return nil
}

func (s *Server) user(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	details, err := s.db.User(r.Context(), id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":      details.User,
		"posts":     details.Posts,
		"timestamp": timestamp(),
	})
	return nil
}

func (s *Server) posts(w http.ResponseWriter, r *http.Request) error {
	posts, err := s.db.Posts(r.Context())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"posts": posts,
		"count": len(posts),
	})
	return nil
}

func (s *Server) post(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	details, err := s.db.Post(r.Context(), id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, details)
	return nil
}

func (s *Server) slowQuery(w http.ResponseWriter, r *http.Request) error {
	log.Info("Slow query endpoint called")
	stats, err := s.db.SlowQuery(r.Context())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":       "Slow query completed",
		"userStats":     stats,
		"executionTime": "3 seconds",
	})
	return nil
}

// databaseError simulates the failure named by the last path element.
func (s *Server) databaseError(_ http.ResponseWriter, r *http.Request) error {
	return s.db.SimulateError(r.Context(), database.ErrorKind(path.Base(r.URL.Path)))
}
