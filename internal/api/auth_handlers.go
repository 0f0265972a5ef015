// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Feedline Contributors

package api

import (
	"net/http"

	"github.com/feedline/feedline/internal/auth"
)

type signupRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type statusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.accounts.Signup(r.Context(), auth.SignupInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusCreated, map[string]any{
		"message": "User created!",
		"userId":  user.ID.String(),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, map[string]any{
		"token":     res.Token,
		"userId":    res.UserID.String(),
		"expiresAt": res.ExpiresAt,
	})
}

func (s *Server) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.accounts.Status(r.Context(), auth.AuthContextFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": status})
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ac := auth.AuthContextFrom(r.Context())
	// Anonymous callers are rejected before the body is looked at.
	if err := auth.RequireAuthenticated(ac); err != nil {
		s.writeError(w, r, err)
		return
	}

	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.accounts.UpdateStatus(r.Context(), ac, req.Status); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string]string{"message": "User updated."})
}
