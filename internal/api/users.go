package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/pagesift/pagesift/internal/storage"
	"github.com/pagesift/pagesift/internal/types"
)

const usersDisabledMsg = "Users endpoints disabled: no database configured"

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	if s.users == nil {
		respondFailure(w, http.StatusNotImplemented, usersDisabledMsg)
		return
	}
	users, err := s.users.ListUsers(r.Context())
	if err != nil {
		s.databaseError(w, "list users", err)
		return
	}
	respondData(w, http.StatusOK, users)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	if s.users == nil {
		respondFailure(w, http.StatusNotImplemented, usersDisabledMsg)
		return
	}
	id, ok := userID(w, r)
	if !ok {
		return
	}
	user, err := s.users.GetUser(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		respondFailure(w, http.StatusNotFound, fmt.Sprintf("Not found: user %d", id))
		return
	}
	if err != nil {
		s.databaseError(w, "get user", err)
		return
	}
	respondData(w, http.StatusOK, user)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	if s.users == nil {
		respondFailure(w, http.StatusNotImplemented, usersDisabledMsg)
		return
	}
	var req types.CreateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		respondFailure(w, http.StatusBadRequest, "Validation error: invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" {
		respondFailure(w, http.StatusBadRequest, "Validation error: name and email are required")
		return
	}
	user, err := s.users.CreateUser(r.Context(), &req)
	if err != nil {
		s.databaseError(w, "create user", err)
		return
	}
	respondData(w, http.StatusCreated, user)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	if s.users == nil {
		respondFailure(w, http.StatusNotImplemented, usersDisabledMsg)
		return
	}
	id, ok := userID(w, r)
	if !ok {
		return
	}
	var req types.UpdateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		respondFailure(w, http.StatusBadRequest, "Validation error: invalid request body")
		return
	}
	if req.Name == nil && req.Email == nil {
		respondFailure(w, http.StatusBadRequest, "Validation error: nothing to update")
		return
	}
	user, err := s.users.UpdateUser(r.Context(), id, &req)
	if errors.Is(err, storage.ErrNotFound) {
		respondFailure(w, http.StatusNotFound, fmt.Sprintf("Not found: user %d", id))
		return
	}
	if err != nil {
		s.databaseError(w, "update user", err)
		return
	}
	respondData(w, http.StatusOK, user)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if s.users == nil {
		respondFailure(w, http.StatusNotImplemented, usersDisabledMsg)
		return
	}
	id, ok := userID(w, r)
	if !ok {
		return
	}
	err := s.users.DeleteUser(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		respondFailure(w, http.StatusNotFound, fmt.Sprintf("Not found: user %d", id))
		return
	}
	if err != nil {
		s.databaseError(w, "delete user", err)
		return
	}
	respondMessage(w, http.StatusOK, "User deleted")
}

func userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondFailure(w, http.StatusBadRequest, "Validation error: id must be an integer")
		return 0, false
	}
	return id, true
}

func (s *Server) databaseError(w http.ResponseWriter, op string, err error) {
	s.logger.Error(op, "error", err)
	respondFailure(w, http.StatusInternalServerError, "Database error: "+err.Error())
}
