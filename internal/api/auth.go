package api

import (
	"errors"
	"net/http"

	"github.com/LJTian/NewsHub/internal/storage"
	"github.com/gin-gonic/gin"
)

const (
	userKey = "user"
	realm   = "NewsHub"
)

// optionalUser 带了 Basic Auth 就校验并记录用户；没带则匿名放行
func (s *Server) optionalUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, _, ok := c.Request.BasicAuth(); !ok {
			c.Next()
			return
		}
		s.authenticate(c)
	}
}

// requireUser 必须携带有效的 Basic Auth
func (s *Server) requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, _, ok := c.Request.BasicAuth(); !ok {
			unauthorized(c)
			return
		}
		s.authenticate(c)
	}
}

func (s *Server) authenticate(c *gin.Context) {
	username, password, _ := c.Request.BasicAuth()
	u, err := s.store.AuthenticateUser(c.Request.Context(), username, password)
	if errors.Is(err, storage.ErrInvalidCredentials) {
		unauthorized(c)
		return
	}
	if err != nil {
		internalError(c, "authenticate", err)
		return
	}
	c.Set(userKey, u)
	c.Next()
}

func unauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", `Basic realm="`+realm+`"`)
	fail(c, http.StatusUnauthorized, "unauthorized", "invalid username or password")
}

func currentUser(c *gin.Context) *storage.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	u, _ := v.(*storage.User)
	return u
}
