package rest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/kasuganosora/questforge/server/game"
	"github.com/kasuganosora/questforge/server/game/policy"
	mw "github.com/kasuganosora/questforge/server/middleware"
	"github.com/kasuganosora/questforge/server/model"
)

// writeError maps a service error to its HTTP status. Unexpected errors are
// attached to the context for the request logger and hidden from the client.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, game.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, game.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, game.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, game.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// bindStrict decodes the JSON body into dst, rejecting unknown fields, then
// runs the binding validator. On failure it writes a 400 and returns false.
func bindStrict(c *gin.Context, dst interface{}) bool {
	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		msg := err.Error()
		if errors.Is(err, io.EOF) {
			msg = "request body required"
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return false
	}
	if dec.More() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unexpected data after request body"})
		return false
	}
	if err := binding.Validator.ValidateStruct(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

// idParam returns the named path parameter in canonical UUID form; if it
// is not a UUID it writes a 400 and returns false.
func idParam(c *gin.Context, name string) (string, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return "", false
	}
	return id.String(), true
}

func actor(c *gin.Context) policy.Actor {
	return policy.Actor{UserID: mw.GetUserID(c), Role: model.Role(mw.GetRole(c))}
}

// allow evaluates a policy rule for the caller and writes the error response
// when it is denied.
func allow(c *gin.Context, checker *policy.Checker, action policy.Action, target policy.Target) bool {
	if err := checker.Require(c.Request.Context(), actor(c), action, target); err != nil {
		writeError(c, err)
		return false
	}
	return true
}
