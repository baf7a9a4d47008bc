package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/questforge/server/game/policy"
)

// authorizeRecord loads the record named by the :id parameter and checks
// action against the campaign it belongs to.
func authorizeRecord[T any](
	c *gin.Context,
	checker *policy.Checker,
	action policy.Action,
	find func(ctx context.Context, id string) (*T, error),
	campaignOf func(*T) string,
) (*T, bool) {
	id, ok := idParam(c, "id")
	if !ok {
		return nil, false
	}
	rec, err := find(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	if !allow(c, checker, action, policy.Target{CampaignID: campaignOf(rec)}) {
		return nil, false
	}
	return rec, true
}

// campaignScope validates the :id campaign parameter of nested routes and
// checks action against it.
func campaignScope(c *gin.Context, checker *policy.Checker, action policy.Action) (string, bool) {
	id, ok := idParam(c, "id")
	if !ok || !allow(c, checker, action, policy.Target{CampaignID: id}) {
		return "", false
	}
	return id, true
}

// parseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
func parseDate(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func badDate(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "date must be RFC 3339 or YYYY-MM-DD"})
}
