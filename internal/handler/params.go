package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	appErrors "github.com/Artify24/student-managment-system/pkg/errors"
)

const dateLayout = "2006-01-02"

// pathID parses an integer path parameter. Non-integers are invalid; ids that
// cannot exist (zero or negative) resolve to not found.
func pathID(c *gin.Context, name, label string) (int64, error) {
	raw := strings.TrimSpace(c.Param(name))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, appErrors.Clone(appErrors.ErrInvalidArgument, "invalid "+label+" id")
	}
	if id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrNotFound, label+" not found")
	}
	return id, nil
}

// queryDate parses an optional YYYY-MM-DD query value. endOfDay moves the
// result to the last instant of that day.
func queryDate(c *gin.Context, name string, endOfDay bool) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid "+name+" date, expected YYYY-MM-DD")
	}
	if endOfDay {
		parsed = parsed.Add(24*time.Hour - time.Nanosecond)
	}
	return &parsed, nil
}

func invalidPayload(err error) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
}
