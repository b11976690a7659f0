package tools

import (
	"context"
	"time"

	"github.com/adarshp14/AgentInsights/pkg/models"
)

// DateTimeResult is the datetime tool's typed output.
type DateTimeResult struct {
	Date     string `json:"date"`
	Time     string `json:"time,omitempty"`
	Weekday  string `json:"weekday"`
	Timezone string `json:"timezone"`
	Unix     int64  `json:"unix"`
}

// DateTime answers date and time questions from the system clock.
type DateTime struct {
	now func() time.Time
}

func NewDateTime() *DateTime {
	return &DateTime{now: time.Now}
}

// NewDateTimeAt returns a datetime tool with a fixed clock, for tests.
func NewDateTimeAt(now func() time.Time) *DateTime {
	return &DateTime{now: now}
}

func (d *DateTime) Name() string { return "datetime" }

func (d *DateTime) Info() models.ToolInfo {
	return models.ToolInfo{
		Name:        "datetime",
		Description: "Reports the current date and time",
		Methods: map[string]models.MethodInfo{
			"get_current_datetime": {
				Description: "Current date and time with weekday and timezone",
				Parameters:  map[string]string{"timezone": "string (optional IANA name, default local)"},
			},
			"get_today_date": {
				Description: "Today's date with weekday",
				Parameters:  map[string]string{"timezone": "string (optional IANA name, default local)"},
			},
		},
	}
}

func (d *DateTime) Invoke(ctx context.Context, method string, args map[string]interface{}) (interface{}, error) {
	now := d.now()
	if tz, ok := stringArg(args, "timezone"); ok {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, newError(ErrInvalidArguments, d.Name(), method, "unknown timezone %q", tz)
		}
		now = now.In(loc)
	}

	switch method {
	case "get_current_datetime":
		return &DateTimeResult{
			Date:     now.Format("2006-01-02"),
			Time:     now.Format("15:04:05"),
			Weekday:  now.Weekday().String(),
			Timezone: now.Location().String(),
			Unix:     now.Unix(),
		}, nil
	case "get_today_date":
		return &DateTimeResult{
			Date:     now.Format("2006-01-02"),
			Weekday:  now.Weekday().String(),
			Timezone: now.Location().String(),
			Unix:     now.Unix(),
		}, nil
	default:
		return nil, newError(ErrUnknownMethod, d.Name(), method, "supported methods: get_current_datetime, get_today_date")
	}
}
