package partitioner

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danthegoodman1/bqconnector/table"
)

type (
	PartitionPlan struct {
		Func string   `validate:"required"`
		Args []string `validate:"required,min=1"`
		As   string   `validate:"required"`
	}

	PartitionFunc func(row table.Row, args []string) (string, error)
)

var (
	Functions = make(map[string]PartitionFunc)

	ErrFuncNotFound = errors.New("partition function not found")

	ErrMissingArgs       = errors.New("missing args")
	ErrMissingColumns    = errors.New("missing one or more columns specified in args")
	ErrInvalidColumnType = errors.New("invalid column type")
)

func init() {
	RegisterFunctions()
}

func RegisterFunctions() {
	Functions["toDay"] = timeFunc(func(t time.Time) string {
		return fmt.Sprint(t.Day())
	})
	Functions["toMonth"] = timeFunc(func(t time.Time) string {
		return fmt.Sprint(int(t.Month()))
	})
	Functions["toYear"] = timeFunc(func(t time.Time) string {
		return fmt.Sprint(t.Year())
	})
	Functions["toYearDay"] = timeFunc(func(t time.Time) string {
		return fmt.Sprint(t.YearDay())
	})
	Functions["toYearWeek"] = timeFunc(func(t time.Time) string {
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-%02d", year, week)
	})
	Functions["toWeekDay"] = timeFunc(func(t time.Time) string {
		return fmt.Sprint(t.Weekday())
	})
}

func timeFunc(format func(t time.Time) string) PartitionFunc {
	return func(row table.Row, args []string) (string, error) {
		t, err := parseTimeFunc(row, args)
		if err != nil {
			return "", fmt.Errorf("error in parseTimeFunc: %w", err)
		}
		return format(t), nil
	}
}

// ValidatePlans checks every plan names a registered function
func ValidatePlans(plans []PartitionPlan) error {
	for _, plan := range plans {
		if _, ok := Functions[plan.Func]; !ok {
			return fmt.Errorf("%s: %w", plan.Func, ErrFuncNotFound)
		}
	}
	return nil
}

// GetRowPartition builds the partition path of a row, e.g. `year=2022/month=12`.
// No plans puts every row in the "" partition.
func GetRowPartition(row table.Row, partitioners []PartitionPlan) (string, error) {
	var finalParts []string
	for _, partFunc := range partitioners {
		f, ok := Functions[partFunc.Func]
		if !ok {
			return "", ErrFuncNotFound
		}

		s, err := f(row, partFunc.Args)
		if err != nil {
			return "", fmt.Errorf("error processing partition function %s: %w", partFunc.Func, err)
		}
		finalParts = append(finalParts, fmt.Sprintf("%s=%s", partFunc.As, s))
	}
	return strings.Join(finalParts, "/"), nil
}

func parseTimeFunc(row table.Row, args []string) (t time.Time, err error) {
	if len(args) == 0 {
		err = ErrMissingArgs
		return
	}

	key := args[0]

	if key == "now()" {
		return time.Now(), nil
	}

	value, exists := row[key]
	if !exists {
		err = ErrMissingColumns
		return
	}

	switch val := value.(type) {
	case time.Time:
		t = val
	case string:
		// YYYY-MM-DDTHH:mm:ss.sssZ first, then any RFC3339 or plain date
		for _, layout := range []string{"2006-01-02T15:04:05.000Z", time.RFC3339Nano, "2006-01-02"} {
			t, err = time.Parse(layout, val)
			if err == nil {
				return
			}
		}
		err = fmt.Errorf("error in time.Parse for string: %w", err)
	case float64:
		// epoch milliseconds
		t = time.UnixMilli(int64(val))
	case int64:
		t = time.UnixMilli(val)
	default:
		err = ErrInvalidColumnType
	}
	return
}
