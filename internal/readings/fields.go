package readings

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/farmtech/irrigation/pkg/models"
)

var (
	// ErrNotFound is returned when no reading has the requested id.
	ErrNotFound = errors.New("reading not found")

	// ErrInvalidValue is returned when an update value has the wrong type
	// or falls outside the field's range.
	ErrInvalidValue = errors.New("invalid value")

	// ErrDuplicateTimestamp is returned when another reading already has
	// the same timestamp.
	ErrDuplicateTimestamp = errors.New("a reading with this timestamp already exists")

	errStoreUnavailable = errors.New("readings store not available")
)

// UnknownFieldError reports an update against a field outside the closed set.
type UnknownFieldError struct {
	Name string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown field %q (updatable: %s)", e.Name, strings.Join(FieldNames(), ", "))
}

// Field is one updatable column of sensor_readings.
type Field string

const (
	FieldHumidity          Field = "humidity"
	FieldPH                Field = "ph"
	FieldPhosphorusPresent Field = "phosphorus_present"
	FieldPotassiumPresent  Field = "potassium_present"
	FieldTemperature       Field = "temperature"
	FieldPumpOn            Field = "pump_on"
	FieldDecisionReason    Field = "decision_reason"
	FieldIsEmergency       Field = "is_emergency"
	FieldTimestamp         Field = "timestamp"
)

type fieldKind int

const (
	kindFloat fieldKind = iota
	kindNullableFloat
	kindBool
	kindString
	kindTime
)

// fields maps each Field to its storage kind. Column names equal field names.
var fields = map[Field]fieldKind{
	FieldHumidity:          kindFloat,
	FieldPH:                kindFloat,
	FieldPhosphorusPresent: kindBool,
	FieldPotassiumPresent:  kindBool,
	FieldTemperature:       kindNullableFloat,
	FieldPumpOn:            kindBool,
	FieldDecisionReason:    kindString,
	FieldIsEmergency:       kindBool,
	FieldTimestamp:         kindTime,
}

// FieldNames lists the updatable fields in column order.
func FieldNames() []string {
	return []string{
		string(FieldTimestamp), string(FieldHumidity), string(FieldPH),
		string(FieldPhosphorusPresent), string(FieldPotassiumPresent), string(FieldTemperature),
		string(FieldPumpOn), string(FieldDecisionReason), string(FieldIsEmergency),
	}
}

// ParseField validates name against the closed field set.
func ParseField(name string) (Field, error) {
	f := Field(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := fields[f]; !ok {
		return "", &UnknownFieldError{Name: name}
	}
	return f, nil
}

// Coerce converts a decoded JSON value into the database value for f,
// enforcing finite values and the humidity, pH and temperature ranges.
// Temperature accepts nil.
func (f Field) Coerce(v any) (any, error) {
	kind, ok := fields[f]
	if !ok {
		return nil, &UnknownFieldError{Name: string(f)}
	}

	switch kind {
	case kindFloat, kindNullableFloat:
		if v == nil {
			if kind == kindNullableFloat {
				return nil, nil
			}
			return nil, fmt.Errorf("%w: %s must not be null", ErrInvalidValue, f)
		}
		x, err := toFloat(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidValue, f, err)
		}
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, fmt.Errorf("%w: %s must be a finite number", ErrInvalidValue, f)
		}
		switch f {
		case FieldHumidity:
			if x < models.HumidityMin || x > models.HumidityMax {
				return nil, fmt.Errorf("%w: humidity %.2f outside [0, 100]", ErrInvalidValue, x)
			}
		case FieldPH:
			if x < models.PHMin || x > models.PHMax {
				return nil, fmt.Errorf("%w: ph %.2f outside [0, 14]", ErrInvalidValue, x)
			}
		case FieldTemperature:
			if err := models.ValidateTemperature(x); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
			}
		}
		return x, nil

	case kindBool:
		b, err := toBool(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidValue, f, err)
		}
		return b, nil

	case kindString:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s must be a string", ErrInvalidValue, f)
		}
		return s, nil

	case kindTime:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: timestamp must be an RFC 3339 string", ErrInvalidValue)
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, fmt.Errorf("%w: timestamp: %v", ErrInvalidValue, err)
		}
		return formatTime(t), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrInvalidValue, f)
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(x), 64)
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}

func toBool(v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case float64:
		if x == 0 || x == 1 {
			return x == 1, nil
		}
	case int:
		if x == 0 || x == 1 {
			return x == 1, nil
		}
	case string:
		return strconv.ParseBool(strings.TrimSpace(x))
	}
	return false, fmt.Errorf("expected a boolean, got %v", v)
}
