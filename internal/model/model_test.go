package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(v int) *int       { return &v }
func strp(v string) *string { return &v }

func TestEventValidate(t *testing.T) {
	cases := []struct {
		name string
		ev   Event
		want error
	}{
		{"count ok", Event{EventName: "Running", EventType: EventTypeCount}, nil},
		{"missing name", Event{EventType: EventTypeCount}, ErrNameRequired},
		{"unknown type", Event{EventName: "x", EventType: "bogus"}, ErrInvalidType},
		{"count rejects scale_max", Event{EventName: "x", EventType: EventTypeCount, ScaleMax: intp(5)}, ErrInvalidType},
		{"count rejects scale_label", Event{EventName: "x", EventType: EventTypeCount, ScaleLabel: strp("mood")}, ErrInvalidType},
		{"scale requires scale_max", Event{EventName: "x", EventType: EventTypeScale}, ErrScaleMaxMissing},
		{"scale_max too low", Event{EventName: "x", EventType: EventTypeScale, ScaleMax: intp(1)}, ErrScaleMaxRange},
		{"scale_max too high", Event{EventName: "x", EventType: EventTypeScale, ScaleMax: intp(11)}, ErrScaleMaxRange},
		{"scale ok", Event{EventName: "x", EventType: EventTypeScale, ScaleMax: intp(10), ScaleLabel: strp("mood")}, nil},
		{"metric ok", Event{EventName: "x", EventType: EventTypeMetric, ScaleLabel: strp("km")}, nil},
		{"metric rejects scale_max", Event{EventName: "x", EventType: EventTypeMetric, ScaleMax: intp(5)}, ErrInvalidType},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.ev.Validate()
			if tc.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.want)
			}
		})
	}
}

func TestEventValidateValue(t *testing.T) {
	count := Event{EventName: "x", EventType: EventTypeCount}
	assert.NoError(t, count.ValidateValue(1))
	assert.ErrorIs(t, count.ValidateValue(2), ErrValueOutOfRange)

	scale := Event{EventName: "x", EventType: EventTypeScale, ScaleMax: intp(5)}
	assert.NoError(t, scale.ValidateValue(1))
	assert.NoError(t, scale.ValidateValue(5))
	assert.ErrorIs(t, scale.ValidateValue(0), ErrValueOutOfRange)
	assert.ErrorIs(t, scale.ValidateValue(6), ErrValueOutOfRange)
	assert.ErrorIs(t, scale.ValidateValue(2.5), ErrValueOutOfRange)

	broken := Event{EventName: "x", EventType: EventTypeScale}
	require.ErrorIs(t, broken.ValidateValue(3), ErrScaleMaxMissing)

	metric := Event{EventName: "x", EventType: EventTypeMetric}
	assert.NoError(t, metric.ValidateValue(-12.75))
	assert.NoError(t, metric.ValidateValue(0))
}
