package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpdateRequestValidate(t *testing.T) {
	intp := func(v int) *int { return &v }
	strp := func(v string) *string { return &v }

	tests := []struct {
		name string
		req  UpdateRequest
		ok   bool
	}{
		{"empty", UpdateRequest{}, true},
		{"good interval", UpdateRequest{SlotIntervalMinutes: intp(15)}, true},
		{"zero interval", UpdateRequest{SlotIntervalMinutes: intp(0)}, false},
		{"negative days ahead", UpdateRequest{DaysAheadBooking: intp(-1)}, false},
		{"zero days ahead", UpdateRequest{DaysAheadBooking: intp(0)}, true},
		{"good durations", UpdateRequest{SessionDurationsMinutes: []int32{30, 60}}, true},
		{"zero duration", UpdateRequest{SessionDurationsMinutes: []int32{30, 0}}, false},
		{"good time", UpdateRequest{SummerOpen: strp("07:30")}, true},
		{"midnight", UpdateRequest{WinterClose: strp("00:00")}, true},
		{"bad hour", UpdateRequest{SummerOpen: strp("24:00")}, false},
		{"bad format", UpdateRequest{NextDayOpensAt: strp("7:30")}, false},
		{"not a time", UpdateRequest{WinterOpen: strp("late")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.req.validate()
			if tt.ok {
				assert.Empty(t, msg)
			} else {
				assert.NotEmpty(t, msg)
			}
		})
	}
}
