package candydelivery_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"yandex-team.ru/candydelivery"
)

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "plain error", err: errors.New("boom"), want: candydelivery.EINTERNAL},
		{name: "direct", err: candydelivery.Errorf(candydelivery.ENOTFOUND, "no courier"), want: candydelivery.ENOTFOUND},
		{
			name: "through ops",
			err:  candydelivery.OpError("a", candydelivery.OpError("b", candydelivery.Errorf(candydelivery.EMISMATCH, "x"))),
			want: candydelivery.EMISMATCH,
		},
		{
			name: "outer code wins",
			err:  candydelivery.ErrorWithCode(candydelivery.Errorf(candydelivery.ENOTFOUND, "x"), candydelivery.ECONFLICT),
			want: candydelivery.ECONFLICT,
		},
		{
			name: "wrapped with fmt",
			err:  fmt.Errorf("ctx: %w", candydelivery.Errorf(candydelivery.EINVALID, "x")),
			want: candydelivery.EINVALID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, candydelivery.ErrorCode(tt.err))
		})
	}
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "", candydelivery.ErrorMessage(nil))
	assert.Equal(t,
		"order 3 is assigned to another courier",
		candydelivery.ErrorMessage(candydelivery.OpError("op", candydelivery.Errorf(candydelivery.EMISMATCH, "order %d is assigned to another courier", 3))),
	)
	assert.Equal(t,
		"bad hours",
		candydelivery.ErrorMessage(candydelivery.ErrorWithCode(errors.New("bad hours"), candydelivery.EINVALID)),
	)
	assert.Equal(t,
		candydelivery.DefaultErrorMessage,
		candydelivery.ErrorMessage(candydelivery.OpError("op", errors.New("connection refused"))),
	)
}

func TestErrorString(t *testing.T) {
	err := candydelivery.OpError("CourierUseCase.GetById", candydelivery.Errorf(candydelivery.ENOTFOUND, "courier 1 not found"))

	assert.Equal(t, "CourierUseCase.GetById: <not_found> courier 1 not found", err.Error())
	assert.Nil(t, candydelivery.OpError("op", nil))
}

func TestErrorFields(t *testing.T) {
	inner := &candydelivery.Error{Code: candydelivery.EINVALID, Fields: map[string]interface{}{"ids": []uint64{1}, "key": "inner"}}
	outer := &candydelivery.Error{Op: "op", Fields: map[string]interface{}{"key": "outer"}, Err: inner}

	fields := candydelivery.ErrorFields(outer)
	assert.Equal(t, []uint64{1}, fields["ids"])
	assert.Equal(t, "outer", fields["key"])
	assert.Empty(t, candydelivery.ErrorFields(errors.New("plain")))
}

func TestErrCodeToHTTPStatus(t *testing.T) {
	tests := map[string]int{
		candydelivery.EINVALID:  http.StatusBadRequest,
		candydelivery.EMISMATCH: http.StatusBadRequest,
		candydelivery.ENOTFOUND: http.StatusNotFound,
		candydelivery.ECONFLICT: http.StatusConflict,
		candydelivery.EINTERNAL: http.StatusInternalServerError,
		"unknown":               http.StatusInternalServerError,
	}

	for code, want := range tests {
		assert.Equal(t, want, candydelivery.ErrCodeToHTTPStatus(candydelivery.Errorf(code, "x")), code)
	}
}
