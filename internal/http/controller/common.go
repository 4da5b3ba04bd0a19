package controller

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"yandex-team.ru/candydelivery"
)

const (
	defaultLimit  = 1
	defaultOffset = 0
)

type IdDto struct {
	ID uint64 `json:"id"`
}

type ValidationErrorResponse struct {
	ValidationError map[string][]IdDto `json:"validation_error"`
}

func decodeStrict(r io.Reader, v interface{}) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// decodeItems reads {"data": [...]}. An item that does not decode into T is
// replaced by malformed(id), id being taken from the idKey field when present,
// so that it is reported together with the other invalid items.
func decodeItems[T any](ctx echo.Context, idKey string, malformed func(id uint64) T) ([]T, error) {
	var req struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := decodeStrict(ctx.Request().Body, &req); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "request body must be {\"data\": [...]}")
	}
	if len(req.Data) == 0 {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "data must be a non-empty list")
	}

	res := make([]T, 0, len(req.Data))
	for _, raw := range req.Data {
		var item T
		if err := decodeStrict(bytes.NewReader(raw), &item); err != nil {
			res = append(res, malformed(itemID(raw, idKey)))
			continue
		}
		res = append(res, item)
	}

	return res, nil
}

func itemID(raw json.RawMessage, key string) uint64 {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return 0
	}

	var id uint64
	if v, ok := fields[key]; ok {
		_ = json.Unmarshal(v, &id)
	}

	return id
}

// validationError renders the invalid item ids carried by err under key,
// other errors are passed through to the error handler.
func validationError(ctx echo.Context, key string, err error) error {
	if candydelivery.ErrorCode(err) != candydelivery.EINVALID {
		return err
	}

	ids, ok := candydelivery.ErrorFields(err)["ids"].([]uint64)
	if !ok {
		return err
	}

	items := make([]IdDto, 0, len(ids))
	for _, id := range ids {
		items = append(items, IdDto{ID: id})
	}

	return ctx.JSON(http.StatusBadRequest, ValidationErrorResponse{
		ValidationError: map[string][]IdDto{key: items},
	})
}

func pagination(ctx echo.Context) (offset, limit int32, err error) {
	l, o := defaultLimit, defaultOffset

	if p := ctx.QueryParam("limit"); p != "" {
		l, err = strconv.Atoi(p)
		if err != nil || l < 1 || l > math.MaxInt32 {
			return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid 'limit' param")
		}
	}

	if p := ctx.QueryParam("offset"); p != "" {
		o, err = strconv.Atoi(p)
		if err != nil || o < 0 || o > math.MaxInt32 {
			return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid 'offset' param")
		}
	}

	return int32(o), int32(l), nil
}

func pathID(ctx echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, ":"+name+" must be a positive integer")
	}

	return id, nil
}
