package controller

import (
	"math"
	"net/http"

	"github.com/labstack/echo/v4"
	"yandex-team.ru/candydelivery/internal/entity"
	"yandex-team.ru/candydelivery/internal/usecase/courier"
)

type CourierController struct {
	uc *courier.CourierUseCase
}

type CourierDto struct {
	CourierId    uint64   `json:"courier_id"`
	CourierType  string   `json:"courier_type"`
	Regions      []int32  `json:"regions"`
	WorkingHours []string `json:"working_hours"`
}

func NewCourierController(uc *courier.CourierUseCase) CourierController {
	return CourierController{
		uc: uc,
	}
}

func toCourierDto(c entity.Courier) CourierDto {
	regions := c.Regions
	if regions == nil {
		regions = []int32{}
	}

	return CourierDto{
		CourierId:    c.ID,
		CourierType:  string(c.CourierType),
		Regions:      regions,
		WorkingHours: entity.FormatIntervals(c.WorkingHours),
	}
}

// ===================================
// ========== GET /couriers ==========
// ===================================

type CourierGetAllReponse struct {
	Couriers []CourierDto `json:"couriers"`
	Offset   int32        `json:"offset"`
	Limit    int32        `json:"limit"`
}

func (c *CourierController) GetAll(ctx echo.Context) error {
	offset, limit, err := pagination(ctx)
	if err != nil {
		return err
	}

	couriers, err := c.uc.PaginatedGetAll(ctx.Request().Context(), offset, limit)
	if err != nil {
		return err
	}

	res := CourierGetAllReponse{
		Couriers: []CourierDto{},
		Offset:   offset,
		Limit:    limit,
	}
	for _, courier := range couriers {
		res.Couriers = append(res.Couriers, toCourierDto(courier))
	}

	return ctx.JSON(http.StatusOK, res)
}

// ====================================
// ========== POST /couriers ==========
// ====================================

type CourierCreateResponse struct {
	Couriers []IdDto `json:"couriers"`
}

func (c *CourierController) Create(ctx echo.Context) error {
	items, err := decodeItems(ctx, "courier_id", func(id uint64) CourierDto {
		return CourierDto{CourierId: id}
	})
	if err != nil {
		return err
	}

	newCouriers := make([]courier.CourierToCreateDTO, 0, len(items))
	for _, item := range items {
		newCouriers = append(newCouriers, courier.CourierToCreateDTO{
			ID:           item.CourierId,
			CourierType:  item.CourierType,
			Regions:      item.Regions,
			WorkingHours: item.WorkingHours,
		})
	}

	saved, err := c.uc.CreateCouriers(ctx.Request().Context(), newCouriers)
	if err != nil {
		return validationError(ctx, "couriers", err)
	}

	res := CourierCreateResponse{Couriers: []IdDto{}}
	for _, s := range saved {
		res.Couriers = append(res.Couriers, IdDto{ID: s.ID})
	}

	return ctx.JSON(http.StatusCreated, res)
}

// ================================================
// ========== GET /couriers/{courier_id} ==========
// ================================================

type CourierProfileResponse struct {
	CourierDto
	Earnings int64    `json:"earnings"`
	Rating   *float64 `json:"rating,omitempty"`
}

func (c *CourierController) GetById(ctx echo.Context) error {
	courierId, err := pathID(ctx, "courier_id")
	if err != nil {
		return err
	}

	profile, err := c.uc.Profile(ctx.Request().Context(), courierId)
	if err != nil {
		return err
	}

	res := CourierProfileResponse{
		CourierDto: toCourierDto(profile.Courier),
		Earnings:   profile.Earnings,
	}
	if profile.Rating != nil {
		rating := math.Round(*profile.Rating*100) / 100
		res.Rating = &rating
	}

	return ctx.JSON(http.StatusOK, res)
}

// ==================================================
// ========== PATCH /couriers/{courier_id} ==========
// ==================================================

type CourierUpdateRequest struct {
	CourierType  *string   `json:"courier_type"`
	Regions      *[]int32  `json:"regions"`
	WorkingHours *[]string `json:"working_hours"`
}

func (c *CourierController) Update(ctx echo.Context) error {
	courierId, err := pathID(ctx, "courier_id")
	if err != nil {
		return err
	}

	var req CourierUpdateRequest
	if err := decodeStrict(ctx.Request().Body, &req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "only courier_type, regions and working_hours can be updated")
	}

	updated, err := c.uc.Update(ctx.Request().Context(), courierId, courier.CourierToUpdateDTO{
		CourierType:  req.CourierType,
		Regions:      req.Regions,
		WorkingHours: req.WorkingHours,
	})
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, toCourierDto(*updated))
}
