package controller

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"yandex-team.ru/candydelivery"
	"yandex-team.ru/candydelivery/internal/entity"
	"yandex-team.ru/candydelivery/internal/usecase/order"
	"yandex-team.ru/candydelivery/internal/usecase/order/action/complete"
)

// AssignTimeFormat renders batch creation times with centisecond precision.
const AssignTimeFormat = "2006-01-02T15:04:05.00Z07:00"

type OrderController struct {
	uc *order.OrderUseCase
}

type OrderDto struct {
	ID            uint64     `json:"order_id"`
	Weight        float64    `json:"weight"`
	Region        int32      `json:"region"`
	DeliveryHours []string   `json:"delivery_hours"`
	CompletedTime *time.Time `json:"completed_time,omitempty"`
	BatchID       *uint64    `json:"batch_id,omitempty"`
}

func NewOrderController(uc *order.OrderUseCase) OrderController {
	return OrderController{
		uc: uc,
	}
}

func toOrderDto(o entity.Order) OrderDto {
	return OrderDto{
		ID:            o.ID,
		Weight:        o.Weight,
		Region:        o.Region,
		DeliveryHours: entity.FormatIntervals(o.DeliveryHours),
		CompletedTime: o.CompletedTime,
		BatchID:       o.BatchID,
	}
}

// ===================================
// ========== GET /orders ============
// ===================================

type OrderGetAllResponse struct {
	Orders []OrderDto `json:"orders"`
	Offset int32      `json:"offset"`
	Limit  int32      `json:"limit"`
}

func (c *OrderController) GetAll(ctx echo.Context) error {
	offset, limit, err := pagination(ctx)
	if err != nil {
		return err
	}

	orders, err := c.uc.PaginatedGetAll(ctx.Request().Context(), offset, limit)
	if err != nil {
		return err
	}

	res := OrderGetAllResponse{
		Orders: []OrderDto{},
		Offset: offset,
		Limit:  limit,
	}
	for _, o := range orders {
		res.Orders = append(res.Orders, toOrderDto(o))
	}

	return ctx.JSON(http.StatusOK, res)
}

// ===================================
// ========== POST /orders ===========
// ===================================

type OrderRequestCreateDto struct {
	OrderId       uint64   `json:"order_id"`
	Weight        float64  `json:"weight"`
	Region        int32    `json:"region"`
	DeliveryHours []string `json:"delivery_hours"`
}

type OrderCreateResponse struct {
	Orders []IdDto `json:"orders"`
}

func (c *OrderController) Create(ctx echo.Context) error {
	items, err := decodeItems(ctx, "order_id", func(id uint64) OrderRequestCreateDto {
		return OrderRequestCreateDto{OrderId: id}
	})
	if err != nil {
		return err
	}

	newOrders := make([]order.OrderToCreateDTO, 0, len(items))
	for _, item := range items {
		newOrders = append(newOrders, order.OrderToCreateDTO{
			ID:            item.OrderId,
			Weight:        item.Weight,
			Region:        item.Region,
			DeliveryHours: item.DeliveryHours,
		})
	}

	saved, err := c.uc.CreateOrders(ctx.Request().Context(), newOrders)
	if err != nil {
		return validationError(ctx, "orders", err)
	}

	res := OrderCreateResponse{Orders: []IdDto{}}
	for _, s := range saved {
		res.Orders = append(res.Orders, IdDto{ID: s.ID})
	}

	return ctx.JSON(http.StatusCreated, res)
}

// ============================================
// ========== GET /orders/{order_id} ==========
// ============================================

func (c *OrderController) GetById(ctx echo.Context) error {
	orderId, err := pathID(ctx, "order_id")
	if err != nil {
		return err
	}

	o, err := c.uc.GetById(ctx.Request().Context(), orderId)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, toOrderDto(*o))
}

// ==========================================
// ========== POST /orders/assign ===========
// ==========================================

type OrderAssignRequest struct {
	CourierId uint64 `json:"courier_id" validate:"required"`
}

type OrderAssignResponse struct {
	Orders     []IdDto `json:"orders"`
	AssignTime string  `json:"assign_time,omitempty"`
}

func (c *OrderController) Assign(ctx echo.Context) error {
	var req OrderAssignRequest
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "courier_id must be a positive integer")
	}
	if err := ctx.Validate(req); err != nil {
		return err
	}

	res, err := c.uc.Assign(ctx.Request().Context(), req.CourierId)
	if err != nil {
		// unknown courier is a bad request for this endpoint
		if candydelivery.ErrorCode(err) == candydelivery.ENOTFOUND {
			return echo.NewHTTPError(http.StatusBadRequest, candydelivery.ErrorMessage(err))
		}
		return err
	}

	body := OrderAssignResponse{Orders: []IdDto{}}
	for _, o := range res.Orders {
		body.Orders = append(body.Orders, IdDto{ID: o.ID})
	}
	if res.AssignTime != nil {
		body.AssignTime = res.AssignTime.UTC().Format(AssignTimeFormat)
	}

	return ctx.JSON(http.StatusOK, body)
}

// ============================================
// ========== POST /orders/complete ===========
// ============================================

type OrderCompleteRequest struct {
	CourierId    uint64    `json:"courier_id" validate:"required"`
	OrderId      uint64    `json:"order_id" validate:"required"`
	CompleteTime time.Time `json:"complete_time" validate:"required"`
}

type OrderCompleteResponse struct {
	OrderId uint64 `json:"order_id"`
}

func (c *OrderController) Complete(ctx echo.Context) error {
	var req OrderCompleteRequest
	if err := decodeStrict(ctx.Request().Body, &req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "courier_id, order_id and complete_time are required")
	}
	if err := ctx.Validate(req); err != nil {
		return err
	}

	o, err := c.uc.Complete(ctx.Request().Context(), complete.OrderToCompleteDTO{
		CourierId:    req.CourierId,
		OrderId:      req.OrderId,
		CompleteTime: req.CompleteTime,
	})
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, OrderCompleteResponse{OrderId: o.ID})
}
