package inventory

import (
	"bytes"
	"errors"
	"log"
	"strconv"
	"time"

	"hotel-supply-backend/internal/auth"
	"hotel-supply-backend/internal/balance"
	"hotel-supply-backend/internal/models"
	"hotel-supply-backend/internal/stock"
	"hotel-supply-backend/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/vmihailenco/msgpack/v5"
)

const mimeMsgpack = "application/msgpack"

type actor struct {
	UserID     uint
	Name       string
	Role       models.UserRole
	LocationID *uint
}

func currentActor(c *fiber.Ctx) (actor, error) {
	role, ok := c.Locals(auth.CtxUserRoleKey).(models.UserRole)
	if !ok {
		return actor{}, fiber.NewError(fiber.StatusForbidden, "role missing from token")
	}
	userID, ok := c.Locals(auth.CtxUserIDKey).(uint)
	if !ok {
		return actor{}, fiber.NewError(fiber.StatusForbidden, "user missing from token")
	}
	a := actor{UserID: userID, Role: role}
	a.Name, _ = c.Locals(auth.CtxUserNameKey).(string)
	if lPtr, ok := c.Locals(auth.CtxLocationIDKey).(*uint); ok && lPtr != nil {
		a.LocationID = lPtr
	}
	return a, nil
}

// resolveLocationID: staff bound to a location always act on it, everyone
// else names the location in the body or query.
func resolveLocationID(c *fiber.Ctx, requested *uint) (uint, error) {
	a, err := currentActor(c)
	if err != nil {
		return 0, err
	}
	if a.Role == models.RoleStaff && a.LocationID != nil {
		if requested != nil && *requested != *a.LocationID {
			return 0, fiber.NewError(fiber.StatusForbidden, "you can only work on your own location")
		}
		return *a.LocationID, nil
	}
	if requested == nil || *requested == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "location_id is required")
	}
	return *requested, nil
}

func queryUint(c *fiber.Ctx, key string) *uint {
	s := c.Query(key)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return nil
	}
	id := uint(v)
	return &id
}

func paramID(c *fiber.Ctx) (uint, error) {
	v, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || v == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	return uint(v), nil
}

func parseDate(s string) (time.Time, error) {
	d, err := balance.ParseDay(s)
	if err != nil {
		return time.Time{}, fiber.NewError(fiber.StatusBadRequest, "date must be YYYY-MM-DD")
	}
	return d, nil
}

// respond writes JSON, or msgpack when the client asks for it. msgpack uses
// the json field names.
func respond(c *fiber.Ctx, status int, v any) error {
	if c.Accepts(fiber.MIMEApplicationJSON, mimeMsgpack) != mimeMsgpack {
		return c.Status(status).JSON(v)
	}
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not encode response")
	}
	c.Set(fiber.HeaderContentType, mimeMsgpack)
	return c.Status(status).Send(buf.Bytes())
}

// stockError maps service errors to HTTP errors. A CountWarning is written as
// a 409 body the client can resubmit with force.
func stockError(c *fiber.Ctx, err error) error {
	var warn *stock.CountWarning
	switch {
	case errors.As(err, &warn):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":           "count needs confirmation",
			"warnings":        warn.Messages,
			"counted_units":   warn.CountedUnits,
			"available_units": warn.AvailableUnits,
		})
	case errors.Is(err, stock.ErrUnknownItem),
		errors.Is(err, stock.ErrUnknownLocation),
		errors.Is(err, stock.ErrUnknownTransaction),
		errors.Is(err, store.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, rootMessage(err))
	case errors.Is(err, stock.ErrInvalidQuantity),
		errors.Is(err, stock.ErrInvalidCatalog):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, stock.ErrCascadedTransaction),
		errors.Is(err, stock.ErrDuplicateKey):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, store.ErrConflict):
		return fiber.NewError(fiber.StatusConflict, "name already in use")
	}
	log.Printf("stock request failed: %v", err)
	return fiber.NewError(fiber.StatusInternalServerError, "unexpected server error")
}

func rootMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
