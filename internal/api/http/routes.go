package httpapi

import (
	"bytes"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/temperature-dashboard/internal/charts"
	"github.com/i474232898/temperature-dashboard/internal/common"
	"github.com/i474232898/temperature-dashboard/internal/dashboard"
	"github.com/i474232898/temperature-dashboard/internal/state"
)

var validate = validator.New()

const historyChartID = "history-chart"

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, facade *dashboard.Facade) {
	v1 := app.Group("/api/v1")

	v1.Get("/departments", func(c *fiber.Ctx) error {
		departments, _ := state.Current(facade.Departments())
		return c.JSON(departments)
	})

	v1.Get("/departments/temperatures", func(c *fiber.Ctx) error {
		departments, ok := state.Current(facade.DepartmentsWithTemperatureForSelectedDate())
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "temperatures for selected date not loaded")
		}
		return c.JSON(departments)
	})

	v1.Get("/selection", func(c *fiber.Ctx) error {
		return c.JSON(currentSelection(facade))
	})

	v1.Put("/selection/date", func(c *fiber.Ctx) error {
		var req dateRequest
		if err := bindBody(c, &req); err != nil {
			return err
		}
		date, err := common.ParseDay(req.Date)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		facade.SetSelectedDate(date)
		return c.JSON(currentSelection(facade))
	})

	v1.Put("/selection/department", func(c *fiber.Ctx) error {
		var req departmentRequest
		if err := bindBody(c, &req); err != nil {
			return err
		}

		if err := facade.SelectDepartmentByCode(req.Code); err != nil {
			if errors.Is(err, dashboard.ErrUnknownDepartment) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to select department")
		}
		return c.JSON(currentSelection(facade))
	})

	v1.Delete("/selection/department", func(c *fiber.Ctx) error {
		facade.ClearSelectedDepartment()
		return c.JSON(currentSelection(facade))
	})

	v1.Get("/temperatures", func(c *fiber.Ctx) error {
		temps, err := facade.TemperaturesForSelectedDate()
		if err != nil {
			if errors.Is(err, dashboard.ErrNotLoaded) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read temperatures")
		}
		return c.JSON(temps)
	})

	v1.Get("/temperatures/status", func(c *fiber.Ctx) error {
		entries := facade.TemperatureEntries()
		out := make([]statusResponse, 0, len(entries))
		for _, e := range entries {
			out = append(out, newStatusResponse(e))
		}
		return c.JSON(out)
	})

	v1.Post("/temperatures/load", func(c *fiber.Ctx) error {
		var req dateRequest
		if err := bindBody(c, &req); err != nil {
			return err
		}
		date, err := common.ParseDay(req.Date)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := facade.LoadTemperaturesForDate(c.UserContext(), date); err != nil {
			return fiber.NewError(fiber.StatusBadGateway, err.Error())
		}
		return c.JSON(newStatusResponse(facade.TemperatureStatus(date)))
	})

	v1.Get("/selection/temperature", func(c *fiber.Ctx) error {
		t, ok := state.Current(facade.SelectedDepartmentTemperatureForSelectedDate())
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "no temperature for selected department and date")
		}
		return c.JSON(t)
	})

	v1.Get("/selection/history", func(c *fiber.Ctx) error {
		temps, err := facade.TemperaturesForSelectedDepartment(c.UserContext())
		if err != nil {
			return historyError(err)
		}
		return c.JSON(temps)
	})

	v1.Get("/charts/history", func(c *fiber.Ctx) error {
		chart, err := historyChart(c, facade)
		if err != nil {
			return err
		}
		option, _ := chart.Option()
		return c.JSON(option)
	})

	v1.Get("/charts/history.png", func(c *fiber.Ctx) error {
		var q pngQuery
		if err := c.QueryParser(&q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		q.defaults()
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		chart, err := historyChart(c, facade)
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		if err := chart.RenderPNG(&buf, q.Width, q.Height); err != nil {
			if errors.Is(err, charts.ErrNotEnoughPoints) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to render chart")
		}

		c.Set(fiber.HeaderContentType, "image/png")
		return c.Send(buf.Bytes())
	})
}

// ErrorHandler renders every error as a JSON body.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

func historyChart(c *fiber.Ctx, facade *dashboard.Facade) (*charts.LineChart, error) {
	temps, err := facade.TemperaturesForSelectedDepartment(c.UserContext())
	if err != nil {
		return nil, historyError(err)
	}

	chart := charts.NewLineChart(historyChartID)
	if err := chart.SetData(temps); err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "failed to build chart")
	}
	return chart, nil
}

func historyError(err error) error {
	if errors.Is(err, dashboard.ErrNoSelection) {
		return fiber.NewError(fiber.StatusConflict, err.Error())
	}
	return fiber.NewError(fiber.StatusBadGateway, err.Error())
}

func bindBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}
