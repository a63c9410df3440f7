package routes

import (
	"net/http"

	"github.com/ntria/backend/pkg/tax"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// CalculateHandler runs the deterministic progressive-bracket tax
// calculator. It is independent of the RAG pipeline.
func CalculateHandler(c echo.Context) error {
	type calculateBody struct {
		Income     float64 `json:"income" validate:"required,gte=0"`
		Allowances float64 `json:"allowances" validate:"gte=0"`
		Reliefs    float64 `json:"reliefs" validate:"gte=0"`
		Pension    float64 `json:"pension" validate:"gte=0"`
		IncludeCRA *bool   `json:"include_cra"`
	}

	type calculateResponse struct {
		Message string      `json:"message,omitempty"`
		Result  *tax.Result `json:"result,omitempty"`
	}

	data := new(calculateBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, calculateResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, calculateResponse{
			Message: "Invalid request body",
		})
	}

	includeCRA := true
	if data.IncludeCRA != nil {
		includeCRA = *data.IncludeCRA
	}

	result, err := tax.Calculate(tax.Input{
		AnnualIncome:        decimal.NewFromFloat(data.Income),
		Allowances:          decimal.NewFromFloat(data.Allowances),
		Reliefs:             decimal.NewFromFloat(data.Reliefs),
		PensionContribution: decimal.NewFromFloat(data.Pension),
		IncludeCRA:          includeCRA,
	})
	if err != nil {
		return c.JSON(http.StatusBadRequest, calculateResponse{
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, calculateResponse{
		Result: result,
	})
}
