package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"pasarela/internal/domain"
	"pasarela/internal/repository"
	"pasarela/internal/service"
)

// TransactionHandler handles HTTP requests for the transaction API.
type TransactionHandler struct {
	preparation  *service.PreparationService
	transactions *service.TransactionService
	results      *service.ReconciliationService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(preparation *service.PreparationService, transactions *service.TransactionService, results *service.ReconciliationService) *TransactionHandler {
	return &TransactionHandler{
		preparation:  preparation,
		transactions: transactions,
		results:      results,
	}
}

// PrepareOrderRequest is the HTTP request body for preparing an order.
type PrepareOrderRequest struct {
	NumeroOrden string          `json:"numeroOrden"`
	Cedula      string          `json:"cedula"`
	Monto       decimal.Decimal `json:"monto"`
	Moneda      string          `json:"moneda"`
	Nombre      string          `json:"nombre"`
	Apellido    string          `json:"apellido"`
	Email       string          `json:"email"`
	Pais        string          `json:"pais"`
	StateNonce  string          `json:"stateNonce"`
}

// PrepareOrderResponse carries the issued result token.
type PrepareOrderResponse struct {
	Token     string    `json:"token"`
	ExpiraUTC time.Time `json:"expiraUtc"`
}

// PrepareOrder handles POST /api/transaccion/preparar-orden
func (h *TransactionHandler) PrepareOrder(c *gin.Context) {
	var req PrepareOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	prepared, err := h.preparation.PrepareOrder(c.Request.Context(), service.PrepareOrderRequest{
		OrderNumber: req.NumeroOrden,
		NationalID:  req.Cedula,
		Amount:      req.Monto,
		Currency:    req.Moneda,
		FirstName:   req.Nombre,
		LastName:    req.Apellido,
		Email:       req.Email,
		Country:     req.Pais,
		StateNonce:  req.StateNonce,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, PrepareOrderResponse{
		Token:     prepared.Token,
		ExpiraUTC: prepared.ExpiresAt,
	})
}

// ResultResponse is the display DTO for the result page.
type ResultResponse struct {
	NumeroOrden        string      `json:"numeroOrden"`
	Cedula             string      `json:"cedula"`
	Estado             string      `json:"estado"`
	Monto              json.Number `json:"monto"`
	Moneda             string      `json:"moneda"`
	NumeroAutorizacion string      `json:"numeroAutorizacion"`
	MarcaTarjeta       string      `json:"marcaTarjeta"`
	FechaTransaccion   time.Time   `json:"fechaTransaccion"`
	Nombre             string      `json:"nombre"`
	Apellido           string      `json:"apellido"`
	DisplayCustomer    string      `json:"displayCustomer"`
	Email              string      `json:"email"`
	Pais               string      `json:"pais"`
	TilopayTx          string      `json:"tilopayTx"`
}

// Result handles GET /api/transaccion/resultado/:token and
// GET /api/transaccion/callback/:token, the gateway redirect targets.
func (h *TransactionHandler) Result(c *gin.Context) {
	fields := service.GatewayFields{
		Code:          c.Query("code"),
		Description:   c.Query("description"),
		Auth:          c.Query("auth"),
		Brand:         c.Query("brand"),
		TransactionID: firstNonEmpty(c.Query("tilopay-transaction"), c.Query("tpt")),
		Status:        c.Query("status"),
		OrderFallback: c.Query("order"),
	}

	result, err := h.results.Resolve(c.Request.Context(), c.Param("token"), fields)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toResultResponse(result))
}

func toResultResponse(r *service.TransactionResult) ResultResponse {
	return ResultResponse{
		NumeroOrden:        r.OrderNumber,
		Cedula:             r.NationalID,
		Estado:             string(r.Status),
		Monto:              json.Number(domain.WireAmount(r.Amount)),
		Moneda:             r.Currency,
		NumeroAutorizacion: r.AuthorizationCode,
		MarcaTarjeta:       r.CardBrand,
		FechaTransaccion:   r.TransactionDate,
		Nombre:             r.FirstName,
		Apellido:           r.LastName,
		DisplayCustomer:    r.DisplayCustomer,
		Email:              r.Email,
		Pais:               r.Country,
		TilopayTx:          r.GatewayTxID,
	}
}

// ClienteBody mirrors the cliente object of the direct submission.
type ClienteBody struct {
	Cedula       string `json:"cedula"`
	Nombre       string `json:"nombre"`
	Apellido     string `json:"apellido"`
	Correo       string `json:"correo"`
	Telefono     string `json:"telefono"`
	Direccion    string `json:"direccion"`
	Ciudad       string `json:"ciudad"`
	Provincia    string `json:"provincia"`
	CodigoPostal string `json:"codigoPostal"`
	Pais         string `json:"pais"`
}

// PagoBody mirrors the pago object of the direct submission.
type PagoBody struct {
	NumeroOrden        string          `json:"numeroOrden"`
	Cedula             string          `json:"cedula"`
	MetodoPago         string          `json:"metodoPago"`
	Monto              decimal.Decimal `json:"monto"`
	Moneda             string          `json:"moneda"`
	EstadoTilopay      string          `json:"estadoTilopay"`
	NumeroAutorizacion string          `json:"numeroAutorizacion"`
	MarcaTarjeta       string          `json:"marcaTarjeta"`
	DatosRespuesta     string          `json:"datosRespuestaTilopay"`
	FechaTransaccion   *time.Time      `json:"fechaTransaccion"`
}

// SaveRequest is the direct result submission from the checkout flow.
type SaveRequest struct {
	Cliente *ClienteBody `json:"cliente"`
	Pago    *PagoBody    `json:"pago"`
}

// Save handles POST /api/transaccion
func (h *TransactionHandler) Save(c *gin.Context) {
	var req SaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if req.Pago == nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "pago is required"})
		return
	}

	// The cédula may arrive on either object; mirror it into both.
	cedula := req.Pago.Cedula
	if req.Cliente != nil && req.Cliente.Cedula != "" {
		cedula = req.Cliente.Cedula
	}
	if cedula == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "cedula is required"})
		return
	}
	if req.Pago.NumeroOrden == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "numeroOrden is required"})
		return
	}

	customer := &domain.Customer{NationalID: cedula}
	if req.Cliente != nil {
		customer.FirstName = req.Cliente.Nombre
		customer.LastName = req.Cliente.Apellido
		customer.Email = req.Cliente.Correo
		customer.Phone = req.Cliente.Telefono
		customer.Address = req.Cliente.Direccion
		customer.City = req.Cliente.Ciudad
		customer.State = req.Cliente.Provincia
		customer.PostalCode = req.Cliente.CodigoPostal
		customer.Country = req.Cliente.Pais
	}

	payment := &domain.Payment{
		OrderNumber:       req.Pago.NumeroOrden,
		NationalID:        cedula,
		Method:            req.Pago.MetodoPago,
		Amount:            req.Pago.Monto,
		Currency:          req.Pago.Moneda,
		Status:            domain.NormalizeGatewayStatus("", req.Pago.EstadoTilopay, ""),
		AuthorizationCode: req.Pago.NumeroAutorizacion,
		CardBrand:         req.Pago.MarcaTarjeta,
		RawResponse:       req.Pago.DatosRespuesta,
	}
	if req.Pago.FechaTransaccion != nil {
		payment.TransactionDate = *req.Pago.FechaTransaccion
	}

	if err := h.transactions.SaveTransaction(c.Request.Context(), customer, payment); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusOK)
}

// DashboardResponse is the paginated dashboard envelope.
type DashboardResponse struct {
	TotalRegistros int            `json:"totalRegistros"`
	Resultados     []DashboardRow `json:"resultados"`
}

// DashboardRow is one row of the dashboard listing.
type DashboardRow struct {
	Cedula            string      `json:"cedula"`
	NombreCliente     string      `json:"nombreCliente"`
	Pais              string      `json:"pais"`
	Monto             json.Number `json:"monto"`
	Moneda            string      `json:"moneda"`
	NumeroOrden       string      `json:"numeroOrden"`
	EstadoTransaccion string      `json:"estadoTransaccion"`
	FechaTransaccion  *time.Time  `json:"fechaTransaccion"`
}

// Dashboard handles GET /api/transaccion/dashboard
func (h *TransactionHandler) Dashboard(c *gin.Context) {
	filter := repository.DashboardFilter{
		Page:     queryInt(c, "pagina", 1),
		PageSize: queryInt(c, "tamanio", 20),
		Search:   c.Query("busqueda"),
		Status:   c.Query("estadoTransaccion"),
	}
	if t, ok := queryTime(c, "fechaInicio"); ok {
		filter.From = &t
	}
	if t, ok := queryTime(c, "fechaFin"); ok {
		filter.To = &t
	}

	rows, total, err := h.transactions.Dashboard(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	resultados := make([]DashboardRow, 0, len(rows))
	for _, row := range rows {
		resultados = append(resultados, DashboardRow{
			Cedula:            row.NationalID,
			NombreCliente:     row.CustomerName,
			Pais:              row.Country,
			Monto:             json.Number(domain.WireAmount(row.Amount)),
			Moneda:            row.Currency,
			NumeroOrden:       row.OrderNumber,
			EstadoTransaccion: string(row.Status),
			FechaTransaccion:  row.TransactionDate,
		})
	}

	respondJSON(c, http.StatusOK, DashboardResponse{
		TotalRegistros: total,
		Resultados:     resultados,
	})
}

func queryInt(c *gin.Context, name string, fallback int) int {
	if raw := c.Query(name); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return v
		}
	}
	return fallback
}

func queryTime(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
