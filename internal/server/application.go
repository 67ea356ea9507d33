package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	applicationdomain "github.com/interrail/forwarding/internal/application/domain"
	"github.com/shopspring/decimal"
)

// Server-assigned fields are rejected when a client tries to set them.
var readOnlyFields = []string{"id", "created", "modified", "manager", "request_file"}

func parseSnowflake(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed id %q", ErrInvalidRequest, raw)
	}
	return id, nil
}

func (s *Server) ListApplications(c *gin.Context) {
	filter := applicationdomain.ListFilter{
		Number: c.Query("number"),
	}
	if raw := c.Query("forwarder_id"); raw != "" {
		id, err := parseSnowflake(raw)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		filter.ForwarderID = id
	}
	if raw := c.Query("limit"); raw != "" {
		filter.Limit, _ = strconv.Atoi(raw)
	}
	if raw := c.Query("offset"); raw != "" {
		filter.Offset, _ = strconv.Atoi(raw)
	}

	apps, err := s.applicationSvc.List(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, apps)
}

func (s *Server) CreateApplication(c *gin.Context) {
	if err := rejectReadOnlyFields(c); err != nil {
		AbortWithError(c, err)
		return
	}

	req, err := bindCreateRequest(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if user, ok := currentUser(c); ok {
		id := user.ID
		req.ManagerID = &id
	}

	app, err := s.applicationSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, app)
}

func (s *Server) UpdateApplication(c *gin.Context) {
	id, err := parseSnowflake(c.Param("id"))
	if err != nil {
		AbortWithError(c, applicationdomain.ErrNotFound)
		return
	}
	if err := rejectReadOnlyFields(c); err != nil {
		AbortWithError(c, err)
		return
	}

	req, err := bindUpdateRequest(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	app, err := s.applicationSvc.Update(c.Request.Context(), id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (s *Server) ApplicationDetail(c *gin.Context) {
	id, err := parseSnowflake(c.Param("id"))
	if err != nil {
		AbortWithError(c, applicationdomain.ErrNotFound)
		return
	}

	app, err := s.applicationSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	codes, err := s.allocator.ListByApplication(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, struct {
		*applicationdomain.Application
		Codes any `json:"codes"`
	}{app, codes})
}

func (s *Server) DeleteApplication(c *gin.Context) {
	id, err := parseSnowflake(c.Param("id"))
	if err != nil {
		AbortWithError(c, applicationdomain.ErrNotFound)
		return
	}
	if err := s.applicationSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func rejectReadOnlyFields(c *gin.Context) error {
	for _, field := range readOnlyFields {
		if _, present := c.GetPostForm(field); present {
			return fmt.Errorf("%w: field %q is read-only", ErrInvalidRequest, field)
		}
	}
	return nil
}

func bindCreateRequest(c *gin.Context) (applicationdomain.CreateRequest, error) {
	var req applicationdomain.CreateRequest
	if err := c.ShouldBind(&req); err != nil {
		return req, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	if raw := c.PostForm("forwarder"); raw != "" {
		id, err := parseSnowflake(raw)
		if err != nil {
			return req, err
		}
		req.ForwarderID = id
	}
	if raw := c.PostForm("date"); raw != "" {
		date, err := parseDate(raw)
		if err != nil {
			return req, err
		}
		req.Date = &date
	}
	territoryIDs, err := parseTerritories(c)
	if err != nil {
		return req, err
	}
	req.TerritoryIDs = territoryIDs

	if req.Weight, err = parseDecimal(c, "weight"); err != nil {
		return req, err
	}
	if req.AgreedRate, err = parseDecimal(c, "agreed_rate"); err != nil {
		return req, err
	}
	if req.AddCharges, err = parseDecimal(c, "add_charges"); err != nil {
		return req, err
	}
	return req, nil
}

func bindUpdateRequest(c *gin.Context) (applicationdomain.UpdateRequest, error) {
	var req applicationdomain.UpdateRequest

	str := func(field string) *string {
		if v, ok := c.GetPostForm(field); ok {
			return &v
		}
		return nil
	}
	req.Number = str("number")
	req.SendingType = str("sending_type")
	req.Departure = str("departure")
	req.DepartureCode = str("departure_code")
	req.Destination = str("destination")
	req.DestinationCode = str("destination_code")
	req.Cargo = str("cargo")
	req.HSCode = str("hs_code")
	req.ETCNG = str("etcng")
	req.LoadingType = str("loading_type")
	req.ContainerType = str("container_type")
	req.RollingStock1 = str("rolling_stock_1")
	req.RollingStock2 = str("rolling_stock_2")
	req.ConditionsOfCarriage = str("conditions_of_carriage")
	req.BorderCrossing = str("border_crossing")
	req.ContainersOrWagons = str("containers_or_wagons")
	req.Period = str("period")
	req.Shipper = str("shipper")
	req.Consignee = str("consignee")
	req.DepartureCountry = str("departure_country")
	req.DestinationCountry = str("destination_country")
	req.Comment = str("comment")

	if raw, ok := c.GetPostForm("quantity"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return req, fmt.Errorf("%w: quantity must be an integer", ErrInvalidRequest)
		}
		req.Quantity = &n
	}
	if raw, ok := c.GetPostForm("paid_telegram"); ok {
		b := parseBool(raw)
		req.PaidTelegram = &b
	}
	if raw, ok := c.GetPostForm("date"); ok && raw != "" {
		date, err := parseDate(raw)
		if err != nil {
			return req, err
		}
		req.Date = &date
	}
	if raw, ok := c.GetPostForm("forwarder"); ok && raw != "" {
		id, err := parseSnowflake(raw)
		if err != nil {
			return req, err
		}
		req.ForwarderID = &id
	}
	if _, ok := c.GetPostFormArray("territories"); ok {
		ids, err := parseTerritories(c)
		if err != nil {
			return req, err
		}
		req.TerritoryIDs = ids
	}

	dec := func(field string) (*decimal.Decimal, error) {
		raw, ok := c.GetPostForm(field)
		if !ok || raw == "" {
			return nil, nil
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be a decimal", ErrInvalidRequest, field)
		}
		return &d, nil
	}
	var err error
	if req.Weight, err = dec("weight"); err != nil {
		return req, err
	}
	if req.AgreedRate, err = dec("agreed_rate"); err != nil {
		return req, err
	}
	if req.AddCharges, err = dec("add_charges"); err != nil {
		return req, err
	}
	return req, nil
}

func parseTerritories(c *gin.Context) ([]snowflake.ID, error) {
	raw := c.PostFormArray("territories")
	ids := make([]snowflake.ID, 0, len(raw))
	for _, r := range raw {
		if r == "" {
			continue
		}
		id, err := parseSnowflake(r)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseDate(raw string) (time.Time, error) {
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be formatted YYYY-MM-DD", ErrInvalidRequest)
	}
	return date, nil
}

func parseDecimal(c *gin.Context, field string) (decimal.Decimal, error) {
	raw := c.PostForm(field)
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s must be a decimal", ErrInvalidRequest, field)
	}
	return d, nil
}

func parseBool(raw string) bool {
	switch raw {
	case "true", "True", "1", "on", "yes":
		return true
	default:
		return false
	}
}
