package server

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const (
	defaultPageLimit = 12
	maxPageLimit     = 100

	// keeps (page-1)*limit inside int32 on every platform
	maxPage = math.MaxInt32 / maxPageLimit
)

// Envelope is the body of every API response
type Envelope struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Pagination describes one page of a list response
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

func respondOK(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Envelope{Success: true, Message: message, Data: data})
}

func respondList(c *gin.Context, data interface{}, p *Pagination) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data, Pagination: p})
}

func respondFail(c *gin.Context, status int, message string) {
	c.JSON(status, Envelope{Success: false, Message: message})
}

func respondWithError(c *gin.Context, log zerolog.Logger, statusCode int, err error, message string) {
	log.Warn().Err(err).Msg(message)
	c.AbortWithStatusJSON(statusCode, Envelope{Success: false, Message: message})
}

// pageParams reads ?page= and ?limit= with defaults and bounds applied
func pageParams(c *gin.Context) (page, limit int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}
	limit, err = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageLimit)))
	if err != nil || limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}

// paginate counts query, then loads the requested page into dest
func paginate(c *gin.Context, query *gorm.DB, order string, dest interface{}) (*Pagination, error) {
	page, limit := pageParams(c)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, err
	}
	if err := query.Session(&gorm.Session{}).Order(order).Offset((page - 1) * limit).Limit(limit).Find(dest).Error; err != nil {
		return nil, err
	}

	return &Pagination{
		Page:  page,
		Limit: limit,
		Total: total,
		Pages: int(math.Ceil(float64(total) / float64(limit))),
	}, nil
}
