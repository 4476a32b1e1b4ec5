package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"github.com/wanderlust-dev/wanderlust/internal/live"
	"github.com/wanderlust-dev/wanderlust/internal/models"
	"github.com/wanderlust-dev/wanderlust/internal/tasks"
)

// CreateMessageRequest is a "Get In Touch" submission
type CreateMessageRequest struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"omitempty,phone"`
	Subject string `json:"subject" validate:"max=200"`
	Message string `json:"message" validate:"required,max=5000"`
}

// UpdateMessageStatusRequest moves a message through the inbox workflow
type UpdateMessageStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=unread read replied"`
}

func (s *Server) findMessage(c *gin.Context) (*models.Message, bool) {
	var msg models.Message
	if err := models.FindByID(s.db, c.Param("id"), &msg); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondFail(c, http.StatusNotFound, "Message not found")
			return nil, false
		}
		s.logger.Error().Err(err).Msg("Failed to find message")
		respondFail(c, http.StatusInternalServerError, "Internal server error")
		return nil, false
	}
	return &msg, true
}

// @Summary Submit contact message
// @Tags messages
// @Accept json
// @Produce json
// @Param request body CreateMessageRequest true "Message"
// @Success 201 {object} Envelope
// @Router /api/messages [post]
func (s *Server) createMessage(c *gin.Context) {
	var req CreateMessageRequest
	if !s.bindJSON(c, &req) {
		return
	}

	msg := &models.Message{
		Name:    strings.TrimSpace(req.Name),
		Email:   normalizeEmail(req.Email),
		Phone:   strings.TrimSpace(req.Phone),
		Subject: strings.TrimSpace(req.Subject),
		Message: strings.TrimSpace(req.Message),
		Status:  models.MessageUnread,
	}
	if err := s.db.Create(msg).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to store message")
		respondFail(c, http.StatusInternalServerError, "Failed to send message")
		return
	}

	task, err := tasks.NewMessageNotifyTask(msg.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("message_id", msg.ID).Msg("Failed to create notify task")
	} else {
		s.enqueue(c.Request.Context(), task, asynq.MaxRetry(5), asynq.Timeout(time.Minute))
	}
	s.hub.Publish(live.EventMessageCreated, msg)

	s.logger.Info().Str("message_id", msg.ID).Str("email", msg.Email).Msg("Contact message received")
	respondOK(c, http.StatusCreated, "Message sent successfully! We'll get back to you soon.", msg)
}

// @Summary List contact messages
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param status query string false "unread, read or replied"
// @Param q query string false "Name, email or subject contains"
// @Success 200 {object} Envelope
// @Router /api/messages [get]
func (s *Server) listMessages(c *gin.Context) {
	query := s.db.Model(&models.Message{})
	if status := c.Query("status"); status != "" {
		if !models.ValidMessageStatus(status) {
			respondFail(c, http.StatusBadRequest, "Unknown message status")
			return
		}
		query = query.Where("status = ?", status)
	}
	if q := c.Query("q"); q != "" {
		like := "%" + q + "%"
		query = query.Where("name LIKE ? OR email LIKE ? OR subject LIKE ?", like, like, like)
	}

	messages := []models.Message{}
	pagination, err := paginate(c, query, "created_at DESC", &messages)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list messages")
		respondFail(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondList(c, messages, pagination)
}

func (s *Server) getMessage(c *gin.Context) {
	msg, ok := s.findMessage(c)
	if !ok {
		return
	}
	respondOK(c, http.StatusOK, "", msg)
}

func (s *Server) updateMessageStatus(c *gin.Context) {
	var req UpdateMessageStatusRequest
	if !s.bindJSON(c, &req) {
		return
	}
	msg, ok := s.findMessage(c)
	if !ok {
		return
	}

	if err := s.db.Model(msg).Update("status", req.Status).Error; err != nil {
		s.logger.Error().Err(err).Str("message_id", msg.ID).Msg("Failed to update message status")
		respondFail(c, http.StatusInternalServerError, "Failed to update message")
		return
	}
	msg.Status = req.Status

	respondOK(c, http.StatusOK, "Message updated", msg)
}

func (s *Server) deleteMessage(c *gin.Context) {
	msg, ok := s.findMessage(c)
	if !ok {
		return
	}

	if err := s.db.Delete(msg).Error; err != nil {
		s.logger.Error().Err(err).Str("message_id", msg.ID).Msg("Failed to delete message")
		respondFail(c, http.StatusInternalServerError, "Failed to delete message")
		return
	}

	respondOK(c, http.StatusOK, "Message deleted", gin.H{"id": msg.ID})
}
