package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mosinatet/commspec/internal/models"
	"github.com/mosinatet/commspec/internal/service"
	"github.com/mosinatet/commspec/pkg/util"
)

type scheduleRequest struct {
	Prompt    string   `json:"prompt" binding:"required"`
	Platforms []string `json:"platforms"`
}

func (s *Server) handleSchedulePost(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.Posts.Schedule(c.Request.Context(), req.Prompt, req.Platforms)
	if err != nil {
		s.Logger.Error("Failed to schedule post", zap.Error(err))
		switch {
		case errors.Is(err, service.ErrNoEvents):
			c.JSON(http.StatusNotFound, gin.H{"error": "no events available to post about"})
		case errors.Is(err, service.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to schedule post"})
		}
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (s *Server) handleListScheduled(c *gin.Context) {
	posts, err := s.Posts.ListScheduled(c.Request.Context())
	if err != nil {
		s.Logger.Error("Failed to list scheduled posts", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list posts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts, "count": len(posts)})
}

func (s *Server) handleGetPost(c *gin.Context) {
	post, err := s.Posts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
			return
		}
		s.Logger.Error("Failed to get post", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get post"})
		return
	}

	c.JSON(http.StatusOK, post)
}

func (s *Server) handleUpdatePost(c *gin.Context) {
	var req service.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := s.Posts.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		s.respondPostError(c, err, "Failed to update post")
		return
	}

	c.JSON(http.StatusOK, post)
}

func (s *Server) handleCancelPost(c *gin.Context) {
	post, err := s.Posts.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondPostError(c, err, "Failed to cancel post")
		return
	}

	c.JSON(http.StatusOK, post)
}

// handleStartMonitoring manually arms comment monitoring for a published
// post, for posts whose automatic window already expired.
func (s *Server) handleStartMonitoring(c *gin.Context) {
	post, err := s.Posts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondPostError(c, err, "Failed to get post")
		return
	}
	if post.Status != models.PostStatusPublished || post.PlatformPostID == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "post is not published"})
		return
	}

	s.Comments.Start(post.PostID, post.Platform)
	c.JSON(http.StatusAccepted, gin.H{
		"message":  "monitoring started",
		"post_id":  post.PostID,
		"platform": post.Platform,
	})
}

func (s *Server) handlePendingComments(c *gin.Context) {
	comments, err := s.Comments.ListPending(c.Request.Context())
	if err != nil {
		s.Logger.Error("Failed to list pending comments", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list comments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"comments": comments, "count": len(comments)})
}

func (s *Server) handleCommentStats(c *gin.Context) {
	stats, err := s.Audit.CommentStats(c.Request.Context())
	if err != nil {
		s.Logger.Error("Failed to get comment stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleListEvents(c *gin.Context) {
	events, err := s.store.ListEvents(c.Request.Context())
	if err != nil {
		s.Logger.Error("Failed to list events", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list events"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}

func (s *Server) handleListPlatforms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"platforms": s.Platforms.Available()})
}

type templateRequest struct {
	TriggerType  string `json:"trigger_type" binding:"required"`
	KeywordMatch string `json:"keyword_match"`
	ResponseText string `json:"response_text" binding:"required"`
}

func (s *Server) handleListTemplates(c *gin.Context) {
	templates, err := s.store.ListTemplates(c.Request.Context())
	if err != nil {
		s.Logger.Error("Failed to list response templates", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list templates"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"responses": templates, "count": len(templates)})
}

func (s *Server) handleCreateTemplate(c *gin.Context) {
	var req templateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tpl := &models.ResponseTemplate{
		ResponseID:   util.NewResponseID(),
		TriggerType:  req.TriggerType,
		KeywordMatch: req.KeywordMatch,
		ResponseText: req.ResponseText,
	}
	if err := s.store.CreateTemplate(c.Request.Context(), tpl); err != nil {
		s.Logger.Error("Failed to create response template", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create template"})
		return
	}

	c.JSON(http.StatusCreated, tpl)
}

func (s *Server) handleStats(c *gin.Context) {
	counts, err := s.Audit.PostStatusCounts(c.Request.Context())
	if err != nil {
		s.Logger.Error("Failed to get post stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":       counts,
		"active_jobs": s.Scheduler.Len(),
	})
}

func (s *Server) respondPostError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
	case errors.Is(err, service.ErrPostTerminal):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		s.Logger.Error(msg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}
